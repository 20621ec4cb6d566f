package tree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	xmlx "github.com/jteeuwen/go-pkg-xmlx"
)

var errNoRootElement = errors.New("document has no root element")

type xmlNode struct {
	node *xmlx.Node
}

// Parse reads an XML document and returns its root element.
func Parse(r io.Reader) (Node, error) {
	doc := xmlx.New()
	if err := doc.LoadStream(r, nil); err != nil {
		return nil, fmt.Errorf("parsing xml: %w", err)
	}
	if doc.Root == nil {
		return nil, errNoRootElement
	}

	for _, c := range doc.Root.Children {
		if c.Type == xmlx.NT_ELEMENT {
			return xmlNode{node: c}, nil
		}
	}
	return nil, errNoRootElement
}

func (n xmlNode) Name() string {
	return n.node.Name.Local
}

func (n xmlNode) Children() []Node {
	var nodes []Node
	for _, c := range n.node.Children {
		if c.Type == xmlx.NT_ELEMENT {
			nodes = append(nodes, xmlNode{node: c})
		}
	}
	return nodes
}

func (n xmlNode) Attr(name string) (string, bool) {
	if !n.node.HasAttr("", name) {
		return "", false
	}
	return n.node.As("", name), true
}

func (n xmlNode) Text() string {
	// character data of the element and its text children
	buf := &strings.Builder{}
	buf.WriteString(n.node.Value)
	for _, c := range n.node.Children {
		if c.Type == xmlx.NT_TEXT {
			buf.WriteString(c.Value)
		}
	}
	return strings.TrimSpace(buf.String())
}
