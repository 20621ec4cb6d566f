// Package tree defines the minimal node walk interface the model builder
// reads a hardware description through, and an XML implementation of it.
package tree

// Node is an element of a parsed description document.
type Node interface {
	// Name returns the element name.
	Name() string
	// Children returns the child elements in document order.
	Children() []Node
	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)
	// Text returns the trimmed text content of the element.
	Text() string
}

// Child returns the first child element with the given name.
func Child(n Node, name string) (Node, bool) {
	for _, c := range n.Children() {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// ChildText returns the text of the first child element with the given name.
func ChildText(n Node, name string) (string, bool) {
	c, ok := Child(n, name)
	if !ok {
		return "", false
	}
	return c.Text(), true
}

// ChildrenNamed returns all child elements with the given name.
func ChildrenNamed(n Node, name string) []Node {
	var nodes []Node
	for _, c := range n.Children() {
		if c.Name() == name {
			nodes = append(nodes, c)
		}
	}
	return nodes
}
