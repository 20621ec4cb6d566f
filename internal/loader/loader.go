// Package loader handles hardware description file loading operations.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrosvd/internal/tree"
)

// Loader handles loading hardware description files from disk.
type Loader struct{}

// New creates a new description loader.
func New() *Loader {
	return &Loader{}
}

// Load opens and parses a hardware description file into its element tree.
func (l *Loader) Load(fileName string) (tree.Node, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", fileName, err)
	}
	defer func() { _ = file.Close() }()

	return l.LoadFromReader(file)
}

// LoadFromBytes parses an in memory hardware description.
// This is useful for testing and programmatic usage.
func (l *Loader) LoadFromBytes(data []byte) (tree.Node, error) {
	return l.LoadFromReader(bytes.NewReader(data))
}

// LoadFromReader parses a hardware description from a reader.
func (l *Loader) LoadFromReader(reader io.Reader) (tree.Node, error) {
	root, err := tree.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing description: %w", err)
	}
	return root, nil
}
