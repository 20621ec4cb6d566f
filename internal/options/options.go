// Package options contains the program options.
package options

import (
	"strings"

	"github.com/retroenv/retrosvd/internal/arch"
)

// Parameters contains file path options.
type Parameters struct {
	Input  string `flag:"i" usage:"input .svd file"`
	Output string `flag:"o" usage:"output .go file (default: stdout)"`
	Batch  string `flag:"batch" usage:"batch process files matching pattern (e.g. *.svd)"`
}

// Flags contains behavior options.
type Flags struct {
	Target  string `flag:"target" usage:"architecture target: none, cortex-m, msp430, riscv (default: auto-detect)"`
	Package string `flag:"pkg" usage:"package name of the generated code (default: device name)"`
	Verify  bool   `flag:"verify" usage:"verify the generated source"`
	Debug   bool   `flag:"debug" usage:"enable debug logging"`
	Quiet   bool   `flag:"q" usage:"quiet mode"`
}

// OutputFlags contains output formatting options.
type OutputFlags struct {
	NoDescriptions bool `flag:"nodescriptions" usage:"omit description comments"`
}

// Program options of the generator.
type Program struct {
	Parameters
	Flags
	OutputFlags
}

// Generator defines options to control the register API generation.
type Generator struct {
	Package      string      // package name of the generated code
	Target       arch.Target // architecture target, empty to detect from the device
	Descriptions bool        // output description comments
}

// NewGenerator returns a new options instance with default options.
func NewGenerator(packageName string, target arch.Target) Generator {
	return Generator{
		Package:      strings.ToLower(packageName),
		Target:       target,
		Descriptions: true,
	}
}
