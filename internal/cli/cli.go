// Package cli handles command line interface logic
package cli

import (
	"errors"
	"flag"
	"fmt"
	"go/token"
	"os"
	"strings"

	"github.com/retroenv/retrosvd/internal/arch"
	"github.com/retroenv/retrosvd/internal/options"
)

// ParseFlags parses command line flags and returns program and generator options
func ParseFlags() (options.Program, options.Generator, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "" && opts.Batch == "") {
		return opts, options.Generator{}, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, options.Generator{}, err
	}

	target, err := normalizeOptions(&opts)
	if err != nil {
		return opts, options.Generator{}, err
	}

	if opts.Input == "" && opts.Batch == "" {
		opts.Input = args[0]
	}

	genOptions := createGeneratorOptions(opts, target)
	if err := validateOptionCombinations(opts, genOptions); err != nil {
		return opts, options.Generator{}, err
	}

	return opts, genOptions, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: retrosvd [options] <file to generate the register API for>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && strings.HasPrefix(arg, "-") {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after input file, please pass the input file as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) (arch.Target, error) {
	target, err := arch.TargetFromString(opts.Target)
	if err != nil {
		valid := make([]string, 0, len(arch.Targets()))
		for _, t := range arch.Targets() {
			valid = append(valid, t.String())
		}
		return "", fmt.Errorf("%w. Valid options: %s", err, strings.Join(valid, ", "))
	}
	opts.Target = target.String()

	opts.Package = strings.ToLower(strings.TrimSpace(opts.Package))
	if opts.Package != "" && !token.IsIdentifier(opts.Package) {
		return "", fmt.Errorf("invalid package name '%s'", opts.Package)
	}
	return target, nil
}

// createGeneratorOptions creates generator options based on program options
func createGeneratorOptions(opts options.Program, target arch.Target) options.Generator {
	genOptions := options.NewGenerator(opts.Package, target)
	genOptions.Descriptions = !opts.NoDescriptions
	return genOptions
}

// validateOptionCombinations checks for options that can not be combined
func validateOptionCombinations(opts options.Program, genOpts options.Generator) error {
	if opts.Batch != "" && opts.Input != "" {
		return errors.New("the -batch and -i options can not be combined")
	}
	if opts.Batch != "" && genOpts.Package != "" {
		return errors.New("the -pkg option can not be used in batch mode, package names are derived per device")
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input .svd file")
	flags.StringVar(&opts.Output, "o", "", "name of the output .go file, printed on console if no name given")
	flags.StringVar(&opts.Batch, "batch", "", "process a batch of given path and file mask and automatically .go file naming, for example *.svd")
	flags.StringVar(&opts.Target, "target", "", "architecture target (none, cortex-m, msp430, riscv) - if not auto-detected from the device cpu")
	flags.StringVar(&opts.Package, "pkg", "", "package name of the generated code, defaults to the lower case device name")
	flags.BoolVar(&opts.NoDescriptions, "nodescriptions", false, "do not output descriptions as comments")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
	flags.BoolVar(&opts.Verify, "verify", false, "verify the generated output by parsing it and checking the register block layout")
}
