// Package pipeline orchestrates the register API generation stages.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/analyzer"
	"github.com/retroenv/retrosvd/internal/api"
	"github.com/retroenv/retrosvd/internal/builder"
	"github.com/retroenv/retrosvd/internal/config"
	"github.com/retroenv/retrosvd/internal/derive"
	"github.com/retroenv/retrosvd/internal/detector"
	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/emitter"
	"github.com/retroenv/retrosvd/internal/layout"
	"github.com/retroenv/retrosvd/internal/loader"
	"github.com/retroenv/retrosvd/internal/options"
	"github.com/retroenv/retrosvd/internal/tree"
	"github.com/retroenv/retrosvd/internal/verification"
	"github.com/retroenv/retrosvd/internal/writer"
)

// Pipeline orchestrates the complete generation workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
}

// New creates a new generation pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(),
	}
}

// Execute runs the complete generation pipeline for the input file of the
// options and writes the generated source to the writer.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, genOpts options.Generator,
	w io.Writer) (*api.Output, error) {

	root, err := p.loader.Load(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("loading description: %w", err)
	}

	return p.ExecuteWithTree(ctx, root, opts, genOpts, w)
}

// ExecuteWithTree runs the generation pipeline with a pre-loaded element tree.
// This is useful for testing and programmatic usage where the description is
// already in memory.
func (p *Pipeline) ExecuteWithTree(ctx context.Context, root tree.Node, opts options.Program,
	genOpts options.Generator, w io.Writer) (*api.Output, error) {

	out, dev, err := p.generate(ctx, root)
	if err != nil {
		return nil, err
	}

	genOpts.Target = p.detector.Detect(genOpts.Target, dev.CPU)
	genOpts.Package = config.PackageName(genOpts.Package, dev.Name)
	p.printInfo(opts, genOpts, out)

	source, err := writer.New(out, genOpts).Source()
	if err != nil {
		return nil, fmt.Errorf("rendering source: %w", err)
	}

	if opts.Verify {
		if err := verification.VerifyOutput(p.logger, source, out); err != nil {
			return nil, fmt.Errorf("verification failed: %w", err)
		}
		p.logger.Info("Verification successful")
	}

	if _, err := w.Write(source); err != nil {
		return nil, fmt.Errorf("writing source: %w", err)
	}
	return out, nil
}

// generate runs all model stages and returns the register API together with
// the device model as built from the description.
func (p *Pipeline) generate(ctx context.Context, root tree.Node) (*api.Output, *device.Device, error) {
	dev, err := builder.New(p.logger).Build(root)
	if err != nil {
		return nil, nil, fmt.Errorf("building device model: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("generation canceled: %w", err)
	}
	resolved, err := derive.New(p.logger).Resolve(ctx, dev)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving derivations: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("generation canceled: %w", err)
	}
	l, err := layout.New(p.logger).Compute(ctx, resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("computing layout: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("generation canceled: %w", err)
	}
	model, err := analyzer.New(p.logger).Analyze(ctx, l)
	if err != nil {
		return nil, nil, fmt.Errorf("analyzing device: %w", err)
	}

	return emitter.Emit(model), dev, nil
}

// printInfo prints information about the device being processed.
func (p *Pipeline) printInfo(opts options.Program, genOpts options.Generator, out *api.Output) {
	if opts.Quiet {
		return
	}

	p.logger.Info("Processing device",
		log.String("file", opts.Input),
		log.String("device", out.Device),
		log.Stringer("target", genOpts.Target),
		log.String("package", genOpts.Package),
		log.Int("peripherals", len(out.Peripherals)),
		log.Int("enums", len(out.Enums)),
		log.Int("interrupts", len(out.Interrupts)),
	)
}
