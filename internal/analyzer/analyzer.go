// Package analyzer infers the access modes and the value coverage of all
// registers and fields of a device layout.
package analyzer

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/fanout"
	"github.com/retroenv/retrosvd/internal/layout"
)

// Model is the analyzed device.
type Model struct {
	Device      *device.Device
	Peripherals []*PeripheralModel // in declaration order
	Shapes      []*Shape           // indexed by shape ID
	Interrupts  []*device.Interrupt
	Warnings    []string
}

// PeripheralModel is an analyzed register block.
type PeripheralModel struct {
	Block     *layout.Block
	Registers []*RegisterModel // in address order
}

// RegisterModel is an analyzed register.
type RegisterModel struct {
	Register *device.Register
	Path     string
	Address  uint64
	Access   device.Access // effective access of the register accessors
	Reset    uint64        // reset value with the reset mask applied
	Fields   []*FieldModel // in bit offset order
}

// FieldModel is an analyzed field.
type FieldModel struct {
	Field  *device.Field
	Path   string
	Access device.Access // effective access of the field
	Mask   uint64        // mask of the field at its register position
	Reset  uint64        // field value after reset

	Read  *Direction // nil if the field is not readable
	Write *Direction // nil if the field is not writable
}

// Direction describes the value domain of one access direction of a field.
type Direction struct {
	Coverage device.Coverage
	Shape    *Shape // nil for raw bits
	// RawSafe is set when every raw bit pattern is a named value, only then
	// raw writes are checked.
	RawSafe bool
}

// Analyzer analyzes a device layout.
type Analyzer struct {
	logger *log.Logger
}

// New creates a new analyzer.
func New(logger *log.Logger) *Analyzer {
	return &Analyzer{
		logger: logger,
	}
}

type peripheralResult struct {
	model    *PeripheralModel
	warnings []string
}

// Analyze infers the effective access modes, value coverage and enumerated
// value shapes of all fields.
func (a *Analyzer) Analyze(ctx context.Context, l *layout.Layout) (*Model, error) {
	results, err := fanout.Map(ctx, l.Blocks, func(_ context.Context, block *layout.Block) (peripheralResult, error) {
		return analyzePeripheral(block)
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing access: %w", err)
	}

	model := &Model{
		Device:     l.Device,
		Interrupts: l.Device.Interrupts,
	}
	registry := newShapeRegistry()

	for _, res := range results {
		model.Peripherals = append(model.Peripherals, res.model)
		model.Warnings = append(model.Warnings, res.warnings...)

		for _, r := range res.model.Registers {
			for _, f := range r.Fields {
				internDirection(registry, f.Read, f.Path)
				internDirection(registry, f.Write, f.Path)
			}
		}
	}
	model.Shapes = registry.shapes

	for _, warning := range model.Warnings {
		a.logger.Warn(warning)
	}
	a.logger.Debug("Analyzed device",
		log.Int("peripherals", len(model.Peripherals)),
		log.Int("shapes", len(model.Shapes)))
	return model, nil
}

func internDirection(registry *shapeRegistry, d *Direction, owner string) {
	if d == nil || d.Shape == nil {
		return
	}
	d.Shape = registry.intern(d.Shape, owner)
}

func analyzePeripheral(block *layout.Block) (peripheralResult, error) {
	res := peripheralResult{
		model: &PeripheralModel{Block: block},
	}

	for _, item := range block.Registers() {
		r := item.Register
		path := device.Path(block.Peripheral.Name, r.Name)

		rm := &RegisterModel{
			Register: r,
			Path:     path,
			Address:  block.Address(item),
			Access:   InferRegisterAccess(r),
			Reset:    r.ResetValue & r.ResetMask,
		}

		if contradicts(r) {
			res.warnings = append(res.warnings, fmt.Sprintf(
				"register %s is declared %s but no field shares an access direction with it",
				path, r.Access))
		}

		for _, f := range sortedFields(r) {
			fm, err := analyzeField(rm, f)
			if err != nil {
				return res, err
			}
			rm.Fields = append(rm.Fields, fm)
		}

		res.model.Registers = append(res.model.Registers, rm)
	}
	return res, nil
}

func analyzeField(r *RegisterModel, f *device.Field) (*FieldModel, error) {
	path := device.Path(r.Path, f.Name)
	scope := "field " + path

	access := fieldAccess(f, r.Access)
	fm := &FieldModel{
		Field:  f,
		Path:   path,
		Access: access,
		Mask:   device.Mask(f.BitWidth) << f.BitOffset,
		Reset:  device.Extract(r.Reset, f.BitOffset, f.BitWidth),
	}

	for _, s := range [...]*device.EnumSet{f.Read, f.Write} {
		if err := checkValues(f.BitWidth, s, scope); err != nil {
			return nil, err
		}
	}

	readable := access.CanRead() && r.Access.CanRead()
	writable := access.CanWrite() && r.Access.CanWrite()

	// a set shared by both directions of a read-write field yields a
	// single shape
	shared := readable && writable && f.Read == f.Write && !f.Read.Empty()
	if shared {
		d := newDirection(f.BitWidth, device.AccessReadWrite, f.Read)
		fm.Read = d
		fm.Write = &Direction{Coverage: d.Coverage, Shape: d.Shape, RawSafe: d.RawSafe}
		return fm, nil
	}

	if readable {
		fm.Read = newDirection(f.BitWidth, device.AccessRead, f.Read)
	}
	if writable {
		fm.Write = newDirection(f.BitWidth, device.AccessWrite, f.Write)
	}
	return fm, nil
}

func newDirection(width uint, access device.Access, s *device.EnumSet) *Direction {
	coverage := Coverage(width, s)
	d := &Direction{
		Coverage: coverage,
		RawSafe:  coverage == device.CoverageExhaustive,
	}
	if coverage != device.CoverageNone {
		d.Shape = newShape(width, access, s, coverage)
	}
	return d
}

func sortedFields(r *device.Register) []*device.Field {
	fields := slices.Clone(r.Fields)
	slices.SortStableFunc(fields, func(a, b *device.Field) int {
		return cmp.Compare(a.BitOffset, b.BitOffset)
	})
	return fields
}
