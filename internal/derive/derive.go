// Package derive resolves derivedFrom references of peripherals and
// enumerated value sets into fully materialized copies.
package derive

import (
	"context"
	"fmt"
	"slices"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/fanout"
)

// Resolver resolves all derivation references of a device.
type Resolver struct {
	logger *log.Logger
}

// New creates a new derivation resolver.
func New(logger *log.Logger) *Resolver {
	return &Resolver{
		logger: logger,
	}
}

// Resolve returns a copy of the device without any derivedFrom reference.
// Every peripheral owns its register set, derived registers keep their
// relative offsets so absolute addresses follow the deriving base address.
func (r *Resolver) Resolve(ctx context.Context, dev *device.Device) (*device.Device, error) {
	byName := make(map[string]*device.Peripheral, len(dev.Peripherals))
	for _, p := range dev.Peripherals {
		byName[p.Name] = p
	}

	peripherals, err := fanout.Map(ctx, dev.Peripherals, func(_ context.Context, p *device.Peripheral) (*device.Peripheral, error) {
		return resolvePeripheral(p, byName, []string{p.Name})
	})
	if err != nil {
		return nil, fmt.Errorf("resolving peripherals: %w", err)
	}

	res := dev.Clone()
	res.Peripherals = peripherals

	// enumerated value references may point into derived peripherals,
	// they are resolved against the peripheral resolved model
	enums := newEnumResolver(res)
	peripherals, err = fanout.Map(ctx, res.Peripherals, func(_ context.Context, p *device.Peripheral) (*device.Peripheral, error) {
		return enums.resolvePeripheral(p)
	})
	if err != nil {
		return nil, fmt.Errorf("resolving enumerated values: %w", err)
	}
	res.Peripherals = peripherals

	for _, p := range res.Peripherals {
		if p.BlockOrigin != "" {
			r.logger.Debug("Peripheral shares register block",
				log.String("peripheral", p.Name),
				log.String("origin", p.BlockOrigin))
		}
	}
	return res, nil
}

// resolvePeripheral returns a resolved copy of the peripheral. chain holds
// the names of the peripherals being resolved, starting with the first one.
func resolvePeripheral(p *device.Peripheral, byName map[string]*device.Peripheral,
	chain []string) (*device.Peripheral, error) {

	if p.DerivedFrom == "" {
		return p.Clone(), nil
	}

	if i := slices.Index(chain, p.DerivedFrom); i >= 0 {
		cycle := append(slices.Clone(chain[i:]), p.DerivedFrom)
		return nil, &device.CyclicDerivationError{Cycle: cycle}
	}

	src, ok := byName[p.DerivedFrom]
	if !ok {
		return nil, &device.UnresolvedReferenceError{
			Scope: "peripheral " + p.Name,
			Kind:  "peripheral",
			Name:  p.DerivedFrom,
		}
	}

	base, err := resolvePeripheral(src, byName, append(slices.Clone(chain), src.Name))
	if err != nil {
		return nil, err
	}

	res := p.Clone()
	res.DerivedFrom = ""
	res.Registers = mergeRegisters(base.Registers, res.Registers)
	if res.Description == "" {
		res.Description = base.Description
	}
	if res.GroupName == "" {
		res.GroupName = base.GroupName
	}
	if res.BlockSize == 0 {
		res.BlockSize = base.BlockSize
	}

	if len(p.Registers) == 0 {
		res.BlockOrigin = base.BlockOrigin
		if res.BlockOrigin == "" {
			res.BlockOrigin = base.Name
		}
	}
	return res, nil
}

// mergeRegisters applies the registers declared on a deriving peripheral to
// the copied register set. A register with a known name replaces fields
// matched by name and appends new ones, unknown registers are appended.
func mergeRegisters(copied, own []*device.Register) []*device.Register {
	registers := copied
	for _, reg := range own {
		i := slices.IndexFunc(registers, func(r *device.Register) bool {
			return r.Name == reg.Name
		})
		if i < 0 {
			registers = append(registers, reg)
			continue
		}

		target := registers[i]
		if reg.Description != "" {
			target.Description = reg.Description
		}
		for _, f := range reg.Fields {
			j := slices.IndexFunc(target.Fields, func(tf *device.Field) bool {
				return tf.Name == f.Name
			})
			if j < 0 {
				target.Fields = append(target.Fields, f)
			} else {
				target.Fields[j] = f
			}
		}
	}
	return registers
}
