// Package emitter converts an analyzed device model into the register API
// description.
package emitter

import (
	"fmt"

	"github.com/retroenv/retrosvd/internal/analyzer"
	"github.com/retroenv/retrosvd/internal/api"
	"github.com/retroenv/retrosvd/internal/device"
)

// Emit returns the register API of the analyzed model. The model is expected
// to be valid, an inconsistency is a programming error and panics.
func Emit(model *analyzer.Model) *api.Output {
	out := &api.Output{
		Device:      model.Device.Name,
		Description: model.Device.Description,
	}

	for i, shape := range model.Shapes {
		if shape.ID != i {
			panic(fmt.Sprintf("shape %s has id %d at index %d", shape.Key, shape.ID, i))
		}
		out.Enums = append(out.Enums, emitEnum(shape))
	}

	sizes := make(map[string]uint64, len(model.Peripherals))
	for _, pm := range model.Peripherals {
		sizes[pm.Block.Peripheral.Name] = pm.Block.Size
	}

	for _, pm := range model.Peripherals {
		out.Peripherals = append(out.Peripherals, emitPeripheral(out, pm, sizes))
	}

	previous := -1
	for _, irq := range model.Interrupts {
		if irq.Value <= previous {
			panic(fmt.Sprintf("interrupt %s number %d is not ascending", irq.Name, irq.Value))
		}
		previous = irq.Value

		out.Interrupts = append(out.Interrupts, &api.Interrupt{
			Name:        irq.Name,
			Description: irq.Description,
			Peripheral:  irq.Peripheral,
			Value:       irq.Value,
		})
	}
	return out
}

func emitEnum(shape *analyzer.Shape) *api.Enum {
	e := &api.Enum{
		ID:         shape.ID,
		Name:       shape.Name,
		Owner:      shape.Owner,
		Width:      shape.Width,
		Access:     shape.Access,
		Exhaustive: shape.Coverage == device.CoverageExhaustive,
	}
	for _, v := range shape.Variants {
		e.Variants = append(e.Variants, &api.Variant{
			Name:        v.Name,
			Description: v.Description,
			Value:       v.Value(),
			Values:      v.Values,
			IsDefault:   v.IsDefault,
		})
	}
	return e
}

func emitPeripheral(out *api.Output, pm *analyzer.PeripheralModel, sizes map[string]uint64) *api.Peripheral {
	block := pm.Block
	p := block.Peripheral

	// a derived block is shared only while its size matches the origin
	blockType := p.Name
	if p.BlockOrigin != "" {
		if size, ok := sizes[p.BlockOrigin]; ok && size == block.Size {
			blockType = p.BlockOrigin
		}
	}

	res := &api.Peripheral{
		Name:        p.Name,
		Description: p.Description,
		GroupName:   p.GroupName,
		Size:        block.Size,
		Singleton: api.Singleton{
			Name:      p.Name,
			Address:   p.BaseAddress,
			BlockType: blockType,
		},
	}

	registers := pm.Registers
	for _, item := range block.Items {
		if item.IsPadding() {
			res.Items = append(res.Items, api.Item{Offset: item.Offset, Size: item.Size})
			continue
		}

		if len(registers) == 0 || registers[0].Register != item.Register {
			panic(fmt.Sprintf("register %s of peripheral %s has no analysis", item.Register.Name, p.Name))
		}
		rm := registers[0]
		registers = registers[1:]

		res.Items = append(res.Items, api.Item{
			Offset:   item.Offset,
			Size:     item.Size,
			Register: emitRegister(out, rm),
		})
	}
	return res
}

func emitRegister(out *api.Output, rm *analyzer.RegisterModel) *api.Register {
	r := rm.Register
	res := &api.Register{
		Name:        r.Name,
		Description: r.Description,
		Offset:      r.Offset,
		Address:     rm.Address,
		Width:       r.Width,
		Reset:       rm.Reset,
		Access:      rm.Access,
		Fields:      len(r.Fields),
	}

	for _, fm := range rm.Fields {
		f := fm.Field
		if fm.Read != nil && res.HasRead() {
			res.ReadFields = append(res.ReadFields, &api.FieldRead{
				Name:        f.Name,
				Description: f.Description,
				Offset:      f.BitOffset,
				Width:       f.BitWidth,
				Enum:        enumOf(out, fm.Read.Shape),
				Unmatched:   fm.Read.Coverage == device.CoveragePartial,
			})
		}
		if fm.Write != nil && res.HasWrite() {
			res.WriteFields = append(res.WriteFields, &api.FieldWrite{
				Name:        f.Name,
				Description: f.Description,
				Offset:      f.BitOffset,
				Width:       f.BitWidth,
				Enum:        enumOf(out, fm.Write.Shape),
				RawSafe:     fm.Write.RawSafe,
			})
		}
	}
	return res
}

func enumOf(out *api.Output, shape *analyzer.Shape) *api.Enum {
	if shape == nil {
		return nil
	}
	if shape.ID >= len(out.Enums) {
		panic(fmt.Sprintf("shape %s is not registered", shape.Key))
	}
	return out.Enums[shape.ID]
}
