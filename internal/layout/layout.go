// Package layout computes the memory layout of the register blocks of a
// resolved device.
package layout

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/fanout"
)

// Layout is the memory layout of all peripherals of a device.
type Layout struct {
	Device *device.Device // registers of every peripheral sorted by offset
	Blocks []*Block       // in peripheral declaration order
}

// Block is the register block of a peripheral.
type Block struct {
	Peripheral *device.Peripheral
	Items      []Item // registers and padding in address order
	Size       uint64 // byte size of the block
}

// Item is either a register or a padding gap of a register block.
type Item struct {
	Register *device.Register // nil for padding
	Offset   uint64
	Size     uint64
}

// IsPadding returns whether the item is a gap between registers.
func (i Item) IsPadding() bool {
	return i.Register == nil
}

// Address returns the absolute address of the item.
func (b *Block) Address(i Item) uint64 {
	return b.Peripheral.BaseAddress + i.Offset
}

// Registers returns the register items of the block.
func (b *Block) Registers() []Item {
	var items []Item
	for _, item := range b.Items {
		if !item.IsPadding() {
			items = append(items, item)
		}
	}
	return items
}

// Engine computes the layout of a device.
type Engine struct {
	logger *log.Logger
}

// New creates a new layout engine.
func New(logger *log.Logger) *Engine {
	return &Engine{
		logger: logger,
	}
}

// Compute arranges the registers of every peripheral. The device must not
// contain derivation references.
func (e *Engine) Compute(ctx context.Context, dev *device.Device) (*Layout, error) {
	blocks, err := fanout.Map(ctx, dev.Peripherals, func(_ context.Context, p *device.Peripheral) (*Block, error) {
		return Arrange(p)
	})
	if err != nil {
		return nil, fmt.Errorf("computing layout: %w", err)
	}

	res := dev.Clone()
	for i, block := range blocks {
		res.Peripherals[i] = block.Peripheral
		e.logger.Debug("Arranged register block",
			log.String("peripheral", block.Peripheral.Name),
			log.Int("items", len(block.Items)),
			log.String("size", fmt.Sprintf("0x%X", block.Size)))
	}

	return &Layout{
		Device: res,
		Blocks: blocks,
	}, nil
}

// Arrange returns the register block of a copy of the peripheral, with the
// registers ordered by offset and the gaps between them as padding.
func Arrange(p *device.Peripheral) (*Block, error) {
	if p.DerivedFrom != "" {
		panic(fmt.Sprintf("peripheral %s derivation is not resolved", p.Name))
	}

	res := p.Clone()
	slices.SortStableFunc(res.Registers, func(a, b *device.Register) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	scope := "peripheral " + p.Name
	block := &Block{Peripheral: res}

	var end uint64
	var previous *device.Register
	for _, r := range res.Registers {
		if previous != nil && r.Offset < end {
			return nil, &device.OverlapError{
				Scope:      scope,
				Name:       r.Name,
				Other:      previous.Name,
				Unit:       "byte",
				Start:      r.Offset,
				End:        r.End(),
				OtherStart: previous.Offset,
				OtherEnd:   previous.End(),
			}
		}
		if err := checkFields(r, device.Path(p.Name, r.Name)); err != nil {
			return nil, err
		}

		if r.Offset > end {
			block.Items = append(block.Items, Item{Offset: end, Size: r.Offset - end})
		}
		block.Items = append(block.Items, Item{Register: r, Offset: r.Offset, Size: r.ByteSize()})
		end = r.End()
		previous = r
	}

	if p.BlockSize > end {
		block.Items = append(block.Items, Item{Offset: end, Size: p.BlockSize - end})
		end = p.BlockSize
	}
	block.Size = end
	return block, nil
}

// checkFields validates that all fields fit into the register and do not
// overlap each other.
func checkFields(r *device.Register, path string) error {
	scope := "register " + path

	fields := slices.Clone(r.Fields)
	slices.SortStableFunc(fields, func(a, b *device.Field) int {
		return cmp.Compare(a.BitOffset, b.BitOffset)
	})

	var widest *device.Field // field reaching the highest bit so far
	for _, f := range fields {
		end := f.BitOffset + f.BitWidth
		if end > r.Width {
			return &device.OutOfRangeError{
				Scope: scope,
				Name:  f.Name,
				Value: uint64(end),
				Limit: uint64(r.Width),
			}
		}

		if widest != nil && f.BitOffset < widest.BitOffset+widest.BitWidth {
			return &device.OverlapError{
				Scope:      scope,
				Name:       f.Name,
				Other:      widest.Name,
				Unit:       "bit",
				Start:      uint64(f.BitOffset),
				End:        uint64(end),
				OtherStart: uint64(widest.BitOffset),
				OtherEnd:   uint64(widest.BitOffset + widest.BitWidth),
			}
		}
		if widest == nil || end > widest.BitOffset+widest.BitWidth {
			widest = f
		}
	}
	return nil
}
