package builder

import (
	"math"

	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/symbols"
	"github.com/retroenv/retrosvd/internal/tree"
)

const (
	interruptScope     = "interrupt table"
	maxInterruptNumber = math.MaxInt32
)

// interruptTable collects the interrupts declared by all peripherals.
type interruptTable struct {
	byName   *symbols.Scope[*device.Interrupt]
	byNumber map[int]*device.Interrupt
}

func newInterruptTable() *interruptTable {
	return &interruptTable{
		byName:   symbols.New[*device.Interrupt](interruptScope),
		byNumber: make(map[int]*device.Interrupt),
	}
}

// add adds an interrupt to the table. Peripherals sharing a vector declare
// the same name and number, such a repeated declaration is recorded once.
func (t *interruptTable) add(irq *device.Interrupt) error {
	if existing, ok := t.byName.Get(irq.Name); ok {
		if existing.Value == irq.Value {
			return nil
		}
		return &device.DuplicateNameError{Scope: interruptScope, Name: irq.Name}
	}

	if existing, ok := t.byNumber[irq.Value]; ok {
		return &device.DuplicateInterruptNumberError{
			Number: irq.Value,
			Name:   irq.Name,
			Other:  existing.Name,
		}
	}

	if err := t.byName.Add(irq.Name, irq); err != nil {
		return err
	}
	t.byNumber[irq.Value] = irq
	return nil
}

// sorted returns the interrupts ordered by vector number.
func (t *interruptTable) sorted() []*device.Interrupt {
	return t.byName.SortedByUint64(func(irq *device.Interrupt) uint64 {
		return uint64(irq.Value)
	})
}

func readInterrupts(n tree.Node, peripheral string) ([]*device.Interrupt, error) {
	scope := "peripheral " + peripheral

	var irqs []*device.Interrupt
	for _, node := range tree.ChildrenNamed(n, "interrupt") {
		name, err := requireName(node, "interrupt in "+scope)
		if err != nil {
			return nil, err
		}

		literal, ok := tree.ChildText(node, "value")
		if !ok {
			return nil, &device.SyntaxError{Scope: scope, Element: "value", Err: errMissing}
		}
		value, err := ParseUint(literal)
		if err == nil && value > maxInterruptNumber {
			err = errIRQNumber
		}
		if err != nil {
			return nil, &device.SyntaxError{Scope: scope, Element: "value", Value: literal, Err: err}
		}

		irqs = append(irqs, &device.Interrupt{
			Name:        name,
			Description: description(node),
			Peripheral:  peripheral,
			Value:       int(value),
		})
	}
	return irqs, nil
}
