// Package verification verifies that the generated source is consistent
// with the register API it was rendered from.
package verification

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/api"
	"github.com/retroenv/retrosvd/internal/device"
)

// VerifyOutput verifies that the source parses as Go, declares a take once
// handle for every peripheral and that the register API itself is
// consistent.
func VerifyOutput(logger *log.Logger, source []byte, out *api.Output) error {
	file, err := parser.ParseFile(token.NewFileSet(), out.Device+".go", source, parser.SkipObjectResolution)
	if err != nil {
		return fmt.Errorf("parsing generated source: %w", err)
	}

	var handles int
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Recv == nil && strings.HasPrefix(fn.Name.Name, "Take") {
			handles++
		}
	}
	if handles != len(out.Peripherals) {
		return fmt.Errorf("generated source declares %d peripheral handles, expected %d",
			handles, len(out.Peripherals))
	}

	c := &checker{logger: logger}
	if err := api.Walk(out, c); err != nil {
		return err
	}
	c.finishPeripheral()

	if c.mismatches > 0 {
		return fmt.Errorf("%d register API inconsistencies", c.mismatches)
	}
	return nil
}

// checker is a visitor that logs every inconsistency of the register API.
type checker struct {
	logger     *log.Logger
	mismatches int

	enums      int
	peripheral *api.Peripheral
	next       uint64 // expected offset of the next item
	interrupt  *api.Interrupt
}

func (c *checker) Enum(e *api.Enum) error {
	if e.ID != c.enums {
		c.mismatches++
		c.logger.Error("Enum id mismatch", log.String("owner", e.Owner), log.Int("id", e.ID), log.Int("index", c.enums))
	}
	c.enums++

	for i, v := range e.Variants {
		if v.IsDefault && i != len(e.Variants)-1 {
			c.mismatches++
			c.logger.Error("Default variant is not last", log.String("owner", e.Owner), log.String("variant", v.Name))
		}
		if v.Value > device.Mask(e.Width) {
			c.mismatches++
			c.logger.Error("Variant value exceeds enum width", log.String("owner", e.Owner), log.String("variant", v.Name))
		}
		if i > 0 && !v.IsDefault && v.Value < e.Variants[i-1].Value {
			c.mismatches++
			c.logger.Error("Variants are not sorted", log.String("owner", e.Owner), log.String("variant", v.Name))
		}
	}
	return nil
}

func (c *checker) Peripheral(p *api.Peripheral) error {
	c.finishPeripheral()
	c.peripheral = p
	c.next = 0
	return nil
}

// finishPeripheral checks that the items of the last visited peripheral
// span the whole register block.
func (c *checker) finishPeripheral() {
	if c.peripheral == nil {
		return
	}
	if c.next != c.peripheral.Size {
		c.mismatches++
		c.logger.Error("Register block size mismatch", log.String("peripheral", c.peripheral.Name),
			log.Hex("size", c.peripheral.Size), log.Hex("items", c.next))
	}
	c.peripheral = nil
}

func (c *checker) Item(p *api.Peripheral, item api.Item) error {
	if item.Offset != c.next {
		c.mismatches++
		c.logger.Error("Register block item is not contiguous", log.String("peripheral", p.Name),
			log.Hex("offset", item.Offset), log.Hex("expected", c.next))
	}
	c.next = item.Offset + item.Size

	r := item.Register
	if r == nil {
		return nil
	}
	if uint64(r.Width/8) != item.Size {
		c.mismatches++
		c.logger.Error("Register size mismatch", log.String("register", p.Name+"."+r.Name),
			log.Hex("size", item.Size))
	}
	if r.Address != p.Singleton.Address+r.Offset {
		c.mismatches++
		c.logger.Error("Register address mismatch", log.String("register", p.Name+"."+r.Name))
	}
	for _, f := range r.ReadFields {
		if f.Offset+f.Width > r.Width {
			c.mismatches++
			c.logger.Error("Read field exceeds register width", log.String("field", p.Name+"."+r.Name+"."+f.Name))
		}
	}
	for _, f := range r.WriteFields {
		if f.Offset+f.Width > r.Width {
			c.mismatches++
			c.logger.Error("Write field exceeds register width", log.String("field", p.Name+"."+r.Name+"."+f.Name))
		}
	}
	return nil
}

func (c *checker) Interrupt(irq *api.Interrupt) error {
	if c.interrupt != nil && irq.Value <= c.interrupt.Value {
		c.mismatches++
		c.logger.Error("Interrupt numbers are not ascending", log.String("interrupt", irq.Name),
			log.Int("number", irq.Value), log.String("previous", c.interrupt.Name))
	}
	c.interrupt = irq
	return nil
}
