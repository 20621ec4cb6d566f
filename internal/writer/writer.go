// Package writer renders the register API of a device as Go source code.
package writer

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"io"
	"strings"

	"github.com/retroenv/retrosvd/internal/api"
	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/options"
)

var errUnaligned = errors.New("register is not aligned to its size")

// Writer renders the register API of a device.
type Writer struct {
	out     *api.Output
	options options.Generator
	buf     *bytes.Buffer
	names   *names
}

// names contains the identifiers of all generated declarations.
type names struct {
	blocks    map[string]string // block type by peripheral name
	take      map[string]string
	steal     map[string]string
	registers map[*api.Register]*registerNames
	enums     []string // by enum ID
	variants  map[*api.Variant]string // constant of a variant
	is        map[*api.Variant]string // decode method of a variant
	irqs      []string
	irqMax    string
}

type registerNames struct {
	field string // struct field in the register block
	typ   string
	read  string
	write string
}

// New returns a new writer for the register API.
func New(out *api.Output, options options.Generator) *Writer {
	return &Writer{
		out:     out,
		options: options,
		buf:     &bytes.Buffer{},
	}
}

// Write renders the register API as formatted Go source to the writer.
func (w *Writer) Write(writer io.Writer) error {
	source, err := w.Source()
	if err != nil {
		return err
	}
	if _, err := writer.Write(source); err != nil {
		return fmt.Errorf("writing source: %w", err)
	}
	return nil
}

// Source renders the register API and returns the formatted Go source.
func (w *Writer) Source() ([]byte, error) {
	w.buf.Reset()
	if err := w.checkAlignment(); err != nil {
		return nil, err
	}
	w.names = w.assignNames()

	w.writeHeader()
	for _, e := range w.out.Enums {
		w.writeEnum(e)
	}
	for _, p := range w.out.Peripherals {
		if p.Singleton.BlockType == p.Name {
			w.writeBlock(p)
		}
	}
	w.writeSingletons()
	w.writeInterrupts()

	source, err := format.Source(w.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting source: %w", err)
	}
	return source, nil
}

// checkAlignment verifies that the register block structs can be laid out
// by the compiler without implicit padding.
func (w *Writer) checkAlignment() error {
	for _, p := range w.out.Peripherals {
		for _, item := range p.Items {
			if item.IsPadding() || item.Offset%item.Size == 0 {
				continue
			}
			return fmt.Errorf("%w: %s.%s at offset 0x%X with size %d",
				errUnaligned, p.Name, item.Register.Name, item.Offset, item.Size)
		}
	}
	return nil
}

func (w *Writer) assignNames() *names {
	global := newScope()
	n := &names{
		blocks:    make(map[string]string, len(w.out.Peripherals)),
		take:      make(map[string]string, len(w.out.Peripherals)),
		steal:     make(map[string]string, len(w.out.Peripherals)),
		registers: map[*api.Register]*registerNames{},
		variants:  map[*api.Variant]string{},
		is:        map[*api.Variant]string{},
	}

	for _, p := range w.out.Peripherals {
		if p.Singleton.BlockType != p.Name {
			continue
		}
		block := identifier(p.Name)
		n.blocks[p.Name] = global.unique(block + "_Type")

		fields := newScope()
		for _, item := range p.Items {
			if item.IsPadding() {
				continue
			}
			typ := global.unique(block + "_" + item.Register.Name)
			n.registers[item.Register] = &registerNames{
				field: fields.unique(item.Register.Name),
				typ:   typ,
				read:  global.unique(typ + "_R"),
				write: global.unique(typ + "_W"),
			}
		}
	}

	for _, p := range w.out.Peripherals {
		n.take[p.Name] = global.unique("Take" + identifier(p.Name))
		n.steal[p.Name] = global.unique("Steal" + identifier(p.Name))
	}

	owners := make(map[string]int, len(w.out.Enums))
	for _, e := range w.out.Enums {
		owners[e.Owner]++
	}
	for _, e := range w.out.Enums {
		name := strings.ReplaceAll(e.Owner, ".", "_")
		if owners[e.Owner] > 1 {
			name += "_" + directionSuffix(e.Access)
		}
		ident := global.unique(name)
		n.enums = append(n.enums, ident)

		methods := newScope("Known")
		for _, v := range e.Variants {
			if !v.IsDefault {
				n.variants[v] = global.unique(ident + "_" + v.Name)
			}
			n.is[v] = methods.unique("Is" + identifier(v.Name))
		}
	}

	if w.options.Target.HasInterruptVectors() && len(w.out.Interrupts) > 0 {
		n.irqMax = global.unique("IRQ_max")
		for _, irq := range w.out.Interrupts {
			n.irqs = append(n.irqs, global.unique("IRQ_"+irq.Name))
		}
	}
	return n
}

func directionSuffix(access device.Access) string {
	switch access {
	case device.AccessRead:
		return "Read"
	case device.AccessWrite:
		return "Write"
	default:
		return "ReadWrite"
	}
}

func (w *Writer) printf(format string, args ...any) {
	fmt.Fprintf(w.buf, format, args...)
}

// doc writes a doc comment, the description is appended as a paragraph when
// descriptions are enabled.
func (w *Writer) doc(indent, line, description string) {
	w.printf("%s// %s\n", indent, line)
	if !w.options.Descriptions {
		return
	}
	if description = comment(description); description != "" {
		w.printf("%s//\n%s// %s\n", indent, indent, description)
	}
}

func (w *Writer) writeHeader() {
	w.printf("// Code generated by retrosvd. DO NOT EDIT.\n\n")
	if tag := w.options.Target.BuildTag(); tag != "" {
		w.printf("//go:build %s\n\n", tag)
	}

	w.doc("", fmt.Sprintf("Package %s provides the register API of the %s device.",
		w.options.Package, comment(w.out.Device)), w.out.Description)
	w.printf("package %s\n\n", w.options.Package)

	if len(w.out.Peripherals) > 0 {
		w.printf("import (\n\t\"runtime/volatile\"\n\t\"sync/atomic\"\n\t\"unsafe\"\n)\n\n")
	}
}

func (w *Writer) writeSingletons() {
	if len(w.out.Peripherals) == 0 {
		return
	}

	w.printf("var taken [%d]atomic.Bool\n\n", len(w.out.Peripherals))

	for i, p := range w.out.Peripherals {
		block := w.names.blocks[p.Singleton.BlockType]
		take := w.names.take[p.Name]
		steal := w.names.steal[p.Name]

		w.doc("", fmt.Sprintf("%s returns the %s register block on the first call and nil on every later call.",
			take, p.Name), p.Description)
		w.printf("func %s() *%s {\n", take, block)
		w.printf("\tif !taken[%d].CompareAndSwap(false, true) {\n\t\treturn nil\n\t}\n", i)
		w.printf("\treturn %s()\n}\n\n", steal)

		w.printf("// %s returns the %s register block without taking ownership of it.\n", steal, p.Name)
		w.printf("func %s() *%s {\n", steal, block)
		w.printf("\treturn (*%s)(unsafe.Pointer(uintptr(0x%X)))\n}\n\n", block, p.Singleton.Address)
	}
}

func (w *Writer) writeInterrupts() {
	if len(w.names.irqs) == 0 {
		return
	}

	w.printf("// Interrupt numbers.\nconst (\n")
	for i, irq := range w.out.Interrupts {
		w.doc("\t", fmt.Sprintf("%s is the interrupt of %s.", w.names.irqs[i], irq.Peripheral), irq.Description)
		w.printf("\t%s = %d\n", w.names.irqs[i], irq.Value)
	}
	w.printf("\n\t// %s is the highest interrupt number.\n", w.names.irqMax)
	w.printf("\t%s = %d\n)\n", w.names.irqMax, w.out.Interrupts[len(w.out.Interrupts)-1].Value)
}
