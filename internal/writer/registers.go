package writer

import (
	"fmt"

	"github.com/retroenv/retrosvd/internal/api"
	"github.com/retroenv/retrosvd/internal/device"
)

// writeBlock writes the register block struct of a peripheral followed by the
// types of its registers.
func (w *Writer) writeBlock(p *api.Peripheral) {
	block := w.names.blocks[p.Name]

	w.doc("", fmt.Sprintf("%s is the register block of %s.", block, p.Name), p.Description)
	w.printf("type %s struct {\n", block)
	for _, item := range p.Items {
		if item.IsPadding() {
			w.printf("\t_ [%d]byte\n", item.Size)
			continue
		}
		rn := w.names.registers[item.Register]
		w.printf("\t%s %s // 0x%X\n", rn.field, rn.typ, item.Offset)
	}
	w.printf("}\n\n")

	for _, item := range p.Items {
		if !item.IsPadding() {
			w.writeRegister(item.Register)
		}
	}
}

func (w *Writer) writeRegister(r *api.Register) {
	rn := w.names.registers[r]
	bits := valueType(r.Width)

	w.doc("", fmt.Sprintf("%s is the %s %s register.", rn.typ, r.Access, r.Name), r.Description)
	w.printf("type %s struct {\n\treg volatile.Register%d\n}\n\n", rn.typ, r.Width)

	if r.HasRead() {
		w.writeReadValue(r, rn, bits)
		w.printf("// Read returns the current value of the register.\n")
		w.printf("func (r *%s) Read() %s {\n", rn.typ, rn.read)
		w.printf("\treturn %s{bits: r.reg.Get()}\n}\n\n", rn.read)
	}

	if !r.HasWrite() {
		return
	}
	reset := r.Reset & device.Mask(r.Width)
	w.writeWriteValue(r, rn, bits)

	w.printf("// Write writes the value built by f, starting from the reset value 0x%X.\n", reset)
	w.printf("func (r *%s) Write(f func(w *%s)) {\n", rn.typ, rn.write)
	w.printf("\tw := %s{bits: 0x%X}\n\tf(&w)\n\tr.reg.Set(w.bits)\n}\n\n", rn.write, reset)

	if r.HasModify() {
		w.printf("// Modify reads the register, lets f change the value and writes it back.\n")
		w.printf("func (r *%s) Modify(f func(r %s, w *%s)) {\n", rn.typ, rn.read, rn.write)
		w.printf("\tbits := r.reg.Get()\n\tw := %s{bits: bits}\n", rn.write)
		w.printf("\tf(%s{bits: bits}, &w)\n\tr.reg.Set(w.bits)\n}\n\n", rn.read)
	}

	w.printf("// Reset writes the reset value 0x%X to the register.\n", reset)
	w.printf("func (r *%s) Reset() {\n\tr.reg.Set(0x%X)\n}\n\n", rn.typ, reset)
}

func (w *Writer) writeReadValue(r *api.Register, rn *registerNames, bits string) {
	methods := newScope("Bits")

	w.printf("// %s is a value read from the %s register.\n", rn.read, r.Name)
	w.printf("type %s struct {\n\tbits %s\n}\n\n", rn.read, bits)

	w.printf("// Bits returns the raw register value.\n")
	w.printf("func (r %s) Bits() %s {\n\treturn r.bits\n}\n\n", rn.read, bits)

	for _, f := range r.ReadFields {
		method := methods.unique(f.Name)
		extract := fmt.Sprintf("(r.bits >> %d) & 0x%X", f.Offset, device.Mask(f.Width))

		switch {
		case f.Enum == nil && f.Width == 1:
			w.doc("", fmt.Sprintf("%s returns whether bit %s is set.", method, f.Name), f.Description)
			w.printf("func (r %s) %s() bool {\n\treturn r.bits&0x%X != 0\n}\n\n", rn.read, method, uint64(1)<<f.Offset)

		case f.Enum == nil:
			w.doc("", fmt.Sprintf("%s returns the raw bits of field %s.", method, f.Name), f.Description)
			w.printf("func (r %s) %s() %s {\n\treturn %s\n}\n\n", rn.read, method, bits, extract)

		case f.Unmatched:
			enum := w.names.enums[f.Enum.ID]
			w.doc("", fmt.Sprintf("%s returns field %s and whether the value is named by a variant.",
				method, f.Name), f.Description)
			w.printf("func (r %s) %s() (%s, bool) {\n", rn.read, method, enum)
			w.printf("\tv := %s(%s)\n\treturn v, v.Known()\n}\n\n", enum, extract)

		default:
			enum := w.names.enums[f.Enum.ID]
			w.doc("", fmt.Sprintf("%s returns field %s.", method, f.Name), f.Description)
			w.printf("func (r %s) %s() %s {\n\treturn %s(%s)\n}\n\n", rn.read, method, enum, enum, extract)
		}

		if f.Enum != nil && f.Width == 1 {
			bit := methods.unique(identifier(f.Name) + "Bit")
			w.doc("", fmt.Sprintf("%s returns whether bit %s is set.", bit, f.Name), "")
			w.printf("func (r %s) %s() bool {\n\treturn r.bits&0x%X != 0\n}\n\n", rn.read, bit, uint64(1)<<f.Offset)
		}
	}
}

func (w *Writer) writeWriteValue(r *api.Register, rn *registerNames, bits string) {
	methods := newScope()

	w.printf("// %s is a value written to the %s register.\n", rn.write, r.Name)
	w.printf("type %s struct {\n\tbits %s\n}\n\n", rn.write, bits)

	// raw register bits bypass the field encodings unless none are declared
	setBits := methods.unique("SetBitsUnchecked")
	if r.Fields == 0 {
		setBits = methods.unique("SetBits")
	}
	w.printf("// %s sets the raw register value.\n", setBits)
	w.printf("func (w *%s) %s(bits %s) *%s {\n\tw.bits = bits\n\treturn w\n}\n\n", rn.write, setBits, bits, rn.write)

	for _, f := range r.WriteFields {
		fieldMask := device.Mask(f.Width)
		update := fmt.Sprintf("w.bits = w.bits&^(0x%X << %d) | (%%s & 0x%X) << %d", fieldMask, f.Offset, fieldMask, f.Offset)

		if f.Enum != nil {
			enum := w.names.enums[f.Enum.ID]
			setter := methods.unique("Set" + identifier(f.Name))

			w.doc("", fmt.Sprintf("%s sets field %s.", setter, f.Name), f.Description)
			w.printf("func (w *%s) %s(v %s) *%s {\n\t", rn.write, setter, enum, rn.write)
			w.printf(update, bits+"(v)")
			w.printf("\n\treturn w\n}\n\n")

			for _, v := range f.Enum.Variants {
				if v.IsDefault {
					continue
				}
				variantSetter := methods.unique(setter + identifier(v.Name))
				w.doc("", fmt.Sprintf("%s sets field %s to the %s variant.", variantSetter, f.Name, v.Name), v.Description)
				w.printf("func (w *%s) %s() *%s {\n", rn.write, variantSetter, rn.write)
				w.printf("\treturn w.%s(%s)\n}\n\n", setter, w.names.variants[v])
			}
		}

		if f.Width == 1 {
			w.writeBitSetter(rn, methods, f)
			continue
		}

		raw := "Set" + identifier(f.Name) + "Bits"
		if !f.RawSafe {
			raw += "Unchecked"
		}
		raw = methods.unique(raw)
		w.doc("", fmt.Sprintf("%s sets the raw bits of field %s.", raw, f.Name), "")
		w.printf("func (w *%s) %s(v %s) *%s {\n\t", rn.write, raw, bits, rn.write)
		w.printf(update, "v")
		w.printf("\n\treturn w\n}\n\n")
	}
}

// writeBitSetter writes the bool setter of a single bit field.
func (w *Writer) writeBitSetter(rn *registerNames, methods *scope, f *api.FieldWrite) {
	setter := "Set" + identifier(f.Name) + "Bit"
	if !f.RawSafe {
		setter += "Unchecked"
	}
	setter = methods.unique(setter)
	bit := uint64(1) << f.Offset

	w.doc("", fmt.Sprintf("%s sets or clears bit %s.", setter, f.Name), "")
	w.printf("func (w *%s) %s(v bool) *%s {\n", rn.write, setter, rn.write)
	w.printf("\tif v {\n\t\tw.bits |= 0x%X\n\t} else {\n\t\tw.bits &^= 0x%X\n\t}\n", bit, bit)
	w.printf("\treturn w\n}\n\n")
}
