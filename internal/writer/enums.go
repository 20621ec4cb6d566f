package writer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/retroenv/retrosvd/internal/api"
)

func (w *Writer) writeEnum(e *api.Enum) {
	name := w.names.enums[e.ID]

	w.doc("", fmt.Sprintf("%s is the %s value of field %s.", name, e.Access, e.Owner), "")
	w.printf("type %s %s\n\n", name, valueType(e.Width))

	var known []uint64
	var constants []*api.Variant
	for _, v := range e.Variants {
		if v.IsDefault {
			continue
		}
		constants = append(constants, v)
		known = append(known, v.Values...)
	}
	slices.Sort(known)

	if len(constants) > 0 {
		w.printf("const (\n")
		for _, v := range constants {
			w.doc("\t", fmt.Sprintf("%s is the %s variant.", w.names.variants[v], v.Name), v.Description)
			w.printf("\t%s %s = 0x%X\n", w.names.variants[v], name, v.Value)
		}
		w.printf(")\n\n")
	}

	w.printf("// Known returns whether the value is named by a variant.\n")
	w.printf("func (v %s) Known() bool {\n", name)
	w.writeSwitch(known)
	w.printf("}\n\n")

	for _, v := range e.Variants {
		method := w.names.is[v]
		w.doc("", fmt.Sprintf("%s returns whether the value decodes as the %s variant.", method, v.Name), v.Description)
		w.printf("func (v %s) %s() bool {\n", name, method)
		if v.IsDefault {
			w.printf("\treturn !v.Known()\n")
		} else {
			w.writeSwitch(v.Values)
		}
		w.printf("}\n\n")
	}
}

// writeSwitch writes a function body that returns whether the receiver
// matches one of the values.
func (w *Writer) writeSwitch(values []uint64) {
	if len(values) == 0 {
		w.printf("\treturn false\n")
		return
	}

	cases := make([]string, 0, len(values))
	for _, value := range values {
		cases = append(cases, fmt.Sprintf("0x%X", value))
	}
	w.printf("\tswitch v {\n\tcase %s:\n\t\treturn true\n\t}\n\treturn false\n", strings.Join(cases, ", "))
}
