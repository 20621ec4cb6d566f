// Package builder converts a parsed hardware description tree into the raw
// device model.
package builder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/symbols"
	"github.com/retroenv/retrosvd/internal/tree"
)

const defaultRegisterWidth = 32

var (
	errEmptyName     = errors.New("name is empty")
	errMissing       = errors.New("required element is missing")
	errNotDevice     = errors.New("root element is not <device>")
	errZeroWidth     = errors.New("bit width must be at least 1")
	errBitRange      = errors.New("expected [msb:lsb]")
	errTooManyEnums  = errors.New("more than two enumerated value sets")
	errDefaultMarker = errors.New("at most one default marker is allowed per set")
	errIRQNumber     = errors.New("interrupt number out of range")
)

// Builder converts a description tree into the raw device model.
type Builder struct {
	logger *log.Logger
}

// New creates a new model builder.
func New(logger *log.Logger) *Builder {
	return &Builder{
		logger: logger,
	}
}

// properties are the register properties inherited from device to
// peripheral to register.
type properties struct {
	width      uint
	access     device.Access
	resetValue uint64
	resetMask  uint64
	maskSet    bool
}

// Build converts the root <device> element into the raw device model.
// derivedFrom references are kept for the derivation resolver.
func (b *Builder) Build(root tree.Node) (*device.Device, error) {
	if root.Name() != "device" {
		return nil, &device.SyntaxError{Scope: "document", Element: root.Name(), Err: errNotDevice}
	}

	name, err := requireName(root, "device")
	if err != nil {
		return nil, err
	}
	scope := "device " + name

	props, err := readProperties(root, scope, properties{width: defaultRegisterWidth})
	if err != nil {
		return nil, err
	}

	dev := &device.Device{
		Name:        name,
		Description: description(root),
		Width:       props.width,
		Access:      props.access,
		ResetValue:  props.resetValue,
		ResetMask:   props.resetMask,
	}
	if cpu, ok := tree.Child(root, "cpu"); ok {
		dev.CPU, _ = tree.ChildText(cpu, "name")
	}

	peripherals := symbols.New[*device.Peripheral](scope)
	interrupts := newInterruptTable()

	if list, ok := tree.Child(root, "peripherals"); ok {
		for _, node := range tree.ChildrenNamed(list, "peripheral") {
			p, irqs, err := b.buildPeripheral(node, props)
			if err != nil {
				return nil, err
			}
			if err := peripherals.Add(p.Name, p); err != nil {
				return nil, err
			}
			for _, irq := range irqs {
				if err := interrupts.add(irq); err != nil {
					return nil, err
				}
			}
		}
	}

	dev.Peripherals = peripherals.Items()
	dev.Interrupts = interrupts.sorted()

	b.logger.Debug("Built device model",
		log.String("device", dev.Name),
		log.Int("peripherals", len(dev.Peripherals)),
		log.Int("interrupts", len(dev.Interrupts)))
	return dev, nil
}

func (b *Builder) buildPeripheral(n tree.Node, parent properties) (*device.Peripheral, []*device.Interrupt, error) {
	name, err := requireName(n, "peripheral")
	if err != nil {
		return nil, nil, err
	}
	scope := "peripheral " + name

	p := &device.Peripheral{
		Name:        name,
		Description: description(n),
		GroupName:   text(n, "groupName"),
	}
	if from, ok := n.Attr("derivedFrom"); ok {
		p.DerivedFrom = strings.TrimSpace(from)
	}

	base, ok, err := readUint(n, "baseAddress", scope)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, &device.SyntaxError{Scope: scope, Element: "baseAddress", Err: errMissing}
	}
	p.BaseAddress = base

	props, err := readProperties(n, scope, parent)
	if err != nil {
		return nil, nil, err
	}

	for _, block := range tree.ChildrenNamed(n, "addressBlock") {
		offset, _, err := readUint(block, "offset", scope)
		if err != nil {
			return nil, nil, err
		}
		size, _, err := readUint(block, "size", scope)
		if err != nil {
			return nil, nil, err
		}
		p.BlockSize = max(p.BlockSize, offset+size)
	}

	irqs, err := readInterrupts(n, name)
	if err != nil {
		return nil, nil, err
	}

	list, ok := tree.Child(n, "registers")
	if !ok {
		return p, irqs, nil
	}

	registers := symbols.New[*device.Register](scope)
	for _, c := range list.Children() {
		switch c.Name() {
		case "register":
			expanded, err := b.buildRegister(c, name, props)
			if err != nil {
				return nil, nil, err
			}
			for _, r := range expanded {
				if err := registers.Add(r.Name, r); err != nil {
					return nil, nil, err
				}
			}

		case "cluster":
			b.logger.Warn("Register clusters are not supported, skipping",
				log.String("peripheral", name),
				log.String("cluster", text(c, "name")))
		}
	}
	p.Registers = registers.Items()

	return p, irqs, nil
}

func (b *Builder) buildRegister(n tree.Node, peripheral string, parent properties) ([]*device.Register, error) {
	name, err := requireName(n, "register in peripheral "+peripheral)
	if err != nil {
		return nil, err
	}
	scope := "register " + device.Path(peripheral, name)

	offset, ok, err := readUint(n, "addressOffset", scope)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &device.SyntaxError{Scope: scope, Element: "addressOffset", Err: errMissing}
	}

	props, err := readProperties(n, scope, parent)
	if err != nil {
		return nil, err
	}
	switch props.width {
	case 8, 16, 32, 64:
	default:
		return nil, &device.OutOfRangeError{Scope: scope, Name: "size", Value: uint64(props.width), Limit: 64}
	}

	r := &device.Register{
		Name:        name,
		Description: description(n),
		Offset:      offset,
		Width:       props.width,
		Access:      props.access,
		ResetValue:  props.resetValue,
		ResetMask:   props.resetMask,
	}
	if !props.maskSet {
		r.ResetMask = device.Mask(props.width)
	}

	if list, ok := tree.Child(n, "fields"); ok {
		fields := symbols.New[*device.Field](scope)
		for _, node := range tree.ChildrenNamed(list, "field") {
			f, err := buildField(node, device.Path(peripheral, name))
			if err != nil {
				return nil, err
			}
			if err := fields.Add(f.Name, f); err != nil {
				return nil, err
			}
		}
		r.Fields = fields.Items()
	}

	return expandDim(n, r, scope)
}

func buildField(n tree.Node, register string) (*device.Field, error) {
	name, err := requireName(n, "field in register "+register)
	if err != nil {
		return nil, err
	}
	path := device.Path(register, name)
	scope := "field " + path

	offset, width, err := readBitRange(n, scope)
	if err != nil {
		return nil, err
	}
	access, err := readAccess(n, scope)
	if err != nil {
		return nil, err
	}

	f := &device.Field{
		Name:        name,
		Description: description(n),
		BitOffset:   offset,
		BitWidth:    width,
		Access:      access,
	}

	sets := tree.ChildrenNamed(n, "enumeratedValues")
	if len(sets) > 2 {
		return nil, &device.SyntaxError{Scope: scope, Element: "enumeratedValues", Err: errTooManyEnums}
	}
	for _, node := range sets {
		set, err := buildEnumSet(node, path)
		if err != nil {
			return nil, err
		}
		if err := assignEnumSet(f, set, scope); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func assignEnumSet(f *device.Field, set *device.EnumSet, scope string) error {
	dup := &device.DuplicateNameError{Scope: scope, Name: "enumeratedValues usage " + set.Usage.String()}

	switch set.Usage {
	case device.UsageRead:
		if f.Read != nil {
			return dup
		}
		f.Read = set
	case device.UsageWrite:
		if f.Write != nil {
			return dup
		}
		f.Write = set
	default:
		if f.Read != nil || f.Write != nil {
			return dup
		}
		f.Read = set
		f.Write = set
	}
	return nil
}

func buildEnumSet(n tree.Node, field string) (*device.EnumSet, error) {
	set := &device.EnumSet{
		Name: text(n, "name"),
	}
	if from, ok := n.Attr("derivedFrom"); ok {
		set.DerivedFrom = strings.TrimSpace(from)
	}

	scope := "enumerated values of field " + field
	if set.Name != "" {
		scope = fmt.Sprintf("enumerated values %s of field %s", set.Name, field)
	}

	usage, err := device.ParseUsage(text(n, "usage"))
	if err != nil {
		return nil, &device.SyntaxError{Scope: scope, Element: "usage", Err: err}
	}
	set.Usage = usage

	values := symbols.New[*device.EnumeratedValue](scope)
	var hasDefault bool

	for _, node := range tree.ChildrenNamed(n, "enumeratedValue") {
		name, err := requireName(node, "enumeratedValue in "+scope)
		if err != nil {
			return nil, err
		}
		v := &device.EnumeratedValue{
			Name:        name,
			Description: description(node),
		}

		isDefault, err := readBool(node, "isDefault", scope)
		if err != nil {
			return nil, err
		}
		if isDefault {
			if hasDefault {
				return nil, &device.SyntaxError{Scope: scope, Element: "isDefault", Err: errDefaultMarker}
			}
			hasDefault = true
			v.IsDefault = true
		} else {
			literal, ok := tree.ChildText(node, "value")
			if !ok {
				return nil, &device.SyntaxError{Scope: scope, Element: "value", Err: errMissing}
			}
			v.Values, err = ParsePattern(literal)
			if err != nil {
				return nil, &device.SyntaxError{Scope: scope, Element: "value", Value: literal, Err: err}
			}
		}

		if err := values.Add(v.Name, v); err != nil {
			return nil, err
		}
	}

	set.Values = values.Items()
	return set, nil
}

// readBitRange supports the three bit range notations: bitOffset and
// bitWidth, lsb and msb, and the bitRange string [msb:lsb].
func readBitRange(n tree.Node, scope string) (uint, uint, error) {
	if _, ok := tree.Child(n, "bitOffset"); ok {
		offset, _, err := readUint(n, "bitOffset", scope)
		if err != nil {
			return 0, 0, err
		}
		width, ok, err := readUint(n, "bitWidth", scope)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			return 0, 0, &device.SyntaxError{Scope: scope, Element: "bitWidth", Err: errMissing}
		}
		if width == 0 {
			return 0, 0, &device.SyntaxError{Scope: scope, Element: "bitWidth", Value: "0", Err: errZeroWidth}
		}
		return uint(offset), uint(width), nil
	}

	if _, ok := tree.Child(n, "lsb"); ok {
		lsb, _, err := readUint(n, "lsb", scope)
		if err != nil {
			return 0, 0, err
		}
		msb, ok, err := readUint(n, "msb", scope)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			return 0, 0, &device.SyntaxError{Scope: scope, Element: "msb", Err: errMissing}
		}
		if msb < lsb {
			return 0, 0, &device.SyntaxError{Scope: scope, Element: "msb", Err: errBitRange}
		}
		return uint(lsb), uint(msb - lsb + 1), nil
	}

	literal, ok := tree.ChildText(n, "bitRange")
	if !ok {
		return 0, 0, &device.SyntaxError{Scope: scope, Element: "bitOffset", Err: errMissing}
	}
	msb, lsb, err := parseBitRange(literal)
	if err != nil {
		return 0, 0, &device.SyntaxError{Scope: scope, Element: "bitRange", Value: literal, Err: err}
	}
	return lsb, msb - lsb + 1, nil
}

func parseBitRange(s string) (uint, uint, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return 0, 0, errBitRange
	}
	msbText, lsbText, ok := strings.Cut(s[1:len(s)-1], ":")
	if !ok {
		return 0, 0, errBitRange
	}
	msb, err := strconv.ParseUint(strings.TrimSpace(msbText), 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing msb: %w", err)
	}
	lsb, err := strconv.ParseUint(strings.TrimSpace(lsbText), 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing lsb: %w", err)
	}
	if msb < lsb {
		return 0, 0, errBitRange
	}
	return uint(msb), uint(lsb), nil
}

func readProperties(n tree.Node, scope string, parent properties) (properties, error) {
	props := parent

	width, ok, err := readUint(n, "size", scope)
	if err != nil {
		return props, err
	}
	if ok {
		props.width = uint(width)
	}

	if _, ok := tree.Child(n, "access"); ok {
		access, err := readAccess(n, scope)
		if err != nil {
			return props, err
		}
		props.access = access
	}

	reset, ok, err := readUint(n, "resetValue", scope)
	if err != nil {
		return props, err
	}
	if ok {
		props.resetValue = reset
	}

	mask, ok, err := readUint(n, "resetMask", scope)
	if err != nil {
		return props, err
	}
	if ok {
		props.resetMask = mask
		props.maskSet = true
	}

	return props, nil
}

func readAccess(n tree.Node, scope string) (device.Access, error) {
	literal := text(n, "access")
	access, err := device.ParseAccess(literal)
	if err != nil {
		return device.AccessUnset, &device.SyntaxError{Scope: scope, Element: "access", Value: literal, Err: err}
	}
	return access, nil
}

func readUint(n tree.Node, element, scope string) (uint64, bool, error) {
	literal, ok := tree.ChildText(n, element)
	if !ok {
		return 0, false, nil
	}
	v, err := ParseUint(literal)
	if err != nil {
		return 0, false, &device.SyntaxError{Scope: scope, Element: element, Value: literal, Err: err}
	}
	return v, true, nil
}

func readBool(n tree.Node, element, scope string) (bool, error) {
	literal, ok := tree.ChildText(n, element)
	if !ok {
		return false, nil
	}
	v, err := strconv.ParseBool(literal)
	if err != nil {
		return false, &device.SyntaxError{Scope: scope, Element: element, Value: literal, Err: err}
	}
	return v, nil
}

func requireName(n tree.Node, scope string) (string, error) {
	name := text(n, "name")
	if name == "" {
		return "", &device.SyntaxError{Scope: scope, Element: "name", Err: errEmptyName}
	}
	return name, nil
}

func text(n tree.Node, element string) string {
	s, _ := tree.ChildText(n, element)
	return strings.TrimSpace(s)
}

// description normalizes the whitespace of a description text.
func description(n tree.Node) string {
	return strings.Join(strings.Fields(text(n, "description")), " ")
}
