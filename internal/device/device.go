// Package device contains the semantic model of a hardware description.
//
// The model is a tree of Device -> Peripheral -> Register -> Field ->
// EnumeratedValue plus a flat interrupt table. Every pipeline stage receives a
// model and returns a new one, all types therefore provide deep Clone methods.
package device

import "strings"

// Device is the root of the model.
type Device struct {
	Name        string
	Description string
	CPU         string // CPU name as declared, used for target detection

	Width      uint   // default register width in bits
	Access     Access // default register access
	ResetValue uint64 // default register reset value
	ResetMask  uint64 // default register reset mask

	Peripherals []*Peripheral
	Interrupts  []*Interrupt // sorted by vector number
}

// Peripheral is a named memory mapped hardware unit.
type Peripheral struct {
	Name        string
	Description string
	GroupName   string
	BaseAddress uint64
	BlockSize   uint64 // address block size hint, 0 if not declared

	// DerivedFrom names the peripheral the register set is copied from.
	// It is empty after derivation resolution.
	DerivedFrom string
	// BlockOrigin names the peripheral whose register block this peripheral
	// shares unchanged. It is set by the derivation resolver only.
	BlockOrigin string

	Registers []*Register
}

// Register is a fixed width storage unit at an offset of its peripheral.
type Register struct {
	Name        string
	Description string
	Offset      uint64 // byte offset from the peripheral base address
	Width       uint   // 8, 16, 32 or 64
	Access      Access
	ResetValue  uint64
	ResetMask   uint64

	Fields []*Field
}

// Field is a named bit range of a register.
type Field struct {
	Name        string
	Description string
	BitOffset   uint
	BitWidth    uint
	Access      Access

	Read  *EnumSet // enumerated values used when reading, nil for raw bits
	Write *EnumSet // enumerated values used when writing, nil for raw bits
}

// EnumSet is an ordered set of enumerated values of a field.
type EnumSet struct {
	Name        string
	DerivedFrom string
	Usage       Usage
	Values      []*EnumeratedValue
}

// EnumeratedValue is a symbolic alias for one or more concrete bit patterns.
type EnumeratedValue struct {
	Name        string
	Description string
	Values      []uint64 // concrete values, more than one for don't care patterns
	IsDefault   bool     // matches every value not otherwise named
}

// Interrupt is an entry of the device interrupt table.
type Interrupt struct {
	Name        string
	Description string
	Peripheral  string // name of the declaring peripheral
	Value       int
}

// ByteSize returns the number of bytes the register occupies.
func (r *Register) ByteSize() uint64 {
	return uint64(r.Width+7) / 8
}

// End returns the first byte offset after the register.
func (r *Register) End() uint64 {
	return r.Offset + r.ByteSize()
}

// Peripheral returns the peripheral with the given name.
func (d *Device) Peripheral(name string) (*Peripheral, bool) {
	for _, p := range d.Peripherals {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Register returns the register with the given name.
func (p *Peripheral) Register(name string) (*Register, bool) {
	for _, r := range p.Registers {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Field returns the field with the given name.
func (r *Register) Field(name string) (*Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// HasDefault returns whether the set contains a default marker.
func (s *EnumSet) HasDefault() bool {
	if s == nil {
		return false
	}
	for _, v := range s.Values {
		if v.IsDefault {
			return true
		}
	}
	return false
}

// Empty returns whether the set is missing or has no values.
func (s *EnumSet) Empty() bool {
	return s == nil || len(s.Values) == 0
}

// Path joins name components to a dotted scope path.
func Path(names ...string) string {
	return strings.Join(names, ".")
}
