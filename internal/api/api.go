// Package api defines the generated register API description that the
// emitter produces and renderers consume.
package api

import "github.com/retroenv/retrosvd/internal/device"

// Output is the register API of a device.
type Output struct {
	Device      string
	Description string

	Peripherals []*Peripheral // in declaration order
	Enums       []*Enum       // indexed by enum ID
	Interrupts  []*Interrupt  // strictly ascending vector numbers
}

// Peripheral is the register block and the take once handle of a
// peripheral.
type Peripheral struct {
	Name        string
	Description string
	GroupName   string
	Size        uint64 // byte size of the register block
	Singleton   Singleton
	Items       []Item // registers and padding in address order
}

// Singleton describes the take once handle of a peripheral.
type Singleton struct {
	Name    string
	Address uint64
	// BlockType names the peripheral whose register block type the handle
	// points to. Derived peripherals share the block type of their origin.
	BlockType string
}

// Item is a register or a padding gap of a register block.
type Item struct {
	Offset   uint64
	Size     uint64    // byte size
	Register *Register // nil for padding
}

// IsPadding returns whether the item is reserved space between registers.
func (i Item) IsPadding() bool {
	return i.Register == nil
}

// Register describes the accessors of a register.
type Register struct {
	Name        string
	Description string
	Offset      uint64
	Address     uint64
	Width       uint
	Reset       uint64
	Access      device.Access
	Fields      int // number of declared fields, whatever their access

	ReadFields  []*FieldRead  // empty if the register has no read accessor
	WriteFields []*FieldWrite // empty if the register has no write accessor
}

// HasRead returns whether the register has a read accessor.
func (r *Register) HasRead() bool {
	return r.Access.CanRead()
}

// HasWrite returns whether the register has a write accessor.
func (r *Register) HasWrite() bool {
	return r.Access.CanWrite()
}

// HasModify returns whether the register has a read modify write accessor.
func (r *Register) HasModify() bool {
	return r.Access == device.AccessReadWrite
}

// FieldRead describes the read accessor of a field.
type FieldRead struct {
	Name        string
	Description string
	Offset      uint
	Width       uint
	Enum        *Enum // nil for raw bits
	// Unmatched is set when a raw value may match no variant of the enum,
	// the accessor then has to report the unmatched state.
	Unmatched bool
}

// FieldWrite describes the write accessor of a field.
type FieldWrite struct {
	Name        string
	Description string
	Offset      uint
	Width       uint
	Enum        *Enum // nil for raw bits
	// RawSafe is set when every raw value is a named variant, otherwise the
	// raw bits setter is an unchecked escape.
	RawSafe bool
}

// Enum is a deduplicated enumerated value type.
type Enum struct {
	ID         int
	Name       string // name of the set, empty if unnamed
	Owner      string // dotted path of the field that defines the enum
	Width      uint
	Access     device.Access
	Exhaustive bool
	Variants   []*Variant // sorted by value, default variant last
}

// Variant is a named value of an enum.
type Variant struct {
	Name        string
	Description string
	Value       uint64   // value written for the variant
	Values      []uint64 // all values decoded as the variant
	IsDefault   bool     // decodes every value not named by another variant
}

// Interrupt is an entry of the interrupt table.
type Interrupt struct {
	Name        string
	Description string
	Peripheral  string
	Value       int
}
