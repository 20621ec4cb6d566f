package device

import (
	"fmt"
	"strings"
)

// DuplicateNameError is returned when a name is reused in a scope that
// requires unique names.
type DuplicateNameError struct {
	Scope string
	Name  string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate name '%s' in %s", e.Name, e.Scope)
}

// CyclicDerivationError is returned when a derivedFrom chain revisits an entity.
type CyclicDerivationError struct {
	Cycle []string
}

func (e *CyclicDerivationError) Error() string {
	return fmt.Sprintf("cyclic derivation: %s", strings.Join(e.Cycle, " -> "))
}

// UnresolvedReferenceError is returned when a reference names a nonexistent entity.
type UnresolvedReferenceError struct {
	Scope string
	Kind  string // kind of the referenced entity
	Name  string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s references unknown %s '%s'", e.Scope, e.Kind, e.Name)
}

// OverlapError is returned when two entities claim overlapping ranges.
// Ranges are half open, Unit is "byte", "bit" or "value".
type OverlapError struct {
	Scope      string
	Name       string
	Other      string
	Unit       string
	Start, End uint64
	OtherStart uint64
	OtherEnd   uint64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: '%s' %s range [0x%X, 0x%X) overlaps '%s' [0x%X, 0x%X)",
		e.Scope, e.Name, e.Unit, e.Start, e.End, e.Other, e.OtherStart, e.OtherEnd)
}

// OutOfRangeError is returned when a value or width exceeds what its
// container can represent.
type OutOfRangeError struct {
	Scope string
	Name  string
	Value uint64
	Limit uint64 // largest allowed value
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: '%s' value 0x%X exceeds limit 0x%X", e.Scope, e.Name, e.Value, e.Limit)
}

// DuplicateInterruptNumberError is returned when two interrupts claim the
// same vector number.
type DuplicateInterruptNumberError struct {
	Number int
	Name   string
	Other  string
}

func (e *DuplicateInterruptNumberError) Error() string {
	return fmt.Sprintf("interrupts '%s' and '%s' both use vector number %d", e.Other, e.Name, e.Number)
}

// SyntaxError is returned for malformed input elements.
type SyntaxError struct {
	Scope   string
	Element string
	Value   string
	Err     error
}

func (e *SyntaxError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: invalid element <%s>: %v", e.Scope, e.Element, e.Err)
	}
	return fmt.Sprintf("%s: invalid element <%s> value '%s': %v", e.Scope, e.Element, e.Value, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
