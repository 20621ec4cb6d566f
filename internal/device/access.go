package device

import (
	"fmt"
	"strings"
)

// Access defines the access mode of a register or field.
type Access int

// Access modes, AccessUnset is resolved by the analyzer.
const (
	AccessUnset Access = iota
	AccessRead
	AccessWrite
	AccessReadWrite
)

// ParseAccess parses an access mode string of a hardware description.
// Write once variants are mapped to their repeatable counterpart.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AccessUnset, nil
	case "read-only":
		return AccessRead, nil
	case "write-only", "writeonce":
		return AccessWrite, nil
	case "read-write", "read-writeonce":
		return AccessReadWrite, nil
	default:
		return AccessUnset, fmt.Errorf("unsupported access mode '%s'", s)
	}
}

// CanRead returns whether the access mode allows reading.
func (a Access) CanRead() bool {
	return a == AccessRead || a == AccessReadWrite
}

// CanWrite returns whether the access mode allows writing.
func (a Access) CanWrite() bool {
	return a == AccessWrite || a == AccessReadWrite
}

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read-only"
	case AccessWrite:
		return "write-only"
	case AccessReadWrite:
		return "read-write"
	default:
		return "unset"
	}
}

// Usage defines the direction an enumerated value set applies to.
type Usage int

// Usage directions, the zero value applies to both directions.
const (
	UsageReadWrite Usage = iota
	UsageRead
	UsageWrite
)

// ParseUsage parses the usage of an enumerated value set.
func ParseUsage(s string) (Usage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "read-write":
		return UsageReadWrite, nil
	case "read":
		return UsageRead, nil
	case "write":
		return UsageWrite, nil
	default:
		return UsageReadWrite, fmt.Errorf("unsupported enumerated values usage '%s'", s)
	}
}

func (u Usage) String() string {
	switch u {
	case UsageRead:
		return "read"
	case UsageWrite:
		return "write"
	default:
		return "read-write"
	}
}

// Coverage describes how completely an enumerated value set covers the
// value domain of its field.
type Coverage int

// Coverage kinds.
const (
	CoverageNone       Coverage = iota // no enumerated values, raw bits only
	CoveragePartial                    // some values are not named
	CoverageExhaustive                 // every value of the domain is named
)

func (c Coverage) String() string {
	switch c {
	case CoveragePartial:
		return "partial"
	case CoverageExhaustive:
		return "exhaustive"
	default:
		return "none"
	}
}
