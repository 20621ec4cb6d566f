package writer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/retroenv/retrogolib/set"
)

// identifier returns an exported Go identifier for a hardware name. Invalid
// characters are replaced by underscores, a name that does not start with a
// letter gets an X prefix.
func identifier(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}

	s := strings.Trim(sb.String(), "_")
	if s == "" {
		return "X"
	}

	first := rune(s[0])
	switch {
	case unicode.IsUpper(first):
		return s
	case unicode.IsLower(first):
		return string(unicode.ToUpper(first)) + s[1:]
	default:
		return "X" + s
	}
}

// scope hands out identifiers that are unique within a Go namespace.
type scope struct {
	used set.Set[string]
}

func newScope(reserved ...string) *scope {
	s := &scope{used: set.New[string]()}
	for _, name := range reserved {
		s.used.Add(name)
	}
	return s
}

// unique returns the identifier for the name, a numeric suffix is appended
// when the identifier is already taken.
func (s *scope) unique(name string) string {
	ident := identifier(name)
	candidate := ident
	for i := 2; s.used.Contains(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d", ident, i)
	}
	s.used.Add(candidate)
	return candidate
}

// comment returns the text as a single comment line.
func comment(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// valueType returns the smallest unsigned integer type holding the width.
func valueType(width uint) string {
	switch {
	case width <= 8:
		return "uint8"
	case width <= 16:
		return "uint16"
	case width <= 32:
		return "uint32"
	default:
		return "uint64"
	}
}
