package builder

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// maxDontCareDigits limits the expansion of don't care patterns to 64k values.
const maxDontCareDigits = 16

var (
	errEmptyLiteral   = errors.New("empty numeric literal")
	errDontCare       = errors.New("don't care digits are not allowed here")
	errTooManyDigits  = fmt.Errorf("more than %d don't care digits", maxDontCareDigits)
	errInvalidBinary  = errors.New("invalid binary digit")
	errBinaryTooLarge = errors.New("binary literal exceeds 64 bits")
)

// ParseUint parses a scalar numeric literal. Decimal, 0x hexadecimal,
// 0b binary and # binary notations are supported. Leading zeros of a decimal
// literal do not select octal.
func ParseUint(s string) (uint64, error) {
	values, err := ParsePattern(s)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, errDontCare
	}
	return values[0], nil
}

// ParsePattern parses a numeric literal that may contain don't care digits.
// Binary literals (#1x0 or 0b1x0) with 'x' digits are expanded into the
// sorted set of all concrete values the pattern denotes.
func ParsePattern(s string) ([]uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyLiteral
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "#"):
		return expandBinary(lower[1:])
	case strings.HasPrefix(lower, "0b"):
		return expandBinary(lower[2:])
	}

	base := 10
	if strings.HasPrefix(lower, "0x") {
		lower = lower[2:]
		base = 16
	}
	v, err := strconv.ParseUint(lower, base, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing number: %w", err)
	}
	return []uint64{v}, nil
}

// expandBinary expands binary digits, 'x' marks a don't care digit.
func expandBinary(digits string) ([]uint64, error) {
	if digits == "" {
		return nil, errEmptyLiteral
	}
	if len(digits) > 64 {
		return nil, errBinaryTooLarge
	}

	var base uint64
	var dontCare []uint // bit positions of don't care digits
	for i := range len(digits) {
		bit := uint(len(digits) - 1 - i)
		switch digits[i] {
		case '0':
		case '1':
			base |= 1 << bit
		case 'x':
			dontCare = append(dontCare, bit)
		default:
			return nil, fmt.Errorf("%w '%c'", errInvalidBinary, digits[i])
		}
	}

	if len(dontCare) > maxDontCareDigits {
		return nil, errTooManyDigits
	}

	count := 1 << len(dontCare)
	values := make([]uint64, 0, count)
	for combination := range count {
		v := base
		for j, bit := range dontCare {
			if combination&(1<<j) != 0 {
				v |= 1 << bit
			}
		}
		values = append(values, v)
	}

	// dontCare is ordered from the highest bit down, sort ascending
	slices.Sort(values)
	return values, nil
}
