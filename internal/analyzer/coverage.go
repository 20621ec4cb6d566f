package analyzer

import (
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/retrosvd/internal/device"
)

// Coverage returns how completely the set covers the value domain of a
// field of the given width. A default marker covers every value that is not
// named otherwise. The values of the set must be validated by checkValues.
func Coverage(width uint, s *device.EnumSet) device.Coverage {
	if s.Empty() {
		return device.CoverageNone
	}
	if s.HasDefault() {
		return device.CoverageExhaustive
	}

	values := set.New[uint64]()
	for _, v := range s.Values {
		for _, value := range v.Values {
			values.Add(value)
		}
	}

	switch {
	case width == 1:
		if values.Contains(0) && values.Contains(1) {
			return device.CoverageExhaustive
		}
		return device.CoveragePartial

	case width >= 64:
		// a declaration can not name 2^64 values
		return device.CoveragePartial

	case uint64(len(values)) == uint64(1)<<width:
		return device.CoverageExhaustive

	default:
		return device.CoveragePartial
	}
}

// checkValues validates that all values fit into the field width and that
// no concrete value is named by two variants.
func checkValues(width uint, s *device.EnumSet, scope string) error {
	if s.Empty() {
		return nil
	}

	limit := device.Mask(width)
	owners := make(map[uint64]string)

	for _, v := range s.Values {
		for _, value := range v.Values {
			if value > limit {
				return &device.OutOfRangeError{
					Scope: scope,
					Name:  v.Name,
					Value: value,
					Limit: limit,
				}
			}

			if other, ok := owners[value]; ok {
				return &device.OverlapError{
					Scope:      scope,
					Name:       v.Name,
					Other:      other,
					Unit:       "value",
					Start:      value,
					End:        value + 1,
					OtherStart: value,
					OtherEnd:   value + 1,
				}
			}
			owners[value] = v.Name
		}
	}
	return nil
}
