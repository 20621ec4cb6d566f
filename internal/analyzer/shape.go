package analyzer

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/retroenv/retrosvd/internal/device"
)

// Shape is a deduplicated enumerated value type. Fields with the same width,
// access and value set share one shape.
type Shape struct {
	ID       int
	Key      string
	Owner    string // path of the first field using the shape
	Name     string // name of the set, empty if the set is unnamed
	Width    uint
	Access   device.Access // directions the shape is used for
	Coverage device.Coverage
	Variants []*Variant // sorted by value, default marker last
}

// Variant is a named value of a shape.
type Variant struct {
	Name        string
	Description string
	Values      []uint64 // ascending, empty for the default marker
	IsDefault   bool
}

// Value returns the value written for the variant.
func (v *Variant) Value() uint64 {
	if len(v.Values) == 0 {
		return 0
	}
	return v.Values[0]
}

// ShapeKey returns the identity of an enumerated value type. Declaration
// order, descriptions and the origin of the set do not change the key.
func ShapeKey(width uint, access device.Access, s *device.EnumSet) string {
	entries := make([]string, 0, len(s.Values))
	for _, v := range s.Values {
		if v.IsDefault {
			entries = append(entries, v.Name+"=*")
			continue
		}
		values := make([]string, len(v.Values))
		for i, value := range v.Values {
			values[i] = fmt.Sprintf("%X", value)
		}
		entries = append(entries, v.Name+"="+strings.Join(values, "|"))
	}
	slices.Sort(entries)

	return fmt.Sprintf("%d/%s/%s", width, access, strings.Join(entries, ","))
}

func newShape(width uint, access device.Access, s *device.EnumSet, coverage device.Coverage) *Shape {
	shape := &Shape{
		Key:      ShapeKey(width, access, s),
		Name:     s.Name,
		Width:    width,
		Access:   access,
		Coverage: coverage,
	}

	for _, v := range s.Values {
		shape.Variants = append(shape.Variants, &Variant{
			Name:        v.Name,
			Description: v.Description,
			Values:      v.Values,
			IsDefault:   v.IsDefault,
		})
	}
	// default variant last
	slices.SortStableFunc(shape.Variants, func(a, b *Variant) int {
		switch {
		case a.IsDefault == b.IsDefault:
			return cmp.Compare(a.Value(), b.Value())
		case a.IsDefault:
			return 1
		default:
			return -1
		}
	})
	return shape
}

// shapeRegistry interns shapes in field order, the first field using a
// shape owns it.
type shapeRegistry struct {
	byKey  map[string]*Shape
	shapes []*Shape
}

func newShapeRegistry() *shapeRegistry {
	return &shapeRegistry{
		byKey: make(map[string]*Shape),
	}
}

func (r *shapeRegistry) intern(shape *Shape, owner string) *Shape {
	if existing, ok := r.byKey[shape.Key]; ok {
		return existing
	}
	shape.ID = len(r.shapes)
	shape.Owner = owner
	r.byKey[shape.Key] = shape
	r.shapes = append(r.shapes, shape)
	return shape
}
