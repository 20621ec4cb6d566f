package analyzer

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/layout"
)

func analyze(t *testing.T, dev *device.Device) (*Model, error) {
	t.Helper()
	l, err := layout.New(log.NewTestLogger(t)).Compute(context.Background(), dev)
	assert.NoError(t, err)
	return New(log.NewTestLogger(t)).Analyze(context.Background(), l)
}

func singleField(f *device.Field) *device.Device {
	return &device.Device{
		Peripherals: []*device.Peripheral{
			{
				Name:        "ADC",
				BaseAddress: 0x40012400,
				Registers: []*device.Register{
					{Name: "CR", Width: 32, ResetMask: 0xFFFFFFFF, Fields: []*device.Field{f}},
				},
			},
		},
	}
}

func TestAnalyzePartialField(t *testing.T) {
	disabled := &device.EnumSet{
		Usage:  device.UsageRead,
		Values: []*device.EnumeratedValue{{Name: "Disabled", Values: []uint64{0}}},
	}
	model, err := analyze(t, singleField(&device.Field{Name: "SADD0", BitWidth: 1, Read: disabled}))
	assert.NoError(t, err)

	f := model.Peripherals[0].Registers[0].Fields[0]
	assert.Equal(t, device.CoveragePartial, f.Read.Coverage)
	assert.NotNil(t, f.Read.Shape)
	assert.Equal(t, device.AccessRead, f.Read.Shape.Access)

	// no enumerated values for writes: raw bits, unchecked
	assert.Equal(t, device.CoverageNone, f.Write.Coverage)
	assert.Nil(t, f.Write.Shape)
	assert.False(t, f.Write.RawSafe)
}

func TestAnalyzeExhaustiveField(t *testing.T) {
	dir := &device.EnumSet{
		Values: []*device.EnumeratedValue{
			{Name: "Output", Values: []uint64{1}},
			{Name: "Input", Values: []uint64{0}},
		},
	}
	model, err := analyze(t, singleField(&device.Field{Name: "DIR", BitWidth: 1, Read: dir, Write: dir}))
	assert.NoError(t, err)

	f := model.Peripherals[0].Registers[0].Fields[0]
	assert.Equal(t, device.CoverageExhaustive, f.Read.Coverage)
	assert.Equal(t, device.CoverageExhaustive, f.Write.Coverage)
	assert.True(t, f.Write.RawSafe)
	assert.True(t, f.Read.Shape == f.Write.Shape)
	assert.Equal(t, device.AccessReadWrite, f.Read.Shape.Access)

	variants := f.Read.Shape.Variants
	assert.Equal(t, "Input", variants[0].Name)
	assert.Equal(t, "Output", variants[1].Name)
	assert.Len(t, model.Shapes, 1)
	assert.Equal(t, "ADC.CR.DIR", model.Shapes[0].Owner)
}

func TestCoverage(t *testing.T) {
	values := func(names ...uint64) *device.EnumSet {
		s := &device.EnumSet{}
		for _, v := range names {
			s.Values = append(s.Values, &device.EnumeratedValue{Name: "V", Values: []uint64{v}})
		}
		return s
	}

	tests := []struct {
		name     string
		width    uint
		set      *device.EnumSet
		expected device.Coverage
	}{
		{name: "nil set", width: 4, set: nil, expected: device.CoverageNone},
		{name: "empty set", width: 4, set: &device.EnumSet{}, expected: device.CoverageNone},
		{name: "single bit one value", width: 1, set: values(1), expected: device.CoveragePartial},
		{name: "single bit both values", width: 1, set: values(0, 1), expected: device.CoverageExhaustive},
		{name: "two bits complete", width: 2, set: values(0, 1, 2, 3), expected: device.CoverageExhaustive},
		{name: "two bits missing", width: 2, set: values(0, 1, 3), expected: device.CoveragePartial},
		{
			name:  "default marker",
			width: 8,
			set: &device.EnumSet{Values: []*device.EnumeratedValue{
				{Name: "Zero", Values: []uint64{0}},
				{Name: "Other", IsDefault: true},
			}},
			expected: device.CoverageExhaustive,
		},
		{
			name:  "dont care pattern",
			width: 2,
			set: &device.EnumSet{Values: []*device.EnumeratedValue{
				{Name: "Low", Values: []uint64{0, 1}},
				{Name: "High", Values: []uint64{2, 3}},
			}},
			expected: device.CoverageExhaustive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Coverage(tt.width, tt.set))
		})
	}
}

// TestCoverageRandomized verifies that a set is exhaustive exactly when its
// values and the default marker cover the whole domain.
func TestCoverageRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, width := range []uint{1, 2, 3, 8} {
		domain := uint64(1) << width

		for range 200 {
			s := &device.EnumSet{}
			covered := make(map[uint64]bool)

			for value := range domain {
				if rng.Intn(4) == 0 {
					continue
				}
				covered[value] = true
				s.Values = append(s.Values, &device.EnumeratedValue{Name: "V", Values: []uint64{value}})
			}
			hasDefault := rng.Intn(3) == 0
			if hasDefault {
				s.Values = append(s.Values, &device.EnumeratedValue{Name: "Default", IsDefault: true})
			}

			expected := device.CoveragePartial
			if hasDefault || uint64(len(covered)) == domain {
				expected = device.CoverageExhaustive
			}
			if len(s.Values) == 0 {
				expected = device.CoverageNone
			}
			assert.Equal(t, expected, Coverage(width, s))
		}
	}
}

func TestCheckValues(t *testing.T) {
	t.Run("value exceeds width", func(t *testing.T) {
		s := &device.EnumSet{Values: []*device.EnumeratedValue{{Name: "Big", Values: []uint64{4}}}}
		_, err := analyze(t, singleField(&device.Field{Name: "F", BitWidth: 2, Write: s}))
		var rangeErr *device.OutOfRangeError
		assert.True(t, errors.As(err, &rangeErr))
		assert.Equal(t, "Big", rangeErr.Name)
		assert.Equal(t, uint64(4), rangeErr.Value)
		assert.Equal(t, uint64(3), rangeErr.Limit)
		assert.Equal(t, "field ADC.CR.F", rangeErr.Scope)
	})

	t.Run("value named twice", func(t *testing.T) {
		s := &device.EnumSet{Values: []*device.EnumeratedValue{
			{Name: "A", Values: []uint64{0, 1}},
			{Name: "B", Values: []uint64{1}},
		}}
		_, err := analyze(t, singleField(&device.Field{Name: "F", BitWidth: 2, Read: s}))
		var overlapErr *device.OverlapError
		assert.True(t, errors.As(err, &overlapErr))
		assert.Equal(t, "value", overlapErr.Unit)
		assert.Equal(t, "B", overlapErr.Name)
		assert.Equal(t, "A", overlapErr.Other)
	})
}

func TestInferRegisterAccess(t *testing.T) {
	tests := []struct {
		name     string
		declared device.Access
		fields   []device.Access
		expected device.Access
	}{
		{name: "declared wins", declared: device.AccessRead, fields: []device.Access{device.AccessWrite}, expected: device.AccessRead},
		{name: "no fields", expected: device.AccessReadWrite},
		{name: "all read", fields: []device.Access{device.AccessRead, device.AccessRead}, expected: device.AccessRead},
		{name: "all write", fields: []device.Access{device.AccessWrite}, expected: device.AccessWrite},
		{name: "mixed", fields: []device.Access{device.AccessRead, device.AccessWrite}, expected: device.AccessReadWrite},
		{name: "unspecified", fields: []device.Access{device.AccessRead, device.AccessUnset}, expected: device.AccessReadWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &device.Register{Access: tt.declared}
			for _, access := range tt.fields {
				r.Fields = append(r.Fields, &device.Field{Access: access})
			}
			assert.Equal(t, tt.expected, InferRegisterAccess(r))
		})
	}
}

func TestAnalyzeFieldAccess(t *testing.T) {
	dev := &device.Device{
		Peripherals: []*device.Peripheral{
			{
				Name: "TIM",
				Registers: []*device.Register{
					{
						Name:  "SR",
						Width: 32,
						Fields: []*device.Field{
							{Name: "UIF", BitOffset: 0, BitWidth: 1, Access: device.AccessRead},
							{Name: "CC1IF", BitOffset: 1, BitWidth: 1},
						},
					},
					{
						Name:   "CNT",
						Offset: 4,
						Width:  32,
						Access: device.AccessRead,
						Fields: []*device.Field{
							{Name: "CNT", BitWidth: 16, Access: device.AccessWrite},
						},
					},
				},
			},
		},
	}

	model, err := analyze(t, dev)
	assert.NoError(t, err)

	sr := model.Peripherals[0].Registers[0]
	assert.Equal(t, device.AccessReadWrite, sr.Access)
	assert.NotNil(t, sr.Fields[0].Read)
	assert.Nil(t, sr.Fields[0].Write)
	assert.NotNil(t, sr.Fields[1].Read)
	assert.NotNil(t, sr.Fields[1].Write)

	cnt := model.Peripherals[0].Registers[1]
	assert.Equal(t, device.AccessRead, cnt.Access)
	assert.Equal(t, device.AccessWrite, cnt.Fields[0].Access)
	assert.Nil(t, cnt.Fields[0].Read)
	assert.Nil(t, cnt.Fields[0].Write)

	assert.Len(t, model.Warnings, 1)
	assert.Contains(t, model.Warnings[0], "TIM.CNT")
}

func TestAnalyzeShapes(t *testing.T) {
	mode := func(names ...string) *device.EnumSet {
		s := &device.EnumSet{}
		for i, name := range names {
			s.Values = append(s.Values, &device.EnumeratedValue{Name: name, Values: []uint64{uint64(i)}})
		}
		return s
	}

	dev := &device.Device{
		Peripherals: []*device.Peripheral{
			{
				Name: "GPIOA",
				Registers: []*device.Register{
					{
						Name:  "MODER",
						Width: 32,
						Fields: []*device.Field{
							{Name: "MODER1", BitOffset: 2, BitWidth: 2, Write: mode("In", "Out", "Alt", "Analog")},
							{Name: "MODER0", BitOffset: 0, BitWidth: 2, Write: mode("In", "Out", "Alt", "Analog")},
							{Name: "MODER2", BitOffset: 4, BitWidth: 2, Write: mode("In", "Out", "Alt", "Analog2")},
							{Name: "MODER3", BitOffset: 6, BitWidth: 2, Read: mode("In", "Out", "Alt", "Analog")},
						},
					},
				},
			},
			{
				Name: "GPIOB",
				Registers: []*device.Register{
					{
						Name:  "MODER",
						Width: 32,
						Fields: []*device.Field{
							{Name: "MODER0", BitWidth: 2, Write: mode("In", "Out", "Alt", "Analog")},
						},
					},
				},
			},
		},
	}

	model, err := analyze(t, dev)
	assert.NoError(t, err)

	fields := model.Peripherals[0].Registers[0].Fields
	assert.Equal(t, "MODER0", fields[0].Field.Name)
	assert.True(t, fields[0].Write.Shape == fields[1].Write.Shape)
	assert.True(t, fields[0].Write.Shape != fields[2].Write.Shape)
	assert.True(t, fields[0].Write.Shape != fields[3].Write.Shape)

	other := model.Peripherals[1].Registers[0].Fields[0]
	assert.True(t, fields[0].Write.Shape == other.Write.Shape)

	// MODER0 is the first field in address order
	assert.Equal(t, "GPIOA.MODER.MODER0", fields[0].Write.Shape.Owner)
	assert.Len(t, model.Shapes, 3)
	for i, shape := range model.Shapes {
		assert.Equal(t, i, shape.ID)
	}
}

func TestAnalyzeReset(t *testing.T) {
	dev := singleField(&device.Field{Name: "MODE", BitOffset: 4, BitWidth: 4})
	r := dev.Peripherals[0].Registers[0]
	r.ResetValue = 0xA5F0
	r.ResetMask = 0xFF0F

	model, err := analyze(t, dev)
	assert.NoError(t, err)

	rm := model.Peripherals[0].Registers[0]
	assert.Equal(t, uint64(0xA500), rm.Reset)
	assert.Equal(t, uint64(0x40012400), rm.Address)

	f := rm.Fields[0]
	assert.Equal(t, uint64(0), f.Reset)
	assert.Equal(t, uint64(0xF0), f.Mask)
}

func TestShapeKey(t *testing.T) {
	a := &device.EnumSet{Name: "A", Values: []*device.EnumeratedValue{
		{Name: "Off", Values: []uint64{0}, Description: "off"},
		{Name: "On", Values: []uint64{1}},
	}}
	b := &device.EnumSet{Name: "B", Values: []*device.EnumeratedValue{
		{Name: "On", Values: []uint64{1}},
		{Name: "Off", Values: []uint64{0}},
	}}
	c := &device.EnumSet{Values: []*device.EnumeratedValue{
		{Name: "Off", Values: []uint64{0}},
		{Name: "Enabled", Values: []uint64{1}},
	}}

	assert.Equal(t, ShapeKey(1, device.AccessRead, a), ShapeKey(1, device.AccessRead, b))
	assert.False(t, ShapeKey(1, device.AccessRead, a) == ShapeKey(1, device.AccessWrite, a))
	assert.False(t, ShapeKey(1, device.AccessRead, a) == ShapeKey(2, device.AccessRead, a))
	assert.False(t, ShapeKey(1, device.AccessRead, a) == ShapeKey(1, device.AccessRead, c))
}

func TestNewShapeVariantOrder(t *testing.T) {
	set := &device.EnumSet{
		Values: []*device.EnumeratedValue{
			{Name: "Other", IsDefault: true},
			{Name: "High", Values: []uint64{3}},
			{Name: "Low", Values: []uint64{0}},
			{Name: "Mid", Values: []uint64{1, 2}},
		},
	}

	shape := newShape(2, device.AccessRead, set, device.CoverageExhaustive)
	names := make([]string, 0, len(shape.Variants))
	for _, v := range shape.Variants {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Low", "Mid", "High", "Other"}, names)
}
