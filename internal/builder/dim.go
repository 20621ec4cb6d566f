package builder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/retroenv/retrosvd/internal/device"
	"github.com/retroenv/retrosvd/internal/tree"
)

const (
	dimPlaceholder = "%s"
	maxDimElements = 4096
)

var (
	errDimName    = errors.New("dim register name has no %s placeholder")
	errDimIndices = errors.New("dimIndex does not match dim")
	errDimCount   = fmt.Errorf("dim must be between 1 and %d", maxDimElements)
)

// expandDim expands a register array into one register per index. The name
// placeholder %s is replaced by the index and offsets advance by
// dimIncrement.
func expandDim(n tree.Node, r *device.Register, scope string) ([]*device.Register, error) {
	dim, ok, err := readUint(n, "dim", scope)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*device.Register{r}, nil
	}
	if dim == 0 || dim > maxDimElements {
		return nil, &device.SyntaxError{Scope: scope, Element: "dim", Value: strconv.FormatUint(dim, 10), Err: errDimCount}
	}

	increment, ok, err := readUint(n, "dimIncrement", scope)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &device.SyntaxError{Scope: scope, Element: "dimIncrement", Err: errMissing}
	}

	if !strings.Contains(r.Name, dimPlaceholder) {
		return nil, &device.SyntaxError{Scope: scope, Element: "name", Value: r.Name, Err: errDimName}
	}

	indexText := text(n, "dimIndex")
	indices, err := dimIndices(indexText, int(dim))
	if err != nil {
		return nil, &device.SyntaxError{Scope: scope, Element: "dimIndex", Value: indexText, Err: err}
	}

	// an array declared as NAME[%s] becomes NAME0, NAME1, ...
	name := strings.Replace(r.Name, "["+dimPlaceholder+"]", dimPlaceholder, 1)

	registers := make([]*device.Register, 0, len(indices))
	for i, index := range indices {
		c := r.Clone()
		c.Name = strings.Replace(name, dimPlaceholder, index, 1)
		c.Offset = r.Offset + uint64(i)*increment
		registers = append(registers, c)
	}
	return registers, nil
}

// dimIndices returns the index names of a register array. Supported forms
// are a numeric range "0-3", a letter range "A-D" and a list "A,B,C".
func dimIndices(s string, dim int) ([]string, error) {
	if s == "" {
		indices := make([]string, dim)
		for i := range dim {
			indices[i] = strconv.Itoa(i)
		}
		return indices, nil
	}

	var indices []string
	if first, last, ok := strings.Cut(s, "-"); ok && !strings.Contains(s, ",") {
		var err error
		indices, err = expandIndexRange(strings.TrimSpace(first), strings.TrimSpace(last), dim)
		if err != nil {
			return nil, err
		}
	} else {
		for _, index := range strings.Split(s, ",") {
			indices = append(indices, strings.TrimSpace(index))
		}
	}

	if len(indices) != dim {
		return nil, fmt.Errorf("%w: %d indices for dim %d", errDimIndices, len(indices), dim)
	}
	return indices, nil
}

// expandIndexRange expands an inclusive index range, a range that does not
// hold exactly dim indices is rejected before it is expanded.
func expandIndexRange(first, last string, dim int) ([]string, error) {
	start, errStart := strconv.Atoi(first)
	end, errEnd := strconv.Atoi(last)
	if errStart == nil && errEnd == nil {
		if start < 0 || end < start || end-start+1 != dim {
			return nil, fmt.Errorf("%w: range %d-%d for dim %d", errDimIndices, start, end, dim)
		}
		indices := make([]string, 0, dim)
		for i := start; i <= end; i++ {
			indices = append(indices, strconv.Itoa(i))
		}
		return indices, nil
	}

	if len(first) != 1 || len(last) != 1 || last[0] < first[0] {
		return nil, errDimIndices
	}
	var indices []string
	for c := first[0]; c <= last[0]; c++ {
		indices = append(indices, string(c))
	}
	return indices, nil
}
