package query

import (
	"fmt"
	"strings"

	"github.com/scigrid/gridserve/dataset"
	"github.com/scigrid/gridserve/gridserve"
)

// CheckPayload enforces the per-request point budget before any tensor data
// is materialized.  The requested count is the sum over variables of the
// product of their interval lengths.
func CheckPayload(intervalsPerVar [][]dataset.Interval, maxPoints int64) error {
	var total int64
	for _, intervals := range intervalsPerVar {
		points := int64(1)
		for _, iv := range intervals {
			points *= int64(iv.Len())
		}
		total += points
	}
	if maxPoints > 0 && total > maxPoints {
		return gridserve.PayloadTooLargeError{Requested: total, MaxAllowed: maxPoints}
	}
	return nil
}

// ParseLayout validates the layout parameter against a variable's axes and
// returns the permutation mapping output axes to source axes.  An empty
// layout means native order.
func ParseLayout(layout string, dims []string) ([]int, []string, error) {
	if layout == "" {
		perm := make([]int, len(dims))
		for i := range perm {
			perm[i] = i
		}
		return perm, dims, nil
	}
	names := strings.Split(layout, ",")
	if len(names) != len(dims) {
		return nil, nil, layoutError(layout, dims)
	}
	axisOf := make(map[string]int, len(dims))
	for i, d := range dims {
		axisOf[d] = i
	}
	perm := make([]int, len(names))
	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		axis, found := axisOf[name]
		if !found || used[name] {
			return nil, nil, layoutError(layout, dims)
		}
		used[name] = true
		perm[i] = axis
		out[i] = name
	}
	return perm, out, nil
}

func layoutError(layout string, dims []string) error {
	return gridserve.InvalidParameterError{
		Msg: fmt.Sprintf("layout %q must name each of the variable's dimensions [%s] exactly once",
			layout, strings.Join(dims, ", ")),
	}
}

// Extract slices the variable's tensor to the resolved intervals and
// reorders axes per the permutation from ParseLayout.
func Extract(v *dataset.Variable, intervals []dataset.Interval, perm []int) (*dataset.Grid, error) {
	sub, err := v.Grid.Slice(intervals)
	if err != nil {
		return nil, err
	}
	return sub.Transpose(perm)
}

// Result is one extraction ready for encoding: the selected coordinate
// values per output axis and the flattened tensors per variable.
type Result struct {
	// Dims are the output axis names in layout order.
	Dims []string
	// Coords holds the selected coordinate values per output axis.
	Coords [][]float64
	// Vars holds one entry per requested variable.
	Vars []VarResult
	// Query echoes the request for the JSON metadata block.
	Query string
}

// VarResult is one variable's extracted hyperslab.
type VarResult struct {
	Name  string
	Dims  []string
	Shape []int
	Data  []float32
	Attrs dataset.Attributes
}

// BuildResult resolves, guards, extracts, and transposes every requested
// variable into an encodable Result.
func BuildResult(ds *dataset.Dataset, vars []*dataset.Variable,
	selectors map[string]Selector, layout string, maxPoints int64, rawQuery string) (*Result, error) {

	intervalsPerVar := make([][]dataset.Interval, len(vars))
	for i, v := range vars {
		intervals, err := ResolveIntervals(ds, v, selectors)
		if err != nil {
			return nil, err
		}
		intervalsPerVar[i] = intervals
	}
	if err := CheckPayload(intervalsPerVar, maxPoints); err != nil {
		return nil, err
	}

	res := &Result{Query: rawQuery}
	seenDim := make(map[string]bool)
	for i, v := range vars {
		perm, outDims, err := ParseLayout(layout, v.Dims)
		if err != nil {
			return nil, err
		}
		grid, err := Extract(v, intervalsPerVar[i], perm)
		if err != nil {
			return nil, gridserve.ConversionError{Op: "extract", Err: err}
		}
		res.Vars = append(res.Vars, VarResult{
			Name:  v.Name,
			Dims:  outDims,
			Shape: grid.Shape(),
			Data:  grid.Data(),
			Attrs: v.Attrs,
		})

		for outAxis, dimName := range outDims {
			if seenDim[dimName] {
				continue
			}
			seenDim[dimName] = true
			coord, err := ds.Coordinates(dimName)
			if err != nil {
				return nil, err
			}
			iv := intervalsPerVar[i][perm[outAxis]]
			selected := make([]float64, iv.Len())
			copy(selected, coord[iv.Lo:iv.Hi+1])
			res.Dims = append(res.Dims, dimName)
			res.Coords = append(res.Coords, selected)
		}
	}
	return res, nil
}
