package query

import (
	"fmt"
	"math"
	"sort"

	"github.com/scigrid/gridserve/dataset"
	"github.com/scigrid/gridserve/gridserve"
)

// floorIndex is the monotone lookup primitive: the largest index i with
// coord[i] <= v on ascending axes, or coord[i] >= v on descending axes.
// Returns -1 when v lies before the first sample.
func floorIndex(coord []float64, v float64) int {
	ascending := len(coord) < 2 || coord[len(coord)-1] >= coord[0]
	if ascending {
		return sort.Search(len(coord), func(i int) bool { return coord[i] > v }) - 1
	}
	return sort.Search(len(coord), func(i int) bool { return coord[i] < v }) - 1
}

// FractionalPosition inverse-interpolates v on a strictly monotone axis,
// returning a real-valued grid position in [0, len-1].  Values outside the
// axis hull fail.
func FractionalPosition(coord []float64, v float64) (float64, error) {
	if len(coord) == 1 {
		if v == coord[0] {
			return 0, nil
		}
		return 0, outOfDomain(coord, v)
	}
	lo, hi := coord[0], coord[len(coord)-1]
	minC, maxC := math.Min(lo, hi), math.Max(lo, hi)
	if v < minC || v > maxC {
		return 0, outOfDomain(coord, v)
	}
	i := floorIndex(coord, v)
	if i < 0 {
		return 0, nil
	}
	if i >= len(coord)-1 {
		return float64(len(coord) - 1), nil
	}
	span := coord[i+1] - coord[i]
	return float64(i) + (v-coord[i])/span, nil
}

func outOfDomain(coord []float64, v float64) error {
	minC := math.Min(coord[0], coord[len(coord)-1])
	maxC := math.Max(coord[0], coord[len(coord)-1])
	return gridserve.InvalidCoordinatesError{
		Msg: fmt.Sprintf("value %g outside coordinate domain [%g, %g]", v, minC, maxC),
	}
}

// exactTolerance is the comparison slack for exact-value matching: zero when
// every coordinate is integer-valued, otherwise 1e-9 of the axis span.
func exactTolerance(coord []float64) float64 {
	allIntegral := true
	for _, c := range coord {
		if c != math.Trunc(c) {
			allIntegral = false
			break
		}
	}
	if allIntegral {
		return 0
	}
	return 1e-9 * math.Abs(coord[len(coord)-1]-coord[0])
}

// ResolveExact finds the single index whose coordinate equals v within
// tolerance.
func ResolveExact(coord []float64, v float64, dim string) (int, error) {
	i := floorIndex(coord, v)
	tol := exactTolerance(coord)
	for _, candidate := range []int{i, i + 1} {
		if candidate >= 0 && candidate < len(coord) && math.Abs(coord[candidate]-v) <= tol {
			return candidate, nil
		}
	}
	minC := math.Min(coord[0], coord[len(coord)-1])
	maxC := math.Max(coord[0], coord[len(coord)-1])
	return 0, gridserve.PhysicalValueNotFoundError{
		Dimension: dim, Value: v, Min: minC, Max: maxC,
	}
}

// ResolveRange computes the inclusive index interval covering all
// coordinates within [min(a,b), max(a,b)], in the axis's native index order.
func ResolveRange(coord []float64, a, b float64, param string) (dataset.Interval, error) {
	lo, hi := math.Min(a, b), math.Max(a, b)
	first, last := -1, -1
	for i, c := range coord {
		if c >= lo && c <= hi {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return dataset.Interval{}, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("%s=[%g, %g] matches no coordinates", param, a, b),
		}
	}
	return dataset.Interval{Lo: first, Hi: last}, nil
}

// checkIndex bounds-checks a raw index selector.
func checkIndex(i, size int, param string) error {
	if i < 0 || i >= size {
		return gridserve.IndexOutOfBoundsError{Param: param, Provided: i, Max: size - 1}
	}
	return nil
}

// ResolveIntervals turns the selectors for one variable into one closed index
// interval per axis, in the variable's native axis order.  Axes without a
// selector default to their full range.
func ResolveIntervals(ds *dataset.Dataset, v *dataset.Variable,
	selectors map[string]Selector) ([]dataset.Interval, error) {

	intervals := make([]dataset.Interval, len(v.Dims))
	for axis, dimName := range v.Dims {
		size := ds.Dimensions[dimName].Size
		sel, selected := selectors[dimName]
		if !selected {
			intervals[axis] = dataset.Interval{Lo: 0, Hi: size - 1}
			continue
		}
		coord, err := ds.Coordinates(dimName)
		if err != nil {
			return nil, err
		}
		switch sel.Kind {
		case ExactValue:
			i, err := ResolveExact(coord, sel.Value, dimName)
			if err != nil {
				return nil, err
			}
			intervals[axis] = dataset.Interval{Lo: i, Hi: i}

		case ValueRange:
			iv, err := ResolveRange(coord, sel.Lo, sel.Hi, sel.Param)
			if err != nil {
				return nil, err
			}
			intervals[axis] = iv

		case ExactIndex:
			if err := checkIndex(sel.Index, size, sel.Param); err != nil {
				return nil, err
			}
			intervals[axis] = dataset.Interval{Lo: sel.Index, Hi: sel.Index}

		case IndexRange:
			if err := checkIndex(sel.ILo, size, sel.Param); err != nil {
				return nil, err
			}
			if err := checkIndex(sel.IHi, size, sel.Param); err != nil {
				return nil, err
			}
			intervals[axis] = dataset.Interval{Lo: sel.ILo, Hi: sel.IHi}
		}
	}
	return intervals, nil
}
