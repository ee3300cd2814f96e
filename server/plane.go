package server

import (
	"fmt"
	"net/url"

	"github.com/scigrid/gridserve/dataset"
	"github.com/scigrid/gridserve/gridserve"
	"github.com/scigrid/gridserve/interp"
	"github.com/scigrid/gridserve/query"
	"github.com/scigrid/gridserve/render"
)

// slab is one horizontal cut of a variable: unpacked physical values in
// lat-major order with the axis coordinates alongside.
type slab struct {
	plane *interp.Plane
	lat   []float64
	lon   []float64
}

// extractSlab cuts the lat/lon plane of v with every other axis pinned
// to the index in fixed (missing entries pin to 0). Packed values are
// unpacked and fill values come out as NaN.
func extractSlab(ds *dataset.Dataset, v *dataset.Variable, fixed map[string]int) (*slab, error) {
	latDim, lonDim, err := ds.SpatialDims(v)
	if err != nil {
		return nil, err
	}

	intervals := make([]dataset.Interval, len(v.Dims))
	perm := make([]int, 0, len(v.Dims))
	latAxis, lonAxis := -1, -1
	for i, dim := range v.Dims {
		size := ds.Dimensions[dim].Size
		switch dim {
		case latDim:
			intervals[i] = dataset.Interval{Lo: 0, Hi: size - 1}
			latAxis = i
		case lonDim:
			intervals[i] = dataset.Interval{Lo: 0, Hi: size - 1}
			lonAxis = i
		default:
			idx := fixed[dim]
			if idx < 0 || idx >= size {
				return nil, gridserve.IndexOutOfBoundsError{
					Param: dim, Provided: idx, Max: size - 1,
				}
			}
			intervals[i] = dataset.Interval{Lo: idx, Hi: idx}
			perm = append(perm, i)
		}
	}
	perm = append(perm, latAxis, lonAxis)

	grid, err := query.Extract(v, intervals, perm)
	if err != nil {
		return nil, err
	}
	data := make([]float32, grid.Len())
	for i, raw := range grid.Data() {
		data[i] = float32(v.Unpack(raw))
	}

	lat, err := ds.Coordinates(latDim)
	if err != nil {
		return nil, err
	}
	lon, err := ds.Coordinates(lonDim)
	if err != nil {
		return nil, err
	}
	return &slab{
		plane: &interp.Plane{
			Data:  data,
			NI:    len(lat),
			NJ:    len(lon),
			WrapJ: render.IsGlobalLon(lon),
		},
		lat: lat,
		lon: lon,
	}, nil
}

// timeDimension returns the name of v's time axis, or "" when the
// variable has none.
func timeDimension(ds *dataset.Dataset, v *dataset.Variable) string {
	name := dataset.CanonicalTime
	if mapped, found := ds.Aliases.File(dataset.CanonicalTime); found {
		name = mapped
	}
	for _, dim := range v.Dims {
		if dim == name {
			return name
		}
	}
	return ""
}

// pinSelector resolves one selector to a single axis index. Range
// selectors have no meaning when a single plane or position is wanted.
func pinSelector(ds *dataset.Dataset, sel query.Selector) (int, error) {
	size := ds.Dimensions[sel.Dim].Size
	switch sel.Kind {
	case query.ExactValue:
		coord, err := ds.Coordinates(sel.Dim)
		if err != nil {
			return 0, err
		}
		return query.ResolveExact(coord, sel.Value, sel.Dim)
	case query.ExactIndex:
		if sel.Index >= size {
			return 0, gridserve.IndexOutOfBoundsError{
				Param: sel.Param, Provided: sel.Index, Max: size - 1,
			}
		}
		return sel.Index, nil
	}
	return 0, gridserve.InvalidParameterError{
		Msg: fmt.Sprintf("parameter %q selects a range, but a single %s step is needed here", sel.Param, sel.Dim),
	}
}

// fixedIndexes resolves the non-spatial, non-time axes of v from the
// parsed selectors. Unmentioned axes pin to index 0.
func fixedIndexes(ds *dataset.Dataset, v *dataset.Variable, selectors map[string]query.Selector, timeDim string) (map[string]int, error) {
	latDim, lonDim, err := ds.SpatialDims(v)
	if err != nil {
		return nil, err
	}
	fixed := make(map[string]int)
	for _, dim := range v.Dims {
		if dim == latDim || dim == lonDim || dim == timeDim {
			continue
		}
		sel, found := selectors[dim]
		if !found {
			continue
		}
		idx, err := pinSelector(ds, sel)
		if err != nil {
			return nil, err
		}
		fixed[dim] = idx
	}
	return fixed, nil
}

// timeFraction resolves the time selector into a fractional position on
// the time axis. A physical value lands between steps; an index pins one
// exactly. Returns 0 when the variable has no time axis or no selector
// addresses it.
func timeFraction(ds *dataset.Dataset, timeDim string, selectors map[string]query.Selector) (float64, error) {
	if timeDim == "" {
		return 0, nil
	}
	sel, found := selectors[timeDim]
	if !found {
		return 0, nil
	}
	if sel.Kind == query.ExactValue {
		coord, err := ds.Coordinates(timeDim)
		if err != nil {
			return 0, err
		}
		return query.FractionalPosition(coord, sel.Value)
	}
	idx, err := pinSelector(ds, sel)
	if err != nil {
		return 0, err
	}
	return float64(idx), nil
}

// parseMethod honors an explicit interpolation parameter and falls back
// to the configured default.
func parseMethod(values url.Values) (interp.Method, error) {
	name := values.Get("interpolation")
	if name == "" {
		return DefaultInterpolation(), nil
	}
	return interp.ParseMethod(name)
}
