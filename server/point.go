package server

import (
	"fmt"
	"math"
	"net/http"

	"github.com/zenazn/goji/web"
	"github.com/zenazn/goji/web/middleware"

	"github.com/scigrid/gridserve/dataset"
	"github.com/scigrid/gridserve/gridserve"
	"github.com/scigrid/gridserve/interp"
	"github.com/scigrid/gridserve/query"
	"github.com/scigrid/gridserve/render"
)

type pointDoc struct {
	Lat           float64                `json:"lat"`
	Lon           float64                `json:"lon"`
	Time          *float64               `json:"time,omitempty"`
	Interpolation string                 `json:"interpolation"`
	Values        map[string]interface{} `json:"values"`
	Units         map[string]string      `json:"units,omitempty"`
}

// GET /point?lat=<y>&lon=<x>&vars=<v1,v2>
//
// Interpolates each requested variable at the given geographic
// position. The position accepts the same dimension addressing as
// /data: file names, canonical names behind an underscore, and raw
// indexes behind a double underscore. Optional parameters: time
// (physical value, interpolated between steps), a time index,
// interpolation=nearest|bilinear|bicubic, and exact value or index
// parameters for any further axes.
func (s *Service) pointHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(c)
	values := r.URL.Query()

	selectors, err := query.ParseSelectors(values, s.ds)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	vars, err := query.ParseVars(values, s.ds)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	method, err := parseMethod(values)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	doc := pointDoc{
		Interpolation: string(method),
		Values:        make(map[string]interface{}, len(vars)),
		Units:         make(map[string]string),
	}

	located := false
	for _, v := range vars {
		latDim, lonDim, err := s.ds.SpatialDims(v)
		if err != nil {
			writeError(w, reqID, err)
			return
		}
		lat, err := pointCoordinate(s.ds, latDim, selectors)
		if err != nil {
			writeError(w, reqID, err)
			return
		}
		lon, err := pointCoordinate(s.ds, lonDim, selectors)
		if err != nil {
			writeError(w, reqID, err)
			return
		}
		if !located {
			doc.Lat, doc.Lon = lat, lon
			located = true
		}

		timeDim := timeDimension(s.ds, v)
		ft, err := timeFraction(s.ds, timeDim, selectors)
		if err != nil {
			writeError(w, reqID, err)
			return
		}
		fixed, err := fixedIndexes(s.ds, v, selectors, timeDim)
		if err != nil {
			writeError(w, reqID, err)
			return
		}

		val, err := s.samplePoint(v, lat, lon, ft, timeDim, fixed, method)
		if err != nil {
			writeError(w, reqID, err)
			return
		}
		if math.IsNaN(val) {
			doc.Values[v.Name] = nil
		} else {
			doc.Values[v.Name] = val
		}
		if units, found := v.Attrs["units"].(string); found {
			doc.Units[v.Name] = units
		}

		if timeDim != "" && doc.Time == nil {
			if coord, err := s.ds.Coordinates(timeDim); err == nil {
				t := physicalTime(coord, ft)
				doc.Time = &t
			}
		}
	}
	writeJSON(w, doc)
}

// pointCoordinate resolves a spatial axis selector to a physical
// position. Exact values pass through untouched so off-grid positions
// interpolate; index selectors pin the matching grid line.
func pointCoordinate(ds *dataset.Dataset, dim string, selectors map[string]query.Selector) (float64, error) {
	sel, found := selectors[dim]
	if !found {
		return 0, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("missing required parameter %q", dim),
		}
	}
	switch sel.Kind {
	case query.ExactValue:
		return sel.Value, nil
	case query.ExactIndex:
		coord, err := ds.Coordinates(dim)
		if err != nil {
			return 0, err
		}
		if sel.Index >= len(coord) {
			return 0, gridserve.IndexOutOfBoundsError{
				Param: sel.Param, Provided: sel.Index, Max: len(coord) - 1,
			}
		}
		return coord[sel.Index], nil
	}
	return 0, gridserve.InvalidParameterError{
		Msg: fmt.Sprintf("parameter %q selects a range, but point sampling needs a single position", sel.Param),
	}
}

// samplePoint interpolates v at (lat, lon), blending linearly between
// the time steps bracketing ft.
func (s *Service) samplePoint(v *dataset.Variable, lat, lon, ft float64, timeDim string,
	fixed map[string]int, method interp.Method) (float64, error) {

	i0 := int(math.Floor(ft))
	t := ft - float64(i0)

	sampleAt := func(timeIdx int) (float64, error) {
		if timeDim != "" {
			fixed[timeDim] = timeIdx
		}
		sl, err := extractSlab(s.ds, v, fixed)
		if err != nil {
			return 0, err
		}
		fi, err := query.FractionalPosition(sl.lat, lat)
		if err != nil {
			return 0, err
		}
		fj, err := render.LonPosition(sl.lon, sl.plane.WrapJ, lon)
		if err != nil {
			return 0, err
		}
		return sl.plane.Eval(method, fi, fj), nil
	}

	v0, err := sampleAt(i0)
	if err != nil {
		return 0, err
	}
	if timeDim == "" || t == 0 {
		return v0, nil
	}
	v1, err := sampleAt(i0 + 1)
	if err != nil {
		return 0, err
	}
	return interp.Blend(v0, v1, t), nil
}

// physicalTime maps a fractional axis position back to a physical
// coordinate value.
func physicalTime(coord []float64, ft float64) float64 {
	i0 := int(math.Floor(ft))
	t := ft - float64(i0)
	if t == 0 || i0+1 >= len(coord) {
		return coord[i0]
	}
	return coord[i0] + t*(coord[i0+1]-coord[i0])
}
