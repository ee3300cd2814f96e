package server

import (
	"fmt"
	"image/png"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zenazn/goji/web"
	"github.com/zenazn/goji/web/middleware"

	"github.com/scigrid/gridserve/gridserve"
	"github.com/scigrid/gridserve/query"
	"github.com/scigrid/gridserve/render"
)

const (
	defaultImageWidth  = 800
	defaultImageHeight = 600
)

// GET /image?var=<name>
//
// Renders one lat/lon plane of the variable as a colormapped,
// north-up PNG. The time step and any further axes accept the same
// dimension addressing as /data. Optional parameters:
// bbox=min_lon,min_lat,max_lon,max_lat, width, height, colormap,
// center=eurocentric|americas|pacific|<longitude>, interpolation,
// grid=true for a graticule, coastlines=true for a coarse coastline
// overlay.
func (s *Service) imageHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	tlog := gridserve.NewTimeLog()
	reqID := middleware.GetReqID(c)
	values := r.URL.Query()

	varName := values.Get("var")
	if varName == "" {
		writeError(w, reqID, gridserve.InvalidParameterError{Msg: "missing required parameter \"var\""})
		return
	}
	v, err := s.ds.Variable(varName)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	selectors, err := query.ParseSelectors(values, s.ds)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	timeDim := timeDimension(s.ds, v)
	fixed, err := fixedIndexes(s.ds, v, selectors, timeDim)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	if timeDim != "" {
		idx := 0
		if sel, found := selectors[timeDim]; found {
			idx, err = pinSelector(s.ds, sel)
			if err != nil {
				writeError(w, reqID, err)
				return
			}
		}
		fixed[timeDim] = idx
	}

	sl, err := extractSlab(s.ds, v, fixed)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	width, err := sizeParam(values, "width", defaultImageWidth)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	height, err := sizeParam(values, "height", defaultImageHeight)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	bbox, err := imageBBox(values, sl)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	cm, err := render.LookupColormap(values.Get("colormap"))
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	method, err := parseMethod(values)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	img, err := render.Raster(render.Params{
		Plane:    sl.plane,
		Lat:      sl.lat,
		Lon:      sl.lon,
		Width:    width,
		Height:   height,
		BBox:     bbox,
		Method:   method,
		Colormap: cm,
	})
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	if boolParam(values, "grid") {
		render.DrawGraticule(img, bbox, 30)
	}
	if boolParam(values, "coastlines") {
		render.DrawCoastlines(img, bbox)
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		gridserve.Errorf("unable to encode PNG [%s]: %v\n", reqID, err)
	}
	tlog.Debugf("HTTP GET /image?%s [%s]", r.URL.RawQuery, reqID)
}

// imageBBox picks the raster extent: an explicit bbox wins, otherwise
// the center parameter chooses the longitude window (eurocentric when
// absent) over the data's latitude extent.
func imageBBox(values url.Values, sl *slab) (render.BBox, error) {
	if raw := values.Get("bbox"); raw != "" {
		return render.ParseBBox(raw)
	}
	lo, hi, err := render.CenterWindow(values.Get("center"))
	if err != nil {
		return render.BBox{}, err
	}
	minLat, maxLat := axisExtent(sl.lat)
	return render.BBox{MinLon: lo, MinLat: minLat, MaxLon: hi, MaxLat: maxLat}, nil
}

func axisExtent(coord []float64) (lo, hi float64) {
	lo, hi = coord[0], coord[len(coord)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func sizeParam(values url.Values, name string, fallback int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("parameter %q = %q is not a positive integer", name, raw),
		}
	}
	return val, nil
}

func boolParam(values url.Values, name string) bool {
	val, err := strconv.ParseBool(values.Get(name))
	return err == nil && val
}
