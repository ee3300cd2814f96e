package server

import (
	"net/http"

	"github.com/zenazn/goji/web"
	"github.com/zenazn/goji/web/middleware"

	"github.com/scigrid/gridserve/gridserve"
	"github.com/scigrid/gridserve/query"
)

// GET /data?vars=<v1,v2>
//
// Extracts a hyperslab of the requested variables. Each axis can be
// constrained by physical value (<dim>=, <dim>_range=), by canonical
// name (_time=, _latitude_range=), or by raw index (__<canonical>_index=,
// __<canonical>_index_range=). The layout parameter transposes the
// output axes. format=arrow (default) streams Arrow IPC; format=json
// streams a JSON document with unpacked values.
func (s *Service) dataHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	tlog := gridserve.NewTimeLog()
	reqID := middleware.GetReqID(c)
	values := r.URL.Query()

	format := values.Get("format")
	switch format {
	case "", "arrow", "json":
	default:
		writeError(w, reqID, gridserve.InvalidParameterError{
			Msg: "unknown format " + format + " (want arrow or json)",
		})
		return
	}

	vars, err := query.ParseVars(values, s.ds)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	selectors, err := query.ParseSelectors(values, s.ds)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	res, err := query.BuildResult(s.ds, vars, selectors, values.Get("layout"),
		MaxDataPoints(), r.URL.RawQuery)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		if err := query.WriteJSON(w, res); err != nil {
			gridserve.Errorf("unable to stream JSON data [%s]: %v\n", reqID, err)
		}
	} else {
		w.Header().Set("Content-Type", query.ArrowContentType)
		if err := query.WriteArrow(w, res); err != nil {
			gridserve.Errorf("unable to stream Arrow data [%s]: %v\n", reqID, err)
		}
	}
	tlog.Debugf("HTTP GET /data?%s [%s]", r.URL.RawQuery, reqID)
}
