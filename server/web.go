/*
Package server exposes an in-memory gridded dataset over HTTP. The API
surface is small: /metadata describes the file, /point interpolates
scalars, /data extracts hyperslabs as Arrow IPC or JSON, /image renders
a colormapped raster, and /heartbeat reports liveness.
*/
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/rs/cors"
	"github.com/twinj/uuid"
	"github.com/zenazn/goji/web"
	"github.com/zenazn/goji/web/middleware"

	"github.com/scigrid/gridserve/dataset"
	"github.com/scigrid/gridserve/gridserve"
)

// WebAPIVersion is reported by /heartbeat so clients can detect
// incompatible changes.
const WebAPIVersion = "1.0"

// Service holds the loaded dataset and per-process identity for the
// HTTP handlers.
type Service struct {
	ds        *dataset.Dataset
	serverID  string
	startTime time.Time
}

func newService(ds *dataset.Dataset) *Service {
	return &Service{
		ds:        ds,
		serverID:  uuid.NewV4().String(),
		startTime: time.Now(),
	}
}

func (s *Service) routes() *web.Mux {
	m := web.New()
	m.Use(middleware.RequestID)
	m.Use(middleware.RealIP)
	m.Use(recoverMiddleware)

	m.Get("/metadata", s.metadataHandler)
	m.Get("/point", s.pointHandler)
	m.Get("/data", s.dataHandler)
	m.Get("/image", s.imageHandler)
	m.Get("/heartbeat", s.heartbeatHandler)
	m.Handle("/debug/pprof/*", http.DefaultServeMux)
	return m
}

// Serve blocks, answering HTTP requests for the dataset until the
// process exits.
func Serve(ds *dataset.Dataset) error {
	s := newService(ds)
	handler := corsHandler(s.routes())

	gridserve.Infof("Web server listening at %s ...\n", HTTPAddress())
	if Note() != "" {
		gridserve.Infof("Server note: %s\n", Note())
	}
	if err := http.ListenAndServe(HTTPAddress(), handler); err != nil {
		return fmt.Errorf("web server: %v", err)
	}
	return nil
}

func corsHandler(next http.Handler) http.Handler {
	origins := corsOrigins()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(next)
}

func recoverMiddleware(c *web.C, h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(*c)
		defer func() {
			if e := recover(); e != nil {
				gridserve.Criticalf("panic serving %s [%s]: %+v\n", r.URL.Path, reqID, e)
				writeError(w, reqID, fmt.Errorf("internal error: %v", e))
			}
		}()
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// writeError maps an error onto the HTTP taxonomy: client mistakes get
// 400, over-budget extractions get 413, everything else 500. The
// request id rides along in the body so a client report can be matched
// to the log line.
func writeError(w http.ResponseWriter, reqID string, err error) {
	status := gridserve.StatusCode(err)
	if status >= http.StatusInternalServerError {
		gridserve.Errorf("request failed [%s]: %v\n", reqID, err)
	} else {
		gridserve.Debugf("rejected request [%s]: %v\n", reqID, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": err.Error(), "request_id": reqID}
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		gridserve.Errorf("unable to write error response [%s]: %v\n", reqID, encodeErr)
	}
}

func writeJSON(w http.ResponseWriter, doc interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		gridserve.Errorf("unable to write JSON response: %v\n", err)
	}
}
