package server

import (
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scigrid/gridserve/dataset"
	"github.com/scigrid/gridserve/query"
)

// testService serves t2m[time(4), lat(3), lon(4)] with value 280 + flat
// index and aliases {time:time, latitude:lat, longitude:lon}.
func testService(t *testing.T) *Service {
	t.Helper()
	dims := map[string]dataset.Dimension{
		"time": {Name: "time", Size: 4},
		"lat":  {Name: "lat", Size: 3},
		"lon":  {Name: "lon", Size: 4},
	}
	coords := map[string][]float64{
		"time": {0, 6, 12, 18},
		"lat":  {-10, 0, 10},
		"lon":  {0, 90, 180, 270},
	}
	data := make([]float32, 48)
	for i := range data {
		data[i] = 280 + float32(i)
	}
	grid, err := dataset.NewGrid([]int{4, 3, 4}, data)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	vars := map[string]*dataset.Variable{
		"t2m": {
			Name:  "t2m",
			Dims:  []string{"time", "lat", "lon"},
			Attrs: dataset.Attributes{"units": "K"},
			Grid:  grid,
		},
	}
	ds, err := dataset.New("test.nc", dims, coords, vars,
		dataset.Attributes{"title": "test file"},
		map[string]string{"time": "time", "latitude": "lat", "longitude": "lon"})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return newService(ds)
}

func doRequest(t *testing.T, s *Service, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)
	return w
}

func decodeDoc(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, w.Body.String())
	}
	return doc
}

func TestMetadataHandler(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/metadata")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	doc := decodeDoc(t, w)

	dims := doc["dimensions"].(map[string]interface{})
	timeDim := dims["time"].(map[string]interface{})
	if timeDim["size"].(float64) != 4 {
		t.Errorf("time size = %v, want 4", timeDim["size"])
	}
	vars := doc["variables"].(map[string]interface{})
	t2m := vars["t2m"].(map[string]interface{})
	shape := t2m["shape"].([]interface{})
	if len(shape) != 3 || shape[0].(float64) != 4 || shape[1].(float64) != 3 || shape[2].(float64) != 4 {
		t.Errorf("t2m shape = %v, want [4 3 4]", shape)
	}
	attrs := t2m["attributes"].(map[string]interface{})
	if attrs["units"] != "K" {
		t.Errorf("t2m units = %v", attrs["units"])
	}
	global := doc["global_attributes"].(map[string]interface{})
	if global["title"] != "test file" {
		t.Errorf("global title = %v", global["title"])
	}
	coords := doc["coordinates"].(map[string]interface{})
	lat := coords["lat"].([]interface{})
	if len(lat) != 3 || lat[0].(float64) != -10 {
		t.Errorf("lat coords = %v", lat)
	}
}

func TestPointHandlerGridPoint(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/point?lat=0&lon=90&vars=t2m&time_index=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	doc := decodeDoc(t, w)
	values := doc["values"].(map[string]interface{})
	// time 1, lat 1, lon 1: flat 17 -> 297
	if got := values["t2m"].(float64); got != 297 {
		t.Errorf("t2m = %v, want 297", got)
	}
	if doc["interpolation"] != "bilinear" {
		t.Errorf("interpolation = %v, want bilinear default", doc["interpolation"])
	}
	units := doc["units"].(map[string]interface{})
	if units["t2m"] != "K" {
		t.Errorf("units = %v", units["t2m"])
	}
}

func TestPointHandlerBilinearMidpoint(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/point?lat=-5&lon=45&vars=t2m")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	doc := decodeDoc(t, w)
	// time 0 corners: 280, 281, 284, 285 -> mean 282.5
	got := doc["values"].(map[string]interface{})["t2m"].(float64)
	if math.Abs(got-282.5) > 1e-9 {
		t.Errorf("t2m = %v, want 282.5", got)
	}
}

func TestPointHandlerTemporalBlend(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/point?lat=0&lon=90&vars=t2m&time=3")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	doc := decodeDoc(t, w)
	// halfway between 285 (time 0) and 297 (time 6)
	got := doc["values"].(map[string]interface{})["t2m"].(float64)
	if math.Abs(got-291) > 1e-9 {
		t.Errorf("t2m = %v, want 291", got)
	}
	if doc["time"].(float64) != 3 {
		t.Errorf("time = %v, want 3", doc["time"])
	}
}

func TestPointHandlerCanonicalNames(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/point?_latitude=-5&_longitude=45&vars=t2m")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	doc := decodeDoc(t, w)
	got := doc["values"].(map[string]interface{})["t2m"].(float64)
	if math.Abs(got-282.5) > 1e-9 {
		t.Errorf("t2m = %v, want 282.5", got)
	}

	w = doRequest(t, s, "/point?__latitude_index=1&__longitude_index=1&__time_index=1&vars=t2m")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	doc = decodeDoc(t, w)
	if got := doc["values"].(map[string]interface{})["t2m"].(float64); got != 297 {
		t.Errorf("t2m = %v, want 297", got)
	}
	if doc["lat"].(float64) != 0 || doc["lon"].(float64) != 90 {
		t.Errorf("position = (%v, %v), want (0, 90)", doc["lat"], doc["lon"])
	}
}

func TestPointHandlerTimeIndexOutOfBounds(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/point?lon=0&lat=0&__time_index=99&vars=t2m")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
	msg := decodeDoc(t, w)["error"].(string)
	if !strings.Contains(msg, "__time_index") || !strings.Contains(msg, "99") || !strings.Contains(msg, "3") {
		t.Errorf("error %q should name the parameter and the bounds", msg)
	}
}

func TestPointHandlerBadRequests(t *testing.T) {
	s := testService(t)
	bad := []string{
		"/point?lon=90&vars=t2m",
		"/point?lat=0&lon=90",
		"/point?lat=abc&lon=90&vars=t2m",
		"/point?lat=0&lon=90&vars=nope",
		"/point?lat=0&lon=90&vars=t2m&interpolation=spline",
		"/point?lat=0&lon=90&vars=t2m&time=999",
		"/point?_latitude=0&lon=0&time=0&vars=t2m&_level=500",
		"/point?lat_range=0,10&lon=90&vars=t2m",
		"/point?lat=0&lon=90&vars=t2m&__time_index_range=0,2",
	}
	for _, target := range bad {
		w := doRequest(t, s, target)
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", target, w.Code)
		}
		doc := decodeDoc(t, w)
		if doc["error"] == "" {
			t.Errorf("GET %s: no error message", target)
		}
		if id, _ := doc["request_id"].(string); id == "" {
			t.Errorf("GET %s: no request_id in error body", target)
		}
	}
}

func TestDataHandlerJSON(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/data?vars=t2m&time=6&lat=0&format=json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	doc := decodeDoc(t, w)
	values := doc["data"].(map[string]interface{})["t2m"].([]interface{})
	if len(values) != 4 {
		t.Fatalf("got %d values, want 4", len(values))
	}
	if values[0].(float64) != 296 || values[3].(float64) != 299 {
		t.Errorf("values = %v, want 296..299", values)
	}
}

func TestDataHandlerArrowDefault(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/data?vars=t2m&time=6&lat=0")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != query.ArrowContentType {
		t.Errorf("Content-Type = %q, want %q", ct, query.ArrowContentType)
	}
	if w.Body.Len() == 0 {
		t.Errorf("empty Arrow stream")
	}
}

func TestDataHandlerPayloadTooLarge(t *testing.T) {
	s := testService(t)
	saved := tc.Data.MaxDataPoints
	tc.Data.MaxDataPoints = 10
	defer func() { tc.Data.MaxDataPoints = saved }()

	w := doRequest(t, s, "/data?vars=t2m")
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	doc := decodeDoc(t, w)
	msg := doc["error"].(string)
	if !strings.Contains(msg, "48") || !strings.Contains(msg, "10") {
		t.Errorf("error %q should name requested and allowed counts", msg)
	}
}

func TestDataHandlerBadRequests(t *testing.T) {
	s := testService(t)
	bad := []string{
		"/data?vars=nope",
		"/data?time=6",
		"/data?vars=t2m&_level=500",
		"/data?vars=t2m&lat=abc",
		"/data?vars=t2m&format=csv",
		"/data?vars=t2m&layout=lat,lon",
		"/data?vars=t2m&time=7",
	}
	for _, target := range bad {
		w := doRequest(t, s, target)
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestImageHandler(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/image?var=t2m&width=64&height=32&time=6&grid=true&coastlines=true")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 32 {
		t.Errorf("image is %dx%d, want 64x32", bounds.Dx(), bounds.Dy())
	}
}

func TestImageHandlerCenterWindow(t *testing.T) {
	s := testService(t)
	for _, target := range []string{
		"/image?var=t2m&width=32&height=16&center=pacific",
		"/image?var=t2m&width=32&height=16&center=120",
		"/image?var=t2m&width=32&height=16&_time=6",
		"/image?var=t2m&width=32&height=16&__time_index=1",
	} {
		w := doRequest(t, s, target)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: status = %d, body %s", target, w.Code, w.Body.String())
		}
		if _, err := png.Decode(w.Body); err != nil {
			t.Errorf("GET %s: png.Decode: %v", target, err)
		}
	}
}

func TestImageHandlerBadRequests(t *testing.T) {
	s := testService(t)
	bad := []string{
		"/image",
		"/image?var=nope",
		"/image?var=t2m&colormap=jet",
		"/image?var=t2m&width=-5",
		"/image?var=t2m&bbox=1,2,3",
		"/image?var=t2m&time=7",
		"/image?var=t2m&center=mercator",
		"/image?var=t2m&__time_index=99",
	}
	for _, target := range bad {
		w := doRequest(t, s, target)
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestHeartbeatHandler(t *testing.T) {
	s := testService(t)
	w := doRequest(t, s, "/heartbeat")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	doc := decodeDoc(t, w)
	if doc["status"] != "ok" {
		t.Errorf("status = %v", doc["status"])
	}
	if doc["server_id"] == "" {
		t.Errorf("missing server_id")
	}
	info := doc["dataset"].(map[string]interface{})
	if info["variables"].(float64) != 1 {
		t.Errorf("dataset variables = %v, want 1", info["variables"])
	}
	if info["data_bytes"].(float64) <= 0 {
		t.Errorf("data_bytes = %v, want positive", info["data_bytes"])
	}
}
