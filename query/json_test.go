package query

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/scigrid/gridserve/dataset"
)

func decodeJSONBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, body)
	}
	return doc
}

func TestWriteJSON(t *testing.T) {
	ds := testDataset(t)
	v, _ := ds.Variable("t2m")
	selectors := map[string]Selector{
		"time": {Kind: ExactValue, Dim: "time", Param: "time", Value: 6},
		"lat":  {Kind: ExactValue, Dim: "lat", Param: "lat", Value: 0},
	}
	res, err := BuildResult(ds, []*dataset.Variable{v}, selectors, "", 0, "vars=t2m&time=6&lat=0")
	if err != nil {
		t.Fatalf("BuildResult: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	doc := decodeJSONBody(t, buf.Bytes())

	meta := doc["metadata"].(map[string]interface{})
	if meta["query"] != "vars=t2m&time=6&lat=0" {
		t.Errorf("metadata query = %v", meta["query"])
	}
	shapes := meta["shapes"].(map[string]interface{})
	shape := shapes["t2m"].([]interface{})
	if len(shape) != 3 || shape[0].(float64) != 1 || shape[1].(float64) != 1 || shape[2].(float64) != 4 {
		t.Errorf("shape = %v, want [1 1 4]", shape)
	}

	data := doc["data"].(map[string]interface{})
	values := data["t2m"].([]interface{})
	if len(values) != 4 {
		t.Fatalf("got %d values, want 4", len(values))
	}
	// time index 1, lat index 1, lon 0..3: flat 16..19 -> 296..299
	want := []float64{296, 297, 298, 299}
	for i, v := range values {
		if v.(float64) != want[i] {
			t.Errorf("value %d = %v, want %g", i, v, want[i])
		}
	}
}

func TestWriteJSONFillAndPacking(t *testing.T) {
	res := &Result{
		Dims:   []string{"x"},
		Coords: [][]float64{{0, 1, 2}},
		Vars: []VarResult{{
			Name:  "v",
			Dims:  []string{"x"},
			Shape: []int{3},
			Data:  []float32{10, -9999, 20},
			Attrs: dataset.Attributes{
				"_FillValue":   float32(-9999),
				"scale_factor": 0.5,
				"add_offset":   float64(100),
			},
		}},
		Query: "vars=v",
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	doc := decodeJSONBody(t, buf.Bytes())
	values := doc["data"].(map[string]interface{})["v"].([]interface{})
	if values[0].(float64) != 105 {
		t.Errorf("values[0] = %v, want 105 (10*0.5+100)", values[0])
	}
	if values[1] != nil {
		t.Errorf("values[1] = %v, want null for fill", values[1])
	}
	if values[2].(float64) != 110 {
		t.Errorf("values[2] = %v, want 110", values[2])
	}
}

func TestWriteJSONMultipleVars(t *testing.T) {
	res := &Result{
		Dims:   []string{"x"},
		Coords: [][]float64{{0, 1}},
		Vars: []VarResult{
			{Name: "a", Dims: []string{"x"}, Shape: []int{2}, Data: []float32{1, 2}, Attrs: dataset.Attributes{}},
			{Name: "b", Dims: []string{"x"}, Shape: []int{2}, Data: []float32{3, 4}, Attrs: dataset.Attributes{}},
		},
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	doc := decodeJSONBody(t, buf.Bytes())
	data := doc["data"].(map[string]interface{})
	if len(data) != 2 {
		t.Errorf("data block has %d variables, want 2", len(data))
	}
}
