// Package query turns HTTP query parameters into resolved index intervals
// over a loaded dataset and encodes extraction results as Arrow IPC streams
// or JSON.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/scigrid/gridserve/dataset"
	"github.com/scigrid/gridserve/gridserve"
)

// SelectorKind enumerates the per-dimension request primitives.
type SelectorKind int

const (
	ExactValue SelectorKind = iota
	ValueRange
	ExactIndex
	IndexRange
)

// Selector is one parsed per-dimension request.
type Selector struct {
	Kind SelectorKind
	// Dim is the file-specific dimension name.
	Dim string
	// Param is the originating query parameter key.
	Param string

	Value    float64 // ExactValue
	Lo, Hi   float64 // ValueRange
	Index    int     // ExactIndex
	ILo, IHi int     // IndexRange
}

// precedence orders competing selectors for the same dimension: raw-index
// forms beat canonical physical values beat file-specific physical values
// beat the legacy time_index shorthand.
func precedence(class dataset.ParamClass) int {
	switch {
	case class.Legacy:
		return 0
	case class.Kind == dataset.ParamIndex || class.Kind == dataset.ParamIndexRange:
		return 3
	case class.Canonical:
		return 2
	default:
		return 1
	}
}

// reservedParams are query keys that are never dimension selectors.
var reservedParams = map[string]bool{
	"vars":           true,
	"var":            true,
	"layout":         true,
	"format":         true,
	"interpolation":  true,
	"bbox":           true,
	"width":          true,
	"height":         true,
	"colormap":       true,
	"center":         true,
	"wrap_longitude": true,
	"resampling":     true,
	"grid":           true,
	"coastlines":     true,
}

// ParseSelectors classifies and parses every non-reserved query parameter
// into at most one selector per dimension, applying the namespace precedence
// when several keys address the same axis.
func ParseSelectors(values url.Values, ds *dataset.Dataset) (map[string]Selector, error) {
	selectors := make(map[string]Selector)
	ranks := make(map[string]int)

	for key := range values {
		if reservedParams[key] {
			continue
		}
		class, err := ds.Aliases.Classify(key)
		if err != nil {
			return nil, err
		}
		if class.Kind == dataset.ParamOther {
			continue
		}
		if class.Legacy {
			gridserve.Warningf("Parameter %q is deprecated; use __time_index instead\n", key)
		}
		sel, err := parseSelector(key, values.Get(key), class, ds)
		if err != nil {
			return nil, err
		}
		rank := precedence(class)
		if prev, exists := ranks[class.Dim]; exists && prev >= rank {
			continue
		}
		selectors[class.Dim] = sel
		ranks[class.Dim] = rank
	}
	return selectors, nil
}

func parseSelector(key, raw string, class dataset.ParamClass, ds *dataset.Dataset) (Selector, error) {
	sel := Selector{Dim: class.Dim, Param: key}
	switch class.Kind {
	case dataset.ParamValue:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sel, gridserve.InvalidParameterError{
				Msg: fmt.Sprintf("%s=%q is not a number", key, raw),
			}
		}
		sel.Kind = ExactValue
		sel.Value = v

	case dataset.ParamValueRange:
		lo, hi, err := parsePair(key, raw)
		if err != nil {
			return sel, err
		}
		sel.Kind = ValueRange
		sel.Lo, sel.Hi = lo, hi

	case dataset.ParamIndex:
		i, err := parseIndex(key, raw)
		if err != nil {
			return sel, err
		}
		sel.Kind = ExactIndex
		sel.Index = i

	case dataset.ParamIndexRange:
		raw0, raw1, found := strings.Cut(raw, ",")
		if !found {
			return sel, gridserve.InvalidParameterError{
				Msg: fmt.Sprintf("%s=%q must be two comma-separated indices", key, raw),
			}
		}
		i0, err := parseIndex(key, strings.TrimSpace(raw0))
		if err != nil {
			return sel, err
		}
		i1, err := parseIndex(key, strings.TrimSpace(raw1))
		if err != nil {
			return sel, err
		}
		if i0 > i1 {
			i0, i1 = i1, i0
		}
		sel.Kind = IndexRange
		sel.ILo, sel.IHi = i0, i1
	}
	return sel, nil
}

func parsePair(key, raw string) (float64, float64, error) {
	raw0, raw1, found := strings.Cut(raw, ",")
	if !found {
		return 0, 0, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("%s=%q must be two comma-separated numbers", key, raw),
		}
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(raw0), 64)
	if err != nil {
		return 0, 0, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("%s: %q is not a number", key, raw0),
		}
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(raw1), 64)
	if err != nil {
		return 0, 0, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("%s: %q is not a number", key, raw1),
		}
	}
	return lo, hi, nil
}

func parseIndex(key, raw string) (int, error) {
	i, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("%s: %q is not an unsigned integer", key, raw),
		}
	}
	return int(i), nil
}

// ParseVars splits the vars parameter and checks each variable exists.
func ParseVars(values url.Values, ds *dataset.Dataset) ([]*dataset.Variable, error) {
	raw := values.Get("vars")
	if raw == "" {
		return nil, gridserve.InvalidParameterError{Msg: "missing required parameter vars"}
	}
	var vars []*dataset.Variable
	for _, name := range strings.Split(raw, ",") {
		v, err := ds.Variable(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}
