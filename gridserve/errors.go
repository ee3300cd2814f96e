package gridserve

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
)

// The error types below form the closed set of request failure modes.
// Each maps to an HTTP status via StatusCode.

// InvalidParameterError covers missing, unparseable, or out-of-vocabulary
// request parameters.
type InvalidParameterError struct {
	Msg string
}

func (e InvalidParameterError) Error() string {
	return "invalid parameter: " + e.Msg
}

// DimensionNotFoundError reports a selector key that resolves to no
// dimension, neither file-specific nor through a canonical alias.
type DimensionNotFoundError struct {
	Name      string
	Available []string
	Aliases   map[string]string
}

func (e DimensionNotFoundError) Error() string {
	aliases := make([]string, 0, len(e.Aliases))
	for canonical, file := range e.Aliases {
		aliases = append(aliases, canonical+"->"+file)
	}
	return fmt.Sprintf("dimension %q not found: available dimensions [%s], aliases [%s]",
		e.Name, strings.Join(e.Available, ", "), strings.Join(aliases, ", "))
}

type VariableNotFoundError struct {
	Name      string
	Available []string
}

func (e VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found: available variables [%s]",
		e.Name, strings.Join(e.Available, ", "))
}

// PhysicalValueNotFoundError reports an exact-value selector that matched
// no coordinate sample within tolerance.
type PhysicalValueNotFoundError struct {
	Dimension string
	Value     float64
	Min, Max  float64
}

func (e PhysicalValueNotFoundError) Error() string {
	return fmt.Sprintf("no coordinate of dimension %q equals %g: coordinates span [%g, %g]",
		e.Dimension, e.Value, e.Min, e.Max)
}

type IndexOutOfBoundsError struct {
	Param    string
	Provided int
	Max      int
}

func (e IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d for %q out of bounds: max index is %d",
		e.Provided, e.Param, e.Max)
}

// InvalidCoordinatesError reports a spatial query point outside the data domain.
type InvalidCoordinatesError struct {
	Msg string
}

func (e InvalidCoordinatesError) Error() string {
	return "invalid coordinates: " + e.Msg
}

// PayloadTooLargeError is returned before any extraction when a request
// would materialize more points than the configured maximum.
type PayloadTooLargeError struct {
	Requested  int64
	MaxAllowed int64
}

func (e PayloadTooLargeError) Error() string {
	return fmt.Sprintf("requested %s data points but the server allows at most %s per request",
		humanize.Comma(e.Requested), humanize.Comma(e.MaxAllowed))
}

// ConversionError wraps a failure while encoding a response body.
type ConversionError struct {
	Op  string
	Err error
}

func (e ConversionError) Error() string {
	return fmt.Sprintf("%s encoding failed: %v", e.Op, e.Err)
}

func (e ConversionError) Unwrap() error {
	return e.Err
}

// StatusCode maps any error to its HTTP status.  Errors outside the
// request-failure set map to 500.
func StatusCode(err error) int {
	var (
		invalidParam  InvalidParameterError
		dimNotFound   DimensionNotFoundError
		varNotFound   VariableNotFoundError
		valueNotFound PhysicalValueNotFoundError
		outOfBounds   IndexOutOfBoundsError
		badCoords     InvalidCoordinatesError
		tooLarge      PayloadTooLargeError
	)
	switch {
	case errors.As(err, &invalidParam),
		errors.As(err, &dimNotFound),
		errors.As(err, &varNotFound),
		errors.As(err, &valueNotFound),
		errors.As(err, &outOfBounds),
		errors.As(err, &badCoords):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
