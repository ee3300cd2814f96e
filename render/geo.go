/*
Package render turns a 2-D slab of a gridded variable into a colormapped
north-up raster. Geographic helpers handle longitude conventions,
centering windows, and bounding boxes.
*/
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/scigrid/gridserve/gridserve"
)

// BBox is a geographic bounding box in the order min_lon, min_lat,
// max_lon, max_lat.
type BBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// ParseBBox parses "min_lon,min_lat,max_lon,max_lat".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("bbox %q must have 4 comma-separated values", s),
		}
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, gridserve.InvalidParameterError{
				Msg: fmt.Sprintf("bbox component %q is not a number", p),
			}
		}
		vals[i] = v
	}
	b := BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if b.MinLat >= b.MaxLat {
		return BBox{}, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("bbox latitude range [%g, %g] is empty", b.MinLat, b.MaxLat),
		}
	}
	if b.MinLon >= b.MaxLon {
		return BBox{}, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("bbox longitude range [%g, %g] is empty", b.MinLon, b.MaxLon),
		}
	}
	return b, nil
}

// CenterWindow returns the 360-degree longitude window for a map
// center: a named preset or a numeric longitude placed at the middle
// of the window. An empty center is eurocentric.
func CenterWindow(center string) (lo, hi float64, err error) {
	switch center {
	case "", "eurocentric":
		return -180, 180, nil
	case "americas":
		return -90, 270, nil
	case "pacific":
		return 0, 360, nil
	}
	c, perr := strconv.ParseFloat(center, 64)
	if perr != nil {
		return 0, 0, gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("center %q is not eurocentric, americas, pacific, or a longitude", center),
		}
	}
	return c - 180, c + 180, nil
}

// NormalizeLon shifts lon into the window [lo, lo+360).
func NormalizeLon(lon, lo float64) float64 {
	for lon < lo {
		lon += 360
	}
	for lon >= lo+360 {
		lon -= 360
	}
	return lon
}

// IsGlobalLon reports whether a longitude axis covers the full circle,
// in which case the rendered plane wraps across the dateline. The test
// allows one grid cell of slack at the seam.
func IsGlobalLon(coord []float64) bool {
	if len(coord) < 2 {
		return false
	}
	span := math.Abs(coord[len(coord)-1] - coord[0])
	step := span / float64(len(coord)-1)
	return span+step >= 360-1e-6
}
