package render

import (
	"image"
	"math"

	"github.com/scigrid/gridserve/gridserve"
	"github.com/scigrid/gridserve/interp"
	"github.com/scigrid/gridserve/query"
)

// Params bundles everything needed to rasterize one 2-D slab. Plane
// holds unpacked physical values in lat-major order, with Lat and Lon
// giving the axis coordinates for its rows and columns in native
// storage order.
type Params struct {
	Plane    *interp.Plane
	Lat      []float64
	Lon      []float64
	Width    int
	Height   int
	BBox     BBox
	Method   interp.Method
	Colormap Colormap
}

// Raster renders the plane into a north-up image: the top pixel row
// maps to BBox.MaxLat. Pixels outside the data domain and pixels whose
// interpolated value is not finite come out fully transparent. Values
// are normalized against the finite min and max of the plane.
func Raster(p Params) (*image.NRGBA, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, gridserve.InvalidParameterError{Msg: "image width and height must be positive"}
	}
	const maxPixels = 64 << 20
	if p.Width*p.Height > maxPixels {
		return nil, gridserve.InvalidParameterError{Msg: "image dimensions too large"}
	}

	lo, hi := planeRange(p.Plane)
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))

	lonSpan := p.BBox.MaxLon - p.BBox.MinLon
	latSpan := p.BBox.MaxLat - p.BBox.MinLat

	for y := 0; y < p.Height; y++ {
		lat := p.BBox.MaxLat - (float64(y)+0.5)/float64(p.Height)*latSpan
		fi, err := query.FractionalPosition(p.Lat, lat)
		if err != nil {
			continue
		}
		for x := 0; x < p.Width; x++ {
			lon := p.BBox.MinLon + (float64(x)+0.5)/float64(p.Width)*lonSpan
			fj, err := LonPosition(p.Lon, p.Plane.WrapJ, lon)
			if err != nil {
				continue
			}
			v := p.Plane.Eval(p.Method, fi, fj)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			t := 0.5
			if hi > lo {
				t = (v - lo) / (hi - lo)
			}
			img.SetNRGBA(x, y, p.Colormap.At(t))
		}
	}
	return img, nil
}

// planeRange returns the finite min and max of the plane. A plane with
// no finite sample yields (0, 0).
func planeRange(p *interp.Plane) (lo, hi float64) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, raw := range p.Data {
		v := float64(raw)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// LonPosition locates lon on the axis, trying 360-degree shifts so a
// query window in any centering finds data stored in another
// convention. For global axes positions in the seam cell between the
// last and the wrapped first column are valid.
func LonPosition(coord []float64, wrap bool, lon float64) (float64, error) {
	var firstErr error
	for _, cand := range []float64{lon, lon - 360, lon + 360, lon - 720, lon + 720} {
		pos, err := query.FractionalPosition(coord, cand)
		if err == nil {
			return pos, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if wrap && len(coord) >= 2 && coord[len(coord)-1] > coord[0] {
		n := len(coord)
		seam := 360 - (coord[n-1] - coord[0])
		for _, cand := range []float64{lon, lon - 360, lon + 360, lon - 720, lon + 720} {
			if cand >= coord[n-1] && cand < coord[n-1]+seam {
				return float64(n-1) + (cand-coord[n-1])/seam, nil
			}
		}
	}
	return 0, firstErr
}
