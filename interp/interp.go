/*
Package interp provides spatial and temporal interpolation over regular
2-D planes extracted from gridded variables. A Plane is a lat-major slab
of float32 samples; the interpolators evaluate it at fractional grid
positions produced by coordinate lookup.
*/
package interp

import (
	"math"

	"github.com/scigrid/gridserve/gridserve"
)

// Method identifies an interpolation scheme.
type Method string

const (
	Nearest  Method = "nearest"
	Bilinear Method = "bilinear"
	Bicubic  Method = "bicubic"
)

// ParseMethod validates a method name, returning Bilinear for the empty
// string.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "":
		return Bilinear, nil
	case Nearest, Bilinear, Bicubic:
		return Method(s), nil
	}
	return "", gridserve.InvalidParameterError{
		Msg: "unknown interpolation method " + s + " (want nearest, bilinear, or bicubic)",
	}
}

// Plane is a 2-D slab of samples with NI rows and NJ columns, stored
// row-major. WrapJ marks the column axis as periodic, which is the case
// for global longitude axes.
type Plane struct {
	Data  []float32
	NI    int
	NJ    int
	WrapJ bool
}

// At returns the sample at integer position (i, j). Rows clamp to the
// plane edges. Columns wrap when WrapJ is set and clamp otherwise.
func (p *Plane) At(i, j int) float64 {
	if i < 0 {
		i = 0
	} else if i >= p.NI {
		i = p.NI - 1
	}
	if p.WrapJ {
		j = ((j % p.NJ) + p.NJ) % p.NJ
	} else if j < 0 {
		j = 0
	} else if j >= p.NJ {
		j = p.NJ - 1
	}
	return float64(p.Data[i*p.NJ+j])
}

// Eval interpolates the plane at fractional position (fi, fj) using the
// given method.
func (p *Plane) Eval(m Method, fi, fj float64) float64 {
	switch m {
	case Nearest:
		return p.nearest(fi, fj)
	case Bicubic:
		return p.bicubic(fi, fj)
	default:
		return p.bilinear(fi, fj)
	}
}

func (p *Plane) nearest(fi, fj float64) float64 {
	return p.At(int(math.Round(fi)), int(math.Round(fj)))
}

func (p *Plane) bilinear(fi, fj float64) float64 {
	i0 := int(math.Floor(fi))
	j0 := int(math.Floor(fj))
	ti := fi - float64(i0)
	tj := fj - float64(j0)

	v00 := p.At(i0, j0)
	v01 := p.At(i0, j0+1)
	v10 := p.At(i0+1, j0)
	v11 := p.At(i0+1, j0+1)

	return v00*(1-ti)*(1-tj) +
		v01*(1-ti)*tj +
		v10*ti*(1-tj) +
		v11*ti*tj
}

// cubicWeights returns the Catmull-Rom weights for the four samples
// bracketing fractional offset t in [0, 1].
func cubicWeights(t float64) (w0, w1, w2, w3 float64) {
	t2 := t * t
	t3 := t2 * t
	w0 = -0.5*t + t2 - 0.5*t3
	w1 = 1 - 2.5*t2 + 1.5*t3
	w2 = 0.5*t + 2*t2 - 1.5*t3
	w3 = -0.5*t2 + 0.5*t3
	return
}

func (p *Plane) bicubic(fi, fj float64) float64 {
	i0 := int(math.Floor(fi))
	j0 := int(math.Floor(fj))
	wi0, wi1, wi2, wi3 := cubicWeights(fi - float64(i0))
	wj0, wj1, wj2, wj3 := cubicWeights(fj - float64(j0))
	wi := [4]float64{wi0, wi1, wi2, wi3}
	wj := [4]float64{wj0, wj1, wj2, wj3}

	var sum float64
	for di := 0; di < 4; di++ {
		var row float64
		for dj := 0; dj < 4; dj++ {
			row += wj[dj] * p.At(i0-1+di, j0-1+dj)
		}
		sum += wi[di] * row
	}
	return sum
}

// Blend mixes two samples linearly: t=0 yields a, t=1 yields b. Used
// for temporal interpolation between adjacent time steps.
func Blend(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
