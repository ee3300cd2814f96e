package interp

import (
	"math"
	"testing"
)

// testPlane is a 3x4 plane with value 10*i + j at (i, j).
func testPlane(wrap bool) *Plane {
	data := make([]float32, 12)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			data[i*4+j] = float32(10*i + j)
		}
	}
	return &Plane{Data: data, NI: 3, NJ: 4, WrapJ: wrap}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	if err != nil || m != Bilinear {
		t.Errorf("ParseMethod(\"\") = %v, %v, want bilinear default", m, err)
	}
	for _, name := range []string{"nearest", "bilinear", "bicubic"} {
		m, err := ParseMethod(name)
		if err != nil || string(m) != name {
			t.Errorf("ParseMethod(%q) = %v, %v", name, m, err)
		}
	}
	if _, err := ParseMethod("cubic-spline"); err == nil {
		t.Errorf("expected error for unknown method")
	}
}

// Every method must reproduce grid-point values exactly.
func TestGridPointIdentity(t *testing.T) {
	p := testPlane(false)
	for _, m := range []Method{Nearest, Bilinear, Bicubic} {
		for i := 0; i < p.NI; i++ {
			for j := 0; j < p.NJ; j++ {
				want := float64(10*i + j)
				got := p.Eval(m, float64(i), float64(j))
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("%s at (%d,%d) = %g, want %g", m, i, j, got, want)
				}
			}
		}
	}
}

func TestBilinearMidpoint(t *testing.T) {
	p := &Plane{Data: []float32{285, 287, 288, 290}, NI: 2, NJ: 2}
	got := p.Eval(Bilinear, 0.5, 0.5)
	if math.Abs(got-287.5) > 1e-9 {
		t.Errorf("midpoint = %g, want 287.5", got)
	}
}

func TestBilinearAxisAligned(t *testing.T) {
	p := testPlane(false)
	got := p.Eval(Bilinear, 0, 1.5)
	if math.Abs(got-1.5) > 1e-9 {
		t.Errorf("row interp = %g, want 1.5", got)
	}
	got = p.Eval(Bilinear, 0.25, 2)
	if math.Abs(got-4.5) > 1e-9 {
		t.Errorf("column interp = %g, want 4.5", got)
	}
}

func TestNearestRounds(t *testing.T) {
	p := testPlane(false)
	if got := p.Eval(Nearest, 0.4, 2.6); got != 3 {
		t.Errorf("nearest(0.4, 2.6) = %g, want 3", got)
	}
	if got := p.Eval(Nearest, 1.6, 0.2); got != 20 {
		t.Errorf("nearest(1.6, 0.2) = %g, want 20", got)
	}
}

func TestCubicWeightsPartitionUnity(t *testing.T) {
	for _, tt := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		w0, w1, w2, w3 := cubicWeights(tt)
		sum := w0 + w1 + w2 + w3
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("weights(%g) sum = %g, want 1", tt, sum)
		}
	}
}

// Bicubic on a linear field reproduces the field exactly.
func TestBicubicLinearField(t *testing.T) {
	data := make([]float32, 36)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			data[i*6+j] = float32(2*i + 3*j)
		}
	}
	p := &Plane{Data: data, NI: 6, NJ: 6}
	got := p.Eval(Bicubic, 2.5, 2.25)
	want := 2*2.5 + 3*2.25
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("bicubic linear = %g, want %g", got, want)
	}
}

func TestColumnWrap(t *testing.T) {
	p := testPlane(true)
	// halfway between the last column (j=3) and the wrapped first (j=0)
	got := p.Eval(Bilinear, 0, 3.5)
	want := (3.0 + 0.0) / 2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("wrapped interp = %g, want %g", got, want)
	}
	if got := p.At(0, -1); got != 3 {
		t.Errorf("At(0,-1) wrapped = %g, want 3", got)
	}
	if got := p.At(0, 4); got != 0 {
		t.Errorf("At(0,4) wrapped = %g, want 0", got)
	}
}

func TestEdgeClamp(t *testing.T) {
	p := testPlane(false)
	if got := p.At(-2, 0); got != 0 {
		t.Errorf("At(-2,0) = %g, want 0 (row clamp)", got)
	}
	if got := p.At(5, 2); got != 22 {
		t.Errorf("At(5,2) = %g, want 22 (row clamp)", got)
	}
	if got := p.At(0, 9); got != 3 {
		t.Errorf("At(0,9) = %g, want 3 (column clamp)", got)
	}
}

func TestBlend(t *testing.T) {
	if got := Blend(10, 20, 0); got != 10 {
		t.Errorf("Blend t=0 = %g, want 10", got)
	}
	if got := Blend(10, 20, 1); got != 20 {
		t.Errorf("Blend t=1 = %g, want 20", got)
	}
	if got := Blend(10, 20, 0.25); got != 12.5 {
		t.Errorf("Blend t=0.25 = %g, want 12.5", got)
	}
}
