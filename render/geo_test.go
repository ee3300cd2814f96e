package render

import (
	"math"
	"testing"
)

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("-10,20,30.5,40")
	if err != nil {
		t.Fatalf("ParseBBox: %v", err)
	}
	if b.MinLon != -10 || b.MinLat != 20 || b.MaxLon != 30.5 || b.MaxLat != 40 {
		t.Errorf("bbox = %+v", b)
	}

	bad := []string{"1,2,3", "1,2,3,4,5", "a,2,3,4", "0,40,10,20", "30,0,10,20"}
	for _, s := range bad {
		if _, err := ParseBBox(s); err == nil {
			t.Errorf("ParseBBox(%q): expected error", s)
		}
	}
}

func TestCenterWindow(t *testing.T) {
	tests := []struct {
		center string
		lo, hi float64
	}{
		{"", -180, 180},
		{"eurocentric", -180, 180},
		{"americas", -90, 270},
		{"pacific", 0, 360},
		{"120", -60, 300},
		{"-90", -270, 90},
	}
	for _, test := range tests {
		lo, hi, err := CenterWindow(test.center)
		if err != nil {
			t.Errorf("CenterWindow(%q): %v", test.center, err)
			continue
		}
		if lo != test.lo || hi != test.hi {
			t.Errorf("CenterWindow(%q) = [%g, %g], want [%g, %g]",
				test.center, lo, hi, test.lo, test.hi)
		}
	}
	if _, _, err := CenterWindow("mercator"); err == nil {
		t.Errorf("expected error for unknown center")
	}
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct {
		lon, lo, want float64
	}{
		{190, -180, -170},
		{-190, -180, 170},
		{350, -180, -10},
		{-10, 0, 350},
		{720, -180, 0},
	}
	for _, test := range tests {
		if got := NormalizeLon(test.lon, test.lo); math.Abs(got-test.want) > 1e-9 {
			t.Errorf("NormalizeLon(%g, %g) = %g, want %g", test.lon, test.lo, got, test.want)
		}
	}
}

func TestIsGlobalLon(t *testing.T) {
	global := make([]float64, 360)
	for i := range global {
		global[i] = float64(i)
	}
	if !IsGlobalLon(global) {
		t.Errorf("0..359 step 1 should be global")
	}
	regional := []float64{0, 10, 20, 30}
	if IsGlobalLon(regional) {
		t.Errorf("0..30 should not be global")
	}
	if IsGlobalLon([]float64{5}) {
		t.Errorf("single point should not be global")
	}
}
