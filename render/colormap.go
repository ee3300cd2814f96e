package render

import (
	"image/color"
	"sort"
	"strings"

	"github.com/mazznoer/colorgrad"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/scigrid/gridserve/gridserve"
)

// Colormap maps a normalized value in [0, 1] to a color.
type Colormap interface {
	At(t float64) color.NRGBA
}

type gradientMap struct {
	grad colorgrad.Gradient
}

func (g gradientMap) At(t float64) color.NRGBA {
	r, gr, b := g.grad.At(clamp01(t)).RGB255()
	return color.NRGBA{R: r, G: gr, B: b, A: 255}
}

type morelandMap struct {
	cm palette.ColorMap
}

func (m morelandMap) At(t float64) color.NRGBA {
	c, err := m.cm.At(clamp01(t))
	if err != nil {
		return color.NRGBA{}
	}
	r, g, b, a := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

var colormapBuilders = map[string]func() (Colormap, error){
	"viridis": func() (Colormap, error) { return gradientMap{colorgrad.Viridis()}, nil },
	"plasma":  func() (Colormap, error) { return gradientMap{colorgrad.Plasma()}, nil },
	"inferno": func() (Colormap, error) { return gradientMap{colorgrad.Inferno()}, nil },
	"magma":   func() (Colormap, error) { return gradientMap{colorgrad.Magma()}, nil },
	"cividis": func() (Colormap, error) { return gradientMap{colorgrad.Cividis()}, nil },
	"rdbu": func() (Colormap, error) {
		return gradientMap{colorgrad.RdBu()}, nil
	},
	"coolwarm": func() (Colormap, error) {
		cm := moreland.SmoothBlueRed()
		cm.SetMin(0)
		cm.SetMax(1)
		return morelandMap{cm}, nil
	},
	"seismic": func() (Colormap, error) {
		grad, err := colorgrad.NewGradient().
			HtmlColors("#00004c", "#0000ff", "#ffffff", "#ff0000", "#4c0000").
			Build()
		if err != nil {
			return nil, err
		}
		return gradientMap{grad}, nil
	},
}

// LookupColormap resolves a colormap by name, defaulting to viridis for
// the empty string.
func LookupColormap(name string) (Colormap, error) {
	if name == "" {
		name = "viridis"
	}
	build, found := colormapBuilders[strings.ToLower(name)]
	if !found {
		return nil, gridserve.InvalidParameterError{
			Msg: "unknown colormap " + name + " (want one of " + strings.Join(ColormapNames(), ", ") + ")",
		}
	}
	cm, err := build()
	if err != nil {
		return nil, gridserve.ConversionError{Op: "colormap " + name, Err: err}
	}
	return cm, nil
}

// ColormapNames returns the supported colormap names, sorted.
func ColormapNames() []string {
	names := make([]string, 0, len(colormapBuilders))
	for name := range colormapBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
