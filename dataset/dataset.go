// Package dataset holds one NetCDF file loaded fully into memory: dimension
// specs, 1D coordinate arrays, variable tensors, attributes, and the
// canonical-name alias table.  Everything is frozen after Load and shared
// by pointer across request handlers without locks.
package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/scigrid/gridserve/gridserve"
)

// Dimension is a named axis with a fixed size.
type Dimension struct {
	Name      string
	Size      int
	Unlimited bool
}

// Attributes are per-variable or global NetCDF attributes.
type Attributes map[string]interface{}

// Float looks up an attribute and coerces it to float64.
func (a Attributes) Float(key string) (float64, bool) {
	v, found := a[key]
	if !found {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// FillValue returns the missing-value sentinel if the variable declares one.
func (a Attributes) FillValue() (float32, bool) {
	for _, key := range []string{"_FillValue", "missing_value"} {
		if v, found := a.Float(key); found {
			return float32(v), true
		}
	}
	return 0, false
}

// ScaleOffset returns the packing transform, defaulting to identity.
func (a Attributes) ScaleOffset() (scale, offset float64) {
	scale, offset = 1, 0
	if v, found := a.Float("scale_factor"); found {
		scale = v
	}
	if v, found := a.Float("add_offset"); found {
		offset = v
	}
	return scale, offset
}

// Variable is an immutable N-dimensional float32 tensor with its axis names.
type Variable struct {
	Name  string
	Dims  []string
	Attrs Attributes
	Grid  *Grid
}

// Shape returns the tensor extents in axis order.
func (v *Variable) Shape() []int {
	return v.Grid.Shape()
}

// Unpack applies the variable's packing transform to one raw sample and
// maps the fill sentinel to NaN.
func (v *Variable) Unpack(raw float32) float64 {
	if fill, hasFill := v.Attrs.FillValue(); hasFill && raw == fill {
		return math.NaN()
	}
	scale, offset := v.Attrs.ScaleOffset()
	return float64(raw)*scale + offset
}

// Dataset aggregates everything loaded from one file.
type Dataset struct {
	FilePath   string
	Dimensions map[string]Dimension
	Coords     map[string][]float64
	CoordAttrs map[string]Attributes
	Variables  map[string]*Variable
	Global     Attributes
	Aliases    *AliasTable
}

// New validates and assembles a dataset.  Coordinate arrays must be strictly
// monotonic and every variable's named dimensions must match its tensor shape.
func New(filePath string, dims map[string]Dimension, coords map[string][]float64,
	vars map[string]*Variable, global Attributes, aliases map[string]string) (*Dataset, error) {

	for name, c := range coords {
		dim, found := dims[name]
		if !found {
			return nil, fmt.Errorf("coordinate array %q has no dimension", name)
		}
		if len(c) != dim.Size {
			return nil, fmt.Errorf("coordinate array %q has %d values but dimension size is %d",
				name, len(c), dim.Size)
		}
		if len(c) > 1 && !strictlyMonotonic(c) {
			return nil, fmt.Errorf("coordinate array %q is not strictly monotonic", name)
		}
	}
	for name, v := range vars {
		shape := v.Grid.Shape()
		if len(v.Dims) != len(shape) {
			return nil, fmt.Errorf("variable %q names %d dimensions but has rank %d",
				name, len(v.Dims), len(shape))
		}
		for axis, dimName := range v.Dims {
			dim, found := dims[dimName]
			if !found {
				return nil, fmt.Errorf("variable %q uses unknown dimension %q", name, dimName)
			}
			if dim.Size != shape[axis] {
				return nil, fmt.Errorf("variable %q axis %q has extent %d but dimension size is %d",
					name, dimName, shape[axis], dim.Size)
			}
		}
	}
	table, err := NewAliasTable(aliases, dims)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		FilePath:   filePath,
		Dimensions: dims,
		Coords:     coords,
		CoordAttrs: make(map[string]Attributes),
		Variables:  vars,
		Global:     global,
		Aliases:    table,
	}, nil
}

func strictlyMonotonic(c []float64) bool {
	increasing := c[1] > c[0]
	for i := 1; i < len(c); i++ {
		if increasing && c[i] <= c[i-1] {
			return false
		}
		if !increasing && c[i] >= c[i-1] {
			return false
		}
	}
	return true
}

// Variable returns the named variable or a request-level error.
func (ds *Dataset) Variable(name string) (*Variable, error) {
	v, found := ds.Variables[name]
	if !found {
		return nil, gridserve.VariableNotFoundError{
			Name:      name,
			Available: ds.VariableNames(),
		}
	}
	return v, nil
}

// VariableNames returns the variable names in sorted order.
func (ds *Dataset) VariableNames() []string {
	names := make([]string, 0, len(ds.Variables))
	for name := range ds.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DimensionNames returns the dimension names in sorted order.
func (ds *Dataset) DimensionNames() []string {
	names := make([]string, 0, len(ds.Dimensions))
	for name := range ds.Dimensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Coordinates returns the coordinate array of a dimension.  Dimensions
// without a coordinate variable get implicit 0..size-1 index coordinates.
func (ds *Dataset) Coordinates(name string) ([]float64, error) {
	if c, found := ds.Coords[name]; found {
		return c, nil
	}
	dim, found := ds.Dimensions[name]
	if !found {
		return nil, gridserve.DimensionNotFoundError{
			Name:      name,
			Available: ds.DimensionNames(),
			Aliases:   ds.Aliases.Map(),
		}
	}
	c := make([]float64, dim.Size)
	for i := range c {
		c[i] = float64(i)
	}
	return c, nil
}

// DataBytes returns the number of bytes held by variable tensors.
func (ds *Dataset) DataBytes() int64 {
	var total int64
	for _, v := range ds.Variables {
		total += int64(v.Grid.Len()) * 4
	}
	return total
}

// SpatialDims returns the (latitude, longitude) file-specific dimension names
// of a variable, resolved through aliases or through coordinate-variable
// units attributes (degrees_north / degrees_east).
func (ds *Dataset) SpatialDims(v *Variable) (latDim, lonDim string, err error) {
	for _, dimName := range v.Dims {
		if canonical, found := ds.Aliases.Canonical(dimName); found {
			switch canonical {
			case CanonicalLatitude:
				latDim = dimName
			case CanonicalLongitude:
				lonDim = dimName
			}
			continue
		}
		if units := ds.coordUnits(dimName); units != "" {
			switch units {
			case "degrees_north", "degree_north", "degrees_N":
				latDim = dimName
			case "degrees_east", "degree_east", "degrees_E":
				lonDim = dimName
			}
		}
	}
	if latDim == "" || lonDim == "" {
		return "", "", gridserve.InvalidParameterError{
			Msg: fmt.Sprintf("variable %q has no latitude/longitude axes", v.Name),
		}
	}
	return latDim, lonDim, nil
}

func (ds *Dataset) coordUnits(dimName string) string {
	attrs, found := ds.CoordAttrs[dimName]
	if !found {
		return ""
	}
	units, _ := attrs["units"].(string)
	return units
}
