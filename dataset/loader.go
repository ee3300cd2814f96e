package dataset

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"golang.org/x/sync/errgroup"

	"github.com/scigrid/gridserve/gridserve"
)

// Load reads a NetCDF file fully into memory.  Coordinate variables (a 1D
// variable named like its dimension) become float64 coordinate arrays; all
// other variables become float32 tensors with their raw packed values.
// Variable reads run in parallel since decoding dominates load time.
func Load(path string, aliases map[string]string) (*Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %v", path, err)
	}
	defer nc.Close()

	dims := make(map[string]Dimension)
	for _, name := range nc.ListDimensions() {
		size, found := nc.GetDimension(name)
		if !found {
			return nil, fmt.Errorf("dimension %q listed but not readable", name)
		}
		dims[name] = Dimension{Name: name, Size: int(size)}
	}

	coords := make(map[string][]float64)
	coordAttrs := make(map[string]Attributes)
	vars := make(map[string]*Variable)
	var mu sync.Mutex
	var g errgroup.Group

	for _, name := range nc.ListVariables() {
		name := name
		g.Go(func() error {
			vg, err := nc.GetVarGetter(name)
			if err != nil {
				return fmt.Errorf("unable to read variable %q: %v", name, err)
			}
			attrs := attributeMap(vg.Attributes())

			if isCoordinate(name, vg, dims) {
				values, err := vg.Values()
				if err != nil {
					return fmt.Errorf("unable to read coordinate %q: %v", name, err)
				}
				c, err := flattenFloat64(values)
				if err != nil {
					return fmt.Errorf("coordinate %q: %v", name, err)
				}
				mu.Lock()
				coords[name] = c
				coordAttrs[name] = attrs
				mu.Unlock()
				return nil
			}

			values, err := vg.Values()
			if err != nil {
				return fmt.Errorf("unable to read variable %q: %v", name, err)
			}
			data, err := flattenFloat32(values)
			if err != nil {
				return fmt.Errorf("variable %q: %v", name, err)
			}
			varDims := vg.Dimensions()
			shape := make([]int, len(varDims))
			for i, dimName := range varDims {
				dim, found := dims[dimName]
				if !found {
					return fmt.Errorf("variable %q: dimension %q not found", name, dimName)
				}
				shape[i] = dim.Size
			}
			grid, err := NewGrid(shape, data)
			if err != nil {
				return fmt.Errorf("variable %q: %v", name, err)
			}
			mu.Lock()
			vars[name] = &Variable{
				Name:  name,
				Dims:  append([]string(nil), vg.Dimensions()...),
				Attrs: attrs,
				Grid:  grid,
			}
			mu.Unlock()
			gridserve.Debugf("Loaded variable %q, shape %v\n", name, shape)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds, err := New(path, dims, coords, vars, attributeMap(nc.Attributes()), aliases)
	if err != nil {
		return nil, err
	}
	ds.CoordAttrs = coordAttrs
	return ds, nil
}

// isCoordinate reports whether a variable is the coordinate array of its own
// dimension.
func isCoordinate(name string, vg api.VarGetter, dims map[string]Dimension) bool {
	_, isDim := dims[name]
	return isDim && len(vg.Dimensions()) == 1 && vg.Dimensions()[0] == name
}

func attributeMap(am api.AttributeMap) Attributes {
	attrs := make(Attributes)
	if am == nil {
		return attrs
	}
	for _, key := range am.Keys() {
		if v, found := am.Get(key); found {
			attrs[key] = v
		}
	}
	return attrs
}

// flattenFloat32 converts an arbitrarily nested numeric slice to a flat
// row-major float32 slice.
func flattenFloat32(values interface{}) ([]float32, error) {
	var out []float32
	if err := flatten(reflect.ValueOf(values), func(f float64) {
		out = append(out, float32(f))
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// flattenFloat64 converts an arbitrarily nested numeric slice to a flat
// float64 slice.
func flattenFloat64(values interface{}) ([]float64, error) {
	var out []float64
	if err := flatten(reflect.ValueOf(values), func(f float64) {
		out = append(out, f)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(v reflect.Value, emit func(float64)) error {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := flatten(v.Index(i), emit); err != nil {
				return err
			}
		}
		return nil
	case reflect.Float32, reflect.Float64:
		emit(v.Float())
		return nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		emit(float64(v.Int()))
		return nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		emit(float64(v.Uint()))
		return nil
	case reflect.Interface:
		return flatten(v.Elem(), emit)
	default:
		return fmt.Errorf("unsupported element type %s", v.Kind())
	}
}
