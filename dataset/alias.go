package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scigrid/gridserve/gridserve"
)

// Canonical axis names addressable behind a single-underscore prefix.
const (
	CanonicalTime      = "time"
	CanonicalLatitude  = "latitude"
	CanonicalLongitude = "longitude"
	CanonicalLevel     = "level"
)

// AliasTable is a bijection between canonical axis names and file-specific
// dimension names.  Aliases come from configuration, never inference.
type AliasTable struct {
	toFile      map[string]string
	toCanonical map[string]string
	dims        map[string]bool
}

// NewAliasTable validates the configured canonical -> file-specific mapping
// against the loaded dimensions.  The mapping must be injective both ways and
// every target dimension must exist.
func NewAliasTable(aliases map[string]string, dims map[string]Dimension) (*AliasTable, error) {
	t := &AliasTable{
		toFile:      make(map[string]string, len(aliases)),
		toCanonical: make(map[string]string, len(aliases)),
		dims:        make(map[string]bool, len(dims)),
	}
	for name := range dims {
		t.dims[name] = true
	}
	for canonical, file := range aliases {
		if !t.dims[file] {
			return nil, fmt.Errorf("alias %s -> %s names a dimension not in the file", canonical, file)
		}
		if prev, dup := t.toCanonical[file]; dup {
			return nil, fmt.Errorf("aliases %s and %s both map to dimension %s", prev, canonical, file)
		}
		t.toFile[canonical] = file
		t.toCanonical[file] = canonical
	}
	return t, nil
}

// File resolves a canonical name to its file-specific dimension.
func (t *AliasTable) File(canonical string) (string, bool) {
	file, found := t.toFile[canonical]
	return file, found
}

// Canonical resolves a file-specific dimension to its canonical name.
func (t *AliasTable) Canonical(file string) (string, bool) {
	canonical, found := t.toCanonical[file]
	return canonical, found
}

// Map returns a copy of the canonical -> file-specific mapping.
func (t *AliasTable) Map() map[string]string {
	m := make(map[string]string, len(t.toFile))
	for canonical, file := range t.toFile {
		m[canonical] = file
	}
	return m
}

// ParamKind classifies one query parameter key.
type ParamKind int

const (
	// ParamOther is a key that is not a dimension selector.
	ParamOther ParamKind = iota
	// ParamValue selects a single physical coordinate value.
	ParamValue
	// ParamValueRange selects a closed physical value range.
	ParamValueRange
	// ParamIndex selects a raw array index.
	ParamIndex
	// ParamIndexRange selects a closed raw index range.
	ParamIndexRange
)

// ParamClass is the result of classifying a query parameter key.
type ParamClass struct {
	Kind ParamKind
	// Dim is the resolved file-specific dimension name.
	Dim string
	// Canonical is set when the key used the canonical namespace.
	Canonical bool
	// Legacy is set for the deprecated time_index form.
	Legacy bool
}

// Classify decides what a query parameter key addresses.
//
// The three query namespaces stay disjoint: a bare key is always a literal
// file-specific dimension name (even if it happens to spell a canonical
// name), a single underscore enters the canonical namespace, and a double
// underscore enters the raw-index namespace.  Keys that enter a reserved
// namespace but resolve to nothing are errors; bare keys that match no
// dimension are ParamOther and left to the caller.
func (t *AliasTable) Classify(key string) (ParamClass, error) {
	switch {
	case strings.HasPrefix(key, "__"):
		tail := strings.TrimPrefix(key, "__")
		kind := ParamIndex
		canonical := tail
		if c, isRange := strings.CutSuffix(tail, "_index_range"); isRange {
			kind = ParamIndexRange
			canonical = c
		} else if c, isIndex := strings.CutSuffix(tail, "_index"); isIndex {
			canonical = c
		} else {
			return ParamClass{}, t.notFound(key)
		}
		file, found := t.resolveCanonical(canonical)
		if !found {
			return ParamClass{}, t.notFound(key)
		}
		return ParamClass{Kind: kind, Dim: file, Canonical: true}, nil

	case strings.HasPrefix(key, "_"):
		tail := strings.TrimPrefix(key, "_")
		kind := ParamValue
		canonical := tail
		if c, isRange := strings.CutSuffix(tail, "_range"); isRange {
			kind = ParamValueRange
			canonical = c
		}
		file, found := t.resolveCanonical(canonical)
		if !found {
			return ParamClass{}, t.notFound(key)
		}
		return ParamClass{Kind: kind, Dim: file, Canonical: true}, nil

	case key == "time_index":
		// deprecated shorthand for __time_index, kept for old clients
		if file, found := t.resolveCanonical(CanonicalTime); found {
			return ParamClass{Kind: ParamIndex, Dim: file, Canonical: true, Legacy: true}, nil
		}
		return ParamClass{}, t.notFound(key)

	case t.dims[key]:
		return ParamClass{Kind: ParamValue, Dim: key}, nil

	default:
		if dim, isRange := strings.CutSuffix(key, "_range"); isRange && t.dims[dim] {
			return ParamClass{Kind: ParamValueRange, Dim: dim}, nil
		}
		return ParamClass{Kind: ParamOther}, nil
	}
}

// resolveCanonical maps a canonical name to a file dimension.  An unmapped
// canonical name that happens to equal an existing dimension name does not
// resolve: the canonical namespace is configured, never inferred.
func (t *AliasTable) resolveCanonical(canonical string) (string, bool) {
	file, found := t.toFile[canonical]
	return file, found
}

func (t *AliasTable) notFound(key string) error {
	available := make([]string, 0, len(t.dims))
	for name := range t.dims {
		available = append(available, name)
	}
	sort.Strings(available)
	return gridserve.DimensionNotFoundError{
		Name:      key,
		Available: available,
		Aliases:   t.Map(),
	}
}
