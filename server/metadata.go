package server

import (
	"net/http"

	"github.com/zenazn/goji/web"

	"github.com/scigrid/gridserve/dataset"
)

type dimensionInfo struct {
	Size      int  `json:"size"`
	Unlimited bool `json:"unlimited,omitempty"`
}

type variableInfo struct {
	Dimensions []string           `json:"dimensions"`
	Shape      []int              `json:"shape"`
	Attributes dataset.Attributes `json:"attributes"`
}

type metadataDoc struct {
	Filename         string                   `json:"filename"`
	Dimensions       map[string]dimensionInfo `json:"dimensions"`
	Coordinates      map[string][]float64     `json:"coordinates"`
	Variables        map[string]variableInfo  `json:"variables"`
	GlobalAttributes dataset.Attributes       `json:"global_attributes"`
	Aliases          map[string]string        `json:"aliases,omitempty"`
}

// GET /metadata
//
// Returns the complete structure of the served file: dimensions with
// sizes, coordinate values per dimension, variables with their shapes
// and attributes, and the global attributes.
func (s *Service) metadataHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	doc := metadataDoc{
		Filename:         s.ds.FilePath,
		Dimensions:       make(map[string]dimensionInfo, len(s.ds.Dimensions)),
		Coordinates:      make(map[string][]float64, len(s.ds.Dimensions)),
		Variables:        make(map[string]variableInfo, len(s.ds.Variables)),
		GlobalAttributes: s.ds.Global,
		Aliases:          s.ds.Aliases.Map(),
	}
	for name, dim := range s.ds.Dimensions {
		doc.Dimensions[name] = dimensionInfo{Size: dim.Size, Unlimited: dim.Unlimited}
		if coord, err := s.ds.Coordinates(name); err == nil {
			doc.Coordinates[name] = coord
		}
	}
	for name, v := range s.ds.Variables {
		doc.Variables[name] = variableInfo{
			Dimensions: v.Dims,
			Shape:      v.Shape(),
			Attributes: v.Attrs,
		}
	}
	writeJSON(w, doc)
}
