package query

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"

	"github.com/scigrid/gridserve/gridserve"
)

// jsonMetadata is the leading metadata block of a JSON-format response.
type jsonMetadata struct {
	Query      string                 `json:"query"`
	Shapes     map[string][]int       `json:"shapes"`
	Dimensions map[string][]string    `json:"dimensions"`
	Variables  map[string]interface{} `json:"variables"`
}

// WriteJSON streams the result as one JSON object without ever holding a
// fully rendered body.  Raw values are unpacked: the fill sentinel becomes
// null and scale_factor/add_offset are applied.
func WriteJSON(w io.Writer, res *Result) error {
	bw := bufio.NewWriterSize(w, 32*1024)

	meta := jsonMetadata{
		Query:      res.Query,
		Shapes:     make(map[string][]int, len(res.Vars)),
		Dimensions: make(map[string][]string, len(res.Vars)),
		Variables:  make(map[string]interface{}, len(res.Vars)),
	}
	for _, v := range res.Vars {
		meta.Shapes[v.Name] = v.Shape
		meta.Dimensions[v.Name] = v.Dims
		meta.Variables[v.Name] = v.Attrs
	}
	header, err := json.Marshal(meta)
	if err != nil {
		return gridserve.ConversionError{Op: "json", Err: err}
	}

	if _, err := bw.WriteString(`{"metadata":`); err != nil {
		return err
	}
	if _, err := bw.Write(header); err != nil {
		return err
	}
	if _, err := bw.WriteString(`,"data":{`); err != nil {
		return err
	}

	buf := make([]byte, 0, 32)
	for vi, v := range res.Vars {
		if vi > 0 {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		name, err := json.Marshal(v.Name)
		if err != nil {
			return gridserve.ConversionError{Op: "json", Err: err}
		}
		if _, err := bw.Write(name); err != nil {
			return err
		}
		if _, err := bw.WriteString(":["); err != nil {
			return err
		}

		fill, hasFill := v.Attrs.FillValue()
		scale, offset := v.Attrs.ScaleOffset()
		for i, raw := range v.Data {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if hasFill && raw == fill {
				if _, err := bw.WriteString("null"); err != nil {
					return err
				}
				continue
			}
			buf = strconv.AppendFloat(buf[:0], float64(raw)*scale+offset, 'g', -1, 64)
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
		if err := bw.WriteByte(']'); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("}}"); err != nil {
		return err
	}
	return bw.Flush()
}
