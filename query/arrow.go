package query

import (
	"encoding/json"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/scigrid/gridserve/gridserve"
)

// ArrowContentType is the media type of the IPC stream body.
const ArrowContentType = "application/vnd.apache.arrow.stream"

// arrowBatchRows bounds server memory during streaming: only one batch of
// column builders is alive at a time.
const arrowBatchRows = 10000

// arrowSchema builds one Float64 column per output axis carrying its selected
// coordinate values, and one Float32 column per variable carrying the
// flattened hyperslab.  Variable columns carry shape and dimensions field
// metadata so clients can reshape the flat column back into a tensor.
func arrowSchema(res *Result) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(res.Dims)+len(res.Vars))
	for _, dim := range res.Dims {
		fields = append(fields, arrow.Field{
			Name:     dim,
			Type:     arrow.PrimitiveTypes.Float64,
			Nullable: true,
		})
	}
	for _, v := range res.Vars {
		shape, err := json.Marshal(v.Shape)
		if err != nil {
			return nil, err
		}
		dims, err := json.Marshal(v.Dims)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{
			Name:     v.Name,
			Type:     arrow.PrimitiveTypes.Float32,
			Nullable: true,
			Metadata: arrow.NewMetadata(
				[]string{"shape", "dimensions"},
				[]string{string(shape), string(dims)},
			),
		})
	}
	return arrow.NewSchema(fields, nil), nil
}

// WriteArrow streams the result as Arrow IPC record batches.  Columns in a
// record batch must share one row count, so shorter coordinate columns are
// null-padded past their axis length; the field metadata preserves the true
// extents.
func WriteArrow(w io.Writer, res *Result) error {
	schema, err := arrowSchema(res)
	if err != nil {
		return gridserve.ConversionError{Op: "arrow", Err: err}
	}

	rows := 0
	for _, c := range res.Coords {
		if len(c) > rows {
			rows = len(c)
		}
	}
	for _, v := range res.Vars {
		if len(v.Data) > rows {
			rows = len(v.Data)
		}
	}

	pool := memory.NewGoAllocator()
	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	defer writer.Close()

	for start := 0; start < rows; start += arrowBatchRows {
		end := start + arrowBatchRows
		if end > rows {
			end = rows
		}
		record := buildBatch(pool, schema, res, start, end)
		err := writer.Write(record)
		record.Release()
		if err != nil {
			return gridserve.ConversionError{Op: "arrow", Err: err}
		}
	}
	return nil
}

func buildBatch(pool memory.Allocator, schema *arrow.Schema, res *Result, start, end int) arrow.Record {
	cols := make([]arrow.Array, 0, len(res.Coords)+len(res.Vars))

	for _, coord := range res.Coords {
		b := array.NewFloat64Builder(pool)
		for row := start; row < end; row++ {
			if row < len(coord) {
				b.Append(coord[row])
			} else {
				b.AppendNull()
			}
		}
		cols = append(cols, b.NewArray())
		b.Release()
	}
	for _, v := range res.Vars {
		b := array.NewFloat32Builder(pool)
		for row := start; row < end; row++ {
			if row < len(v.Data) {
				b.Append(v.Data[row])
			} else {
				b.AppendNull()
			}
		}
		cols = append(cols, b.NewArray())
		b.Release()
	}

	record := array.NewRecord(schema, cols, int64(end-start))
	for _, col := range cols {
		col.Release()
	}
	return record
}
