// Package export serializes the memoization table as an Apache Arrow IPC
// stream.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ContentType is the media type of an Arrow IPC stream.
const ContentType = "application/vnd.apache.arrow.stream"

// ErrNoRecords is returned by ReadCacheTable when the stream holds a schema
// but no record batch.
var ErrNoRecords = errors.New("export: no records in IPC stream")

// CacheSchema returns the schema of an exported table:
//   - index: int64, the slot number
//   - value: float64 (nullable), F(index) or null when the slot is unknown
func CacheSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "index", Type: arrow.PrimitiveTypes.Int64},
			{Name: "value", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		},
		nil,
	)
}

// WriteCacheTable writes table as one record batch. NaN slots are written as
// nulls; infinities are kept.
func WriteCacheTable(w io.Writer, table []float64) error {
	record := buildRecord(memory.DefaultAllocator, table)
	defer record.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(record.Schema()))
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("export: failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("export: failed to close writer: %w", err)
	}
	return nil
}

func buildRecord(mem memory.Allocator, table []float64) arrow.Record {
	builder := array.NewRecordBuilder(mem, CacheSchema())
	defer builder.Release()

	indexBuilder := builder.Field(0).(*array.Int64Builder)
	valueBuilder := builder.Field(1).(*array.Float64Builder)
	indexBuilder.Reserve(len(table))
	valueBuilder.Reserve(len(table))

	for i, v := range table {
		indexBuilder.Append(int64(i))
		if math.IsNaN(v) {
			valueBuilder.AppendNull()
		} else {
			valueBuilder.Append(v)
		}
	}
	return builder.NewRecord()
}

// ReadCacheTable reads back a stream written by WriteCacheTable. Null values
// come back as NaN. Rows are placed by their index column, so the returned
// slice has length max(index)+1.
func ReadCacheTable(r io.Reader) ([]float64, error) {
	reader, err := ipc.NewReader(r, ipc.WithSchema(CacheSchema()))
	if err != nil {
		return nil, fmt.Errorf("export: failed to create reader: %w", err)
	}
	defer reader.Release()

	table := make([]float64, 0)
	seen := false
	for reader.Next() {
		seen = true
		record := reader.Record()
		indexCol, ok := record.Column(0).(*array.Int64)
		if !ok {
			return nil, fmt.Errorf("export: index column has type %s", record.Column(0).DataType())
		}
		valueCol, ok := record.Column(1).(*array.Float64)
		if !ok {
			return nil, fmt.Errorf("export: value column has type %s", record.Column(1).DataType())
		}
		for row := 0; row < int(record.NumRows()); row++ {
			idx := indexCol.Value(row)
			if idx < 0 {
				return nil, fmt.Errorf("export: negative index %d at row %d", idx, row)
			}
			for int64(len(table)) <= idx {
				table = append(table, math.NaN())
			}
			if valueCol.IsNull(row) {
				table[idx] = math.NaN()
			} else {
				table[idx] = valueCol.Value(row)
			}
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("export: failed to read record: %w", err)
	}
	if !seen {
		return nil, ErrNoRecords
	}
	return table, nil
}

// WriteCacheFile writes table to path, replacing any existing file.
func WriteCacheFile(path string, table []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: %w", cerr)
		}
	}()
	return WriteCacheTable(f, table)
}
