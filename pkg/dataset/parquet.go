package dataset

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// ReadInput loads an input table, dispatching on the file extension.
// Upstream RELiC distributions ship as Parquet; local snapshots are CSV.
func ReadInput(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return ReadParquet(path)
	}
	return ReadCSV(path)
}

// ReadParquet loads a Parquet file into a string table, stringifying
// scalar columns the same way a CSV round trip would.
func ReadParquet(path string) (*Table, error) {
	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to open Parquet file"),
			errors.Fields{"path": path})
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to create Arrow reader")
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to read Parquet table")
	}
	defer table.Release()

	schema := table.Schema()
	columns := make([]string, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		columns[i] = schema.Field(i).Name
	}

	t := NewTable(columns)
	numRows := int(table.NumRows())
	rows := make([]map[string]string, numRows)
	for i := range rows {
		rows[i] = make(map[string]string, len(columns))
	}

	for c := 0; c < int(table.NumCols()); c++ {
		col := table.Column(c)
		name := columns[c]
		rowIdx := 0
		for _, chunk := range col.Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				rows[rowIdx][name] = cellString(chunk, i)
				rowIdx++
			}
		}
	}

	t.Rows = rows
	return t, nil
}

func cellString(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return ""
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'f', -1, 64)
	case *array.Boolean:
		if a.Value(i) {
			return "True"
		}
		return "False"
	default:
		return arr.ValueStr(i)
	}
}
