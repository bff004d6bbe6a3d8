package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/table"
)

// parquetFieldMeta renders the runtime schema entry for one table column.
// Every column is OPTIONAL; null cells must survive into the file as nulls.
func parquetFieldMeta(col table.Column) string {
	switch col.Kind {
	case table.KindFloat:
		return fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", col.Name)
	case table.KindInt:
		return fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", col.Name)
	default:
		return fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL", col.Name)
	}
}

// WriteTableParquet encodes the table as Parquet using a runtime schema
// derived from the column kinds, and stores it under name. String cells are
// parsed into the declared physical type by the CSV writer.
func WriteTableParquet(ctx context.Context, sink Sink, name string, t *table.Table) error {
	md := make([]string, len(t.Cols))
	for i, col := range t.Cols {
		md[i] = parquetFieldMeta(col)
	}

	buf := new(bytes.Buffer)
	pw, err := writer.NewCSVWriterFromWriter(md, buf, 2)
	if err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create Parquet writer for %s", name), err, false)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var multiErr error
	for i, row := range t.Rows {
		if err := pw.WriteString(row); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewPipelineError(stageName,
				fmt.Sprintf("failed to write row %d of %s", i, name), err, false))
			break
		}
	}

	// WriteStop can panic inside the library on malformed state; convert to
	// an error instead of taking the process down.
	func() {
		defer func() {
			if r := recover(); r != nil {
				multiErr = multierror.Append(multiErr, exception.NewPipelineError(stageName,
					fmt.Sprintf("Parquet writer panicked finalizing %s: %v", name, r), nil, false))
			}
		}()
		if err := pw.WriteStop(); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewPipelineError(stageName,
				fmt.Sprintf("failed to finalize Parquet file %s", name), err, false))
		}
	}()
	if multiErr != nil {
		return multiErr
	}

	return sink.Put(ctx, name, buf, "application/octet-stream")
}

// WriteRecordsParquet encodes a slice of schema-tagged structs as Parquet and
// stores it under name. The prototype drives schema reflection.
func WriteRecordsParquet[T any](ctx context.Context, sink Sink, name string, prototype *T, records []T) error {
	buf := new(bytes.Buffer)
	np := int64(len(records))
	if np == 0 {
		np = 1
	}
	pw, err := writer.NewParquetWriterFromWriter(buf, prototype, np)
	if err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create Parquet writer for %s", name), err, false)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var multiErr error
	for i := range records {
		if err := pw.Write(records[i]); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewPipelineError(stageName,
				fmt.Sprintf("failed to write record %d of %s", i, name), err, false))
			break
		}
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				multiErr = multierror.Append(multiErr, exception.NewPipelineError(stageName,
					fmt.Sprintf("Parquet writer panicked finalizing %s: %v", name, r), nil, false))
			}
		}()
		if err := pw.WriteStop(); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewPipelineError(stageName,
				fmt.Sprintf("failed to finalize Parquet file %s", name), err, false))
		}
	}()
	if multiErr != nil {
		return multiErr
	}

	return sink.Put(ctx, name, buf, "application/octet-stream")
}
