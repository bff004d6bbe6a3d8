package export

import (
	"bytes"
	"context"
	"encoding/csv"

	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/table"
)

// WriteTableCSV encodes the table as CSV and stores it under name. Null
// cells encode as empty fields.
func WriteTableCSV(ctx context.Context, sink Sink, name string, t *table.Table) error {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	if err := w.Write(t.ColumnNames()); err != nil {
		return exception.NewPipelineError(stageName, "failed to encode CSV header", err, false)
	}
	record := make([]string, len(t.Cols))
	for _, row := range t.Rows {
		for i, cell := range row {
			if cell == nil {
				record[i] = ""
			} else {
				record[i] = *cell
			}
		}
		if err := w.Write(record); err != nil {
			return exception.NewPipelineError(stageName, "failed to encode CSV row", err, false)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return exception.NewPipelineError(stageName, "failed to flush CSV output", err, false)
	}
	return sink.Put(ctx, name, buf, "text/csv")
}
