// Package schema resolves source-specific column naming into canonical field
// positions before any pipeline logic runs. The sources spell columns several
// ways (FL_DATE vs FlightDate, Origin vs ORIGIN); the resolution happens here
// exactly once so later stages never branch on source naming.
package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tigerroll/flightprep/internal/exception"
)

const stageName = "schema"

// Resolver maps canonical field names to the accepted source spellings, in
// preference order.
type Resolver struct {
	// Alternatives maps canonical name -> accepted header spellings.
	Alternatives map[string][]string
	// Required lists the canonical names that must resolve; a miss is a
	// schema mismatch and fails fast.
	Required []string
}

// Resolve matches the header against the alternatives and returns canonical
// name -> column position. A required field with no matching spelling returns
// an error naming the alternatives that were tried.
func (r *Resolver) Resolve(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	resolved := make(map[string]int, len(r.Alternatives))
	for canonical, alts := range r.Alternatives {
		for _, alt := range alts {
			if i, ok := pos[alt]; ok {
				resolved[canonical] = i
				break
			}
		}
	}

	for _, req := range r.Required {
		if _, ok := resolved[req]; !ok {
			return nil, exception.NewSchemaError(stageName,
				fmt.Sprintf("could not find a %s column (expected one of: %s)",
					req, strings.Join(r.Alternatives[req], ", ")), nil)
		}
	}
	return resolved, nil
}

// NullCoercer maps known sentinel tokens in numeric columns to an explicit
// missing value before numeric parsing. Literal "null" strings in numeric CSV
// fields must become nil, never zero.
type NullCoercer struct {
	tokens map[string]struct{}
}

// NewNullCoercer builds a coercer from the configured token list.
func NewNullCoercer(tokens []string) *NullCoercer {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return &NullCoercer{tokens: m}
}

// Float parses raw into a nullable float. Known null tokens and values that
// fail numeric parsing both map to nil.
func (c *NullCoercer) Float(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if _, isNull := c.tokens[trimmed]; isNull {
		return nil
	}
	if _, isNull := c.tokens[strings.ToLower(trimmed)]; isNull {
		return nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &f
}

// CSVFile is a row-oriented view of a parsed CSV file.
type CSVFile struct {
	Header []string
	Rows   [][]string
}

// ReadCSV reads an entire CSV file. Rows shorter than the header are padded
// with empty cells; the IEM export occasionally truncates trailing fields.
func ReadCSV(path string) (*CSVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to open %s", path), err, false)
	}
	defer f.Close()
	return ParseCSV(f, path)
}

// ParseCSV reads CSV content from r; name is used in error messages only.
func ParseCSV(r io.Reader, name string) (*CSVFile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, exception.NewSchemaError(stageName,
			fmt.Sprintf("failed to read header of %s", name), err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, exception.NewPipelineError(stageName,
				fmt.Sprintf("failed to read %s", name), err, false)
		}
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec)
	}
	return &CSVFile{Header: header, Rows: rows}, nil
}

// Cell returns the value of the named column in row, or "" when absent.
func (f *CSVFile) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
