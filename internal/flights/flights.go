// Package flights loads BTS on-time performance exports into normalized
// flight event records: schema resolution across the TranStats column
// spelling variants, key normalization, date parsing, overnight arrival
// rollover and scheduled-instant computation.
package flights

import (
	"strconv"
	"strings"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/schema"
	"github.com/tigerroll/flightprep/internal/temporal"
)

var btsResolver = schema.Resolver{
	Alternatives: map[string][]string{
		"flight_date": {"FL_DATE", "FlightDate"},
		"origin":      {"Origin", "ORIGIN"},
		"dest":        {"Dest", "DEST"},
		"tail_number": {"Tail_Number", "TAIL_NUM", "TailNum"},
		"crs_dep":     {"CRSDepTime", "CRS_DEP_TIME"},
		"crs_arr":     {"CRSArrTime", "CRS_ARR_TIME"},
	},
	Required: []string{"flight_date", "origin", "dest"},
}

// Result is a loaded flight table: the normalized records plus the source
// column order, preserved for the enriched output.
type Result struct {
	Records     []entity.FlightRecord
	SourceCols  []string
	DroppedRows int
}

// Load parses a BTS CSV export. Rows with an unparseable flight date are
// dropped (their join keys would all be missing); unparseable clock times
// leave the scheduled instants invalid but keep the row.
func Load(path string, normalizer *temporal.Normalizer, airport config.AirportConfig) (*Result, error) {
	f, err := schema.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return FromCSV(f, normalizer, airport)
}

// FromCSV normalizes an already-parsed BTS table.
func FromCSV(f *schema.CSVFile, normalizer *temporal.Normalizer, airport config.AirportConfig) (*Result, error) {
	cols, err := btsResolver.Resolve(f.Header)
	if err != nil {
		return nil, err
	}

	res := &Result{SourceCols: f.Header}
	for _, row := range f.Rows {
		flightDate, ok := temporal.ParseFlightDate(f.Cell(row, cols["flight_date"]))
		if !ok {
			res.DroppedRows++
			continue
		}

		rec := entity.FlightRecord{
			FlightDate: flightDate,
			Origin:     schema.NormalizeCode(f.Cell(row, cols["origin"])),
			Dest:       schema.NormalizeCode(f.Cell(row, cols["dest"])),
			CRSDepTime: parseHHMM(f.Cell(row, cols["crs_dep"])),
			CRSArrTime: parseHHMM(f.Cell(row, cols["crs_arr"])),
		}
		if i, ok := cols["tail_number"]; ok {
			rec.TailNumber = schema.NormalizeCode(f.Cell(row, i))
		}

		rec.ArrFlightDate = temporal.ArrivalDate(rec.FlightDate, rec.CRSDepTime, rec.CRSArrTime)
		rec.DepInstant, rec.DepInstantValid = normalizer.LocalCivilToUTC(rec.FlightDate, rec.CRSDepTime)
		rec.ArrInstant, rec.ArrInstantValid = normalizer.LocalCivilToUTC(rec.ArrFlightDate, rec.CRSArrTime)

		rec.DepStation = stationFor(rec.Origin, airport.StationMap)
		rec.ArrStation = stationFor(rec.Dest, airport.StationMap)

		rec.Passthrough = make(map[string]string, len(f.Header))
		for i, name := range f.Header {
			rec.Passthrough[name] = f.Cell(row, i)
		}
		// The normalized join keys replace the raw spellings in the output.
		rec.Passthrough[f.Header[cols["origin"]]] = rec.Origin
		rec.Passthrough[f.Header[cols["dest"]]] = rec.Dest
		if i, ok := cols["tail_number"]; ok {
			rec.Passthrough[f.Header[i]] = rec.TailNumber
		}

		res.Records = append(res.Records, rec)
	}

	if res.DroppedRows > 0 {
		logger.Warnf("Dropped %d flight rows with unparseable dates.", res.DroppedRows)
	}
	logger.Infof("Loaded %d flight records.", len(res.Records))
	return res, nil
}

// FilterAirport keeps flights whose origin and destination both equal the
// configured airport code.
func FilterAirport(records []entity.FlightRecord, code string) []entity.FlightRecord {
	code = schema.NormalizeCode(code)
	kept := make([]entity.FlightRecord, 0, len(records))
	for _, r := range records {
		if r.Origin == code && r.Dest == code {
			kept = append(kept, r)
		}
	}
	return kept
}

// stationFor maps an airport code to its weather station code; unmapped
// codes are used directly.
func stationFor(code string, stationMap map[string]string) string {
	if s, ok := stationMap[code]; ok && s != "" {
		return schema.NormalizeCode(s)
	}
	return code
}

// parseHHMM parses a scheduled clock value ("1305", "0005", sometimes
// "13:05"); -1 marks a missing or malformed value.
func parseHHMM(raw string) int {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ":", ""))
	if s == "" {
		return -1
	}
	// Some exports write clock values as floats ("1305.0").
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
