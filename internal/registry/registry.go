// Package registry loads the FAA aircraft registry dimension and answers
// lookups by transponder code or registration number. The dimension must be
// strictly 1:1 per join key: duplicate keys are resolved deterministically,
// keeping the most recent record by the last-action date when the source
// carries one, otherwise the last occurrence wins.
package registry

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/schema"
)

const stageName = "registry"

// Load reads the registry from path, dispatching on the file extension
// (.parquet or .csv), and normalizes the join keys.
func Load(path string) ([]entity.RegistryAircraft, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return loadParquet(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, exception.NewSchemaError(stageName,
			fmt.Sprintf("unsupported registry file type: %s (expected .csv or .parquet)", path), nil)
	}
}

var registryResolver = schema.Resolver{
	Alternatives: map[string][]string{
		"icao24":                {"icao24", "ICAO24", "MODE S CODE HEX"},
		"n_number":              {"n_number", "N-NUMBER", "N_NUMBER"},
		"aircraft_code":         {"aircraft_code"},
		"aircraft_manufacturer": {"aircraft_manufacturer", "MFR"},
		"aircraft_model":        {"aircraft_model", "MODEL"},
		"aircraft_type":         {"aircraft_type", "TYPE AIRCRAFT"},
		"aircraft_category":     {"aircraft_category"},
		"num_engines":           {"num_engines", "NO-ENG"},
		"num_seats":             {"num_seats", "NO-SEATS"},
		"cruising_speed_mph":    {"cruising_speed_mph", "AC-WEIGHT"},
		"manufacturing_year":    {"manufacturing_year", "YEAR MFR"},
		"registrant_type":       {"registrant_type", "TYPE REGISTRANT"},
		"registrant_name":       {"registrant_name", "NAME"},
		"registrant_city":       {"registrant_city", "CITY"},
		"registrant_state":      {"registrant_state", "STATE"},
		"registrant_country":    {"registrant_country", "COUNTRY"},
		"last_action_date":      {"last_action_date", "LAST ACTION DATE"},
	},
	Required: []string{"icao24"},
}

func loadCSV(path string) ([]entity.RegistryAircraft, error) {
	f, err := schema.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := registryResolver.Resolve(f.Header)
	if err != nil {
		return nil, err
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(f.Cell(row, i))
	}

	records := make([]entity.RegistryAircraft, 0, len(f.Rows))
	for _, row := range f.Rows {
		records = append(records, entity.RegistryAircraft{
			ICAO24:               schema.NormalizeHex(cell(row, "icao24")),
			NNumber:              schema.NormalizeCode(cell(row, "n_number")),
			AircraftCode:         cell(row, "aircraft_code"),
			AircraftManufacturer: cell(row, "aircraft_manufacturer"),
			AircraftModel:        cell(row, "aircraft_model"),
			AircraftType:         cell(row, "aircraft_type"),
			AircraftCategory:     cell(row, "aircraft_category"),
			NumEngines:           cell(row, "num_engines"),
			NumSeats:             cell(row, "num_seats"),
			CruisingSpeedMPH:     cell(row, "cruising_speed_mph"),
			ManufacturingYear:    cell(row, "manufacturing_year"),
			RegistrantType:       cell(row, "registrant_type"),
			RegistrantName:       cell(row, "registrant_name"),
			RegistrantCity:       cell(row, "registrant_city"),
			RegistrantState:      cell(row, "registrant_state"),
			RegistrantCountry:    cell(row, "registrant_country"),
			LastActionDate:       cell(row, "last_action_date"),
		})
	}
	logger.Infof("Loaded %d registry records from %s.", len(records), path)
	return records, nil
}

// registryParquetRow mirrors the registry parquet schema. All columns are
// optional UTF8 strings in the source.
type registryParquetRow struct {
	ICAO24               *string `parquet:"name=icao24, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NNumber              *string `parquet:"name=n_number, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	AircraftCode         *string `parquet:"name=aircraft_code, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	AircraftManufacturer *string `parquet:"name=aircraft_manufacturer, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	AircraftModel        *string `parquet:"name=aircraft_model, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	AircraftType         *string `parquet:"name=aircraft_type, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	AircraftCategory     *string `parquet:"name=aircraft_category, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NumEngines           *string `parquet:"name=num_engines, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NumSeats             *string `parquet:"name=num_seats, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CruisingSpeedMPH     *string `parquet:"name=cruising_speed_mph, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ManufacturingYear    *string `parquet:"name=manufacturing_year, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	RegistrantType       *string `parquet:"name=registrant_type, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	RegistrantName       *string `parquet:"name=registrant_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	RegistrantCity       *string `parquet:"name=registrant_city, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	RegistrantState      *string `parquet:"name=registrant_state, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	RegistrantCountry    *string `parquet:"name=registrant_country, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	LastActionDate       *string `parquet:"name=last_action_date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

func loadParquet(path string) ([]entity.RegistryAircraft, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to open registry parquet %s", path), err, false)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(registryParquetRow), 4)
	if err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to read registry parquet %s", path), err, false)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	rows := make([]registryParquetRow, num)
	if err := pr.Read(&rows); err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to decode registry parquet %s", path), err, false)
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return strings.TrimSpace(*s)
	}

	records := make([]entity.RegistryAircraft, 0, num)
	for i := range rows {
		r := &rows[i]
		records = append(records, entity.RegistryAircraft{
			ICAO24:               schema.NormalizeHex(deref(r.ICAO24)),
			NNumber:              schema.NormalizeCode(deref(r.NNumber)),
			AircraftCode:         deref(r.AircraftCode),
			AircraftManufacturer: deref(r.AircraftManufacturer),
			AircraftModel:        deref(r.AircraftModel),
			AircraftType:         deref(r.AircraftType),
			AircraftCategory:     deref(r.AircraftCategory),
			NumEngines:           deref(r.NumEngines),
			NumSeats:             deref(r.NumSeats),
			CruisingSpeedMPH:     deref(r.CruisingSpeedMPH),
			ManufacturingYear:    deref(r.ManufacturingYear),
			RegistrantType:       deref(r.RegistrantType),
			RegistrantName:       deref(r.RegistrantName),
			RegistrantCity:       deref(r.RegistrantCity),
			RegistrantState:      deref(r.RegistrantState),
			RegistrantCountry:    deref(r.RegistrantCountry),
			LastActionDate:       deref(r.LastActionDate),
		})
	}
	logger.Infof("Loaded %d registry records from %s.", len(records), path)
	return records, nil
}

// Index answers registry lookups by either join key, guaranteed 1:1.
type Index struct {
	byICAO24 map[string]entity.RegistryAircraft
	byTail   map[string]entity.RegistryAircraft
}

// NewIndex deduplicates the records per join key. When two records share a
// key, the one with the more recent last-action date survives; records
// without a parseable date lose to dated ones, and among undated records the
// later occurrence wins.
func NewIndex(records []entity.RegistryAircraft) *Index {
	idx := &Index{
		byICAO24: make(map[string]entity.RegistryAircraft),
		byTail:   make(map[string]entity.RegistryAircraft),
	}
	for _, r := range records {
		if r.ICAO24 != "" {
			if cur, ok := idx.byICAO24[r.ICAO24]; !ok || newerThan(r, cur) {
				idx.byICAO24[r.ICAO24] = r
			}
		}
		if r.NNumber != "" {
			if cur, ok := idx.byTail[r.NNumber]; !ok || newerThan(r, cur) {
				idx.byTail[r.NNumber] = r
			}
		}
	}
	return idx
}

// newerThan reports whether a should replace b under the recency rule.
func newerThan(a, b entity.RegistryAircraft) bool {
	at, aok := parseActionDate(a.LastActionDate)
	bt, bok := parseActionDate(b.LastActionDate)
	switch {
	case aok && bok:
		return !at.Before(bt)
	case aok:
		return true
	case bok:
		return false
	default:
		// Neither dated: last occurrence wins.
		return true
	}
}

func parseActionDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "20060102", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ByICAO24 returns the record for a normalized transponder code.
func (idx *Index) ByICAO24(code string) (entity.RegistryAircraft, bool) {
	r, ok := idx.byICAO24[schema.NormalizeHex(code)]
	return r, ok
}

// ByTail returns the record for a normalized registration number.
func (idx *Index) ByTail(tail string) (entity.RegistryAircraft, bool) {
	r, ok := idx.byTail[schema.NormalizeCode(tail)]
	return r, ok
}

// Size returns the distinct key counts (icao24, tail).
func (idx *Index) Size() (int, int) {
	return len(idx.byICAO24), len(idx.byTail)
}
