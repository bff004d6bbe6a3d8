// Package entity defines the record types flowing through the pipeline. All
// records are immutable reconstructions of external data; they live for one
// pipeline run only.
package entity

import "time"

// Observation is one weather observation from an IEM/ASOS station export.
// Sensor readings are pointers because any of them may be absent or carry a
// literal "null" token in the source; a nil reading is missing, never zero.
type Observation struct {
	// Station is the normalized (trimmed, upper-cased) station code.
	Station string
	// Valid is the observation instant in UTC.
	Valid time.Time

	WindSpeedKt  *float64 // sknt
	VisibilityMi *float64 // vsby
	PrecipIn     *float64 // p01i
	CeilingFt    *float64 // skyl1
	TempF        *float64 // tmpf
}

// StateVector is one aircraft state sample from the OpenSky history dump,
// identified by (ICAO24, Time).
type StateVector struct {
	// ICAO24 is the fixed-length lowercase hex transponder code.
	ICAO24 string
	// Time is the sample instant in UTC.
	Time time.Time

	Lat         *float64
	Lon         *float64
	Velocity    *float64
	GeoAltitude *float64
	VertRate    *float64
	Heading     *float64
}

// Field returns the named telemetry field of the state vector. The names
// match the source column names used by the window spec table.
func (s *StateVector) Field(name string) *float64 {
	switch name {
	case "lat":
		return s.Lat
	case "lon":
		return s.Lon
	case "velocity":
		return s.Velocity
	case "geoaltitude":
		return s.GeoAltitude
	case "vertrate":
		return s.VertRate
	case "heading":
		return s.Heading
	}
	return nil
}

// StateVectorFieldNames lists the telemetry fields addressable by name.
var StateVectorFieldNames = []string{"lat", "lon", "velocity", "geoaltitude", "vertrate", "heading"}

// RegistryAircraft is one row of the FAA aircraft registry dimension. It is
// keyed either by the normalized ICAO24 transponder code (telemetry join) or
// by the registration N-number (flight-record join). The gorm tags map the
// struct onto the local SQLite registry cache.
type RegistryAircraft struct {
	ICAO24               string `gorm:"column:icao24;index"`
	NNumber              string `gorm:"column:n_number;index"`
	AircraftCode         string `gorm:"column:aircraft_code"`
	AircraftManufacturer string `gorm:"column:aircraft_manufacturer"`
	AircraftModel        string `gorm:"column:aircraft_model"`
	AircraftType         string `gorm:"column:aircraft_type"`
	AircraftCategory     string `gorm:"column:aircraft_category"`
	NumEngines           string `gorm:"column:num_engines"`
	NumSeats             string `gorm:"column:num_seats"`
	CruisingSpeedMPH     string `gorm:"column:cruising_speed_mph"`
	ManufacturingYear    string `gorm:"column:manufacturing_year"`
	RegistrantType       string `gorm:"column:registrant_type"`
	RegistrantName       string `gorm:"column:registrant_name"`
	RegistrantCity       string `gorm:"column:registrant_city"`
	RegistrantState      string `gorm:"column:registrant_state"`
	RegistrantCountry    string `gorm:"column:registrant_country"`
	// LastActionDate is the recency field used to pick one record when a
	// join key appears more than once. Empty when the source lacks it.
	LastActionDate string `gorm:"column:last_action_date"`
}

// TableName specifies the SQLite cache table name.
func (RegistryAircraft) TableName() string {
	return "aircraft_registry"
}

// RegistryColumns lists the registry-sourced output columns in export order.
// The join keys themselves (icao24, n_number) are not registry payload.
var RegistryColumns = []string{
	"aircraft_code",
	"aircraft_manufacturer",
	"aircraft_model",
	"aircraft_type",
	"aircraft_category",
	"num_engines",
	"num_seats",
	"cruising_speed_mph",
	"manufacturing_year",
	"registrant_type",
	"registrant_name",
	"registrant_city",
	"registrant_state",
	"registrant_country",
}

// Column returns the named registry payload column value.
func (r *RegistryAircraft) Column(name string) string {
	switch name {
	case "aircraft_code":
		return r.AircraftCode
	case "aircraft_manufacturer":
		return r.AircraftManufacturer
	case "aircraft_model":
		return r.AircraftModel
	case "aircraft_type":
		return r.AircraftType
	case "aircraft_category":
		return r.AircraftCategory
	case "num_engines":
		return r.NumEngines
	case "num_seats":
		return r.NumSeats
	case "cruising_speed_mph":
		return r.CruisingSpeedMPH
	case "manufacturing_year":
		return r.ManufacturingYear
	case "registrant_type":
		return r.RegistrantType
	case "registrant_name":
		return r.RegistrantName
	case "registrant_city":
		return r.RegistrantCity
	case "registrant_state":
		return r.RegistrantState
	case "registrant_country":
		return r.RegistrantCountry
	}
	return ""
}

// FlightRecord is one BTS on-time flight event. Canonical fields are resolved
// from the source schema once, up front; everything else rides along in
// Passthrough for the enriched output.
type FlightRecord struct {
	// FlightDate is the nominal (departure) flight date, midnight UTC.
	FlightDate time.Time
	// Origin and Dest are normalized airport codes.
	Origin string
	Dest   string
	// TailNumber is the normalized registration number joining into the
	// registry dimension. Empty when the source value was blank.
	TailNumber string

	// CRSDepTime and CRSArrTime are the scheduled local clock times as HHMM
	// integers; negative when unparseable.
	CRSDepTime int
	CRSArrTime int

	// ArrFlightDate is FlightDate advanced by one day when the scheduled
	// arrival clock time precedes the departure clock time (overnight
	// rollover), otherwise equal to FlightDate.
	ArrFlightDate time.Time

	// DepInstant / ArrInstant are the scheduled instants in UTC. Valid flags
	// are false when the local time was missing, malformed, or fell into a
	// DST gap or repeat.
	DepInstant      time.Time
	DepInstantValid bool
	ArrInstant      time.Time
	ArrInstantValid bool

	// DepStation / ArrStation are the weather station join keys.
	DepStation string
	ArrStation string

	// Passthrough carries the remaining source columns by name.
	Passthrough map[string]string
}
