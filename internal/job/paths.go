package job

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tigerroll/flightprep/internal/config"
)

// Conventional object names inside the output sink. Jobs read their upstream
// inputs from the local output directory, which mirrors the local sink
// layout.
func airportSlug(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func combinedFlightsName(fp config.FlightprepConfig) string {
	return fmt.Sprintf("bts/%s_flights_%d.csv", airportSlug(fp.Airport.Code), fp.BTS.Year)
}

func rawStatesName() string {
	return "states/raw_states.csv"
}

func featuresBaseName() string {
	return "features/states_features"
}

func enrichedBaseName(fp config.FlightprepConfig) string {
	return fmt.Sprintf("enriched/%s_enriched_%d", airportSlug(fp.Airport.Code), fp.BTS.Year)
}

// outPath maps a sink object name onto the local output directory.
func outPath(fp config.FlightprepConfig, name string) string {
	return filepath.Join(fp.Paths.OutDir, filepath.FromSlash(name))
}
