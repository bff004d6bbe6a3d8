package job

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tigerroll/flightprep/internal/archive"
	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/enrich"
	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/export"
	"github.com/tigerroll/flightprep/internal/flights"
	"github.com/tigerroll/flightprep/internal/join"
	"github.com/tigerroll/flightprep/internal/metrics"
	"github.com/tigerroll/flightprep/internal/profile"
	"github.com/tigerroll/flightprep/internal/registry"
	"github.com/tigerroll/flightprep/internal/temporal"
	"github.com/tigerroll/flightprep/internal/weather"
)

// JoinJob builds the enriched dataset: flights widened with nearest weather
// observations on both sides, the hourly regional index, and the aircraft
// registry dimension.
type JoinJob struct {
	cfg        *config.Config
	normalizer *temporal.Normalizer
	recorder   metrics.MetricRecorder
}

// NewJoinJob wires the join job.
func NewJoinJob(cfg *config.Config, normalizer *temporal.Normalizer, recorder metrics.MetricRecorder) *JoinJob {
	return &JoinJob{cfg: cfg, normalizer: normalizer, recorder: recorder}
}

func (j *JoinJob) Name() string { return "join" }

func (j *JoinJob) Run(ctx context.Context, args []string) error {
	fp := j.cfg.Flightprep

	flightsPath := outPath(fp, combinedFlightsName(fp))
	if len(args) > 0 {
		flightsPath = args[0]
	}
	fl, err := flights.Load(flightsPath, j.normalizer, fp.Airport)
	if err != nil {
		return err
	}
	fl.Records = flights.FilterAirport(fl.Records, fp.Airport.Code)
	j.recorder.RecordRowsRead(ctx, j.Name(), flightsPath, len(fl.Records))

	observations, err := j.loadWeather(fp)
	if err != nil {
		return err
	}
	j.recorder.RecordRowsRead(ctx, j.Name(), "weather", len(observations))

	idx, err := j.loadRegistry(fp)
	if err != nil {
		return err
	}

	tolerance := time.Duration(fp.Weather.MatchToleranceMinutes) * time.Minute
	matcher := join.NewMatcher(observations, tolerance)
	regional := weather.NewRegionalIndex(observations, fp.Weather)
	merger := enrich.NewMerger(matcher, regional, idx, fp.Registry, j.recorder)

	t, err := merger.Build(ctx, fl)
	if err != nil {
		return err
	}

	sink, err := export.NewSink(ctx, fp.Storage)
	if err != nil {
		return err
	}
	defer sink.Close()

	base := enrichedBaseName(fp)
	if err := export.WriteTableCSV(ctx, sink, base+".csv", t); err != nil {
		return err
	}
	if err := export.WriteTableParquet(ctx, sink, base+".parquet", t); err != nil {
		return err
	}
	j.recorder.RecordRowsWritten(ctx, j.Name(), base, t.NumRows())

	profile.Summarize(t, profile.DefaultOptions()).Log()
	return nil
}

// loadWeather concatenates every weather CSV in the data directory.
func (j *JoinJob) loadWeather(fp config.FlightprepConfig) ([]entity.Observation, error) {
	weatherDir := filepath.Join(fp.Paths.DataDir, "weather")
	files, err := archive.FindByExtension(weatherDir, ".csv")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, exception.NewPipelineError(j.Name(),
			fmt.Sprintf("no weather CSV files found under %s", weatherDir), nil, false)
	}
	loader := weather.NewLoader(fp.Weather)
	var observations []entity.Observation
	for _, f := range files {
		obs, err := loader.Load(f)
		if err != nil {
			return nil, err
		}
		observations = append(observations, obs...)
	}
	return observations, nil
}

// loadRegistry loads and deduplicates the aircraft dimension, preferring
// parquet over CSV when both are present.
func (j *JoinJob) loadRegistry(fp config.FlightprepConfig) (*registry.Index, error) {
	registryDir := filepath.Join(fp.Paths.DataDir, "registry")
	path, err := findRegistryFile(registryDir)
	if err != nil {
		return nil, exception.NewPipelineError(j.Name(),
			fmt.Sprintf("no registry file found under %s", registryDir), err, false)
	}
	records, err := registry.Load(path)
	if err != nil {
		return nil, err
	}
	return registry.NewIndex(records), nil
}

func findRegistryFile(dir string) (string, error) {
	for _, ext := range []string{".parquet", ".csv"} {
		files, err := archive.FindByExtension(dir, ext)
		if err != nil {
			return "", err
		}
		if len(files) > 0 {
			return files[0], nil
		}
	}
	return "", fmt.Errorf("no .parquet or .csv file in %s", dir)
}
