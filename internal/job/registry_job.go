package job

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/export"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/metrics"
	"github.com/tigerroll/flightprep/internal/registry"
	"github.com/tigerroll/flightprep/internal/schema"
	"github.com/tigerroll/flightprep/internal/table"
)

// RegistryJob loads the FAA registry into the local SQLite cache and looks up
// the transponder codes given as arguments, writing the matches as CSV.
// Without arguments it only refreshes the cache.
type RegistryJob struct {
	cfg      *config.Config
	recorder metrics.MetricRecorder
}

// NewRegistryJob wires the registry lookup job.
func NewRegistryJob(cfg *config.Config, recorder metrics.MetricRecorder) *RegistryJob {
	return &RegistryJob{cfg: cfg, recorder: recorder}
}

func (j *RegistryJob) Name() string { return "registry" }

func (j *RegistryJob) Run(ctx context.Context, args []string) error {
	fp := j.cfg.Flightprep

	store, err := registry.OpenStore(fp.Registry.CacheDB)
	if err != nil {
		return err
	}
	defer store.Close()

	cached, err := store.Count()
	if err != nil {
		return err
	}
	if cached == 0 {
		if err := j.refreshCache(fp, store); err != nil {
			return err
		}
	} else {
		logger.Infof("Registry cache holds %d records; reusing.", cached)
	}

	if len(args) == 0 {
		return nil
	}

	found, err := store.LookupICAO24(args)
	if err != nil {
		return err
	}
	j.recorder.RecordRowsRead(ctx, j.Name(), "lookups", len(args))

	t := lookupTable(args, found)

	sink, err := export.NewSink(ctx, fp.Storage)
	if err != nil {
		return err
	}
	defer sink.Close()
	if err := export.WriteTableCSV(ctx, sink, "registry/matches.csv", t); err != nil {
		return err
	}
	j.recorder.RecordRowsWritten(ctx, j.Name(), "registry/matches.csv", t.NumRows())
	return nil
}

// refreshCache loads the registry source and replaces the cache with the
// deduplicated icao24 dimension.
func (j *RegistryJob) refreshCache(fp config.FlightprepConfig, store *registry.Store) error {
	registryDir := filepath.Join(fp.Paths.DataDir, "registry")
	path, err := findRegistryFile(registryDir)
	if err != nil {
		return exception.NewPipelineError(j.Name(),
			fmt.Sprintf("registry cache is empty and no source file found under %s", registryDir), err, false)
	}
	records, err := registry.Load(path)
	if err != nil {
		return err
	}
	idx := registry.NewIndex(records)
	deduped := make([]entity.RegistryAircraft, 0, len(records))
	seen := make(map[string]bool)
	for _, r := range records {
		key := r.ICAO24
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if winner, ok := idx.ByICAO24(key); ok {
			deduped = append(deduped, winner)
		}
	}
	return store.Replace(deduped)
}

func lookupTable(codes []string, found map[string]entity.RegistryAircraft) *table.Table {
	cols := []table.Column{
		{Name: "icao24", Kind: table.KindString},
		{Name: "n_number", Kind: table.KindString},
		{Name: "matched", Kind: table.KindInt},
	}
	for _, name := range entity.RegistryColumns {
		cols = append(cols, table.Column{Name: name, Kind: table.KindString})
	}
	t := table.New(cols...)

	for _, raw := range codes {
		key := schema.NormalizeHex(raw)
		row := make([]*string, 0, len(cols))
		row = append(row, table.String(key))
		if rec, ok := found[key]; ok {
			row = append(row, table.String(rec.NNumber), table.Int(1))
			for _, name := range entity.RegistryColumns {
				row = append(row, table.String(rec.Column(name)))
			}
		} else {
			row = append(row, nil, table.Int(0))
			for range entity.RegistryColumns {
				row = append(row, nil)
			}
		}
		_ = t.Append(row)
	}
	return t
}
