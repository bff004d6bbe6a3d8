package job

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tigerroll/flightprep/internal/archive"
	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/export"
	"github.com/tigerroll/flightprep/internal/fetch"
	"github.com/tigerroll/flightprep/internal/flights"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/metrics"
	"github.com/tigerroll/flightprep/internal/table"
	"github.com/tigerroll/flightprep/internal/temporal"
)

// btsArchiveName is the TranStats PREZIP naming scheme for the on-time
// reporting archives.
const btsArchiveName = "On_Time_Reporting_Carrier_On_Time_Performance_1987_present_%d_%d.zip"

// BTSJob pulls the configured year of TranStats on-time data, filters it to
// flights touching the target airport, and writes monthly and combined
// outputs.
type BTSJob struct {
	cfg        *config.Config
	downloader *fetch.Downloader
	normalizer *temporal.Normalizer
	recorder   metrics.MetricRecorder
}

// NewBTSJob wires the acquisition job.
func NewBTSJob(cfg *config.Config, downloader *fetch.Downloader, normalizer *temporal.Normalizer, recorder metrics.MetricRecorder) *BTSJob {
	return &BTSJob{cfg: cfg, downloader: downloader, normalizer: normalizer, recorder: recorder}
}

func (j *BTSJob) Name() string { return "bts" }

func (j *BTSJob) Run(ctx context.Context, args []string) error {
	fp := j.cfg.Flightprep
	if props, _ := splitProps(args); len(props) > 0 {
		// e.g. "bts year=2020 write_monthly=false".
		if err := config.BindProperties(props, &fp.BTS); err != nil {
			return err
		}
		logger.Infof("BTS job properties override: %v", props)
	}
	sink, err := export.NewSink(ctx, fp.Storage)
	if err != nil {
		return err
	}
	defer sink.Close()

	var combined *table.Table
	for _, month := range fp.BTS.Months {
		records, sourceCols, err := j.loadMonth(ctx, fp, month)
		if err != nil {
			return err
		}
		j.recorder.RecordRowsRead(ctx, j.Name(), fmt.Sprintf("bts_%d_%02d", fp.BTS.Year, month), len(records))

		monthly := flightTable(sourceCols, records)
		if fp.BTS.WriteMonthly {
			name := fmt.Sprintf("bts/monthly/%s_flights_%d_%02d.csv", airportSlug(fp.Airport.Code), fp.BTS.Year, month)
			if err := export.WriteTableCSV(ctx, sink, name, monthly); err != nil {
				return err
			}
			j.recorder.RecordRowsWritten(ctx, j.Name(), name, monthly.NumRows())
		}

		if combined == nil {
			combined = monthly
			continue
		}
		// Later months append by column name; the first month's header wins.
		for _, rec := range records {
			row := make([]*string, len(combined.Cols))
			for i, col := range combined.Cols {
				if v, ok := rec.Passthrough[col.Name]; ok {
					row[i] = table.String(v)
				}
			}
			if err := combined.Append(row); err != nil {
				return err
			}
		}
	}

	if combined == nil {
		return exception.NewPipelineError(j.Name(), "no months configured", nil, false)
	}

	base := fmt.Sprintf("bts/%s_flights_%d", airportSlug(fp.Airport.Code), fp.BTS.Year)
	if err := export.WriteTableCSV(ctx, sink, base+".csv", combined); err != nil {
		return err
	}
	if err := export.WriteTableParquet(ctx, sink, base+".parquet", combined); err != nil {
		return err
	}
	j.recorder.RecordRowsWritten(ctx, j.Name(), base, combined.NumRows())
	logger.Infof("BTS acquisition done: %d flights across %d month(s).", combined.NumRows(), len(fp.BTS.Months))
	return nil
}

// loadMonth downloads, extracts and filters one month of on-time data.
func (j *BTSJob) loadMonth(ctx context.Context, fp config.FlightprepConfig, month int) ([]entity.FlightRecord, []string, error) {
	url := fmt.Sprintf("%s/"+btsArchiveName, fp.BTS.BaseURL, fp.BTS.Year, month)
	dest := filepath.Join(fp.Paths.DataDir, "bts", fmt.Sprintf("bts_%d_%02d.zip", fp.BTS.Year, month))

	if _, err := j.downloader.Fetch(ctx, url, dest); err != nil {
		return nil, nil, err
	}

	extractDir := filepath.Join(fp.Paths.DataDir, "bts", "extracted", fmt.Sprintf("%d_%02d", fp.BTS.Year, month))
	if _, err := archive.ExtractZip(dest, extractDir); err != nil {
		return nil, nil, err
	}
	csvs, err := archive.FindByExtension(extractDir, ".csv")
	if err != nil {
		return nil, nil, err
	}
	if len(csvs) == 0 {
		return nil, nil, exception.NewPipelineError(j.Name(),
			fmt.Sprintf("archive %s contained no CSV file", dest), nil, false)
	}

	res, err := flights.Load(csvs[0], j.normalizer, fp.Airport)
	if err != nil {
		return nil, nil, err
	}
	kept := flights.FilterAirport(res.Records, fp.Airport.Code)
	logger.Infof("Month %d/%02d: %d flights at %s (of %d).", fp.BTS.Year, month, len(kept), fp.Airport.Code, len(res.Records))
	return kept, res.SourceCols, nil
}

// flightTable materializes flight records into the tabular form using the
// source column order.
func flightTable(sourceCols []string, records []entity.FlightRecord) *table.Table {
	cols := make([]table.Column, len(sourceCols))
	for i, name := range sourceCols {
		cols[i] = table.Column{Name: name, Kind: table.KindString}
	}
	t := table.New(cols...)
	for i := range records {
		row := make([]*string, len(sourceCols))
		for c, name := range sourceCols {
			if v, ok := records[i].Passthrough[name]; ok {
				row[c] = table.String(v)
			}
		}
		// Row width matches the column count by construction.
		_ = t.Append(row)
	}
	return t
}
