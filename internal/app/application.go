// Package app assembles the flightprep application with uber-fx: config,
// logging, metrics, shared collaborators and the job registry, then runs the
// selected job to completion.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/fetch"
	"github.com/tigerroll/flightprep/internal/job"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/metrics"
	"github.com/tigerroll/flightprep/internal/temporal"
)

// NewNormalizer builds the temporal normalizer from the configured zone.
func NewNormalizer(cfg *config.Config) (*temporal.Normalizer, error) {
	return temporal.NewNormalizer(cfg.Flightprep.System.Timezone)
}

// NewDownloader builds the HTTP downloader from the fetch configuration.
func NewDownloader(cfg *config.Config) *fetch.Downloader {
	return fetch.NewDownloader(cfg.Flightprep.Fetch)
}

// NewMetricRecorder selects the metrics backend.
func NewMetricRecorder(cfg *config.Config) metrics.MetricRecorder {
	if cfg.Flightprep.System.Metrics.Enabled {
		return metrics.NewPrometheusRecorder()
	}
	return metrics.NewNoOpMetricRecorder()
}

// RunApplication loads the configuration, assembles the Fx application and
// runs the named job. The returned error is the job's failure, if any.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, jobName string, jobArgs []string) error {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLogLevel(cfg.Flightprep.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Flightprep.System.Logging.Level)

	var runErr error

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			NewNormalizer,
			NewDownloader,
			NewMetricRecorder,
		),
		job.Module,
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
		fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, runner *job.Runner) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						defer func() {
							if r := recover(); r != nil {
								logger.Errorf("Panic recovered in job execution: %v", r)
							}
							if err := shutdowner.Shutdown(); err != nil {
								logger.Errorf("Failed to shutdown application: %v", err)
							}
						}()
						runErr = runner.Run(appCtx, jobName, jobArgs)
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					logger.Infof("Application is shutting down.")
					return nil
				},
			})
		}),
	)

	app.Run()
	if app.Err() != nil {
		return app.Err()
	}
	return runErr
}
