// Package config provides structures and utilities for managing the
// flightprep application configuration. Configuration is loaded once at
// startup and treated as immutable afterwards; components receive the parts
// they need at construction.
package config

// EmbeddedConfig holds the content of the configuration file, typically
// embedded into the binary and passed in from main.go.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g. "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// MetricsConfig selects the metrics backend for a run.
type MetricsConfig struct {
	// Enabled switches from the no-op recorder to the Prometheus recorder.
	Enabled bool `yaml:"enabled"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the civil time zone of the target airport
	// (e.g. "America/New_York" for BWI). Scheduled local clock times are
	// localized here before conversion to UTC.
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
	// Metrics is the metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// RetryConfig holds the retry/backoff knobs for network downloads.
type RetryConfig struct {
	MaxAttempts     int     `yaml:"max_attempts"`     // MaxAttempts is the fixed attempt budget.
	InitialInterval int     `yaml:"initial_interval"` // InitialInterval is the first backoff interval in milliseconds.
	MaxInterval     int     `yaml:"max_interval"`     // MaxInterval caps the backoff interval in milliseconds.
	Factor          float64 `yaml:"factor"`           // Factor is the backoff multiplier between attempts (2.0 doubles).
}

// CacheConfig controls reuse of previously downloaded artifacts.
type CacheConfig struct {
	// MaxAgeHours is the maximum age for a cached file to count as fresh.
	MaxAgeHours int `yaml:"max_age_hours"`
	// MinBytes is a sanity-check minimum size; smaller cached files are
	// treated as truncated and re-downloaded.
	MinBytes int64 `yaml:"min_bytes"`
}

// FetchConfig holds the HTTP download settings.
type FetchConfig struct {
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	Retry          RetryConfig `yaml:"retry"`
	Cache          CacheConfig `yaml:"cache"`
}

// AirportConfig identifies the target airport and its terminal area.
type AirportConfig struct {
	// Code is the IATA airport code flights are filtered to.
	Code string `yaml:"code"`
	// StationMap optionally maps airport codes to weather station codes.
	// An unmapped airport code is used as the station code directly.
	StationMap map[string]string `yaml:"station_map"`
	// Terminal-area bounding box for state-vector filtering.
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
	LonMin float64 `yaml:"lon_min"`
	LonMax float64 `yaml:"lon_max"`
}

// BTSConfig holds settings for the TranStats on-time acquisition job.
type BTSConfig struct {
	BaseURL string `yaml:"base_url"`
	Year    int    `yaml:"year"`
	Months  []int  `yaml:"months"`
	// WriteMonthly also writes per-month outputs when the whole year is pulled.
	WriteMonthly bool `yaml:"write_monthly"`
}

// SeverityConfig holds the weather severity thresholds.
type SeverityConfig struct {
	// StormThreshold is the severity score at or above which an observation
	// counts as a storm observation.
	StormThreshold float64 `yaml:"storm_threshold"`
}

// RegionalConfig holds the hourly regional aggregation thresholds.
type RegionalConfig struct {
	// MeanThreshold flags an hour whose mean severity exceeds it.
	MeanThreshold float64 `yaml:"mean_threshold"`
	// MinStormObs flags an hour with at least this many storm observations.
	MinStormObs int `yaml:"min_storm_obs"`
}

// WeatherConfig holds weather parsing and matching settings.
type WeatherConfig struct {
	// MatchToleranceMinutes bounds the nearest-observation lookup; anchors
	// with no observation within the tolerance stay unmatched.
	MatchToleranceMinutes int `yaml:"match_tolerance_minutes"`
	// NullTokens are literal strings that must be treated as missing values
	// in numeric columns, never parsed as zero.
	NullTokens []string `yaml:"null_tokens"`
	// NullTokenColumns lists the numeric columns that may carry NullTokens
	// and therefore require the explicit coercion step before parsing.
	NullTokenColumns []string `yaml:"null_token_columns"`
	Severity         SeverityConfig `yaml:"severity"`
	Regional         RegionalConfig `yaml:"regional"`
}

// WindowSpecConfig declares one trailing-window feature specification.
type WindowSpecConfig struct {
	// Name suffixes the generated columns (e.g. "10s" -> velocity_mean_10s).
	Name string `yaml:"name"`
	// Seconds is the wall-clock window length.
	Seconds int `yaml:"seconds"`
	// Fields are the telemetry fields aggregated over this window.
	Fields []string `yaml:"fields"`
}

// FeaturesConfig holds the state-vector feature generation settings.
type FeaturesConfig struct {
	Windows []WindowSpecConfig `yaml:"windows"`
}

// RegistryConfig holds the aircraft registry dimension settings.
type RegistryConfig struct {
	// ForceStrings fills registry columns of unmatched flights with the
	// literal "Registry Not Found" sentinel instead of leaving typed nulls.
	ForceStrings bool `yaml:"force_strings"`
	// CacheDB is the path of the local SQLite registry cache.
	CacheDB string `yaml:"cache_db"`
}

// StorageConfig selects the output sink.
type StorageConfig struct {
	// Provider is "local" or "gcs".
	Provider string `yaml:"provider"`
	// BaseDir is the root directory for the local provider.
	BaseDir string `yaml:"base_dir"`
	// Bucket is the bucket name for the gcs provider.
	Bucket string `yaml:"bucket"`
}

// PathsConfig holds the on-disk layout of raw and derived data.
type PathsConfig struct {
	DataDir string `yaml:"data_dir"`
	OutDir  string `yaml:"out_dir"`
}

// FlightprepConfig holds all configuration under the "flightprep" key.
type FlightprepConfig struct {
	System   SystemConfig   `yaml:"system"`
	Paths    PathsConfig    `yaml:"paths"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Airport  AirportConfig  `yaml:"airport"`
	BTS      BTSConfig      `yaml:"bts"`
	Weather  WeatherConfig  `yaml:"weather"`
	Features FeaturesConfig `yaml:"features"`
	Registry RegistryConfig `yaml:"registry"`
	Storage  StorageConfig  `yaml:"storage"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Flightprep FlightprepConfig `yaml:"flightprep"`
}

// NewConfig returns a Config populated with defaults. Values loaded from YAML
// and the environment are merged on top.
func NewConfig() *Config {
	return &Config{
		Flightprep: FlightprepConfig{
			System: SystemConfig{
				Timezone: "America/New_York",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Paths: PathsConfig{
				DataDir: "raw_data",
				OutDir:  "outputs",
			},
			Fetch: FetchConfig{
				TimeoutSeconds: 180,
				Retry: RetryConfig{
					MaxAttempts:     4,
					InitialInterval: 1000,
					MaxInterval:     30000,
					Factor:          2.0,
				},
				Cache: CacheConfig{
					MaxAgeHours: 24 * 14,
					MinBytes:    1024,
				},
			},
			Airport: AirportConfig{
				Code: "BWI",
				// BWI terminal area.
				LatMin: 38.9191667,
				LatMax: 39.4166667,
				LonMin: -77.0597222,
				LonMax: -76.3075000,
			},
			BTS: BTSConfig{
				BaseURL:      "https://transtats.bts.gov/PREZIP",
				Year:         2019,
				Months:       []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
				WriteMonthly: true,
			},
			Weather: WeatherConfig{
				MatchToleranceMinutes: 60,
				NullTokens:            []string{"null", "NULL", ""},
				NullTokenColumns: []string{
					"lon", "lat", "elevation", "tmpf", "dwpf", "relh", "drct", "sknt",
					"p01i", "alti", "mslp", "vsby", "gust",
					"skyl1", "skyl2", "skyl3", "skyl4",
					"ice_accretion_1hr", "ice_accretion_3hr", "ice_accretion_6hr",
					"peak_wind_gust", "peak_wind_drct", "feel", "snowdepth",
				},
				Severity: SeverityConfig{StormThreshold: 2.0},
				Regional: RegionalConfig{MeanThreshold: 1.0, MinStormObs: 3},
			},
			Features: FeaturesConfig{
				Windows: []WindowSpecConfig{
					{Name: "10s", Seconds: 10, Fields: []string{"lat", "lon", "velocity", "geoaltitude", "vertrate", "heading"}},
					{Name: "1min", Seconds: 60, Fields: []string{"velocity", "geoaltitude", "vertrate"}},
				},
			},
			Registry: RegistryConfig{
				ForceStrings: true,
				CacheDB:      "raw_data/registry_cache.db",
			},
			Storage: StorageConfig{
				Provider: "local",
				BaseDir:  "outputs",
			},
		},
	}
}
