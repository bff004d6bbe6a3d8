package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/logger"
)

const stageName = "config"

// envPrefix is the prefix of environment variables that override
// configuration values (e.g. FLIGHTPREP_SYSTEM_TIMEZONE).
const envPrefix = "FLIGHTPREP_"

// LoadConfig loads the application configuration. Resolution order, later
// wins: built-in defaults, embedded YAML (with ${VAR} placeholders expanded
// from the environment), then FLIGHTPREP_* environment variables. It is
// expected to be called once during startup.
func LoadConfig(envFilePath string, embedded EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	if len(embedded) > 0 {
		expanded := os.ExpandEnv(string(embedded))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, exception.NewSchemaError(stageName, "failed to unmarshal embedded config", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(&cfg.Flightprep).Elem(), envPrefix); err != nil {
		return nil, exception.NewSchemaError(stageName, "failed to load config from environment variables", err)
	}

	return cfg, nil
}

// loadStructFromEnv recursively overrides struct fields from environment
// variables, deriving names from yaml tags (FLIGHTPREP_ + upper-cased path
// joined with underscores).
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envVal, ok := os.LookupEnv(envVarName)
		if !ok {
			continue
		}
		if err := setFieldFromString(field, envVal); err != nil {
			return exception.NewSchemaError(stageName,
				"invalid value for "+envVarName, err)
		}
		logger.Debugf("Config override from environment: %s", envVarName)
	}
	return nil
}

func setFieldFromString(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(raw, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
		// Slices of structs (window specs) are YAML-only.
	default:
		// Maps and other kinds stay YAML-only.
	}
	return nil
}
