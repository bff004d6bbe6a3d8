package registry

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/schema"
)

// Store is the local SQLite registry cache. Loading the full FAA registry
// export is expensive; the cache keeps the deduplicated dimension between
// runs so lookup jobs only pay the parse cost when the source changes.
type Store struct {
	db *gorm.DB
}

// OpenStore opens (creating if necessary) the SQLite cache at path and
// ensures the registry table exists.
func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to open registry cache %s", path), err, false)
	}
	if err := db.AutoMigrate(&entity.RegistryAircraft{}); err != nil {
		return nil, exception.NewPipelineError(stageName,
			"failed to migrate registry cache schema", err, false)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Count returns the number of cached registry records.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&entity.RegistryAircraft{}).Count(&n).Error; err != nil {
		return 0, exception.NewPipelineError(stageName, "failed to count registry cache", err, false)
	}
	return n, nil
}

// Replace swaps the cached dimension for the given records in one
// transaction. Records are written in batches to keep the SQLite variable
// limit at bay.
func (s *Store) Replace(records []entity.RegistryAircraft) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entity.RegistryAircraft{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 500).Error
	})
	if err != nil {
		return exception.NewPipelineError(stageName, "failed to replace registry cache", err, false)
	}
	logger.Infof("Registry cache replaced with %d records.", len(records))
	return nil
}

// LookupICAO24 fetches the cached records for a set of transponder codes.
// The result maps normalized code to record; absent keys had no record.
func (s *Store) LookupICAO24(codes []string) (map[string]entity.RegistryAircraft, error) {
	normalized := make([]string, 0, len(codes))
	for _, c := range codes {
		if n := schema.NormalizeHex(c); n != "" {
			normalized = append(normalized, n)
		}
	}
	out := make(map[string]entity.RegistryAircraft, len(normalized))
	if len(normalized) == 0 {
		return out, nil
	}

	// Chunked IN queries; SQLite caps bound variables per statement.
	for start := 0; start < len(normalized); start += 500 {
		end := start + 500
		if end > len(normalized) {
			end = len(normalized)
		}
		var rows []entity.RegistryAircraft
		if err := s.db.Where("icao24 IN ?", normalized[start:end]).Find(&rows).Error; err != nil {
			return nil, exception.NewPipelineError(stageName, "registry cache lookup failed", err, false)
		}
		for _, r := range rows {
			out[r.ICAO24] = r
		}
	}
	return out, nil
}

// LookupTail fetches the cached record for one registration number.
func (s *Store) LookupTail(tail string) (*entity.RegistryAircraft, error) {
	key := schema.NormalizeCode(tail)
	if key == "" {
		return nil, nil
	}
	var row entity.RegistryAircraft
	err := s.db.Where("n_number = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, exception.NewPipelineError(stageName, "registry cache lookup failed", err, false)
	}
	return &row, nil
}
