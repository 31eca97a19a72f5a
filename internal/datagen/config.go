package datagen

import (
	"time"

	"github.com/okian/diabrisk/internal/domain/schema"
)

// Default generator settings.
const (
	DefaultRows          = 1000
	DefaultUsers         = 50
	DefaultSeed          = 42
	DefaultMissingRate   = 0.02
	DefaultDuplicateRate = 0.01
)

// Config holds configuration for one generated file.
type Config struct {
	Rows          int               // data rows, duplicates included
	Users         int               // distinct user ids
	Seed          int64             // same seed, same file
	FeatureSet    schema.FeatureSet // columns written besides ids and target
	MissingRate   float64           // probability a feature cell is left blank
	DuplicateRate float64           // probability a row repeats the previous (user_id, date)
	StartDate     time.Time         // date of the first day
}

// DefaultConfig returns the default generator settings.
func DefaultConfig() Config {
	return Config{
		Rows:          DefaultRows,
		Users:         DefaultUsers,
		Seed:          DefaultSeed,
		FeatureSet:    schema.FeatureSetCore,
		MissingRate:   DefaultMissingRate,
		DuplicateRate: DefaultDuplicateRate,
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Stats holds generation statistics.
type Stats struct {
	Rows       int
	Users      int
	Duplicates int
	Blanks     int
}
