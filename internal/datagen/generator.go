// Package datagen writes synthetic daily health entries in the training CSV
// layout. The target follows a fixed noisy formula of the indicators, so a
// trained model has real structure to find.
package datagen

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/pkg/logger"
)

// Sentinel kinds for generator errors.
var (
	ErrInvalidConfig = errors.New("invalid generator config")
)

const dateLayout = "2006-01-02"

// profile holds the slowly changing traits of one synthetic user.
type profile struct {
	id          string
	baseGlucose float64
	age         int
	weight      float64
	height      float64
	activity    int // activity_level code
	adherence   float64
}

// day is one generated entry before formatting.
type day struct {
	glucose   int
	minutes   int
	diet      int
	med       int
	stress    int
	sleep     float64
	hydration int
}

// Generate writes cfg.Rows entries to w.
func Generate(ctx context.Context, w io.Writer, cfg Config) (Stats, error) {
	var stats Stats
	if cfg.Rows < 1 || cfg.Users < 1 {
		return stats, fmt.Errorf("%w: rows and users must be positive", ErrInvalidConfig)
	}
	if cfg.MissingRate < 0 || cfg.MissingRate >= 1 || cfg.DuplicateRate < 0 || cfg.DuplicateRate >= 1 {
		return stats, fmt.Errorf("%w: rates must be in [0, 1)", ErrInvalidConfig)
	}
	names, err := schema.FeatureNames(cfg.FeatureSet)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	users := make([]profile, cfg.Users)
	for i := range users {
		if users[i], err = newProfile(rng); err != nil {
			return stats, err
		}
	}

	cw := csv.NewWriter(w)
	header := append(append([]string{"user_id", "date"}, names...), "risk_score")
	if err := cw.Write(header); err != nil {
		return stats, err
	}

	var prev []string
	for row, slot := 0, 0; row < cfg.Rows; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		if prev != nil && rng.Float64() < cfg.DuplicateRate {
			dup := append([]string(nil), prev...)
			dup[len(dup)-1] = formatDecimal(rng.Float64()*100, 2)
			if err := cw.Write(dup); err != nil {
				return stats, err
			}
			stats.Duplicates++
			continue
		}

		u := &users[slot%cfg.Users]
		date := cfg.StartDate.AddDate(0, 0, slot/cfg.Users).Format(dateLayout)
		slot++

		d := u.nextDay(rng)
		cells := u.cells(d)
		rec := make([]string, 0, len(header))
		rec = append(rec, u.id, date)
		for _, name := range names {
			cell := cells[name]
			if rng.Float64() < cfg.MissingRate {
				cell = ""
				stats.Blanks++
			}
			rec = append(rec, cell)
		}
		rec = append(rec, formatDecimal(u.risk(d, rng), 2))
		if err := cw.Write(rec); err != nil {
			return stats, err
		}
		prev = rec
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return stats, err
	}
	stats.Rows = cfg.Rows
	stats.Users = cfg.Users
	logger.Get().Info(ctx, "synthetic dataset generated",
		logger.Int("rows", stats.Rows),
		logger.Int("users", stats.Users),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("blanks", stats.Blanks),
	)
	return stats, nil
}

func newProfile(rng *rand.Rand) (profile, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return profile{}, fmt.Errorf("user id: %w", err)
	}
	return profile{
		id:          id.String(),
		baseGlucose: 85 + rng.Float64()*90,
		age:         18 + rng.Intn(63),
		weight:      50 + rng.Float64()*70,
		height:      150 + rng.Float64()*45,
		activity:    rng.Intn(3),
		adherence:   0.5 + rng.Float64()*0.5,
	}, nil
}

func (u *profile) nextDay(rng *rand.Rand) day {
	d := day{
		glucose: int(math.Max(40, math.Round(u.baseGlucose+rng.NormFloat64()*15))),
		minutes: rng.Intn(20 + 50*u.activity),
		diet:    bernoulli(rng, 0.6),
		med:     bernoulli(rng, u.adherence),
		stress:  rng.Intn(3),
		sleep:   math.Round((4+rng.Float64()*6)*10) / 10,
	}
	d.hydration = bernoulli(rng, 0.7)
	return d
}

func (u *profile) cells(d day) map[string]string {
	return map[string]string{
		schema.BloodGlucose:        strconv.Itoa(d.glucose),
		schema.PhysicalActivity:    strconv.Itoa(d.minutes),
		schema.Diet:                label(schema.Diet, d.diet),
		schema.MedicationAdherence: label(schema.MedicationAdherence, d.med),
		schema.StressLevel:         label(schema.StressLevel, d.stress),
		schema.SleepHours:          formatDecimal(d.sleep, 1),
		schema.HydrationLevel:      label(schema.HydrationLevel, d.hydration),
		schema.Age:                 strconv.Itoa(u.age),
		schema.Weight:              formatDecimal(u.weight, 1),
		schema.Height:              formatDecimal(u.height, 1),
		schema.ActivityLevel:       label(schema.ActivityLevel, u.activity),
	}
}

// risk is the synthetic target, clamped to [0, 100].
func (u *profile) risk(d day, rng *rand.Rand) float64 {
	bmi := u.weight / math.Pow(u.height/100, 2)
	r := 0.35*(float64(d.glucose)-90) -
		0.08*float64(d.minutes) +
		6*float64(1-d.diet) +
		8*float64(1-d.med) +
		4*float64(d.stress) +
		1.5*math.Abs(d.sleep-7.5) +
		0.1*float64(u.age-40) +
		0.2*(bmi-25) -
		2*float64(d.hydration) +
		rng.NormFloat64()*2
	return math.Min(100, math.Max(0, r))
}

func bernoulli(rng *rand.Rand, p float64) int {
	if rng.Float64() < p {
		return 1
	}
	return 0
}

// label returns the category label encoded as code for field.
func label(field string, code int) string {
	f, _ := schema.Lookup(field)
	for _, c := range f.Categories {
		if int(c.Code) == code {
			return c.Label
		}
	}
	return strconv.Itoa(code)
}

func formatDecimal(x float64, prec int) string {
	return strconv.FormatFloat(x, 'f', prec, 64)
}
