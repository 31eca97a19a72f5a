package dataset

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/diabrisk/internal/domain/dedupe"
	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/pkg/logger"
)

// CleanStats counts what Clean did to the input.
type CleanStats struct {
	Rows          int            `json:"rows"`
	Duplicates    int            `json:"duplicates"`
	MissingTarget int            `json:"missing_target"`
	Kept          int            `json:"kept"`
	ImputedCells  int            `json:"imputed_cells"`
	Imputed       map[string]int `json:"imputed,omitempty"`
}

// Dropped is the number of input rows that did not survive cleaning.
func (s CleanStats) Dropped() int { return s.Duplicates + s.MissingTarget }

// Matrix is the cleaned design matrix and target, rows in input order.
type Matrix struct {
	Features []string
	X        [][]float64
	Y        []float64
}

// Clean turns records into a numeric matrix for s:
//   - rows without a target are dropped
//   - later labelled rows repeating a (user_id, date) pair are dropped
//   - empty feature cells take the mean of the column's observed values
//
// Any cell that fails encoding aborts with a *RowError wrapping the
// *schema.ValidationError.
func Clean(ctx context.Context, records []model.TrainingRecord, s *schema.Schema, opts ...Option) (*Matrix, CleanStats, error) {
	cfg := newSettings(opts)
	stats := CleanStats{Rows: len(records), Imputed: map[string]int{}}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(len(records)))

	width := s.Len()
	x := make([][]float64, 0, len(records))
	y := make([]float64, 0, len(records))
	holes := make([][]bool, 0, len(records))

	for i := range records {
		rec := &records[i]
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		if !rec.HasTarget {
			stats.MissingTarget++
			continue
		}
		if seen.SeenAndRecord(ctx, dedupe.RecordKey(rec.UserID, rec.Date)) {
			stats.Duplicates++
			cfg.logger.Debug(ctx, "duplicate row dropped",
				logger.Int("line", rec.Line),
				logger.String("user_id", rec.UserID),
				logger.String("date", rec.Date),
			)
			continue
		}
		v, missing, err := s.EncodeCells(rec.Cells)
		if err != nil {
			return nil, stats, &RowError{Line: rec.Line, Err: err}
		}
		x = append(x, v)
		y = append(y, rec.RiskScore)
		holes = append(holes, missing)
	}

	if len(x) == 0 {
		return nil, stats, ErrNoUsableRows
	}

	names := s.Names()
	observed := make([]float64, 0, len(x))
	for j := 0; j < width; j++ {
		observed = observed[:0]
		for i := range x {
			if !holes[i][j] {
				observed = append(observed, x[i][j])
			}
		}
		if len(observed) == 0 {
			return nil, stats, fmt.Errorf("%w: %q", ErrNoValues, names[j])
		}
		if len(observed) == len(x) {
			continue
		}
		mean := stat.Mean(observed, nil)
		for i := range x {
			if holes[i][j] {
				x[i][j] = mean
			}
		}
		n := len(x) - len(observed)
		stats.Imputed[names[j]] = n
		stats.ImputedCells += n
	}

	stats.Kept = len(x)
	if stats.Dropped() > 0 || stats.ImputedCells > 0 {
		cfg.logger.Info(ctx, "dataset cleaned",
			logger.Int("rows", stats.Rows),
			logger.Int("duplicates", stats.Duplicates),
			logger.Int("missing_target", stats.MissingTarget),
			logger.Int("imputed_cells", stats.ImputedCells),
		)
	}
	return &Matrix{Features: names, X: x, Y: y}, stats, nil
}
