// Package dataset reads historical daily entries from CSV, cleans them into a
// numeric matrix and splits it for evaluation.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/pkg/logger"
)

// Identifier and target columns of the training file.
const (
	ColumnUserID    = "user_id"
	ColumnDate      = "date"
	ColumnRiskScore = "risk_score"
)

const ctxCheckEvery = 1024

// Load opens path and reads it with Read.
func Load(ctx context.Context, path string, s *schema.Schema, opts ...Option) ([]model.TrainingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(ctx, f, s, opts...)
}

// Read parses a training CSV. The header must name user_id, date, risk_score
// and every field of s; other columns are ignored. Cells are kept raw for
// Clean, only the target is parsed here.
func Read(ctx context.Context, r io.Reader, s *schema.Schema, opts ...Option) ([]model.TrainingRecord, error) {
	cfg := newSettings(opts)

	cr := newReader(r)
	cols, err := readHeader(cr, append([]string{ColumnUserID, ColumnDate, ColumnRiskScore}, s.Names()...))
	if err != nil {
		return nil, err
	}
	if extra := cols.extra(); len(extra) > 0 {
		cfg.logger.Debug(ctx, "ignoring extra columns", logger.Strings("columns", extra))
	}

	var records []model.TrainingRecord
	for {
		row, line, err := nextRow(cr)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(records)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec := model.TrainingRecord{
			Line:   line,
			UserID: cols.get(row, ColumnUserID),
			Date:   cols.get(row, ColumnDate),
			Cells:  make(map[string]string, s.Len()),
		}
		for _, name := range s.Names() {
			rec.Cells[name] = cols.get(row, name)
		}
		if raw := cols.get(row, ColumnRiskScore); raw != "" {
			y, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
				return nil, &RowError{Line: line, Err: fmt.Errorf("%w: risk_score %q", ErrMalformedRow, raw)}
			}
			rec.RiskScore, rec.HasTarget = y, true
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	cfg.logger.Info(ctx, "dataset loaded", logger.Int("rows", len(records)))
	return records, nil
}

// ReadEntries parses a CSV of daily entries to score. Only the fields of s
// are required; user_id and date are carried through when present.
func ReadEntries(ctx context.Context, r io.Reader, s *schema.Schema) ([]model.ScoreJob, error) {
	cr := newReader(r)
	cols, err := readHeader(cr, s.Names())
	if err != nil {
		return nil, err
	}

	var jobs []model.ScoreJob
	for {
		row, line, err := nextRow(cr)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(jobs)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields := make(schema.RawFields, s.Len())
		for _, name := range s.Names() {
			fields[name] = cols.get(row, name)
		}
		jobs = append(jobs, model.ScoreJob{
			Row:    line,
			UserID: cols.get(row, ColumnUserID),
			Date:   cols.get(row, ColumnDate),
			Fields: fields,
		})
	}
	if len(jobs) == 0 {
		return nil, ErrEmptyDataset
	}
	return jobs, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return cr
}

// columns maps header names to positions.
type columns struct {
	index    map[string]int
	header   []string
	required map[string]struct{}
}

func readHeader(cr *csv.Reader, required []string) (*columns, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, &RowError{Line: 1, Err: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
	}

	c := &columns{
		index:    make(map[string]int, len(header)),
		header:   header,
		required: make(map[string]struct{}, len(required)),
	}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		c.index[name] = i
	}
	for _, name := range required {
		if _, ok := c.index[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		c.required[name] = struct{}{}
	}
	return c, nil
}

func (c *columns) get(row []string, name string) string {
	i, ok := c.index[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c *columns) extra() []string {
	var out []string
	for _, name := range c.header {
		if _, ok := c.required[strings.ToLower(strings.TrimSpace(name))]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// nextRow returns the next record and its 1-based line. The csv reader
// enforces the header's field count on every row.
func nextRow(cr *csv.Reader) ([]string, int, error) {
	row, err := cr.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, 0, &RowError{Line: pe.Line, Err: fmt.Errorf("%w: %v", ErrMalformedRow, pe.Err)}
		}
		return nil, 0, err
	}
	line, _ := cr.FieldPos(0)
	return row, line, nil
}
