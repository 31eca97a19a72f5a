// Package model contains domain models passed between layers.
package model

import "github.com/okian/diabrisk/internal/domain/schema"

// TrainingRecord is one historical CSV row. UserID and Date identify the row
// and never reach the feature vector.
type TrainingRecord struct {
	Line      int               // 1-based line in the source file, header is line 1
	UserID    string            // identifier, dropped before modelling
	Date      string            // identifier, dropped before modelling
	Cells     map[string]string // raw feature cells keyed by column name
	RiskScore float64           // target
	HasTarget bool              // false when the risk_score cell was empty
}

// RiskBand buckets a score for presentation.
type RiskBand string

const (
	BandLow      RiskBand = "low"
	BandModerate RiskBand = "moderate"
	BandHigh     RiskBand = "high"
)

// Prediction is the result of one inference call.
type Prediction struct {
	RiskScore float64  `json:"risk_score"`
	Band      RiskBand `json:"band"`
	PairID    string   `json:"pair_id"`
	Advice    string   `json:"advice"`
}

// ScoreJob is one row of a batch scoring request.
type ScoreJob struct {
	Row    int
	UserID string
	Date   string
	Fields schema.RawFields
}

// ScoreResult pairs a job with its prediction or error.
type ScoreResult struct {
	Job        ScoreJob
	Prediction Prediction
	Err        error
}
