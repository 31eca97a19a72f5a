package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/diabrisk/internal/domain/model"
)

var scoreHeader = []string{"row", ColumnUserID, ColumnDate, ColumnRiskScore, "band", "advice", "error"}

// WriteScores writes batch results as CSV, one line per result in the order
// given. Failed rows carry an empty score and the error text.
func WriteScores(w io.Writer, results []model.ScoreResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scoreHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range results {
		r := &results[i]
		rec := []string{strconv.Itoa(r.Job.Row), r.Job.UserID, r.Job.Date, "", "", "", ""}
		if r.Err != nil {
			rec[6] = r.Err.Error()
		} else {
			rec[3] = strconv.FormatFloat(r.Prediction.RiskScore, 'f', 4, 64)
			rec[4] = string(r.Prediction.Band)
			rec[5] = r.Prediction.Advice
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r.Job.Row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
