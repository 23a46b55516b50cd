// Package feedback closes the learning loop: a diner's satisfaction score
// trains the model, the new weights are persisted and the sample is logged.
package feedback

import (
	"context"

	"github.com/kartoza/restaurant-bot/internal/logging"
	"github.com/kartoza/restaurant-bot/internal/model"
	"github.com/kartoza/restaurant-bot/internal/taste"
)

// Feedback sources
const (
	SourceBest    = "best"
	SourceProfile = "profile"
	SourceManual  = "manual"
)

// Feedback is a satisfaction score for a taste vector
type Feedback struct {
	Source string       `json:"source"`
	MenuID string       `json:"menu_id,omitempty"`
	Taste  taste.Vector `json:"taste"`
	Score  float64      `json:"score"`
}

// Result reports what Submit did
type Result struct {
	Applied         bool      `json:"applied"`
	PredictedBefore float64   `json:"predicted_before"`
	PredictedAfter  float64   `json:"predicted_after"`
	Weights         []float64 `json:"weights"`
	Saved           bool      `json:"saved"`
	RecordID        string    `json:"record_id,omitempty"`
}

// Loop trains Model from feedback and saves it to WeightsPath. History is
// optional.
type Loop struct {
	Model       *model.SatisfactionModel
	WeightsPath string
	History     *History
}

// ValidScore reports whether a score can be used as a training label
func ValidScore(score float64) bool {
	return score >= 0 && score <= 1
}

// Submit applies one feedback sample. Scores outside [0,1] and tastes with
// NaN or infinite components are ignored without error. Save and history failures are logged, never returned, so
// a training step is not lost to a disk problem.
func (l *Loop) Submit(ctx context.Context, fb Feedback) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !ValidScore(fb.Score) {
		return Result{Applied: false, Weights: l.Model.Weights()}, nil
	}

	before := l.Model.Predict(fb.Taste)
	if !l.Model.Train(fb.Taste, fb.Score) {
		return Result{Applied: false, Weights: l.Model.Weights()}, nil
	}

	res := Result{Applied: true, PredictedBefore: before}
	res.PredictedAfter = l.Model.Predict(fb.Taste)
	res.Weights = l.Model.Weights()

	if l.WeightsPath != "" {
		if err := l.Model.Save(l.WeightsPath); err != nil {
			logging.Warn().Err(err).Str("path", l.WeightsPath).Msg("could not save weights")
		} else {
			res.Saved = true
		}
	}

	if l.History != nil {
		rec := &Record{
			Source:    fb.Source,
			MenuID:    fb.MenuID,
			Taste:     fb.Taste,
			Predicted: res.PredictedBefore,
			Actual:    fb.Score,
		}
		if err := l.History.Append(ctx, rec); err != nil {
			logging.Warn().Err(err).Msg("could not record feedback")
		} else {
			res.RecordID = rec.ID
		}
	}

	logging.Debug().
		Str("source", fb.Source).
		Float64("score", fb.Score).
		Float64("predicted", res.PredictedBefore).
		Msg("model trained")

	return res, nil
}
