package telemetry

import (
	"context"

	"github.com/WOTOOOOOO/FAQ-tool/internal/metrics"
)

// EmitLocalFeatures records counts derived from the user's query (never the
// text itself) when calibration mode and observation are both on.
func EmitLocalFeatures(ctx context.Context, query string) {
	if !(CalibrationModeEnabled() && ObserveEnabled()) {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	sessionID, _ := SessionIDFromContext(ctx)
	f := metrics.CountFeatures(query)
	Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"session_id":       sessionID,
		"features_version": "2",
		"user": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
			"terms": f.Terms,
		},
	})
}

// EmitRetrievalScore records the confidence of a regulations lookup in
// calibration mode so the review threshold can be tuned.
func EmitRetrievalScore(ctx context.Context, hits int, confidence float64, threshold float64) {
	if !(CalibrationModeEnabled() && ObserveEnabled()) {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	Emit("retrieval_scored", map[string]any{
		"turn_id":    turnID,
		"hits":       hits,
		"confidence": confidence,
		"threshold":  threshold,
		"review":     confidence < threshold,
	})
}
