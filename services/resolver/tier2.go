package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"liftlink-backend/lib/scrapers/profile"
	"liftlink-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
)

// tolerances for comparing a scraped result against the athlete's
// authoritative history, inclusive on both bounds
const bodyWeightToleranceKg = 2.0
const totalToleranceKg = 5.0

// ProfileSource serves an athlete's meet history keyed by stable
// identifier.
type ProfileSource interface {
	FetchHistory(ctx context.Context, stableID int64) ([]profile.HistoryEntry, error)
}

// verifyPerformance is the tier-2 check: visit the candidate's
// profile history, locate the target meet by name+date, and
// compare bodyweight and total within tolerance. A missing meet or
// an out-of-tolerance delta is a failure, not an error.
func (e Engine) verifyPerformance(ctx context.Context, stableID int64, res ScrapedResult) (bool, error) {
	ctx, span := tracer.Start(ctx, "verifyPerformance")
	defer span.End()
	span.SetAttributes(attribute.Int64("stable_id", stableID))

	history, err := e.profiles.FetchHistory(ctx, stableID)
	if err != nil {
		return false, err
	}

	for _, entry := range history {
		if !textutil.EqualNames(entry.MeetName, res.Meet.Name) {
			continue
		}
		if !sameDay(entry.Date, res.Meet.Date) {
			continue
		}

		bwDelta := math.Abs(entry.BodyWeightKg - res.BodyWeightKg)
		totalDelta := math.Abs(entry.TotalKg - res.TotalKg)
		span.SetAttributes(
			attribute.Float64("bodyweight_delta", bwDelta),
			attribute.Float64("total_delta", totalDelta),
		)

		if bwDelta <= bodyWeightToleranceKg && totalDelta <= totalToleranceKg {
			return true, nil
		}

		// found the meet but the numbers disagree, log the deltas
		// for later audit
		slog.WarnContext(ctx, "performance outside tolerance",
			"stable_id", stableID,
			"meet", res.Meet.Name,
			"bodyweight_delta", fmt.Sprintf("%.2f", bwDelta),
			"total_delta", fmt.Sprintf("%.2f", totalDelta),
		)
		return false, nil
	}

	// the candidate never competed in this meet
	span.SetAttributes(attribute.Bool("meet_found", false))
	return false, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
