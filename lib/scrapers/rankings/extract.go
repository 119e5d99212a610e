package rankings

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"liftlink-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var memberPathRegex = regexp.MustCompile(`/member/(\d+)`)

const maxExtractRetries = 3

type extractState int

const (
	stateIdle extractState = iota
	stateNavigating
	stateSettled
	stateExtracted
	stateFailed
)

// ExtractStableID opens the row at the given index and reads the
// member identifier out of the resulting location. It returns
// (id, true, nil) on success and (0, false, nil) when the row is
// not interactive, the location carries no member path, or retries
// are exhausted. An error is returned only when the session cannot
// be restored to its starting position afterwards.
//
// Invariant: on return the session is on the same page it started
// on, with the same row ordering, verified against the first row's
// identity.
func ExtractStableID(ctx context.Context, s TableSession, index int) (int64, bool, error) {
	ctx, span := tracer.Start(ctx, "ExtractStableID")
	defer span.End()
	span.SetAttributes(attribute.Int("row", index))

	rows, err := s.Rows(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read rows")
		return 0, false, err
	}
	if index < 0 || index >= len(rows) {
		return 0, false, fmt.Errorf("row index %d out of range (%d rows)", index, len(rows))
	}
	if !rows[index].Interactive {
		span.SetAttributes(attribute.String("outcome", "not_interactive"))
		return 0, false, nil
	}

	startPage := s.CurrentPage()
	var firstRowBefore string
	if len(rows) > 0 {
		firstRowBefore = rowIdentity(rows[0])
	}

	state := stateIdle
	var id int64

	for attempt := 0; attempt < maxExtractRetries; attempt++ {
		state = stateNavigating
		location, err := s.OpenRow(ctx, index)
		if err != nil {
			// transient navigation failure, reset the cursor and go again
			slog.WarnContext(ctx, "row navigation failed",
				"row", index, "attempt", attempt, "err", err)
			state = stateFailed
			if restoreErr := restore(ctx, s, startPage, firstRowBefore); restoreErr != nil {
				return 0, false, restoreErr
			}
			continue
		}
		state = stateSettled

		match := memberPathRegex.FindStringSubmatch(location)
		if match == nil {
			// landed somewhere without a member path, soft failure
			span.SetAttributes(attribute.String("outcome", "no_member_path"))
			state = stateFailed
			if restoreErr := restore(ctx, s, startPage, firstRowBefore); restoreErr != nil {
				return 0, false, restoreErr
			}
			return 0, false, nil
		}

		id, err = strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			// digits wider than int64 in the member path
			if restoreErr := restore(ctx, s, startPage, firstRowBefore); restoreErr != nil {
				return 0, false, restoreErr
			}
			return 0, false, err
		}
		state = stateExtracted
		break
	}

	if restoreErr := restore(ctx, s, startPage, firstRowBefore); restoreErr != nil {
		return 0, false, restoreErr
	}

	if state != stateExtracted {
		slog.WarnContext(ctx, "row unextractable after retries", "row", index)
		span.SetAttributes(attribute.String("outcome", "retries_exhausted"))
		return 0, false, nil
	}

	span.SetAttributes(attribute.Int64("stable_id", id))
	return id, true, nil
}

// re-applies the page position and checks that the listing came
// back in the same order it was left in
func restore(ctx context.Context, s TableSession, page int, firstRowBefore string) error {
	err := s.RestoreTo(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to restore listing to page %d: %w", page, err)
	}

	rows, err := s.Rows(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-read listing after restore: %w", err)
	}
	if len(rows) == 0 {
		if firstRowBefore == "" {
			return nil
		}
		return fmt.Errorf("listing empty after restoring to page %d", page)
	}
	if firstRowBefore != "" && rowIdentity(rows[0]) != firstRowBefore {
		return fmt.Errorf(
			"listing order changed after restoring to page %d: first row %q != %q",
			page, rowIdentity(rows[0]), firstRowBefore,
		)
	}
	return nil
}

func rowIdentity(r Row) string {
	return textutil.NormalizeName(r.DisplayName) + "|" + r.Date.Format("2006-01-02")
}
