package resolver

import (
	"context"

	"liftlink-backend/lib/scrapers/rankings"

	"go.opentelemetry.io/otel/attribute"
)

// days either side of the meet date covered by the tier-1 listing
// window
const contextWindowDays = 3

// ListingSource opens a division/date-windowed rankings session.
// Each call returns a fresh session positioned on the first page.
type ListingSource interface {
	OpenListing(ctx context.Context, q rankings.Query) (rankings.TableSession, error)
}

func (r ScrapedResult) listingQuery() rankings.Query {
	return rankings.Query{
		Division: r.Division(),
		From:     r.Meet.Date.AddDate(0, 0, -contextWindowDays),
		To:       r.Meet.Date.AddDate(0, 0, contextWindowDays),
	}
}

// verifyContext is the tier-1 check: the candidate's stable id
// has to show up in the division/date-windowed listing under the
// exact same name. When the listing's matching row exposes no
// identifier of its own, exact-name presence in the window counts
// as a weaker positive.
func (e Engine) verifyContext(ctx context.Context, stableID int64, name string, res ScrapedResult) (bool, error) {
	ctx, span := tracer.Start(ctx, "verifyContext")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("stable_id", stableID),
		attribute.String("division", res.Division()),
	)

	session, err := e.listings.OpenListing(ctx, res.listingQuery())
	if err != nil {
		return false, err
	}

	match, err := rankings.FindByName(ctx, session, name)
	if err != nil {
		return false, err
	}
	if !match.Found {
		return false, nil
	}
	if match.HasStableID {
		ok := match.StableID == stableID
		span.SetAttributes(attribute.Bool("id_confirmed", ok))
		return ok, nil
	}

	// weaker positive: right name, right window, no id exposed
	span.SetAttributes(attribute.Bool("id_confirmed", false))
	return true, nil
}
