package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"liftlink-backend/lib/scrapers/rankings"
	"liftlink-backend/services/registry"
)

// Registry is the slice of the registry gateway the engine needs.
// registry.Service satisfies it.
type Registry interface {
	FindByName(ctx context.Context, name string) ([]registry.Athlete, error)
	FindByStableID(ctx context.Context, stableID int64) (registry.Athlete, bool, error)
	SetStableID(ctx context.Context, registryID, stableID int64) error
	LookupOrCreate(ctx context.Context, draft registry.Draft) (registry.Athlete, error)
}

// findCandidates wraps the registry's name lookup into fresh
// Candidate values for this resolution attempt. Registry order is
// preserved, ranking is the engine's job.
func (e Engine) findCandidates(ctx context.Context, name string) ([]Candidate, error) {
	athletes, err := e.registry.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, len(athletes))
	for i, a := range athletes {
		candidates[i] = Candidate{Athlete: a}
	}
	return candidates, nil
}

// attachStableIDs tries to give stable ids to candidates that lack
// one, by locating the name in the tier-1 listing window and
// extracting the row's member id. Best effort: it only attaches
// when exactly one candidate is missing an id and the extracted id
// isn't already owned by another candidate, anything less certain
// would risk crediting the wrong person. Failures are soft.
func (e Engine) attachStableIDs(ctx context.Context, candidates []Candidate, res ScrapedResult, trace *[]TraceStep) {
	missing := -1
	for i, c := range candidates {
		if c.Athlete.HasStableID {
			continue
		}
		if missing >= 0 {
			*trace = append(*trace, TraceStep{
				Stage:  "attach-stable-id",
				Detail: "skipped: more than one candidate lacks a stable id",
			})
			return
		}
		missing = i
	}
	if missing < 0 {
		return
	}

	session, err := e.listings.OpenListing(ctx, res.listingQuery())
	if err != nil {
		slog.WarnContext(ctx, "opportunistic id extraction unavailable", "err", err)
		*trace = append(*trace, TraceStep{
			Stage:  "attach-stable-id",
			Detail: fmt.Sprintf("listing unavailable: %s", err),
		})
		return
	}

	match, err := rankings.FindByName(ctx, session, res.RawName)
	if err != nil || !match.Found || !match.HasStableID {
		*trace = append(*trace, TraceStep{
			Stage:  "attach-stable-id",
			Detail: "no extractable id in listing window",
		})
		return
	}

	for _, c := range candidates {
		if c.Athlete.HasStableID && c.Athlete.StableID == match.StableID {
			*trace = append(*trace, TraceStep{
				Stage:  "attach-stable-id",
				Detail: fmt.Sprintf("extracted id %d already owned by registry %d", match.StableID, c.Athlete.RegistryID),
			})
			return
		}
	}

	candidates[missing].Athlete.StableID = match.StableID
	candidates[missing].Athlete.HasStableID = true
	candidates[missing].attachedID = true
	*trace = append(*trace, TraceStep{
		Stage:  "attach-stable-id",
		Detail: fmt.Sprintf("attached id %d to registry %d (unverified)", match.StableID, candidates[missing].Athlete.RegistryID),
	})
}
