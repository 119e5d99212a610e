package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"liftlink-backend/services/registry"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("liftlink/services/resolver")

// Engine sequences candidate location, stable-id extraction and
// the two verification tiers into exactly one decision per scraped
// result. Hard I/O failures abort with an error, every soft
// outcome drives the state machine toward the next tier or the
// create-new fallback.
type Engine struct {
	registry Registry
	listings ListingSource
	profiles ProfileSource
}

func NewEngine(r Registry, l ListingSource, p ProfileSource) Engine {
	return Engine{
		registry: r,
		listings: l,
		profiles: p,
	}
}

// Resolve links one scraped result to exactly one canonical
// athlete, creating a new record when no existing candidate
// survives verification. A wrongly-created duplicate is a
// recoverable data-quality issue, crediting the wrong person is
// not, so the engine never guesses between plausible candidates.
func (e Engine) Resolve(ctx context.Context, res ScrapedResult) (Decision, error) {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("raw_name", res.RawName),
		attribute.String("meet", res.Meet.Name),
	)

	var trace []TraceStep

	if res.HasStableIDHint {
		decision, done, err := e.resolveByHint(ctx, res, &trace)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Decision{}, err
		}
		if done {
			span.SetAttributes(attribute.String("strategy", string(decision.Strategy)))
			return decision, nil
		}
	}

	candidates, err := e.findCandidates(ctx, res.RawName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Decision{}, err
	}
	trace = append(trace, TraceStep{
		Stage:  "candidates-fetched",
		Detail: fmt.Sprintf("%d candidates for %q", len(candidates), res.RawName),
	})

	var decision Decision
	switch len(candidates) {
	case 0:
		decision, err = e.createNew(ctx, res, nil, trace, "no name-matching candidates")
	case 1:
		decision, err = e.resolveSingle(ctx, res, candidates, trace)
	default:
		decision, err = e.resolveAmbiguous(ctx, res, candidates, trace)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Decision{}, err
	}

	span.SetAttributes(attribute.String("strategy", string(decision.Strategy)))
	return decision, nil
}

// resolveByHint handles results whose listing row already exposed
// a member id. The id is the strongest signal there is: a registry
// hit decides immediately, and a unique id-less name match gets
// the id back-filled.
func (e Engine) resolveByHint(ctx context.Context, res ScrapedResult, trace *[]TraceStep) (Decision, bool, error) {
	athlete, ok, err := e.registry.FindByStableID(ctx, res.StableIDHint)
	if err != nil {
		return Decision{}, false, err
	}
	if ok {
		*trace = append(*trace, TraceStep{
			Stage:  "stable-id-hint",
			Detail: fmt.Sprintf("id %d already registered as %d", res.StableIDHint, athlete.RegistryID),
		})
		return Decision{
			RegistryID:           athlete.RegistryID,
			Strategy:             StrategyStableIDExact,
			CandidatesConsidered: 1,
			Trace:                *trace,
		}, true, nil
	}

	candidates, err := e.findCandidates(ctx, res.RawName)
	if err != nil {
		return Decision{}, false, err
	}

	missing := -1
	for i, c := range candidates {
		if !c.Athlete.HasStableID {
			if missing >= 0 {
				missing = -1
				break
			}
			missing = i
		}
	}
	if missing >= 0 {
		target := candidates[missing].Athlete
		err = e.registry.SetStableID(ctx, target.RegistryID, res.StableIDHint)
		if err != nil {
			return Decision{}, false, err
		}
		*trace = append(*trace, TraceStep{
			Stage:  "stable-id-hint",
			Detail: fmt.Sprintf("back-filled id %d onto registry %d", res.StableIDHint, target.RegistryID),
		})
		return Decision{
			RegistryID:           target.RegistryID,
			Strategy:             StrategyStableIDExact,
			CandidatesConsidered: len(candidates),
			Trace:                *trace,
		}, true, nil
	}

	// every name match already carries a different id, this is a
	// new person
	*trace = append(*trace, TraceStep{
		Stage:  "stable-id-hint",
		Detail: fmt.Sprintf("id %d unknown and no id-less name match", res.StableIDHint),
	})
	decision, err := e.createNew(ctx, res, candidates, *trace, "unregistered stable id")
	return decision, true, err
}

// resolveSingle handles the one-candidate state. Ambiguity
// requires two or more name-sharing candidates by definition, so a
// lone match is accepted without verification.
func (e Engine) resolveSingle(ctx context.Context, res ScrapedResult, candidates []Candidate, trace []TraceStep) (Decision, error) {
	if !candidates[0].Athlete.HasStableID {
		// best-effort back-fill so the next resolution of this
		// name has the strong signal available
		e.attachStableIDs(ctx, candidates, res, &trace)
	}

	decision := Decision{
		RegistryID:           candidates[0].Athlete.RegistryID,
		Strategy:             StrategySingleName,
		CandidatesConsidered: 1,
		Trace: append(trace, TraceStep{
			Stage:  "decided",
			Detail: "single unambiguous name match",
		}),
	}
	return e.commitAccepted(ctx, candidates[0], decision)
}

// resolveAmbiguous handles the many-candidates state: opportunistic
// stable-id extraction, then tier-1 over every id-bearing
// candidate, then tier-2 over whichever set tier-1 left plausible.
func (e Engine) resolveAmbiguous(ctx context.Context, res ScrapedResult, candidates []Candidate, trace []TraceStep) (Decision, error) {
	e.attachStableIDs(ctx, candidates, res, &trace)

	var tier1Passers []int
	var idBearing []int
	for i := range candidates {
		if !candidates[i].Athlete.HasStableID {
			// never got a stable id, verification cannot run for
			// this candidate
			trace = append(trace, TraceStep{
				Stage:  "tier1",
				Detail: fmt.Sprintf("registry %d unverifiable, no stable id", candidates[i].Athlete.RegistryID),
			})
			continue
		}
		idBearing = append(idBearing, i)

		ok, err := e.verifyContext(ctx, candidates[i].Athlete.StableID, candidates[i].Athlete.DisplayName, res)
		if err != nil {
			// network trouble during verification degrades the
			// candidate, it does not abort resolution
			slog.WarnContext(ctx, "tier1 verification errored",
				"registry_id", candidates[i].Athlete.RegistryID, "err", err)
			trace = append(trace, TraceStep{
				Stage:  "tier1",
				Detail: fmt.Sprintf("registry %d check failed: %s", candidates[i].Athlete.RegistryID, err),
			})
			candidates[i].Outcome = OutcomeTier1Fail
			continue
		}
		if ok {
			candidates[i].Outcome = OutcomeTier1Pass
			tier1Passers = append(tier1Passers, i)
		} else {
			candidates[i].Outcome = OutcomeTier1Fail
		}
		trace = append(trace, TraceStep{
			Stage:  "tier1",
			Detail: fmt.Sprintf("registry %d: %s", candidates[i].Athlete.RegistryID, candidates[i].Outcome),
		})
	}

	if len(tier1Passers) == 1 {
		i := tier1Passers[0]
		decision := Decision{
			RegistryID:           candidates[i].Athlete.RegistryID,
			Strategy:             StrategyTier1Verified,
			CandidatesConsidered: len(candidates),
			Trace: append(trace, TraceStep{
				Stage:  "decided",
				Detail: "unique tier1 pass",
			}),
		}
		return e.commitAccepted(ctx, candidates[i], decision)
	}

	tier2Set := tier1Passers
	if len(tier2Set) == 0 {
		tier2Set = idBearing
	}

	var tier2Passers []int
	for _, i := range tier2Set {
		ok, err := e.verifyPerformance(ctx, candidates[i].Athlete.StableID, res)
		if err != nil {
			slog.WarnContext(ctx, "tier2 verification errored",
				"registry_id", candidates[i].Athlete.RegistryID, "err", err)
			trace = append(trace, TraceStep{
				Stage:  "tier2",
				Detail: fmt.Sprintf("registry %d check failed: %s", candidates[i].Athlete.RegistryID, err),
			})
			candidates[i].Outcome = OutcomeTier2Fail
			continue
		}
		if ok {
			candidates[i].Outcome = OutcomeTier2Pass
			tier2Passers = append(tier2Passers, i)
		} else {
			candidates[i].Outcome = OutcomeTier2Fail
		}
		trace = append(trace, TraceStep{
			Stage:  "tier2",
			Detail: fmt.Sprintf("registry %d: %s", candidates[i].Athlete.RegistryID, candidates[i].Outcome),
		})
	}

	if len(tier2Passers) == 1 {
		i := tier2Passers[0]
		decision := Decision{
			RegistryID:           candidates[i].Athlete.RegistryID,
			Strategy:             StrategyTier2Verified,
			CandidatesConsidered: len(candidates),
			Trace: append(trace, TraceStep{
				Stage:  "decided",
				Detail: "unique tier2 pass",
			}),
		}
		return e.commitAccepted(ctx, candidates[i], decision)
	}

	reason := fmt.Sprintf(
		"unresolved ambiguity: %d tier1 passes, %d tier2 passes among %d candidates",
		len(tier1Passers), len(tier2Passers), len(candidates),
	)
	return e.createNew(ctx, res, candidates, trace, reason)
}

// commitAccepted back-fills an opportunistically attached stable
// id once its candidate has actually been accepted. Attaching
// earlier would persist an unverified guess.
func (e Engine) commitAccepted(ctx context.Context, c Candidate, decision Decision) (Decision, error) {
	if c.attachedID {
		err := e.registry.SetStableID(ctx, c.Athlete.RegistryID, c.Athlete.StableID)
		if err != nil {
			slog.WarnContext(ctx, "stable id back-fill failed",
				"registry_id", c.Athlete.RegistryID, "err", err)
		}
	}
	return decision, nil
}

// createNew is the fallback for the no-candidates and
// unresolved-ambiguity states. The ambiguity is recorded in the
// trace along with name similarities so the duplicate is auditable
// rather than silently wrong.
func (e Engine) createNew(ctx context.Context, res ScrapedResult, candidates []Candidate, trace []TraceStep, reason string) (Decision, error) {
	trace = append(trace, TraceStep{Stage: "create-new", Detail: reason})
	for _, c := range candidates {
		similarity := matchr.JaroWinkler(res.RawName, c.Athlete.DisplayName, false)
		trace = append(trace, TraceStep{
			Stage: "create-new",
			Detail: fmt.Sprintf(
				"rejected registry %d (%s, similarity %.3f)",
				c.Athlete.RegistryID, c.Outcome, similarity,
			),
		})
	}

	draft := registry.Draft{DisplayName: res.RawName}
	if res.HasStableIDHint {
		draft.StableID = res.StableIDHint
		draft.HasStableID = true
	}

	created, err := e.registry.LookupOrCreate(ctx, draft)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		RegistryID:           created.RegistryID,
		Strategy:             StrategyCreatedNew,
		CandidatesConsidered: len(candidates),
		Trace: append(trace, TraceStep{
			Stage:  "decided",
			Detail: fmt.Sprintf("created registry %d", created.RegistryID),
		}),
	}, nil
}
