package resolver

import (
	"strings"
	"time"

	"liftlink-backend/services/registry"
)

// MeetReference identifies the competition a result came from.
type MeetReference struct {
	Name string
	Date time.Time
}

// ScrapedResult is one row of competition data pulled from the
// source listing, not yet linked to a canonical athlete. It is
// read-only to resolution.
type ScrapedResult struct {
	RawName             string
	Meet                MeetReference
	Gender              string
	AgeCategory         string
	WeightClassDeclared string
	BodyWeightKg        float64
	TotalKg             float64
	// present when the member id was extractable directly from
	// the listing row
	StableIDHint    int64
	HasStableIDHint bool
}

// Division infers the rankings division from the result's gender,
// age category and declared weight class.
func (r ScrapedResult) Division() string {
	var parts []string
	for _, p := range []string{r.Gender, r.AgeCategory, r.WeightClassDeclared} {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}

type Outcome int

const (
	OutcomeUnverified Outcome = iota
	OutcomeTier1Pass
	OutcomeTier1Fail
	OutcomeTier2Pass
	OutcomeTier2Fail
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTier1Pass:
		return "tier1-pass"
	case OutcomeTier1Fail:
		return "tier1-fail"
	case OutcomeTier2Pass:
		return "tier2-pass"
	case OutcomeTier2Fail:
		return "tier2-fail"
	}
	return "unverified"
}

// Candidate is a canonical athlete considered during the
// resolution of one result. Constructed fresh per attempt, never
// persisted.
type Candidate struct {
	Athlete registry.Athlete
	Outcome Outcome
	// set when the stable id was attached opportunistically during
	// this resolution instead of coming from the registry
	attachedID bool
}

type Strategy string

const (
	StrategyStableIDExact Strategy = "stable-id-exact"
	StrategyTier1Verified Strategy = "tier1-verified"
	StrategyTier2Verified Strategy = "tier2-verified"
	StrategyCreatedNew    Strategy = "created-new"
	StrategySingleName    Strategy = "single-unambiguous-name"
)

type TraceStep struct {
	Stage  string
	Detail string
}

// Decision is the output contract of resolution. Downstream
// persistence refuses results that don't carry one.
type Decision struct {
	RegistryID           int64
	Strategy             Strategy
	CandidatesConsidered int
	Trace                []TraceStep
}

func (d Decision) Decided() bool {
	return d.Strategy != ""
}
