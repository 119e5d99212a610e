package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"liftlink-backend/lib/scrapers/profile"
	"liftlink-backend/lib/scrapers/rankings"
	"liftlink-backend/lib/testutil"
	"liftlink-backend/lib/timezone"
	"liftlink-backend/services/registry"
	registrydb "liftlink-backend/services/registry/db"

	"github.com/stretchr/testify/require"
)

var _ Registry = registry.Service{}

// stubSession is a single-page table session for engine tests.
type stubSession struct {
	rows      []rankings.Row
	locations map[int]string
	off       bool
}

func (s *stubSession) Rows(ctx context.Context) ([]rankings.Row, error) {
	if s.off {
		return nil, errors.New("session is not on the listing")
	}
	return s.rows, nil
}

func (s *stubSession) NextPage(ctx context.Context) (bool, error) {
	return false, nil
}

func (s *stubSession) OpenRow(ctx context.Context, index int) (string, error) {
	loc, ok := s.locations[index]
	if !ok {
		loc = "https://example.org/rankings"
	}
	s.off = true
	return loc, nil
}

func (s *stubSession) CurrentPage() int { return 0 }

func (s *stubSession) RestoreTo(ctx context.Context, page int) error {
	s.off = false
	return nil
}

type fakeListings struct {
	rows      []rankings.Row
	locations map[int]string
	err       error
	opens     int
}

func (f *fakeListings) OpenListing(ctx context.Context, q rankings.Query) (rankings.TableSession, error) {
	f.opens++
	if f.err != nil {
		return nil, f.err
	}
	rows := make([]rankings.Row, len(f.rows))
	copy(rows, f.rows)
	return &stubSession{rows: rows, locations: f.locations}, nil
}

type fakeProfiles struct {
	histories map[int64][]profile.HistoryEntry
	err       error
	fetches   int
}

func (f *fakeProfiles) FetchHistory(ctx context.Context, stableID int64) ([]profile.HistoryEntry, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.histories[stableID], nil
}

var meetX = MeetReference{
	Name: "State Championships 2024",
	Date: time.Date(2024, 3, 9, 0, 0, 0, 0, timezone.Location),
}

func result(bodyWeight, total float64) ScrapedResult {
	return ScrapedResult{
		RawName:             "Jane Doe",
		Meet:                meetX,
		Gender:              "F",
		AgeCategory:         "Open",
		WeightClassDeclared: "63",
		BodyWeightKg:        bodyWeight,
		TotalKg:             total,
	}
}

func setupRegistry(t *testing.T) (registry.Service, context.Context) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "resolver",
		DbSchema: registrydb.Schema,
	})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	t.Cleanup(cancel)

	return registry.NewService(res.DB), ctx
}

// two registered athletes named Jane Doe, ids 111 and 222, where
// only 111 has a history at meetX
func setupTwoJanes(t *testing.T) (registry.Service, context.Context, *fakeListings, *fakeProfiles) {
	reg, ctx := setupRegistry(t)

	_, err := reg.LookupOrCreate(ctx, registry.Draft{DisplayName: "Jane Doe", StableID: 111, HasStableID: true})
	require.NoError(t, err)
	_, err = reg.LookupOrCreate(ctx, registry.Draft{DisplayName: "Jane Doe", StableID: 222, HasStableID: true})
	require.NoError(t, err)

	// the listing window shows one non-interactive Jane Doe row,
	// so tier-1 yields the weak positive for both candidates
	listings := &fakeListings{
		rows: []rankings.Row{
			{DisplayName: "Jane Doe", Date: meetX.Date, Interactive: false},
		},
	}
	profiles := &fakeProfiles{
		histories: map[int64][]profile.HistoryEntry{
			111: {
				{MeetName: meetX.Name, Date: meetX.Date, BodyWeightKg: 60.0, TotalKg: 120.0},
			},
		},
	}
	return reg, ctx, listings, profiles
}

func TestScenarioA_Tier2DisambiguatesSharedName(t *testing.T) {
	reg, ctx, listings, profiles := setupTwoJanes(t)
	engine := NewEngine(reg, listings, profiles)

	decision, err := engine.Resolve(ctx, result(60.4, 121))
	require.NoError(t, err)
	require.Equal(t, StrategyTier2Verified, decision.Strategy)
	require.Equal(t, 2, decision.CandidatesConsidered)

	winner, ok, err := reg.FindByStableID(ctx, 111)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, winner.RegistryID, decision.RegistryID)
}

func TestScenarioB_BothFailTier2CreatesNew(t *testing.T) {
	reg, ctx, listings, profiles := setupTwoJanes(t)
	engine := NewEngine(reg, listings, profiles)

	decision, err := engine.Resolve(ctx, result(70, 150))
	require.NoError(t, err)
	require.Equal(t, StrategyCreatedNew, decision.Strategy)

	all, err := reg.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	created, err := reg.Get(ctx, decision.RegistryID)
	require.NoError(t, err)
	require.False(t, created.HasStableID)
}

func TestScenarioC_NoCandidatesCreatesNew(t *testing.T) {
	reg, ctx := setupRegistry(t)
	engine := NewEngine(reg, &fakeListings{}, &fakeProfiles{})

	res := result(60, 120)
	res.RawName = "New Athlete"
	decision, err := engine.Resolve(ctx, res)
	require.NoError(t, err)
	require.Equal(t, StrategyCreatedNew, decision.Strategy)
	require.Equal(t, 0, decision.CandidatesConsidered)

	created, err := reg.Get(ctx, decision.RegistryID)
	require.NoError(t, err)
	require.Equal(t, "New Athlete", created.DisplayName)
	require.False(t, created.HasStableID)
}

// given exactly one name-matching candidate with a stable id,
// resolution completes without touching either verification tier
func TestSingleCandidateShortcut(t *testing.T) {
	reg, ctx := setupRegistry(t)

	expected, err := reg.LookupOrCreate(ctx, registry.Draft{DisplayName: "Jane Doe", StableID: 111, HasStableID: true})
	require.NoError(t, err)

	listings := &fakeListings{}
	profiles := &fakeProfiles{}
	engine := NewEngine(reg, listings, profiles)

	decision, err := engine.Resolve(ctx, result(60, 120))
	require.NoError(t, err)
	require.Equal(t, StrategySingleName, decision.Strategy)
	require.Equal(t, expected.RegistryID, decision.RegistryID)
	require.Zero(t, listings.opens)
	require.Zero(t, profiles.fetches)
}

// a lone id-less candidate is still accepted, with a best-effort
// attempt to back-fill its stable id from the listing window
func TestSingleCandidateWithoutStableID(t *testing.T) {
	reg, ctx := setupRegistry(t)

	expected, err := reg.LookupOrCreate(ctx, registry.Draft{DisplayName: "Jane Doe"})
	require.NoError(t, err)

	listings := &fakeListings{
		rows: []rankings.Row{
			{DisplayName: "Jane Doe", Date: meetX.Date, Interactive: true},
		},
		locations: map[int]string{0: "https://example.org/member/555"},
	}
	engine := NewEngine(reg, listings, &fakeProfiles{})

	decision, err := engine.Resolve(ctx, result(60, 120))
	require.NoError(t, err)
	require.Equal(t, StrategySingleName, decision.Strategy)
	require.Equal(t, expected.RegistryID, decision.RegistryID)

	backfilled, ok, err := reg.FindByStableID(ctx, 555)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, expected.RegistryID, backfilled.RegistryID)
}

func TestTier1UniquePass(t *testing.T) {
	reg, ctx, listings, profiles := setupTwoJanes(t)

	// the window's Jane Doe row is clickable and resolves to
	// member 111, so tier-1 confirms 111 and rejects 222
	listings.rows[0].Interactive = true
	listings.locations = map[int]string{0: "https://example.org/member/111"}

	engine := NewEngine(reg, listings, profiles)
	decision, err := engine.Resolve(ctx, result(60.4, 121))
	require.NoError(t, err)
	require.Equal(t, StrategyTier1Verified, decision.Strategy)
	require.Zero(t, profiles.fetches)

	winner, _, err := reg.FindByStableID(ctx, 111)
	require.NoError(t, err)
	require.Equal(t, winner.RegistryID, decision.RegistryID)
}

// if tier-1 and tier-2 both leave two or more candidates
// plausible, the engine creates a new record rather than picking
// arbitrarily
func TestNoSilentMerge(t *testing.T) {
	reg, ctx, listings, profiles := setupTwoJanes(t)
	profiles.histories[222] = []profile.HistoryEntry{
		{MeetName: meetX.Name, Date: meetX.Date, BodyWeightKg: 60.2, TotalKg: 119.0},
	}

	engine := NewEngine(reg, listings, profiles)
	decision, err := engine.Resolve(ctx, result(60.4, 121))
	require.NoError(t, err)
	require.Equal(t, StrategyCreatedNew, decision.Strategy)

	all, err := reg.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestToleranceBoundaries(t *testing.T) {
	testCases := []struct {
		bodyWeight float64
		total      float64
		pass       bool
	}{
		{bodyWeight: 62.0, total: 120.0, pass: true},
		{bodyWeight: 62.01, total: 120.0, pass: false},
		{bodyWeight: 60.0, total: 125.0, pass: true},
		{bodyWeight: 60.0, total: 125.01, pass: false},
		{bodyWeight: 58.0, total: 115.0, pass: true},
		{bodyWeight: 57.99, total: 115.0, pass: false},
	}

	for _, test := range testCases {
		t.Run(fmt.Sprintf("bw=%v total=%v", test.bodyWeight, test.total), func(t *testing.T) {
			reg, ctx, listings, profiles := setupTwoJanes(t)
			engine := NewEngine(reg, listings, profiles)

			decision, err := engine.Resolve(ctx, result(test.bodyWeight, test.total))
			require.NoError(t, err)
			if test.pass {
				require.Equal(t, StrategyTier2Verified, decision.Strategy)
			} else {
				require.Equal(t, StrategyCreatedNew, decision.Strategy)
			}
		})
	}
}

func TestStableIDHint(t *testing.T) {
	t.Run("registered hint decides immediately", func(t *testing.T) {
		reg, ctx := setupRegistry(t)
		existing, err := reg.LookupOrCreate(ctx, registry.Draft{DisplayName: "Jane Doe", StableID: 111, HasStableID: true})
		require.NoError(t, err)

		listings := &fakeListings{}
		engine := NewEngine(reg, listings, &fakeProfiles{})

		res := result(60, 120)
		res.StableIDHint = 111
		res.HasStableIDHint = true

		decision, err := engine.Resolve(ctx, res)
		require.NoError(t, err)
		require.Equal(t, StrategyStableIDExact, decision.Strategy)
		require.Equal(t, existing.RegistryID, decision.RegistryID)
		require.Zero(t, listings.opens)
	})

	t.Run("unknown hint back-fills a unique id-less name match", func(t *testing.T) {
		reg, ctx := setupRegistry(t)
		existing, err := reg.LookupOrCreate(ctx, registry.Draft{DisplayName: "Jane Doe"})
		require.NoError(t, err)

		engine := NewEngine(reg, &fakeListings{}, &fakeProfiles{})

		res := result(60, 120)
		res.StableIDHint = 333
		res.HasStableIDHint = true

		decision, err := engine.Resolve(ctx, res)
		require.NoError(t, err)
		require.Equal(t, StrategyStableIDExact, decision.Strategy)
		require.Equal(t, existing.RegistryID, decision.RegistryID)

		backfilled, ok, err := reg.FindByStableID(ctx, 333)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, existing.RegistryID, backfilled.RegistryID)
	})

	t.Run("unknown hint with only id-bearing matches creates new", func(t *testing.T) {
		reg, ctx := setupRegistry(t)
		_, err := reg.LookupOrCreate(ctx, registry.Draft{DisplayName: "Jane Doe", StableID: 111, HasStableID: true})
		require.NoError(t, err)

		engine := NewEngine(reg, &fakeListings{}, &fakeProfiles{})

		res := result(60, 120)
		res.StableIDHint = 333
		res.HasStableIDHint = true

		decision, err := engine.Resolve(ctx, res)
		require.NoError(t, err)
		require.Equal(t, StrategyCreatedNew, decision.Strategy)

		created, ok, err := reg.FindByStableID(ctx, 333)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, created.RegistryID, decision.RegistryID)
	})
}

// resolving the same unmatched name twice for distinct results
// never creates two records with the same stable id
func TestIdempotentCreate(t *testing.T) {
	reg, ctx := setupRegistry(t)
	engine := NewEngine(reg, &fakeListings{}, &fakeProfiles{})

	res := result(60, 120)
	res.RawName = "New Athlete"
	res.StableIDHint = 444
	res.HasStableIDHint = true

	first, err := engine.Resolve(ctx, res)
	require.NoError(t, err)
	second, err := engine.Resolve(ctx, res)
	require.NoError(t, err)

	// the second resolution lands on the record the first created
	require.Equal(t, first.RegistryID, second.RegistryID)

	all, err := reg.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

// network trouble during verification degrades candidates instead
// of aborting, so the fallback still produces a decision
func TestVerifierErrorsAreSoft(t *testing.T) {
	reg, ctx, listings, profiles := setupTwoJanes(t)
	listings.err = errors.New("chrome crashed")
	profiles.err = errors.New("profile fetch timed out")

	engine := NewEngine(reg, listings, profiles)
	decision, err := engine.Resolve(ctx, result(60.4, 121))
	require.NoError(t, err)
	require.Equal(t, StrategyCreatedNew, decision.Strategy)
}

// a dead registry is a hard failure, resolution aborts rather
// than guessing
func TestRegistryFailureAborts(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "resolver",
		DbSchema: registrydb.Schema,
	})
	t.Cleanup(cleanup)
	reg := registry.NewService(res.DB)
	require.NoError(t, res.DB.Close())

	engine := NewEngine(reg, &fakeListings{}, &fakeProfiles{})
	_, err := engine.Resolve(context.Background(), result(60, 120))
	require.Error(t, err)
	require.ErrorIs(t, err, registry.ErrUnavailable)
}

func TestDecisionTraceRecordsAmbiguity(t *testing.T) {
	reg, ctx, listings, profiles := setupTwoJanes(t)
	profiles.histories[222] = []profile.HistoryEntry{
		{MeetName: meetX.Name, Date: meetX.Date, BodyWeightKg: 60.2, TotalKg: 119.0},
	}

	engine := NewEngine(reg, listings, profiles)
	decision, err := engine.Resolve(ctx, result(60.4, 121))
	require.NoError(t, err)
	require.Equal(t, StrategyCreatedNew, decision.Strategy)

	var sawAmbiguity bool
	for _, step := range decision.Trace {
		if step.Stage == "create-new" {
			sawAmbiguity = true
		}
	}
	require.True(t, sawAmbiguity)
	require.NotEmpty(t, decision.Trace)
}
