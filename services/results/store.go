package results

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"liftlink-backend/lib/timezone"
	"liftlink-backend/services/resolver"
	"liftlink-backend/services/results/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("liftlink/services/results")

// ErrUndecided is returned when a result arrives without a
// resolution decision. Persisting such a row would be exactly the
// silent misassignment resolution exists to prevent.
var ErrUndecided = errors.New("result has no resolution decision")

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Record persists one resolved result together with the strategy
// that linked it, keyed on athlete+meet so re-imports of the same
// meet overwrite rather than duplicate.
func (s Store) Record(ctx context.Context, res resolver.ScrapedResult, decision resolver.Decision) error {
	ctx, span := tracer.Start(ctx, "Record")
	defer span.End()

	if !decision.Decided() {
		span.SetStatus(codes.Error, ErrUndecided.Error())
		return ErrUndecided
	}
	span.SetAttributes(
		attribute.Int64("athlete_id", decision.RegistryID),
		attribute.String("strategy", string(decision.Strategy)),
	)

	err := s.qry.CreateResult(ctx, db.CreateResultParams{
		Athleteid:    decision.RegistryID,
		Meetname:     res.Meet.Name,
		Meetdate:     res.Meet.Date.Unix(),
		Rawname:      res.RawName,
		Agecategory:  res.AgeCategory,
		Weightclass:  res.WeightClassDeclared,
		Bodyweightkg: res.BodyWeightKg,
		Totalkg:      res.TotalKg,
		Strategy:     string(decision.Strategy),
		Resolvedat:   timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// MeetResult is one persisted row of a meet.
type MeetResult struct {
	AthleteID    int64
	Meet         resolver.MeetReference
	RawName      string
	AgeCategory  string
	WeightClass  string
	BodyWeightKg float64
	TotalKg      float64
	Strategy     resolver.Strategy
	ResolvedAt   time.Time
}

func (s Store) ByMeet(ctx context.Context, meet resolver.MeetReference) ([]MeetResult, error) {
	rows, err := s.qry.GetResultsByMeet(ctx, db.GetResultsByMeetParams{
		Meetname: meet.Name,
		Meetdate: meet.Date.Unix(),
	})
	if err != nil {
		return nil, err
	}

	out := make([]MeetResult, len(rows))
	for i, r := range rows {
		out[i] = MeetResult{
			AthleteID: r.Athleteid,
			Meet: resolver.MeetReference{
				Name: r.Meetname,
				Date: time.Unix(r.Meetdate, 0).In(timezone.Location),
			},
			RawName:      r.Rawname,
			AgeCategory:  r.Agecategory,
			WeightClass:  r.Weightclass,
			BodyWeightKg: r.Bodyweightkg,
			TotalKg:      r.Totalkg,
			Strategy:     resolver.Strategy(r.Strategy),
			ResolvedAt:   time.Unix(r.Resolvedat, 0).In(timezone.Location),
		}
	}
	return out, nil
}

func (s Store) ByAthlete(ctx context.Context, athleteID int64) ([]MeetResult, error) {
	rows, err := s.qry.GetResultsByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	out := make([]MeetResult, len(rows))
	for i, r := range rows {
		out[i] = MeetResult{
			AthleteID: r.Athleteid,
			Meet: resolver.MeetReference{
				Name: r.Meetname,
				Date: time.Unix(r.Meetdate, 0).In(timezone.Location),
			},
			RawName:      r.Rawname,
			AgeCategory:  r.Agecategory,
			WeightClass:  r.Weightclass,
			BodyWeightKg: r.Bodyweightkg,
			TotalKg:      r.Totalkg,
			Strategy:     resolver.Strategy(r.Strategy),
			ResolvedAt:   time.Unix(r.Resolvedat, 0).In(timezone.Location),
		}
	}
	return out, nil
}
