package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"liftlink-backend/lib/textutil"
	"liftlink-backend/lib/timezone"
	"liftlink-backend/services/registry/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("liftlink/services/registry")

// ErrUnavailable wraps hard storage failures. Resolution must
// abort on these rather than guess.
var ErrUnavailable = errors.New("registry unavailable")

// Athlete is one canonical person in the registry.
type Athlete struct {
	RegistryID   int64
	DisplayName  string
	StableID     int64
	HasStableID  bool
	MembershipNo string
}

// Draft describes an athlete about to be created when no existing
// record survived resolution.
type Draft struct {
	DisplayName  string
	StableID     int64
	HasStableID  bool
	MembershipNo string
}

// Service is the only component that reads or writes canonical
// athlete records.
type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

func fromRow(row db.Athlete) Athlete {
	return Athlete{
		RegistryID:   row.ID,
		DisplayName:  row.Displayname,
		StableID:     row.Stableid.Int64,
		HasStableID:  row.Stableid.Valid,
		MembershipNo: row.Membershipno.String,
	}
}

// FindByName looks athletes up by exact display name first and
// falls back to a whitespace/case-normalized pass when the exact
// pass returns nothing. Results come back in registry order,
// unranked.
func (s Service) FindByName(ctx context.Context, name string) ([]Athlete, error) {
	ctx, span := tracer.Start(ctx, "FindByName")
	defer span.End()
	span.SetAttributes(attribute.String("name", name))

	rows, err := s.qry.GetAthletesByDisplayName(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if len(rows) == 0 {
		rows, err = s.qry.GetAthletesByNormalizedName(ctx, textutil.FoldName(name))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		span.SetAttributes(attribute.Bool("normalized_pass", true))
	}

	athletes := make([]Athlete, len(rows))
	for i, row := range rows {
		athletes[i] = fromRow(row)
	}
	return athletes, nil
}

func (s Service) FindByStableID(ctx context.Context, stableID int64) (Athlete, bool, error) {
	ctx, span := tracer.Start(ctx, "FindByStableID")
	defer span.End()
	span.SetAttributes(attribute.Int64("stable_id", stableID))

	row, err := s.qry.GetAthleteByStableId(ctx, sql.NullInt64{Int64: stableID, Valid: true})
	if errors.Is(err, sql.ErrNoRows) {
		return Athlete{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Athlete{}, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fromRow(row), true, nil
}

func (s Service) Get(ctx context.Context, registryID int64) (Athlete, error) {
	row, err := s.qry.GetAthleteById(ctx, registryID)
	if err != nil {
		return Athlete{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fromRow(row), nil
}

func (s Service) All(ctx context.Context) ([]Athlete, error) {
	rows, err := s.qry.GetAllAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	athletes := make([]Athlete, len(rows))
	for i, row := range rows {
		athletes[i] = fromRow(row)
	}
	return athletes, nil
}

// SetStableID back-fills an athlete's stable identifier once it
// has been discovered.
func (s Service) SetStableID(ctx context.Context, registryID, stableID int64) error {
	ctx, span := tracer.Start(ctx, "SetStableID")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("registry_id", registryID),
		attribute.Int64("stable_id", stableID),
	)

	err := s.qry.SetAthleteStableId(ctx, db.SetAthleteStableIdParams{
		Stableid: sql.NullInt64{Int64: stableID, Valid: true},
		ID:       registryID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// LookupOrCreate inserts a new canonical record for the draft.
// When the draft carries a stable identifier, the insert re-checks
// for a collision inside the transaction and returns the existing
// record instead of inserting, so two concurrent resolutions of
// the same person can never produce two records with the same
// stable id.
func (s Service) LookupOrCreate(ctx context.Context, draft Draft) (Athlete, error) {
	ctx, span := tracer.Start(ctx, "LookupOrCreate")
	defer span.End()
	span.SetAttributes(attribute.String("name", draft.DisplayName))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Athlete{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	stableID := sql.NullInt64{Int64: draft.StableID, Valid: draft.HasStableID}

	if draft.HasStableID {
		existing, err := txqry.GetAthleteByStableId(ctx, stableID)
		if err == nil {
			span.SetAttributes(attribute.Bool("collision", true))
			return fromRow(existing), nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Athlete{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	row, err := txqry.CreateAthlete(ctx, db.CreateAthleteParams{
		Displayname:    draft.DisplayName,
		Normalizedname: textutil.FoldName(draft.DisplayName),
		Stableid:       stableID,
		Membershipno:   sql.NullString{String: draft.MembershipNo, Valid: draft.MembershipNo != ""},
		Createdat:      timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Athlete{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Athlete{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fromRow(row), nil
}
