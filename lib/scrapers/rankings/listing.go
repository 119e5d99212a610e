package rankings

import (
	"context"

	"liftlink-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
)

// Match is the outcome of scanning a windowed listing for a name.
type Match struct {
	Found bool
	// set when the matching row was interactive and its member
	// identifier could be extracted
	StableID    int64
	HasStableID bool
}

const maxListingPages = 50

// FindByName walks the listing page by page looking for a row whose
// display name equals the target name (case-insensitive). When the
// row is interactive its stable identifier is extracted as well.
// Exhausting the listing without a match is a normal outcome, not
// an error.
func FindByName(ctx context.Context, s TableSession, name string) (Match, error) {
	ctx, span := tracer.Start(ctx, "FindByName")
	defer span.End()

	for page := 0; page < maxListingPages; page++ {
		rows, err := s.Rows(ctx)
		if err != nil {
			return Match{}, err
		}

		for i, row := range rows {
			if !textutil.EqualNames(row.DisplayName, name) {
				continue
			}
			span.SetAttributes(attribute.Int("matched_page", page))

			id, ok, err := ExtractStableID(ctx, s, i)
			if err != nil {
				return Match{}, err
			}
			return Match{Found: true, StableID: id, HasStableID: ok}, nil
		}

		more, err := s.NextPage(ctx)
		if err != nil {
			return Match{}, err
		}
		if !more {
			break
		}
	}

	return Match{}, nil
}
