package rankings

import (
	"context"
	"time"
)

// Row is one rendered row of the rankings/results table.
type Row struct {
	DisplayName string
	AgeCategory string
	WeightClass string
	Date        time.Time
	// set when the source table marks the row clickable. visual
	// position alone does not make a row actionable.
	Interactive bool
}

// TableSession is a stateful cursor over the paginated rankings
// table. The current page and row ordering are observable state,
// only one operation may be in flight at a time.
//
// The live implementation is ChromeSession, tests use a fake.
type TableSession interface {
	// returns the rows of the current page, waiting for the table
	// to stabilize first
	Rows(ctx context.Context) ([]Row, error)
	// advances to the next page, returns false when there is none
	NextPage(ctx context.Context) (bool, error)
	// triggers the row's navigation and returns the resulting
	// location. the session is off the listing afterwards until
	// RestoreTo is called.
	OpenRow(ctx context.Context, index int) (string, error)
	// zero-based page index of the current listing position
	CurrentPage() int
	// re-enters the listing from scratch and applies however many
	// next-page transitions are needed to land on the given page.
	// the session does not preserve page position across a
	// back-navigation, so this is the only way home.
	RestoreTo(ctx context.Context, page int) error
}
