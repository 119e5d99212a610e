package rankings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"liftlink-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

// fakeSession simulates the stateful pagination behavior of the
// live table: opening a row leaves the listing, and the page
// position is lost until RestoreTo is called.
type fakeSession struct {
	pages      [][]Row
	page       int
	offListing bool
	// page|row -> location the row navigates to
	locations map[string]string
	// page|row -> remaining transient open failures
	openFailures map[string]int
	// when set, restoring reorders the first page's rows, used to
	// exercise the restoration check
	corruptOnRestore bool

	restoreCalls int
	openCalls    int
}

func key(page, row int) string {
	return fmt.Sprintf("%d|%d", page, row)
}

func (f *fakeSession) Rows(ctx context.Context) ([]Row, error) {
	if f.offListing {
		return nil, errors.New("session is not on the listing")
	}
	return f.pages[f.page], nil
}

func (f *fakeSession) NextPage(ctx context.Context) (bool, error) {
	if f.offListing {
		return false, errors.New("session is not on the listing")
	}
	if f.page+1 >= len(f.pages) {
		return false, nil
	}
	f.page++
	return true, nil
}

func (f *fakeSession) OpenRow(ctx context.Context, index int) (string, error) {
	f.openCalls++
	if f.offListing {
		return "", errors.New("session is not on the listing")
	}
	k := key(f.page, index)
	if remaining := f.openFailures[k]; remaining > 0 {
		f.openFailures[k] = remaining - 1
		return "", errors.New("navigation timed out")
	}
	loc, ok := f.locations[k]
	if !ok {
		loc = "https://example.org/rankings"
	}
	f.offListing = true
	return loc, nil
}

func (f *fakeSession) CurrentPage() int {
	return f.page
}

func (f *fakeSession) RestoreTo(ctx context.Context, page int) error {
	f.restoreCalls++
	if page >= len(f.pages) {
		return fmt.Errorf("no page %d", page)
	}
	f.offListing = false
	f.page = page
	if f.corruptOnRestore {
		first := f.pages[page]
		if len(first) > 1 {
			first[0], first[1] = first[1], first[0]
		}
	}
	return nil
}

func date(s string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", s, timezone.Location)
	if err != nil {
		panic(err)
	}
	return d
}

func twoPageSession() *fakeSession {
	return &fakeSession{
		pages: [][]Row{
			{
				{DisplayName: "Jane Doe", Date: date("2024-03-09"), Interactive: true},
				{DisplayName: "John Smith", Date: date("2024-03-09"), Interactive: true},
				{DisplayName: "Pending Entry", Date: date("2024-03-09"), Interactive: false},
			},
			{
				{DisplayName: "Alice Wu", Date: date("2024-03-10"), Interactive: true},
				{DisplayName: "Bob Chen", Date: date("2024-03-10"), Interactive: true},
			},
		},
		locations: map[string]string{
			key(0, 0): "https://example.org/member/111",
			key(0, 1): "https://example.org/member/222",
			key(1, 0): "https://example.org/member/333",
			key(1, 1): "https://example.org/profile/unrelated",
		},
		openFailures: map[string]int{},
	}
}

func TestExtractStableID(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the member id from the location", func(t *testing.T) {
		s := twoPageSession()
		id, ok, err := ExtractStableID(ctx, s, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, int64(111), id)
	})

	t.Run("non-interactive row yields nothing immediately", func(t *testing.T) {
		s := twoPageSession()
		id, ok, err := ExtractStableID(ctx, s, 2)
		require.NoError(t, err)
		require.False(t, ok)
		require.Zero(t, id)
		require.Zero(t, s.openCalls)
	})

	t.Run("location without member path is a soft failure", func(t *testing.T) {
		s := twoPageSession()
		_, err := s.NextPage(ctx)
		require.NoError(t, err)

		id, ok, err := ExtractStableID(ctx, s, 1)
		require.NoError(t, err)
		require.False(t, ok)
		require.Zero(t, id)
	})

	t.Run("retries transient navigation failures", func(t *testing.T) {
		s := twoPageSession()
		s.openFailures[key(0, 0)] = 2

		id, ok, err := ExtractStableID(ctx, s, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, int64(111), id)
		require.Equal(t, 3, s.openCalls)
	})

	t.Run("exhausted retries yield nothing, not an error", func(t *testing.T) {
		s := twoPageSession()
		s.openFailures[key(0, 0)] = 10

		id, ok, err := ExtractStableID(ctx, s, 0)
		require.NoError(t, err)
		require.False(t, ok)
		require.Zero(t, id)
		require.Equal(t, maxExtractRetries, s.openCalls)
	})

	t.Run("member id wider than int64 still restores the session", func(t *testing.T) {
		s := twoPageSession()
		s.locations[key(0, 0)] = "https://example.org/member/99999999999999999999"

		_, _, err := ExtractStableID(ctx, s, 0)
		require.Error(t, err)
		require.False(t, s.offListing)
		require.Equal(t, 0, s.CurrentPage())
	})

	t.Run("restoration order change is a hard error", func(t *testing.T) {
		s := twoPageSession()
		s.corruptOnRestore = true

		_, _, err := ExtractStableID(ctx, s, 0)
		require.Error(t, err)
		require.Contains(t, err.Error(), "order changed")
	})
}

// after any number of extraction attempts on page K, the session's
// first-row identity must equal what it was before the attempts
func TestSessionRestoration(t *testing.T) {
	ctx := context.Background()
	s := twoPageSession()

	_, err := s.NextPage(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, s.CurrentPage())

	before, err := s.Rows(ctx)
	require.NoError(t, err)
	firstBefore := rowIdentity(before[0])

	for n := 0; n < 4; n++ {
		row := n % 2
		_, _, err := ExtractStableID(ctx, s, row)
		require.NoError(t, err)

		require.Equal(t, 1, s.CurrentPage())
		after, err := s.Rows(ctx)
		require.NoError(t, err)
		require.Equal(t, firstBefore, rowIdentity(after[0]))
	}
}

func TestFindByName(t *testing.T) {
	ctx := context.Background()

	t.Run("finds a row on a later page and extracts its id", func(t *testing.T) {
		s := twoPageSession()
		m, err := FindByName(ctx, s, "bob chen")
		require.NoError(t, err)
		require.True(t, m.Found)
		require.False(t, m.HasStableID)

		s = twoPageSession()
		m, err = FindByName(ctx, s, "Alice  Wu")
		require.NoError(t, err)
		require.True(t, m.Found)
		require.True(t, m.HasStableID)
		require.Equal(t, int64(333), m.StableID)
	})

	t.Run("absence is a normal outcome", func(t *testing.T) {
		s := twoPageSession()
		m, err := FindByName(ctx, s, "Nobody Here")
		require.NoError(t, err)
		require.False(t, m.Found)
	})
}
