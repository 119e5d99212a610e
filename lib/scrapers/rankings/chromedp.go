package rankings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"liftlink-backend/lib/browser"
	"liftlink-backend/lib/timezone"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("liftlink/scrapers/rankings")

// Query selects the division/date window of the rankings listing.
type Query struct {
	Division string
	From     time.Time
	To       time.Time
}

// ChromeSession drives the live, client-rendered rankings table
// through a browser. It implements TableSession.
type ChromeSession struct {
	browser *browser.Browser
	listing string
	page    int
	entered bool
}

func NewChromeSession(b *browser.Browser, baseURL string, q Query) (*ChromeSession, error) {
	link, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	link = link.JoinPath("rankings")

	query := url.Values{}
	query.Add("division", q.Division)
	query.Add("date_from", q.From.Format("2006-01-02"))
	query.Add("date_to", q.To.Format("2006-01-02"))
	link.RawQuery = query.Encode()

	return &ChromeSession{
		browser: b,
		listing: link.String(),
	}, nil
}

func (s *ChromeSession) enter(ctx context.Context) error {
	if s.entered {
		return nil
	}
	err := s.browser.Throttle().Wait(ctx)
	if err != nil {
		return err
	}
	err = s.browser.Run(ctx,
		chromedp.Navigate(s.listing),
		chromedp.WaitReady("table.rankings", chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	s.entered = true
	s.page = 0
	return s.waitStable(ctx)
}

// js evaluated per poll while waiting for the table to settle.
// a freshly rendered or freshly paginated table re-renders rows
// while its loader is active, acting on it too early yields
// duplicated names and empty interactive flags.
const stableProbeJS = `JSON.stringify({
	rows: document.querySelectorAll("table.rankings tbody tr").length,
	loading: !!document.querySelector(".loading-indicator, .spinner:not(.hidden)"),
})`

type stableProbe struct {
	Rows    int  `json:"rows"`
	Loading bool `json:"loading"`
}

const stableDwell = time.Millisecond * 400
const stablePollEvery = time.Millisecond * 200
const maxStableWait = time.Second * 20

// blocks until the row count has stopped changing and no loading
// indicator is active for at least the dwell period
func (s *ChromeSession) waitStable(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:waitStable")
	defer span.End()

	deadline := time.Now().Add(maxStableWait)
	lastRows := -1
	settledSince := time.Time{}

	for time.Now().Before(deadline) {
		var raw string
		err := s.browser.Run(ctx, chromedp.Evaluate(stableProbeJS, &raw))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stability probe failed")
			return err
		}
		var probe stableProbe
		err = json.Unmarshal([]byte(raw), &probe)
		if err != nil {
			return err
		}

		if probe.Loading || probe.Rows != lastRows {
			lastRows = probe.Rows
			settledSince = time.Time{}
		} else {
			if settledSince.IsZero() {
				settledSince = time.Now()
			}
			if time.Since(settledSince) >= stableDwell {
				return nil
			}
		}

		select {
		case <-time.After(stablePollEvery):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := fmt.Errorf("rankings table did not stabilize within %s", maxStableWait)
	span.SetStatus(codes.Error, err.Error())
	return err
}

const rowsJS = `JSON.stringify(
	Array.from(document.querySelectorAll("table.rankings tbody tr")).map(tr => ({
		name: tr.querySelector("td.name")?.textContent?.trim() ?? "",
		age_category: tr.querySelector("td.age-category")?.textContent?.trim() ?? "",
		weight_class: tr.querySelector("td.weight-class")?.textContent?.trim() ?? "",
		date: tr.querySelector("td.date")?.textContent?.trim() ?? "",
		interactive: tr.classList.contains("clickable"),
	}))
)`

type rowDTO struct {
	Name        string `json:"name"`
	AgeCategory string `json:"age_category"`
	WeightClass string `json:"weight_class"`
	Date        string `json:"date"`
	Interactive bool   `json:"interactive"`
}

func (s *ChromeSession) Rows(ctx context.Context) ([]Row, error) {
	ctx, span := tracer.Start(ctx, "session:Rows")
	defer span.End()

	err := s.enter(ctx)
	if err != nil {
		return nil, err
	}

	var raw string
	err = s.browser.Run(ctx, chromedp.Evaluate(rowsJS, &raw))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read table rows")
		return nil, err
	}

	var dtos []rowDTO
	err = json.Unmarshal([]byte(raw), &dtos)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(dtos))
	for i, dto := range dtos {
		date, err := time.ParseInLocation("2006-01-02", dto.Date, timezone.Location)
		if err != nil {
			// some federations leave the date cell blank on
			// provisional rows, keep the zero value
			date = time.Time{}
		}
		rows[i] = Row{
			DisplayName: dto.Name,
			AgeCategory: dto.AgeCategory,
			WeightClass: dto.WeightClass,
			Date:        date,
			Interactive: dto.Interactive,
		}
	}
	return rows, nil
}

const nextPageJS = `(() => {
	const btn = document.querySelector("button.next-page, a.next-page");
	return !!btn && !btn.disabled && !btn.classList.contains("disabled");
})()`

func (s *ChromeSession) NextPage(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "session:NextPage")
	defer span.End()

	err := s.enter(ctx)
	if err != nil {
		return false, err
	}

	var hasNext bool
	err = s.browser.Run(ctx, chromedp.Evaluate(nextPageJS, &hasNext))
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if !hasNext {
		return false, nil
	}

	err = s.browser.Throttle().Wait(ctx)
	if err != nil {
		return false, err
	}
	err = s.browser.Run(ctx, chromedp.Click("button.next-page, a.next-page", chromedp.ByQuery))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "next page click failed")
		return false, err
	}
	err = s.waitStable(ctx)
	if err != nil {
		return false, err
	}
	s.page++
	return true, nil
}

func (s *ChromeSession) OpenRow(ctx context.Context, index int) (string, error) {
	ctx, span := tracer.Start(ctx, "session:OpenRow")
	defer span.End()

	err := s.enter(ctx)
	if err != nil {
		return "", err
	}

	err = s.browser.Throttle().Wait(ctx)
	if err != nil {
		return "", err
	}

	selector := fmt.Sprintf("table.rankings tbody tr:nth-child(%d)", index+1)
	err = s.browser.Run(ctx, chromedp.Click(selector, chromedp.ByQuery))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "row click failed")
		return "", err
	}

	// the click triggers client-side navigation, poll the location
	// until it leaves the listing
	deadline := time.Now().Add(time.Second * 10)
	for time.Now().Before(deadline) {
		var loc string
		err = s.browser.Run(ctx, chromedp.Location(&loc))
		if err != nil {
			return "", err
		}
		if loc != s.listing {
			s.entered = false
			return loc, nil
		}
		select {
		case <-time.After(time.Millisecond * 200):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	err = fmt.Errorf("row %d click did not navigate", index)
	span.SetStatus(codes.Error, err.Error())
	return "", err
}

func (s *ChromeSession) CurrentPage() int {
	return s.page
}

func (s *ChromeSession) RestoreTo(ctx context.Context, page int) error {
	ctx, span := tracer.Start(ctx, "session:RestoreTo")
	defer span.End()

	s.entered = false
	err := s.enter(ctx)
	if err != nil {
		return err
	}

	for s.page < page {
		more, err := s.NextPage(ctx)
		if err != nil {
			return err
		}
		if !more {
			err = fmt.Errorf("listing ran out of pages restoring to page %d", page)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}
