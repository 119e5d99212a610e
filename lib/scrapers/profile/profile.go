package profile

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"liftlink-backend/lib/browser"
	"liftlink-backend/lib/telemetry"
	"liftlink-backend/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("liftlink/scrapers/profile")

// HistoryEntry is one meet on an athlete's authoritative
// profile/history page.
type HistoryEntry struct {
	MeetName     string
	Date         time.Time
	BodyWeightKg float64
	TotalKg      float64
}

type Client struct {
	BaseUrl  *url.URL
	Http     *resty.Client
	throttle *browser.Throttle
}

type ClientOptions struct {
	BaseUrl string
	// every request waits on this before going out. pass the
	// browser's throttle to share one delay budget across the
	// whole scrape, or leave nil for no delay.
	Throttle *browser.Throttle
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	throttle := opts.Throttle
	if throttle == nil {
		throttle = browser.NewThrottle(0)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "liftlink/scrapers/profile/http")

	return &Client{
		BaseUrl:  baseUrl,
		Http:     client,
		throttle: throttle,
	}, nil
}

// FetchHistory loads the member's profile page and returns every
// meet listed in their competition history.
func (c *Client) FetchHistory(ctx context.Context, stableID int64) ([]HistoryEntry, error) {
	ctx, span := tracer.Start(ctx, "client:FetchHistory")
	defer span.End()
	span.SetAttributes(attribute.Int64("stable_id", stableID))

	err := c.throttle.Wait(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/member/%d", stableID))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch profile page")
		return nil, err
	}
	if res.StatusCode() != 200 {
		err = fmt.Errorf("profile page for member %d returned status %d", stableID, res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	entries, err := parseHistory(res.Body())
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse profile page")
		return nil, err
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, nil
}

func parseHistory(body []byte) ([]HistoryEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	doc.Find("table.competition-history tbody tr").Each(func(_ int, tr *goquery.Selection) {
		name := strings.TrimSpace(tr.Find("td.meet").Text())
		if name == "" {
			return
		}

		dateText := strings.TrimSpace(tr.Find("td.date").Text())
		date, err := time.ParseInLocation("2006-01-02", dateText, timezone.Location)
		if err != nil {
			return
		}

		bodyWeight, ok := parseKg(tr.Find("td.bodyweight").Text())
		if !ok {
			return
		}
		total, ok := parseKg(tr.Find("td.total").Text())
		if !ok {
			return
		}

		entries = append(entries, HistoryEntry{
			MeetName:     name,
			Date:         date,
			BodyWeightKg: bodyWeight,
			TotalKg:      total,
		})
	})

	return entries, nil
}

// numeric cells sometimes carry a trailing unit or a placeholder
// dash on bombed-out meets
func parseKg(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "kg")
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
