package rankings

import (
	"context"

	"liftlink-backend/lib/browser"
)

// ChromeSource opens live browser-backed listing sessions against
// one rankings site. Sessions share the browser and its request
// throttle.
type ChromeSource struct {
	Browser *browser.Browser
	BaseURL string
}

func (s ChromeSource) OpenListing(ctx context.Context, q Query) (TableSession, error) {
	return NewChromeSession(s.Browser, s.BaseURL, q)
}
