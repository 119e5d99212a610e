package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

type Options struct {
	Headless bool
	// per-action deadline, every navigation/wait is bounded by this
	Timeout time.Duration
	// minimum delay between consecutive remote requests
	MinRequestDelay time.Duration
}

// Browser owns one allocator + browser context. Operations against
// one Browser are strictly sequential, callers must not share it
// across goroutines.
type Browser struct {
	ctx      context.Context
	cancel   []context.CancelFunc
	timeout  time.Duration
	throttle *Throttle
}

func New(ctx context.Context, opts Options) *Browser {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	return &Browser{
		ctx:      browserCtx,
		cancel:   []context.CancelFunc{browserCancel, allocCancel},
		timeout:  timeout,
		throttle: NewThrottle(opts.MinRequestDelay),
	}
}

func (b *Browser) Close() {
	for _, cancel := range b.cancel {
		cancel()
	}
}

func (b *Browser) Throttle() *Throttle {
	return b.throttle
}

// runs a chromedp action list under the per-action deadline
func (b *Browser) Run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(runCtx, actions...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}
