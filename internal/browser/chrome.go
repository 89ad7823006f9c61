package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Chrome session.
type Options struct {
	Headless   bool
	UserAgent  string
	NavTimeout time.Duration
	RatePerSec float64 // polite cap on Fetch sub-requests
}

// Chrome drives a headless (or visible) Chrome instance via chromedp.
type Chrome struct {
	allocCancel context.CancelFunc
	taskCancel  context.CancelFunc
	ctx         context.Context
	limiter     *rate.Limiter
	navTimeout  time.Duration
}

// NewChrome starts a browser session. Failure here is fatal to the run:
// there is no document to extract from without a session.
func NewChrome(opts Options) (*Chrome, error) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	// Force the browser process up front so startup failures surface here
	// rather than on the first navigation.
	startCtx, cancel := context.WithTimeout(taskCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		taskCancel()
		allocCancel()
		return nil, eris.Wrap(err, "browser: establish session")
	}

	navTimeout := opts.NavTimeout
	if navTimeout == 0 {
		navTimeout = 30 * time.Second
	}
	perSec := opts.RatePerSec
	if perSec <= 0 {
		perSec = 2.0
	}

	return &Chrome{
		allocCancel: allocCancel,
		taskCancel:  taskCancel,
		ctx:         taskCtx,
		limiter:     rate.NewLimiter(rate.Limit(perSec), 1),
		navTimeout:  navTimeout,
	}, nil
}

// Navigate loads the URL and waits for the body to be ready.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	tctx, cancel := c.taskContext(ctx, c.navTimeout)
	defer cancel()

	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return nil
}

// WaitAny probes each selector in order with short waits, cycling until one
// matches or the overall timeout elapses.
func (c *Chrome) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, sel := range selectors {
			probe := 750 * time.Millisecond
			if remaining := time.Until(deadline); remaining < probe {
				probe = remaining
			}
			if probe <= 0 {
				break
			}
			sctx, cancel := c.taskContext(ctx, probe)
			err := chromedp.Run(sctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
			cancel()
			if err == nil {
				return sel, nil
			}
			if ctx.Err() != nil {
				return "", eris.Wrap(ctx.Err(), "browser: wait")
			}
		}
	}
	return "", ErrWaitTimeout
}

// Evaluate runs a script in the page, awaiting promise results, and decodes
// the value into out.
func (c *Chrome) Evaluate(ctx context.Context, script string, out any) error {
	tctx, cancel := c.taskContext(ctx, c.navTimeout)
	defer cancel()

	var raw json.RawMessage
	err := chromedp.Run(tctx,
		chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return eris.Wrap(err, "browser: evaluate")
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrap(err, "browser: decode evaluate result")
	}
	return nil
}

// Fetch issues an in-page fetch with ambient credentials, rate limited.
func (c *Chrome) Fetch(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "browser: rate limit wait")
	}

	script := fmt.Sprintf(`fetch(%q, {credentials: "include"}).then(r => {
		if (!r.ok) { throw new Error("fetch status " + r.status); }
		return r.text();
	})`, url)

	var body string
	if err := c.Evaluate(ctx, script, &body); err != nil {
		return "", eris.Wrapf(err, "browser: fetch %s", url)
	}
	zap.L().Debug("browser: fetched fragment",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
	)
	return body, nil
}

// Close tears down the browser.
func (c *Chrome) Close() error {
	c.taskCancel()
	c.allocCancel()
	return nil
}

// taskContext derives a chromedp task context bounded by both the caller's
// context and the given timeout.
func (c *Chrome) taskContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(c.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}
}
