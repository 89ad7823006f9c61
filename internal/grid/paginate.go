package grid

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bidwatch-cli/internal/browser"
)

// ErrNoMorePages means the next-page control is absent or disabled.
var ErrNoMorePages = eris.New("grid: no more pages")

// ErrPaginationStalled means the next-page control was triggered but no
// observable signal changed before the timeout.
var ErrPaginationStalled = eris.New("grid: pagination stalled")

// PageSignature identifies the visible page content well enough to detect
// that an advance actually happened. Different widgets surface completion
// through different signals, so all three components are compared.
type PageSignature struct {
	FirstRowID    string `json:"firstRowId"`
	FirstRowText  string `json:"firstRowText"`
	PageIndicator string `json:"pageIndicator"`
}

// Equal reports whether no signature component changed.
func (s PageSignature) Equal(o PageSignature) bool {
	return s.FirstRowID == o.FirstRowID &&
		s.FirstRowText == o.FirstRowText &&
		s.PageIndicator == o.PageIndicator
}

// SignatureScript reads the current page signature from the live view.
const SignatureScript = `(() => {
	const sig = { firstRowId: "", firstRowText: "", pageIndicator: "" };
	const row = document.querySelector("table.ui-jqgrid-btable tr.jqgrow") ||
		document.querySelector("table[id*='grid'] tbody tr[id]") ||
		document.querySelector("table tbody tr");
	if (row) {
		sig.firstRowId = row.id || "";
		sig.firstRowText = (row.innerText || row.textContent || "").trim();
	}
	const pager = document.querySelector("input.ui-pg-input") ||
		document.querySelector("[id*='pager'] input") ||
		document.querySelector(".pagination .active, .pagination .current");
	if (pager) {
		sig.pageIndicator = (pager.value !== undefined ? pager.value : pager.textContent || "").trim();
	}
	return sig;
})()`

// advanceScript triggers the next-page control. Returns false when no
// candidate control exists or the control is disabled.
const advanceScript = `(() => {
	const candidates = [
		"#next_pager", "td[id^='next_']",
		".ui-pg-button[id*='next']",
		"a[title='Next Page']", "a[aria-label='Next']",
		".pagination .next a", "a.next",
	];
	for (const sel of candidates) {
		const el = document.querySelector(sel);
		if (!el) { continue; }
		const cls = el.className || "";
		if (el.disabled || cls.indexOf("disabled") >= 0 ||
			el.getAttribute("aria-disabled") === "true") {
			return false;
		}
		el.click();
		return true;
	}
	return false;
})()`

// paginatorState tracks whether an advance is in flight.
type paginatorState int

const (
	stateStable paginatorState = iota
	stateAwaiting
)

// Paginator drives the grid's stateful next-page control and confirms each
// advance by watching for a signature change.
type Paginator struct {
	sess    browser.Session
	timeout time.Duration
	poll    time.Duration
	state   paginatorState
}

// NewPaginator creates a Paginator with the given advance-confirmation
// timeout.
func NewPaginator(sess browser.Session, timeout time.Duration) *Paginator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Paginator{
		sess:    sess,
		timeout: timeout,
		poll:    250 * time.Millisecond,
	}
}

// CurrentSignature reads the page signature from the live view.
func (p *Paginator) CurrentSignature(ctx context.Context) (PageSignature, error) {
	var sig PageSignature
	if err := p.sess.Evaluate(ctx, SignatureScript, &sig); err != nil {
		return PageSignature{}, eris.Wrap(err, "grid: read signature")
	}
	return sig, nil
}

// Advance triggers the next-page control and blocks until the signature
// changes in at least one component, or the timeout elapses. Returns
// ErrNoMorePages when the control is absent or disabled, and
// ErrPaginationStalled when no signal changed in time.
func (p *Paginator) Advance(ctx context.Context) error {
	before, err := p.CurrentSignature(ctx)
	if err != nil {
		return err
	}

	var clicked bool
	if err := p.sess.Evaluate(ctx, advanceScript, &clicked); err != nil {
		return eris.Wrap(err, "grid: trigger next page")
	}
	if !clicked {
		return ErrNoMorePages
	}

	p.state = stateAwaiting
	defer func() { p.state = stateStable }()

	deadline := time.Now().Add(p.timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "grid: advance")
		case <-time.After(p.poll):
		}

		after, err := p.CurrentSignature(ctx)
		if err != nil {
			// Transient read failure mid-transition; keep polling.
			zap.L().Debug("grid: signature read failed during advance", zap.Error(err))
			continue
		}
		if !after.Equal(before) {
			return nil
		}
	}
	return ErrPaginationStalled
}
