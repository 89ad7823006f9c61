// Package browser provides the rendered-document session used to drive the
// listing site: navigation, selector waits, in-page evaluation, and
// cookie-authenticated sub-requests.
package browser

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrWaitTimeout is returned when none of the candidate selectors matched
// within the allotted wait.
var ErrWaitTimeout = eris.New("browser: wait timed out")

// Session is a live rendered-document handle. Every component that reads or
// acts on the document takes it as an explicit parameter.
type Session interface {
	// Navigate loads a URL and waits for the document body to be ready.
	Navigate(ctx context.Context, url string) error

	// WaitAny waits until one of the selectors, tried in order, is present
	// in the rendered document. Returns the selector that matched, or
	// ErrWaitTimeout.
	WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error)

	// Evaluate runs a script against the live document and decodes the
	// result into out. Promise results are awaited.
	Evaluate(ctx context.Context, script string, out any) error

	// Fetch issues a sub-request from within the page so ambient session
	// credentials apply, returning the response body as text.
	Fetch(ctx context.Context, url string) (string, error)

	// Close tears down the session.
	Close() error
}
