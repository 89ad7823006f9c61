// Package enrich fans out over the deduplicated record list with a bounded
// worker pool, fetching each record's detail and document-list fragments and
// folding contact and attachment data back in at the same index.
package enrich

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bidwatch-cli/internal/model"
)

// Fetcher issues an authenticated sub-request and returns the body as text.
// Satisfied by browser.Session.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FragmentCache is an optional read-through cache for fragment bodies.
// Satisfied by store.Store.
type FragmentCache interface {
	GetFragment(ctx context.Context, url string) (string, bool, error)
	PutFragment(ctx context.Context, url, body string) error
}

// Enricher enriches records from their detail fragments.
type Enricher struct {
	fetcher      Fetcher
	cache        FragmentCache // nil disables caching
	detailURL    func(id string) string
	documentsURL func(id string) string
	workers      int
}

// New creates an Enricher with the given fragment URL templates and worker
// count.
func New(fetcher Fetcher, detailURL, documentsURL func(id string) string, workers int) *Enricher {
	if workers <= 0 {
		workers = 4
	}
	return &Enricher{
		fetcher:      fetcher,
		detailURL:    detailURL,
		documentsURL: documentsURL,
		workers:      workers,
	}
}

// WithCache enables read-through fragment caching.
func (e *Enricher) WithCache(cache FragmentCache) *Enricher {
	e.cache = cache
	return e
}

// Enrich processes every record with a non-empty id in place. Workers pull
// the next unclaimed index from a shared cursor, so a record is processed
// exactly once and its result lands at the index it started at; completion
// order never reorders output. Records with empty ids pass through
// unchanged. A failed record gets a detail_error diagnostic and never
// disturbs its siblings.
func (e *Enricher) Enrich(ctx context.Context, records []model.ListingRecord) []model.ListingRecord {
	if len(records) == 0 {
		return records
	}

	log := zap.L().With(zap.String("component", "enricher"))

	var cursor atomic.Int64
	cursor.Store(-1)

	g, gctx := errgroup.WithContext(ctx)
	for range e.workers {
		g.Go(func() error {
			for {
				idx := int(cursor.Add(1))
				if idx >= len(records) {
					return nil
				}
				if gctx.Err() != nil {
					return nil
				}
				e.enrichOne(gctx, &records[idx], log)
			}
		})
	}
	_ = g.Wait()

	return records
}

// enrichOne fetches and applies both fragments for one record. All failure
// modes collapse to a diagnostic on the record.
func (e *Enricher) enrichOne(ctx context.Context, rec *model.ListingRecord, log *zap.Logger) {
	if rec.ID == "" {
		return
	}

	detail, err := e.fragment(ctx, e.detailURL(rec.ID))
	if err != nil {
		rec.DetailError = "detail fetch: " + err.Error()
		log.Debug("enricher: detail fetch failed",
			zap.String("id", rec.ID),
			zap.Error(err),
		)
		return
	}

	docs, err := e.fragment(ctx, e.documentsURL(rec.ID))
	if err != nil {
		rec.DetailError = "documents fetch: " + err.Error()
		log.Debug("enricher: documents fetch failed",
			zap.String("id", rec.ID),
			zap.Error(err),
		)
		return
	}

	email, files, err := parseFragments(detail.body, detail.url, docs.body, docs.url)
	if err != nil {
		rec.DetailError = "parse: " + err.Error()
		return
	}

	rec.ContactEmail = email
	rec.Files = files
}

type fragment struct {
	url  string
	body string
}

// fragment fetches one fragment body, going through the cache when enabled.
// Cache errors degrade to a direct fetch.
func (e *Enricher) fragment(ctx context.Context, url string) (fragment, error) {
	if e.cache != nil {
		body, ok, err := e.cache.GetFragment(ctx, url)
		if err != nil {
			zap.L().Debug("enricher: cache read failed", zap.String("url", url), zap.Error(err))
		} else if ok {
			return fragment{url: url, body: body}, nil
		}
	}

	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return fragment{}, err
	}

	if e.cache != nil {
		if err := e.cache.PutFragment(ctx, url, body); err != nil {
			zap.L().Debug("enricher: cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return fragment{url: url, body: body}, nil
}
