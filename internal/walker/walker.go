// Package walker orchestrates the page-by-page traversal of the listing
// grid: waiting for rows, resolving columns fresh per page, extracting and
// deduplicating records, and advancing pagination until a stop condition.
package walker

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bidwatch-cli/internal/browser"
	"github.com/sells-group/bidwatch-cli/internal/grid"
	"github.com/sells-group/bidwatch-cli/internal/model"
)

// Options configures a Walker.
type Options struct {
	StartURL     string
	DetailURL    func(id string) string // bookmarkable detail link template
	Aliases      map[string][]string    // nil means grid.DefaultFieldAliases
	CodeNames    model.CodeNameMap      // optional agency_code join
	RowSelectors []string               // nil means grid.RowSelectors
	WaitTimeout  time.Duration          // per-page row wait
	SettleDelay  time.Duration          // fallback delay when no selector matched
}

// Walker walks the listing grid sequentially. The traversal is inherently
// sequential: each page depends on the previous advance completing.
type Walker struct {
	sess  browser.Session
	pager *grid.Paginator
	opts  Options
}

// Result summarizes one walk for logging and the run record.
type Result struct {
	Records      []model.ListingRecord
	Pages        int
	RowsSeen     int
	DupesDropped int
}

// New creates a Walker over the given session and paginator.
func New(sess browser.Session, pager *grid.Paginator, opts Options) *Walker {
	if opts.Aliases == nil {
		opts.Aliases = grid.DefaultFieldAliases
	}
	if opts.RowSelectors == nil {
		opts.RowSelectors = grid.RowSelectors
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 10 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 2 * time.Second
	}
	return &Walker{sess: sess, pager: pager, opts: opts}
}

// Walk navigates to the start URL and collects records across pages until
// maxItems is reached, pagination reports no more pages, or maxPages is
// exhausted. Records come back in first-seen order, globally deduplicated.
func (w *Walker) Walk(ctx context.Context, maxPages, maxItems int) (*Result, error) {
	log := zap.L().With(zap.String("component", "walker"))

	if err := w.sess.Navigate(ctx, w.opts.StartURL); err != nil {
		return nil, eris.Wrap(err, "walker: reach start url")
	}

	res := &Result{}
	seen := make(map[string]struct{})

	for page := 1; page <= maxPages; page++ {
		res.Pages = page

		matched, err := w.sess.WaitAny(ctx, w.opts.RowSelectors, w.opts.WaitTimeout)
		if err != nil {
			// No known row marker; give a client-rendered grid a fixed
			// settle window before reading whatever is there.
			log.Debug("walker: no row selector matched, settling",
				zap.Int("page", page),
				zap.Duration("delay", w.opts.SettleDelay),
			)
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "walker: settle wait")
			case <-time.After(w.opts.SettleDelay):
			}
		} else {
			log.Debug("walker: rows present",
				zap.Int("page", page),
				zap.String("selector", matched),
			)
		}

		snap, err := grid.ReadSnapshot(ctx, w.sess)
		if err != nil {
			if page == 1 {
				return nil, eris.Wrap(err, "walker: read first page")
			}
			log.Warn("walker: snapshot failed, stopping walk",
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		// Column order is not assumed stable across reloads.
		mapping := grid.ResolveColumns(snap.Headers, w.opts.Aliases)
		res.RowsSeen += len(snap.Rows)

		full := false
		for _, row := range snap.Rows {
			rec, ok := grid.ExtractRow(row, mapping, w.opts.DetailURL)
			if !ok {
				continue
			}
			key := rec.IdentityKey()
			if _, dup := seen[key]; dup {
				// A stalled advance can re-show the same page.
				res.DupesDropped++
				continue
			}
			seen[key] = struct{}{}

			if name, ok := w.opts.CodeNames[rec.AgencyCode]; ok && rec.AgencyCode != "" {
				n := name
				rec.AgencyFull = &n
			}

			res.Records = append(res.Records, rec)
			if maxItems > 0 && len(res.Records) >= maxItems {
				full = true
				break
			}
		}

		log.Info("walker: page done",
			zap.Int("page", page),
			zap.Int("rows", len(snap.Rows)),
			zap.Int("collected", len(res.Records)),
		)

		if full || page == maxPages {
			break
		}

		if err := w.pager.Advance(ctx); err != nil {
			switch {
			case eris.Is(err, grid.ErrNoMorePages):
				log.Info("walker: no more pages", zap.Int("page", page))
			case eris.Is(err, grid.ErrPaginationStalled):
				log.Info("walker: pagination stalled, treating as end of pages",
					zap.Int("page", page),
				)
			default:
				log.Warn("walker: advance failed, stopping walk",
					zap.Int("page", page),
					zap.Error(err),
				)
			}
			break
		}
	}

	// Final safety pass: identity keys can diverge across pages when the
	// column mapping shifted, so rerun dedup with the same key function.
	res.Records = model.DedupRecords(res.Records)

	log.Info("walker: walk complete",
		zap.Int("pages", res.Pages),
		zap.Int("rows_seen", res.RowsSeen),
		zap.Int("records", len(res.Records)),
		zap.Int("dupes_dropped", res.DupesDropped),
	)
	return res, nil
}
