package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bidwatch-cli/internal/browser"
	"github.com/sells-group/bidwatch-cli/internal/enrich"
	"github.com/sells-group/bidwatch-cli/internal/grid"
	"github.com/sells-group/bidwatch-cli/internal/lookup"
	"github.com/sells-group/bidwatch-cli/internal/output"
	"github.com/sells-group/bidwatch-cli/internal/store"
	"github.com/sells-group/bidwatch-cli/internal/walker"
)

var (
	harvestStartURL string
	harvestOutput   string
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest the listing grid into a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		hc := cfg.Harvest
		if harvestStartURL != "" {
			hc.StartURL = harvestStartURL
		}
		if harvestOutput != "" {
			hc.OutputPath = harvestOutput
		}
		if hc.StartURL == "" {
			return eris.New("harvest: start url required (--url or harvest.start_url)")
		}

		st, err := store.NewSQLite(cfg.Store.Path, time.Duration(cfg.Store.CacheTTLHours)*time.Hour)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		run, err := st.CreateRun(ctx, hc.StartURL)
		if err != nil {
			return eris.Wrap(err, "record run")
		}
		log := zap.L().With(zap.String("run_id", run.ID))

		sess, err := browser.NewChrome(browser.Options{
			Headless:   hc.Headless,
			UserAgent:  hc.UserAgent,
			NavTimeout: time.Duration(hc.NavTimeoutSecs) * time.Second,
			RatePerSec: hc.RatePerSec,
		})
		if err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			return eris.Wrap(err, "start browser session")
		}
		defer sess.Close() //nolint:errcheck

		detailURL, err := walker.ResolveTemplate(hc.StartURL, hc.DetailURLTemplate)
		if err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			return err
		}
		documentsURL, err := walker.ResolveTemplate(hc.StartURL, hc.DocumentsURLTemplate)
		if err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			return err
		}

		// Build the code→name join before any concurrent work begins; the
		// map is read-only afterward.
		codeNames := lookup.BuildCodeNameMap(ctx, sess, hc.LookupURL)

		navTimeout := time.Duration(hc.NavTimeoutSecs) * time.Second
		w := walker.New(sess, grid.NewPaginator(sess, navTimeout), walker.Options{
			StartURL:  hc.StartURL,
			DetailURL: detailURL,
			CodeNames: codeNames,
		})

		walkRes, err := w.Walk(ctx, hc.MaxPages, hc.MaxItems)
		if err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			return eris.Wrap(err, "walk listing")
		}

		records := enrich.New(sess, detailURL, documentsURL, hc.Concurrency).
			WithCache(st).
			Enrich(ctx, walkRes.Records)

		failures := 0
		for _, r := range records {
			if r.DetailError != "" {
				failures++
			}
		}

		if err := output.WriteRecords(hc.OutputPath, records); err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			return eris.Wrap(err, "write output")
		}

		if err := st.CompleteRun(ctx, run.ID, walkRes.Pages, len(records), failures); err != nil {
			log.Warn("failed to record run completion", zap.Error(err))
		}

		log.Info("harvest complete",
			zap.String("output", hc.OutputPath),
			zap.Int("pages", walkRes.Pages),
			zap.Int("rows_seen", walkRes.RowsSeen),
			zap.Int("dupes_dropped", walkRes.DupesDropped),
			zap.Int("records", len(records)),
			zap.Int("enrich_failures", failures),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	harvestCmd.Flags().StringVar(&harvestStartURL, "url", "", "listing start URL (overrides harvest.start_url)")
	harvestCmd.Flags().StringVar(&harvestOutput, "out", "", "output file path (overrides harvest.output_path)")
	rootCmd.AddCommand(harvestCmd)
}
