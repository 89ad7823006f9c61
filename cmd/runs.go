package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bidwatch-cli/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent harvest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path, time.Duration(cfg.Store.CacheTTLHours)*time.Hour)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "list runs")
		}

		for _, r := range runs {
			elapsed := ""
			if r.FinishedAt != nil {
				elapsed = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
			}
			line := fmt.Sprintf("%s  %-9s  pages=%d records=%d failures=%d  %s %s",
				r.StartedAt.Format(time.RFC3339), r.Status, r.Pages, r.Records, r.Failures, r.StartURL, elapsed)
			if r.Error != "" {
				line += "  error=" + r.Error
			}
			cmd.Println(line)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
