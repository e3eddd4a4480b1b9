package main

import (
	"time"

	"github.com/david/opportunity-sync/internal/db"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent import runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			runs, err := db.NewStore(pool).ListImportRuns(ctx, limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Source", "Status", "Opportunities", "Quotes", "Jobs Linked", "Requests Saved", "Errors", "Duration", "Started At"})
			for _, r := range runs {
				duration := "Running..."
				if r.CompletedAt != nil {
					duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				t.AppendRow(table.Row{
					r.Source, r.Status, r.OpportunitiesTotal, r.QuotesTotal,
					r.JobsLinked, r.RequestsSaved, r.ErrorCount, duration,
					r.StartedAt.Format("2006-01-02 15:04:05"),
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}
