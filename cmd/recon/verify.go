package main

import (
	"github.com/david/opportunity-sync/internal/db"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Show how many stored opportunities carry each enriched field",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			coverage, err := db.NewStore(pool).Coverage(ctx)
			if err != nil {
				return err
			}
			renderCoverage(cmd, coverage)
			return nil
		},
	}
}

func renderCoverage(cmd *cobra.Command, coverage []db.StatusCoverage) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Status", "Total", "Sent", "Scheduled", "Revenue", "Assessment", "Request"})
	var total int
	for _, c := range coverage {
		t.AppendRow(table.Row{c.Status, c.Total, c.WithSentDate, c.WithSchedule, c.WithRevenue, c.WithAssessment, c.WithRequest})
		total += c.Total
	}
	t.AppendFooter(table.Row{"all", total})
	t.Render()
}
