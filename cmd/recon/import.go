package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/david/opportunity-sync/internal/db"
	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type importFlags struct {
	quotes   string
	jobs     string
	requests string
	dryRun   bool
}

func newImportCmd(a *app) *cobra.Command {
	f := &importFlags{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import export files and rebuild opportunities",
		Example: `  recon import --quotes quotes.csv --jobs jobs.csv --requests requests.xlsx
  recon import --quotes quotes.csv --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, a, f)
		},
	}
	cmd.Flags().StringVar(&f.quotes, "quotes", "", "quotes export (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.jobs, "jobs", "", "jobs export (optional)")
	cmd.Flags().StringVar(&f.requests, "requests", "", "requests export (optional)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "build and report without writing to the database")
	_ = cmd.MarkFlagRequired("quotes")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, f *importFlags) error {
	ctx := cmd.Context()

	columns, err := ingest.LoadColumnMaps(a.cfg.ColumnMapFile)
	if err != nil {
		return err
	}

	files := ingest.ImportFiles{}
	for _, item := range []struct {
		path   string
		target **ingest.Upload
	}{
		{f.quotes, &files.Quotes},
		{f.jobs, &files.Jobs},
		{f.requests, &files.Requests},
	} {
		if item.path == "" {
			continue
		}
		file, err := os.Open(item.path)
		if err != nil {
			return fmt.Errorf("open %s: %w", item.path, err)
		}
		defer file.Close()
		*item.target = &ingest.Upload{Name: filepath.Base(item.path), Body: file}
	}

	var importer *ingest.Importer
	if f.dryRun {
		importer = ingest.NewImporter(nil, nil, columns, a.logger)
	} else {
		pool, err := a.connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := db.NewStore(pool)
		importer = ingest.NewImporter(store, store, columns, a.logger)
	}
	importer.BatchSize = a.cfg.ImportBatchSize

	out := cmd.OutOrStdout()
	importer.Progress = ingest.ProgressFunc(func(stage ingest.Stage, percent int, message string) {
		fmt.Fprintf(out, "[%3d%%] %-13s %s\n", percent, stage, message)
	})

	result := importer.Run(ctx, files, ingest.ImportOptions{
		DryRun:  f.dryRun,
		MaxRows: a.cfg.ImportMaxRows,
		Source:  "cli",
	})
	renderResult(cmd, result)

	if !result.Success {
		return fmt.Errorf("import finished with %d error(s)", len(result.Errors))
	}
	return nil
}

func renderResult(cmd *cobra.Command, result ingest.ImportResult) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Entity", "Total", "New", "Updated", "Linked", "Saved"})
	t.AppendRow(table.Row{"opportunities", result.Opportunities.Total, result.Opportunities.New, result.Opportunities.Updated, "", ""})
	t.AppendRow(table.Row{"quotes", result.Quotes.Total, result.Quotes.New, result.Quotes.Updated, "", ""})
	t.AppendRow(table.Row{"jobs", result.Jobs.Total, "", "", result.Jobs.Linked, ""})
	t.AppendRow(table.Row{"requests", result.Requests.Total, "", "", result.Requests.Linked, result.Requests.Saved})
	t.Render()

	if len(result.Errors) == 0 {
		return
	}
	e := table.NewWriter()
	e.SetOutputMirror(cmd.OutOrStdout())
	e.AppendHeader(table.Row{"File", "Row", "Field", "Message"})
	for _, ie := range result.Errors {
		e.AppendRow(table.Row{ie.File, ie.Row, ie.Field, ie.Message})
	}
	e.Render()
}
