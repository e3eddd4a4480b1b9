package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

const DefaultBatchSize = 500

// Upload is one export file handed to an import run.
type Upload struct {
	Name string
	Body io.Reader
}

// ImportFiles carries the three exports. Quotes is required.
type ImportFiles struct {
	Quotes   *Upload
	Jobs     *Upload
	Requests *Upload
}

type ImportOptions struct {
	// DryRun builds everything but never calls the store.
	DryRun bool
	// MaxRows caps data rows per file; zero means no cap.
	MaxRows int
	// Source labels the run in the run log (e.g. "api", "cli").
	Source string
}

// Importer runs the reconciliation over one set of exports.
type Importer struct {
	Store     Store
	Runs      RunRecorder
	Columns   *ColumnMaps
	BatchSize int
	Progress  ProgressReporter
	Logger    zerolog.Logger
}

func NewImporter(store Store, runs RunRecorder, columns *ColumnMaps, logger zerolog.Logger) *Importer {
	if columns == nil {
		columns = DefaultColumnMaps()
	}
	return &Importer{
		Store:     store,
		Runs:      runs,
		Columns:   columns,
		BatchSize: DefaultBatchSize,
		Progress:  nopProgress{},
		Logger:    logger,
	}
}

// run holds the mutable state of a single Run call.
type run struct {
	result    ImportResult
	stageFile SourceFile
	cancelled bool
}

// Run never panics and never returns an error: every failure ends up in the
// returned result.
func (im *Importer) Run(ctx context.Context, files ImportFiles, opts ImportOptions) (result ImportResult) {
	start := time.Now()
	source := opts.Source
	if source == "" {
		source = "upload"
	}
	logger := im.Logger.With().Str("source", source).Bool("dry_run", opts.DryRun).Logger()

	var runID string
	if im.Runs != nil && !opts.DryRun {
		id, err := im.Runs.StartRun(ctx, source)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create import run")
		} else {
			runID = id
			logger = logger.With().Str("run_id", runID).Logger()
		}
	}
	logger.Info().Msg("import started")

	r := &run{stageFile: FileQuotes}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("import aborted")
			result = fatalResult(r.stageFile, fmt.Errorf("unexpected error: %v", rec))
		}
		if runID != "" {
			if err := im.Runs.CompleteRun(context.WithoutCancel(ctx), runID, result); err != nil {
				logger.Warn().Err(err).Msg("failed to complete import run")
			}
		}
		logger.Info().
			Bool("success", result.Success).
			Int("opportunities", result.Opportunities.Total).
			Int("quotes", result.Quotes.Total).
			Int("errors", len(result.Errors)).
			Dur("took", time.Since(start)).
			Msg("import finished")
	}()

	if err := im.execute(ctx, r, files, opts, logger); err != nil {
		logger.Error().Err(err).Msg("import aborted")
		return fatalResult(r.stageFile, err)
	}
	r.result.Success = len(r.result.Errors) == 0
	return r.result
}

func (im *Importer) execute(ctx context.Context, r *run, files ImportFiles, opts ImportOptions, logger zerolog.Logger) error {
	if files.Quotes == nil || files.Quotes.Body == nil {
		return errors.New("quotes file is required")
	}
	if im.Columns == nil {
		im.Columns = DefaultColumnMaps()
	}
	r.result.Errors = []ImportError{}

	im.report(StageParsing, 0, "reading files")
	quoteRecs, err := decodeUpload(files.Quotes, opts.MaxRows)
	if err != nil {
		return err
	}
	r.stageFile = FileJobs
	jobRecs, err := decodeUpload(files.Jobs, opts.MaxRows)
	if err != nil {
		return err
	}
	r.stageFile = FileRequests
	requestRecs, err := decodeUpload(files.Requests, opts.MaxRows)
	if err != nil {
		return err
	}
	r.stageFile = FileQuotes

	quotes := make([]QuoteRow, 0, len(quoteRecs))
	for idx, rec := range quoteRecs {
		row, rowErr := MapQuoteRow(im.Columns.Quotes, rec, idx)
		if rowErr != nil {
			r.result.Errors = append(r.result.Errors, *rowErr)
			continue
		}
		quotes = append(quotes, row)
	}
	jobs := make([]JobRow, 0, len(jobRecs))
	for idx, rec := range jobRecs {
		row, rowErr := MapJobRow(im.Columns.Jobs, rec, idx)
		if rowErr != nil {
			r.result.Errors = append(r.result.Errors, *rowErr)
			continue
		}
		jobs = append(jobs, row)
	}
	requests := make([]RequestRow, 0, len(requestRecs))
	for _, rec := range requestRecs {
		requests = append(requests, MapRequestRow(im.Columns.Requests, rec))
	}
	im.report(StageParsing, 15, fmt.Sprintf("parsed %d quotes, %d jobs, %d requests", len(quotes), len(jobs), len(requests)))

	builder := NewOpportunityBuilder()
	for _, q := range quotes {
		builder.AddQuote(q)
	}
	im.report(StageQuotes, 30, fmt.Sprintf("grouped %d quotes into %d opportunities", len(quotes), builder.Len()))

	builder.ComputeMetrics()
	im.report(StageOpportunities, 45, "computed opportunity metrics")

	enrichedByJobs := builder.EnrichFromJobs(jobs)
	im.report(StageJobs, 55, fmt.Sprintf("enriched %d won opportunities from jobs", enrichedByJobs))

	enrichedByRequests := builder.EnrichFromRequests(requests)
	im.report(StageRequests, 60, fmt.Sprintf("enriched %d opportunities from requests", enrichedByRequests))

	opportunities := builder.Opportunities()
	uniqueQuotes := DedupLastWriteWins(quotes, quoteKey)
	uniqueJobs := DedupLastWriteWins(jobs, jobKey)
	savableRequests := DedupLastWriteWins(requests, requestKeyOf)

	r.result.Opportunities.Total = len(opportunities)
	r.result.Quotes.Total = len(uniqueQuotes)
	r.result.Jobs.Total = len(uniqueJobs)
	for _, j := range uniqueJobs {
		if j.QuoteNumber != nil && builder.IsMemberQuote(*j.QuoteNumber) {
			r.result.Jobs.Linked++
		}
	}
	r.result.Requests.Total = len(requests)
	for _, req := range requests {
		if requestLinked(builder, req) {
			r.result.Requests.Linked++
		}
	}
	logger.Debug().
		Int("quote_rows", len(quoteRecs)).
		Int("opportunities", len(opportunities)).
		Int("jobs_linked", r.result.Jobs.Linked).
		Int("requests_linked", r.result.Requests.Linked).
		Msg("reconciliation built")

	if opts.DryRun {
		r.result.Requests.Saved = len(savableRequests)
		im.report(StageComplete, 100, "dry run complete")
		return nil
	}

	stats, _ := im.persist(ctx, r, logger, TableQuotes, FileQuotes, mapRecords(uniqueQuotes, quoteRecord))
	r.result.Quotes.New, r.result.Quotes.Updated = stats.Inserted, stats.Updated
	im.report(StageQuotes, 70, fmt.Sprintf("saved %d quotes", stats.Inserted+stats.Updated))

	stats, _ = im.persist(ctx, r, logger, TableOpportunities, FileQuotes, mapRecords(opportunities, opportunityRecord))
	r.result.Opportunities.New, r.result.Opportunities.Updated = stats.Inserted, stats.Updated
	im.report(StageOpportunities, 80, fmt.Sprintf("saved %d opportunities", stats.Inserted+stats.Updated))

	r.stageFile = FileJobs
	stats, _ = im.persist(ctx, r, logger, TableJobs, FileJobs, mapRecords(uniqueJobs, jobRecord))
	im.report(StageJobs, 90, fmt.Sprintf("saved %d jobs", stats.Inserted+stats.Updated))

	r.stageFile = FileRequests
	_, written := im.persist(ctx, r, logger, TableRequests, FileRequests, mapRecords(savableRequests, requestRecord))
	r.result.Requests.Saved = written
	im.report(StageRequests, 95, fmt.Sprintf("saved %d requests", written))

	im.report(StageComplete, 100, "import complete")
	return nil
}

// persist upserts rows in fixed-size batches. A failed batch is recorded and
// the next one is still attempted. It returns the summed stats and the
// number of rows in batches that succeeded.
func (im *Importer) persist(ctx context.Context, r *run, logger zerolog.Logger, table Table, file SourceFile, rows []map[string]any) (UpsertStats, int) {
	var total UpsertStats
	written := 0
	size := im.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	for start := 0; start < len(rows); start += size {
		if r.cancelled {
			break
		}
		if err := ctx.Err(); err != nil {
			r.cancelled = true
			r.result.Errors = append(r.result.Errors, ImportError{
				File:    file,
				Row:     rowNumber(start),
				Field:   "batch",
				Message: fmt.Sprintf("import cancelled before saving %s: %v", table.Name, err),
			})
			break
		}

		end := min(start+size, len(rows))
		stats, err := im.Store.UpsertBatch(ctx, table, rows[start:end])
		if err != nil {
			logger.Warn().Err(err).Str("table", table.Name).Int("offset", start).Int("size", end-start).Msg("batch upsert failed")
			r.result.Errors = append(r.result.Errors, ImportError{
				File:    file,
				Row:     rowNumber(start),
				Field:   "batch",
				Message: fmt.Sprintf("save %s rows %d-%d: %v", table.Name, start+1, end, err),
			})
			continue
		}
		total.Inserted += stats.Inserted
		total.Updated += stats.Updated
		written += end - start
	}
	return total, written
}

func (im *Importer) report(stage Stage, percent int, message string) {
	safeReport(im.Progress, stage, percent, message)
}

func requestLinked(b *OpportunityBuilder, req RequestRow) bool {
	for _, token := range req.QuoteNumbers {
		if qn, ok := ParseInt(token); ok && b.IsMemberQuote(qn) {
			return true
		}
	}
	return false
}

func decodeUpload(u *Upload, maxRows int) ([]Record, error) {
	if u == nil || u.Body == nil {
		return nil, nil
	}
	return DecodeTable(u.Name, u.Body, maxRows)
}

func mapRecords[T any](rows []T, fn func(T) map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}

func fatalResult(file SourceFile, err error) ImportResult {
	return ImportResult{
		Success: false,
		Errors: []ImportError{{
			File:    file,
			Row:     0,
			Field:   "",
			Message: err.Error(),
		}},
	}
}
