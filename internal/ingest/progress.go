package ingest

import "github.com/rs/zerolog"

// Stage is a named milestone of an import run.
type Stage string

const (
	StageParsing       Stage = "parsing"
	StageQuotes        Stage = "quotes"
	StageOpportunities Stage = "opportunities"
	StageJobs          Stage = "jobs"
	StageRequests      Stage = "requests"
	StageComplete      Stage = "complete"
)

// ProgressReporter receives fire-and-forget milestone updates. Implementations
// must not block; the importer ignores anything they do.
type ProgressReporter interface {
	Report(stage Stage, percent int, message string)
}

// ProgressFunc adapts a plain function to ProgressReporter.
type ProgressFunc func(stage Stage, percent int, message string)

func (f ProgressFunc) Report(stage Stage, percent int, message string) {
	f(stage, percent, message)
}

type nopProgress struct{}

func (nopProgress) Report(Stage, int, string) {}

// LogProgress writes each milestone as a debug log entry.
func LogProgress(logger zerolog.Logger) ProgressReporter {
	return ProgressFunc(func(stage Stage, percent int, message string) {
		logger.Debug().Str("stage", string(stage)).Int("percent", percent).Msg(message)
	})
}

// safeReport shields the run from a panicking reporter.
func safeReport(p ProgressReporter, stage Stage, percent int, message string) {
	if p == nil {
		return
	}
	defer func() { _ = recover() }()
	p.Report(stage, percent, message)
}
