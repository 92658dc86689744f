package site

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsite/internal/linkcheck"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what a build did.
type Report struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	Items          int // pages discovered
	Pages          int // pages written
	Passthrough    int // files copied verbatim
	Collections    map[string]int
	BrokenLinks    []linkcheck.Broken
	StageDurations map[StageName]time.Duration
	Warnings       []error
	Err            error
	Outcome        Outcome
}

func newReport(id string, start time.Time) *Report {
	return &Report{
		BuildID:        id,
		Start:          start,
		Collections:    make(map[string]int),
		StageDurations: make(map[StageName]time.Duration),
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r *Report) deriveOutcome(canceled bool) {
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case r.Err != nil:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

func (r *Report) metricsOutcome() metrics.BuildOutcomeLabel {
	switch r.Outcome {
	case OutcomeWarning:
		return metrics.BuildOutcomeWarning
	case OutcomeFailed:
		return metrics.BuildOutcomeFailed
	case OutcomeCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeSuccess
	}
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("pages=%d/%d passthrough=%d collections=%d broken_links=%d warnings=%d duration=%s outcome=%s",
		r.Pages, r.Items, r.Passthrough, len(r.Collections), len(r.BrokenLinks), len(r.Warnings),
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}
