// Package ingest implements the Runtime Ingestor (C15): a per-record
// parse → extract → relatedness-check → accumulate → load pipeline that
// degrades gracefully at each stage rather than aborting the whole batch
// (spec.md §4.15). Modeled on the teacher's pkg/queue/executor.go: continue
// past a per-item failure, collect per-item outcomes, and roll them up into
// one terminal status.
package ingest

// SourceType discriminates how a record's Content must be parsed.
type SourceType string

const (
	SourceText SourceType = "text"
	SourceCSV  SourceType = "csv"
	SourcePDF  SourceType = "pdf"
)

// Record is one unit of input to Ingest. Content is raw text for
// SourceText/SourceCSV, and a base64-encoded document for SourcePDF.
type Record struct {
	SourceType SourceType `json:"source_type"`
	Content    string     `json:"content"`
}

// Options parameterizes a single Ingest call.
type Options struct {
	// RelatednessThreshold is the lowercase-name overlap ratio at or above
	// which the LM linker runs; any direct overlap also triggers linking
	// (spec.md §4.15 step 3 default 0.2).
	RelatednessThreshold float64
}

// DefaultOptions matches spec.md §4.15's stated default.
func DefaultOptions() Options {
	return Options{RelatednessThreshold: 0.2}
}

// Status is the ingest run's terminal outcome.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusSuccessWithFallback Status = "success_with_fallback"
	StatusPartialSuccess      Status = "partial_success"
	StatusFailed              Status = "failed"
)

// RecordOutcome is the per-record result spec.md §4.15 requires ("per-
// record errors/warnings").
type RecordOutcome struct {
	Index    int
	Error    string
	Warnings []string
	Loaded   bool
	SourceID string
}
