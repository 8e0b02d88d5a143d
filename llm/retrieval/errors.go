package retrieval

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is returned when ingest receives zero-length content, or
// content that produces no chunks after filtering. No document is created.
var ErrEmptyContent = errors.New("content is empty or produced no chunks")

// Ingest stages, reported by IngestError.
const (
	StageChunk   = "chunk"
	StageEmbed   = "embed"
	StagePersist = "persist"
)

// IngestError reports a failed ingest. Chunks written before the failure are
// not rolled back, so Written/Total tell the caller how much of the document
// landed; the caller decides whether to retry or delete the partial chunks.
type IngestError struct {
	Stage   string // chunk, embed or persist
	Written int    // chunks durably written before the failure
	Total   int    // chunks the document produced
	Err     error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest failed at %s stage (%d of %d chunks written): %v",
		e.Stage, e.Written, e.Total, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }
