// Package store defines the contract between the scrape pipeline and
// the destinations canonical records are written to. Each destination
// (search index, document store, relational db, csv export) implements
// Writer; the pipeline fans records out to whichever are configured.
package store

import (
	"context"
	"time"

	"github.com/bcampbell/regomat/record"
)

// RunInfo identifies one execution of one source's pipeline. ID is
// fresh per run; Spider is the source name and is stable across runs.
type RunInfo struct {
	ID        string
	Spider    string
	StartTime time.Time
}

// Writer is one destination for canonical records.
//
// Open is called once at the start of a run; an error means the
// destination is unavailable and will be skipped for the whole run.
// Accept hands over one record - implementations batch internally and
// may block while flushing a full batch. Flush forces out anything
// pending. Close flushes and releases the connection.
//
// Record-level problems (eg a record with no primary key) are counted
// and logged by the Writer itself, never returned as errors.
type Writer interface {
	Open(ctx context.Context, run RunInfo) error
	Accept(ctx context.Context, rec record.Record) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}
