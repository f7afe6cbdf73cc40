// Package pipeline runs one source end to end: static source metadata
// first, then every row through the source's transform, optional
// postcode enrichment, and out to each configured destination.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bcampbell/regomat/geo"
	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/sources"
	"github.com/bcampbell/regomat/store"
)

const DefaultEnrichWorkers = 8

type Pipeline struct {
	Writers  []store.Writer
	Enricher *geo.Enricher // nil disables postcode enrichment
	Stats    *store.Stats
	Log      *zap.SugaredLogger

	// EnrichWorkers bounds concurrent postcode lookups. Records still
	// reach the writers in arrival order.
	EnrichWorkers int
}

// RowReader yields raw rows one at a time, io.EOF when done.
type RowReader interface {
	Next() (map[string]string, error)
}

// job carries one transformed row through the enrichment stage. done
// closes once enrichment finishes, so the writer stage can consume
// jobs strictly in order while lookups overlap.
type job struct {
	recs []record.Record
	done chan struct{}
}

func (p *Pipeline) workers() int {
	if p.EnrichWorkers > 0 {
		return p.EnrichWorkers
	}
	return DefaultEnrichWorkers
}

// Run processes every row from in through spec's transform and writes
// the results to each destination. Destinations that fail to open (or
// fail mid-run) are dropped for the rest of the run; Run only errors
// if no destination is left standing or the context dies.
func (p *Pipeline) Run(ctx context.Context, spec *sources.Spec, in RowReader) error {
	run := store.RunInfo{
		ID:        uuid.NewString(),
		Spider:    spec.Name,
		StartTime: time.Now(),
	}
	p.Log.Infow("run starting", "source", spec.Name, "run_id", run.ID)

	active := p.openWriters(ctx, run)
	if len(active) == 0 {
		return fmt.Errorf("no destinations available for %s", spec.Name)
	}

	src := spec.Source
	active = p.dispatch(ctx, active, &src)
	if len(active) == 0 {
		return fmt.Errorf("all destinations failed during %s", spec.Name)
	}

	jobs := make(chan *job, p.workers())
	sem := make(chan struct{}, p.workers())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for {
			row, err := in.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading rows: %w", err)
			}

			recs, err := spec.Transform(row)
			if err != nil {
				p.Log.Warnw("row dropped", "source", spec.Name, "reason", err)
				p.Stats.Inc("pipeline/dropped_rows", 1)
				p.Stats.Inc("errors", 1)
				continue
			}
			if len(recs) == 0 {
				continue
			}

			j := &job{recs: recs, done: make(chan struct{})}
			if p.Enricher == nil {
				close(j.done)
			} else {
				select {
				case sem <- struct{}{}:
				case <-gctx.Done():
					return gctx.Err()
				}
				go func() {
					defer func() { <-sem }()
					defer close(j.done)
					for _, r := range j.recs {
						if org, ok := r.(*record.Organisation); ok {
							p.Enricher.Enrich(gctx, org)
						}
					}
				}()
			}

			select {
			case jobs <- j:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for j := range jobs {
			select {
			case <-j.done:
			case <-gctx.Done():
				return gctx.Err()
			}
			for _, r := range j.recs {
				p.Stats.Inc("items", 1)
				active = p.dispatch(gctx, active, r)
			}
			if len(active) == 0 {
				return fmt.Errorf("all destinations failed during %s", spec.Name)
			}
		}
		return nil
	})

	runErr := g.Wait()

	cctx := ctx
	if cctx.Err() != nil {
		// still give the writers a chance to record the run outcome
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}
	for _, w := range active {
		if err := w.Close(cctx); err != nil {
			p.Log.Errorw("destination close failed", "source", spec.Name, "error", err)
			p.Stats.Inc("errors", 1)
			if runErr == nil {
				runErr = err
			}
		}
	}

	p.Log.Infow("run finished", "source", spec.Name, "run_id", run.ID,
		"items", p.Stats.Get("items"), "errors", p.Stats.Get("errors"))
	return runErr
}

func (p *Pipeline) openWriters(ctx context.Context, run store.RunInfo) []store.Writer {
	active := make([]store.Writer, 0, len(p.Writers))
	for _, w := range p.Writers {
		if err := w.Open(ctx, run); err != nil {
			p.Log.Errorw("destination unavailable, skipping for this run",
				"destination", fmt.Sprintf("%T", w), "error", err)
			p.Stats.Inc("pipeline/destinations_skipped", 1)
			p.Stats.Inc("errors", 1)
			continue
		}
		active = append(active, w)
	}
	return active
}

// dispatch hands rec to every active writer, dropping any writer that
// returns a fatal error. Returns the surviving writers.
func (p *Pipeline) dispatch(ctx context.Context, writers []store.Writer, rec record.Record) []store.Writer {
	alive := writers[:0]
	for _, w := range writers {
		if err := w.Accept(ctx, rec); err != nil {
			p.Log.Errorw("destination failed, dropping for rest of run",
				"destination", fmt.Sprintf("%T", w), "error", err)
			p.Stats.Inc("pipeline/destinations_dropped", 1)
			p.Stats.Inc("errors", 1)
			w.Close(ctx)
			continue
		}
		alive = append(alive, w)
	}
	return alive
}
