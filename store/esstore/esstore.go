// Package esstore is the search-index destination: canonical records
// are bulk-indexed into elasticsearch, keyed by their primary key.
package esstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	elastic "gopkg.in/olivere/elastic.v2"

	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/store"
)

const DefaultBulkLimit = 500

// Sender is the thin slice of the elasticsearch client we use - health
// check at open, bulk submit on flush. Broken out so tests can fake the
// cluster.
type Sender interface {
	Health() error
	Bulk(reqs []elastic.BulkableRequest) (*elastic.BulkResponse, error)
}

type clientSender struct {
	client *elastic.Client
}

func (cs *clientSender) Health() error {
	_, err := cs.client.ClusterHealth().Do()
	return err
}

func (cs *clientSender) Bulk(reqs []elastic.BulkableRequest) (*elastic.BulkResponse, error) {
	bulk := cs.client.Bulk()
	for _, r := range reqs {
		bulk.Add(r)
	}
	return bulk.Do()
}

// NewSender connects to an elasticsearch cluster.
func NewSender(esURL string) (Sender, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(esURL),
		elastic.SetSniff(false),
	)
	if err != nil {
		return nil, err
	}
	return &clientSender{client: client}, nil
}

// ESStore implements store.Writer against a search index.
type ESStore struct {
	sender Sender
	index  string

	// BulkLimit is the pending-document count which triggers a bulk
	// submit.
	BulkLimit int

	stats *store.Stats
	log   *zap.SugaredLogger

	pending []elastic.BulkableRequest
}

func New(sender Sender, index string, stats *store.Stats, log *zap.SugaredLogger) *ESStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stats == nil {
		stats = store.NewStats()
	}
	return &ESStore{
		sender:    sender,
		index:     index,
		BulkLimit: DefaultBulkLimit,
		stats:     stats,
		log:       log,
	}
}

// Open verifies the cluster is reachable. Failure here disables the
// destination for the whole run.
func (es *ESStore) Open(ctx context.Context, run store.RunInfo) error {
	if err := es.sender.Health(); err != nil {
		return fmt.Errorf("elasticsearch connection failed: %w", err)
	}
	es.pending = nil
	return nil
}

func (es *ESStore) Accept(ctx context.Context, rec record.Record) error {
	docType, id, body, err := record.ToDocument(rec)
	if err != nil {
		es.log.Warnw("[elasticsearch] cannot save item with no id", "error", err)
		es.stats.Inc("elasticsearch/dropped_items", 1)
		return nil
	}

	es.pending = append(es.pending, elastic.NewBulkIndexRequest().
		Index(es.index).
		Type(docType).
		Id(id).
		Doc(body))

	if len(es.pending) >= es.BulkLimit {
		return es.Flush(ctx)
	}
	return nil
}

func (es *ESStore) Flush(ctx context.Context) error {
	if len(es.pending) == 0 {
		return nil
	}
	attempted := len(es.pending)
	es.stats.Inc("elasticsearch/attempted_items", int64(attempted))

	resp, err := es.sender.Bulk(es.pending)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk: %w", err)
	}
	es.pending = nil

	failed := resp.Failed()
	indexed := attempted - len(failed)
	es.log.Infow("[elasticsearch] saved records", "indexed", indexed, "index", es.index)
	es.stats.Inc("elasticsearch/indexed_items", int64(indexed))

	if len(failed) > 0 {
		es.log.Infow("[elasticsearch] errors reported", "errors", len(failed))
		for i, item := range failed {
			if i >= 5 {
				break
			}
			es.log.Info(item.Error)
		}
		es.stats.Inc("elasticsearch/errors", int64(len(failed)))
		es.stats.Inc("errors", int64(len(failed)))
	}
	return nil
}

func (es *ESStore) Close(ctx context.Context) error {
	return es.Flush(ctx)
}
