package esstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	elastic "gopkg.in/olivere/elastic.v2"

	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/store"
)

// fakeSender pretends to be a cluster, failing a configurable number of
// documents per bulk.
type fakeSender struct {
	healthErr error
	bulks     [][]elastic.BulkableRequest
	failPer   int
}

func (f *fakeSender) Health() error { return f.healthErr }

func (f *fakeSender) Bulk(reqs []elastic.BulkableRequest) (*elastic.BulkResponse, error) {
	f.bulks = append(f.bulks, reqs)
	items := []map[string]*elastic.BulkResponseItem{}
	for i := range reqs {
		item := &elastic.BulkResponseItem{Status: 200}
		if i < f.failPer {
			item.Status = 500
			item.Error = fmt.Sprintf("simulated failure %d", i)
		}
		items = append(items, map[string]*elastic.BulkResponseItem{"index": item})
	}
	return &elastic.BulkResponse{Items: items}, nil
}

func org(id string) *record.Organisation {
	return &record.Organisation{ID: id, Name: "Trust " + id, Active: true, OrgIDs: []string{id}}
}

func TestOpenFailsWhenClusterDown(t *testing.T) {
	sender := &fakeSender{healthErr: errors.New("no route to host")}
	es := New(sender, "charitysearch", nil, nil)
	assert.Error(t, es.Open(context.Background(), store.RunInfo{ID: "r1", Spider: "oscr"}))
}

func TestBulkAtLimitAndClose(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	stats := store.NewStats()
	es := New(sender, "charitysearch", stats, nil)
	es.BulkLimit = 3

	require.NoError(t, es.Open(ctx, store.RunInfo{ID: "r1", Spider: "oscr"}))
	for i := 0; i < 7; i++ {
		require.NoError(t, es.Accept(ctx, org(fmt.Sprintf("GB-SC-%06d", i))))
	}
	require.NoError(t, es.Close(ctx))

	// 3 + 3 at the limit, 1 at close
	require.Len(t, sender.bulks, 3)
	assert.Len(t, sender.bulks[0], 3)
	assert.Len(t, sender.bulks[2], 1)
	assert.Equal(t, int64(7), stats.Get("elasticsearch/attempted_items"))
	assert.Equal(t, int64(7), stats.Get("elasticsearch/indexed_items"))
	assert.Equal(t, int64(0), stats.Get("elasticsearch/errors"))
}

func TestRecordsWithoutIDAreDropped(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	stats := store.NewStats()
	es := New(sender, "charitysearch", stats, nil)

	require.NoError(t, es.Open(ctx, store.RunInfo{ID: "r1", Spider: "manual_links"}))
	// link with a missing side has no derivable _id
	require.NoError(t, es.Accept(ctx, &record.Link{OrganisationIDA: "GB-CHC-1"}))
	require.NoError(t, es.Close(ctx))

	assert.Empty(t, sender.bulks)
	assert.Equal(t, int64(1), stats.Get("elasticsearch/dropped_items"))
}

func TestPartialBulkFailureCounted(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{failPer: 2}
	stats := store.NewStats()
	es := New(sender, "charitysearch", stats, nil)

	require.NoError(t, es.Open(ctx, store.RunInfo{ID: "r1", Spider: "oscr"}))
	for i := 0; i < 5; i++ {
		require.NoError(t, es.Accept(ctx, org(fmt.Sprintf("GB-SC-%06d", i))))
	}
	require.NoError(t, es.Close(ctx))

	assert.Equal(t, int64(5), stats.Get("elasticsearch/attempted_items"))
	assert.Equal(t, int64(3), stats.Get("elasticsearch/indexed_items"))
	assert.Equal(t, int64(2), stats.Get("elasticsearch/errors"))
	// attempted == indexed + errors
	assert.Equal(t,
		stats.Get("elasticsearch/attempted_items"),
		stats.Get("elasticsearch/indexed_items")+stats.Get("elasticsearch/errors"))
}
