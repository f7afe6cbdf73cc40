package mongostore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/store"
)

// fakeUpserter records bulks and simulates write errors for the first
// failPer documents of each bulk.
type fakeUpserter struct {
	pingErr      error
	bulks        map[string][][]mongo.WriteModel
	failPer      int
	disconnected bool
}

func newFakeUpserter() *fakeUpserter {
	return &fakeUpserter{bulks: map[string][][]mongo.WriteModel{}}
}

func (f *fakeUpserter) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeUpserter) BulkUpsert(ctx context.Context, collection string, models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	f.bulks[collection] = append(f.bulks[collection], models)

	failed := f.failPer
	if failed > len(models) {
		failed = len(models)
	}
	result := &mongo.BulkWriteResult{
		UpsertedCount: int64(len(models) - failed),
	}
	if failed == 0 {
		return result, nil
	}
	bwe := mongo.BulkWriteException{}
	for i := 0; i < failed; i++ {
		bwe.WriteErrors = append(bwe.WriteErrors, mongo.BulkWriteError{
			WriteError: mongo.WriteError{
				Index:   i,
				Code:    11000,
				Message: fmt.Sprintf("simulated write error %d", i),
			},
		})
	}
	return result, bwe
}

func (f *fakeUpserter) Disconnect(ctx context.Context) error {
	f.disconnected = true
	return nil
}

func org(id string) *record.Organisation {
	return &record.Organisation{ID: id, Name: "Trust " + id, Active: true, OrgIDs: []string{id}}
}

func TestOpenFailsWhenServerDown(t *testing.T) {
	fake := newFakeUpserter()
	fake.pingErr = errors.New("server selection timeout")
	ms := New(fake, nil, nil)
	assert.Error(t, ms.Open(context.Background(), store.RunInfo{ID: "r1", Spider: "oscr"}))
}

func TestGroupedByCollection(t *testing.T) {
	ctx := context.Background()
	fake := newFakeUpserter()
	stats := store.NewStats()
	ms := New(fake, stats, nil)

	require.NoError(t, ms.Open(ctx, store.RunInfo{ID: "r1", Spider: "oscr"}))
	require.NoError(t, ms.Accept(ctx, org("GB-SC-000001")))
	require.NoError(t, ms.Accept(ctx, org("GB-SC-000002")))
	require.NoError(t, ms.Accept(ctx, &record.Source{Identifier: "oscr", Title: "OSCR"}))
	require.NoError(t, ms.Close(ctx))

	require.Len(t, fake.bulks["organisation"], 1)
	assert.Len(t, fake.bulks["organisation"][0], 2)
	require.Len(t, fake.bulks["source"], 1)
	assert.True(t, fake.disconnected)
	assert.Equal(t, int64(3), stats.Get("mongodb/attempted_items"))
	assert.Equal(t, int64(3), stats.Get("mongodb/upserted_items"))
}

func TestBulkLimitTriggersFlush(t *testing.T) {
	ctx := context.Background()
	fake := newFakeUpserter()
	ms := New(fake, nil, nil)
	ms.BulkLimit = 2

	require.NoError(t, ms.Open(ctx, store.RunInfo{ID: "r1", Spider: "oscr"}))
	for i := 0; i < 5; i++ {
		require.NoError(t, ms.Accept(ctx, org(fmt.Sprintf("GB-SC-%06d", i))))
	}
	require.NoError(t, ms.Close(ctx))

	// 2 + 2 at the limit, 1 at close
	require.Len(t, fake.bulks["organisation"], 3)
}

func TestPartialWriteFailure(t *testing.T) {
	ctx := context.Background()
	fake := newFakeUpserter()
	fake.failPer = 2
	stats := store.NewStats()
	ms := New(fake, stats, nil)

	require.NoError(t, ms.Open(ctx, store.RunInfo{ID: "r1", Spider: "oscr"}))
	for i := 0; i < 6; i++ {
		require.NoError(t, ms.Accept(ctx, org(fmt.Sprintf("GB-SC-%06d", i))))
	}
	require.NoError(t, ms.Close(ctx))

	// written + errored accounts for every attempted document
	assert.Equal(t, int64(6), stats.Get("mongodb/attempted_items"))
	assert.Equal(t, int64(4), stats.Get("mongodb/upserted_items"))
	assert.Equal(t, int64(2), stats.Get("mongodb/errors"))
	assert.Equal(t,
		stats.Get("mongodb/attempted_items"),
		stats.Get("mongodb/upserted_items")+stats.Get("mongodb/errors"))
}

func TestDroppedWithoutID(t *testing.T) {
	ctx := context.Background()
	fake := newFakeUpserter()
	stats := store.NewStats()
	ms := New(fake, stats, nil)

	require.NoError(t, ms.Open(ctx, store.RunInfo{ID: "r1", Spider: "manual_links"}))
	require.NoError(t, ms.Accept(ctx, &record.Link{OrganisationIDB: "GB-CHC-1"}))
	require.NoError(t, ms.Close(ctx))

	assert.Empty(t, fake.bulks)
	assert.Equal(t, int64(1), stats.Get("mongodb/dropped_items"))
}
