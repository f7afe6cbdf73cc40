package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bcampbell/regomat/store"
)

const exampleCfg = `
[csv]
dir = out

[postcodes]
disabled = true

[source "oscr"]
file = data/oscr.csv

[source "ccni"]
file = data/ccni.csv
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regomat.cfg")
	require.NoError(t, os.WriteFile(path, []byte(exampleCfg), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.CSV.Dir)
	assert.True(t, cfg.Postcodes.Disabled)
	require.Contains(t, cfg.Source, "oscr")
	assert.Equal(t, "data/oscr.csv", cfg.Source["oscr"].File)

	// unconfigured destinations stay off
	assert.Empty(t, cfg.Elasticsearch.URL)
	assert.Empty(t, cfg.SQL.ConnStr)

	writers, err := cfg.Writers(context.Background(), store.NewStats(), zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Len(t, writers, 1) // just csv

	assert.Nil(t, cfg.Enricher(store.NewStats(), zap.NewNop().Sugar()))
}
