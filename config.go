package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gcfg.v1"

	"github.com/bcampbell/regomat/geo"
	"github.com/bcampbell/regomat/pipeline"
	"github.com/bcampbell/regomat/store"
	"github.com/bcampbell/regomat/store/csvstore"
	"github.com/bcampbell/regomat/store/esstore"
	"github.com/bcampbell/regomat/store/mongostore"
	"github.com/bcampbell/regomat/store/sqlstore"
)

// Config holds everything read from the .cfg file. A destination
// section left out of the file disables that destination.
type Config struct {
	Elasticsearch struct {
		URL       string
		Index     string
		BulkLimit int
	}
	MongoDB struct {
		URI       string
		Database  string
		BulkLimit int
	}
	SQL struct {
		Driver    string
		ConnStr   string
		ChunkSize int
	}
	CSV struct {
		Dir string
	}
	Postcodes struct {
		Disabled bool
		URL      string
		Field    []string
		Workers  int
	}
	Lookups struct {
		DualRegistered string
		ExtraNames     string
	}
	Source map[string]*SourceConf
}

// SourceConf is one [source "name"] section: where to find the raw CSV
// for that source.
type SourceConf struct {
	File string
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	err := gcfg.ReadFileInto(cfg, path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Writers builds a fresh set of destination writers for one run.
func (cfg *Config) Writers(ctx context.Context, stats *store.Stats, log *zap.SugaredLogger) ([]store.Writer, error) {
	var writers []store.Writer

	if cfg.Elasticsearch.URL != "" {
		index := cfg.Elasticsearch.Index
		if index == "" {
			index = "charitysearch"
		}
		sender, err := esstore.NewSender(cfg.Elasticsearch.URL)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		es := esstore.New(sender, index, stats, log)
		if cfg.Elasticsearch.BulkLimit > 0 {
			es.BulkLimit = cfg.Elasticsearch.BulkLimit
		}
		writers = append(writers, es)
	}

	if cfg.MongoDB.URI != "" {
		dbName := cfg.MongoDB.Database
		if dbName == "" {
			dbName = "charitysearch"
		}
		up, err := mongostore.NewUpserter(ctx, cfg.MongoDB.URI, dbName)
		if err != nil {
			return nil, fmt.Errorf("mongodb: %w", err)
		}
		ms := mongostore.New(up, stats, log)
		if cfg.MongoDB.BulkLimit > 0 {
			ms.BulkLimit = cfg.MongoDB.BulkLimit
		}
		writers = append(writers, ms)
	}

	if cfg.SQL.ConnStr != "" {
		driver := cfg.SQL.Driver
		if driver == "" {
			driver = "sqlite3"
		}
		ss, err := sqlstore.New(driver, cfg.SQL.ConnStr, stats, log)
		if err != nil {
			return nil, fmt.Errorf("sql: %w", err)
		}
		if cfg.SQL.ChunkSize > 0 {
			ss.ChunkSize = cfg.SQL.ChunkSize
		}
		writers = append(writers, ss)
	}

	if cfg.CSV.Dir != "" {
		writers = append(writers, csvstore.New(cfg.CSV.Dir, stats, log))
	}

	return writers, nil
}

// Enricher builds the postcode enricher, nil if disabled.
func (cfg *Config) Enricher(stats *store.Stats, log *zap.SugaredLogger) *geo.Enricher {
	if cfg.Postcodes.Disabled {
		return nil
	}
	urlTemplate := cfg.Postcodes.URL
	if urlTemplate == "" {
		urlTemplate = geo.DefaultURLTemplate
	}
	var fields []string
	for _, f := range cfg.Postcodes.Field {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return geo.NewEnricher(geo.NewHTTPLookup(urlTemplate), fields, stats, log)
}

// readLookupCSV slurps an auxiliary lookup CSV into rows. Missing path
// is fine, it just means the lookup isn't loaded.
func readLookupCSV(path string) ([]map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []map[string]string
	rr := pipeline.NewCSVRowReader(f)
	for {
		row, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
