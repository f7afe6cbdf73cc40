// Package csvstore is the flat-file destination: one CSV per record
// type under a data directory. Rewriting a file keeps rows belonging to
// other sources and replaces only the current source's rows, so the
// directory always holds the union of the latest run of every source.
package csvstore

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/flytam/filenamify"
	"go.uber.org/zap"

	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/store"
)

// CSVStore implements store.Writer on top of a directory of CSV files.
type CSVStore struct {
	dir   string
	stats *store.Stats
	log   *zap.SugaredLogger

	run store.RunInfo
	// rows accumulated this run, per record type
	pending map[string][]map[string]string
}

func New(dir string, stats *store.Stats, log *zap.SugaredLogger) *CSVStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stats == nil {
		stats = store.NewStats()
	}
	return &CSVStore{dir: dir, stats: stats, log: log}
}

func (cs *CSVStore) Open(ctx context.Context, run store.RunInfo) error {
	if err := os.MkdirAll(cs.dir, 0755); err != nil {
		return fmt.Errorf("csv open: %w", err)
	}
	cs.run = run
	cs.pending = map[string][]map[string]string{}
	return nil
}

func (cs *CSVStore) Accept(ctx context.Context, rec record.Record) error {
	collection, id, body, err := record.ToDocument(rec)
	if err != nil {
		cs.log.Warnw("[csv] dropping record with no id", "error", err)
		cs.stats.Inc("csv/dropped_items", 1)
		return nil
	}

	row := map[string]string{"id": id}
	for k, v := range body {
		row[k] = flatten(v)
	}
	cs.pending[collection] = append(cs.pending[collection], row)
	return nil
}

// Flush is a no-op; files are rewritten wholesale at Close so other
// sources' rows are only re-read once.
func (cs *CSVStore) Flush(ctx context.Context) error {
	return nil
}

func (cs *CSVStore) Close(ctx context.Context) error {
	for collection, rows := range cs.pending {
		if err := cs.rewrite(collection, rows); err != nil {
			return fmt.Errorf("csv close: %w", err)
		}
		cs.stats.Inc("csv/"+collection+"_items", int64(len(rows)))
	}
	cs.pending = nil
	return nil
}

func (cs *CSVStore) path(collection string) (string, error) {
	name, err := filenamify.Filenamify(collection+".csv", filenamify.Options{})
	if err != nil {
		return "", err
	}
	return filepath.Join(cs.dir, name), nil
}

// rewrite writes a type's CSV: rows from other sources kept as-is, the
// current source's rows replaced with this run's output.
func (cs *CSVStore) rewrite(collection string, rows []map[string]string) error {
	path, err := cs.path(collection)
	if err != nil {
		return err
	}

	keyField := "source"
	if collection == "source" {
		keyField = "id"
	}

	existing, fields, err := readOtherSources(path, keyField, cs.run.Spider)
	if err != nil {
		return err
	}
	fields = mergeFields(fields, rows)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		return err
	}
	writeRow := func(row map[string]string) error {
		out := make([]string, len(fields))
		for i, field := range fields {
			out[i] = row[field]
		}
		return w.Write(out)
	}
	for _, row := range existing {
		if err := writeRow(row); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := writeRow(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// readOtherSources loads the rows of an existing CSV which don't belong
// to the current source. A missing file is fine - first run.
func readOtherSources(path, keyField, spider string) ([]map[string]string, []string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		// empty file - treat as missing
		return nil, nil, nil
	}

	rows := []map[string]string{}
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		row := map[string]string{}
		for i, field := range header {
			if i < len(rec) {
				row[field] = rec[i]
			}
		}
		if row[keyField] != spider {
			rows = append(rows, row)
		}
	}
	return rows, header, nil
}

// fieldList derives a stable column order from accumulated rows: id
// first, the rest sorted.
func fieldList(rows []map[string]string) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	delete(seen, "id")
	fields := make([]string, 0, len(seen)+1)
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return append([]string{"id"}, fields...)
}

// mergeFields extends an existing header with any columns this run's
// rows carry that the old file didn't. Old columns keep their position
// so other sources' rows line up; new ones go on the end, sorted.
func mergeFields(header []string, rows []map[string]string) []string {
	if header == nil {
		return fieldList(rows)
	}
	have := map[string]bool{}
	for _, field := range header {
		have[field] = true
	}
	extra := []string{}
	for _, row := range rows {
		for k := range row {
			if !have[k] {
				have[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(header, extra...)
}

// flatten renders a document value as a single CSV cell. Structured
// values become canonical JSON.
func flatten(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
