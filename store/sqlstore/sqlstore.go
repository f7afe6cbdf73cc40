// Package sqlstore is the relational destination: canonical records are
// projected into rows across a set of tables and bulk-upserted in
// chunked transactions. Works against postgres (lib/pq) or sqlite3.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/store"
)

const DefaultChunkSize = 1000

// SQLStore implements store.Writer on top of an SQL database.
// Rows accumulate per table and are committed in a single transaction
// whenever the total pending row count crosses ChunkSize.
type SQLStore struct {
	db         *sql.DB
	driverName string
	ownsDB     bool

	// ChunkSize is the pending-row threshold which triggers a commit.
	ChunkSize int

	stats *store.Stats
	log   *zap.SugaredLogger

	run          store.RunInfo
	pending      record.Tables
	pendingCount int
	itemCount    int64
	purged       bool
}

// eg New("sqlite3", "/tmp/foo.db", stats, log)
// eg New("postgres", "postgres://username@localhost/dbname", stats, log)
func New(driver string, connStr string, stats *store.Stats, log *zap.SugaredLogger) (*SQLStore, error) {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, err
	}
	ss, err := NewFromDB(driver, db, stats, log)
	if err != nil {
		return nil, err
	}
	ss.ownsDB = true
	return ss, nil
}

// NewFromDB wraps an existing handle. The caller keeps ownership of db
// and is responsible for closing it.

func NewFromDB(driver string, db *sql.DB, stats *store.Stats, log *zap.SugaredLogger) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stats == nil {
		stats = store.NewStats()
	}

	ss := &SQLStore{
		db:         db,
		driverName: driver,
		ChunkSize:  DefaultChunkSize,
		stats:      stats,
		log:        log,
	}

	if err := ss.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return ss, nil
}

func (ss *SQLStore) rebind(q string) string {
	return rebind(bindType(ss.driverName), q)
}

func (ss *SQLStore) Open(ctx context.Context, run store.RunInfo) error {
	ss.run = run
	ss.pending = record.Tables{}
	ss.pendingCount = 0
	ss.itemCount = 0
	ss.purged = false

	if err := ss.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sql open: %w", err)
	}
	// ledger row goes in straight away so a crash mid-run leaves a
	// visible in_progress row rather than nothing
	if err := ss.upsertScrape(ctx, "in_progress", time.Time{}); err != nil {
		return fmt.Errorf("sql open: %w", err)
	}
	return nil
}

func (ss *SQLStore) Accept(ctx context.Context, rec record.Record) error {
	tables, err := record.ToRows(rec, ss.run.ID, ss.run.Spider)
	if err != nil {
		// record-level defect - count it, drop it, carry on
		ss.log.Warnw("[sql] dropping record", "error", err)
		ss.stats.Inc("sql/dropped_items", 1)
		ss.stats.Inc("errors", 1)
		return nil
	}
	for t, rows := range tables {
		if _, known := tableDefsByName[t]; !known {
			// rows for a table outside the schema would never flush
			ss.log.Warnw("[sql] dropping rows for unknown table", "table", t)
			ss.stats.Inc("sql/dropped_rows", int64(len(rows)))
			continue
		}
		ss.pending[t] = append(ss.pending[t], rows...)
		ss.pendingCount += len(rows)
	}
	ss.itemCount++

	if ss.pendingCount > ss.ChunkSize {
		return ss.Flush(ctx)
	}
	return nil
}

// Flush commits all pending rows (and a ledger update) in one
// transaction. The first flush of a run also purges rows left over from
// previous runs of the same spider.
func (ss *SQLStore) Flush(ctx context.Context) error {
	ss.log.Infow("[sql] committing records", "rows", ss.pendingCount, "spider", ss.run.Spider)

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if !ss.purged {
		if err = ss.purgeStaleRows(ctx, tx); err != nil {
			return fmt.Errorf("purge stale rows: %w", err)
		}
	}

	for _, def := range dataTables {
		rows := ss.pending[def.name]
		if len(rows) == 0 {
			continue
		}
		if err = ss.upsertRows(ctx, tx, def, rows); err != nil {
			return fmt.Errorf("upsert into %s: %w", def.name, err)
		}
		ss.stats.Inc("sql/rows/"+def.name, int64(len(rows)))
	}

	if err = ss.txUpsertScrape(ctx, tx, "in_progress", time.Time{}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	ss.purged = true
	ss.pending = record.Tables{}
	ss.pendingCount = 0
	return nil
}

func (ss *SQLStore) Close(ctx context.Context) error {
	if ss.db == nil {
		return nil
	}
	flushErr := ss.Flush(ctx)

	reason := "ok"
	if flushErr != nil || ss.stats.Get("errors") > 0 || ss.itemCount == 0 {
		reason = "errors"
	}
	ledgerErr := ss.upsertScrape(ctx, reason, time.Now())

	if ss.ownsDB {
		ss.db.Close()
	}
	ss.db = nil

	if flushErr != nil {
		return flushErr
	}
	return ledgerErr
}

// delete rows written by a previous run of this spider. Anything this
// run has refreshed carries the current scrape id and is kept.
func (ss *SQLStore) purgeStaleRows(ctx context.Context, tx *sql.Tx) error {
	for _, def := range dataTables {
		q := ss.rebind(fmt.Sprintf(
			`DELETE FROM %s WHERE spider=? AND scrape_id<>?`, def.name))
		result, err := tx.ExecContext(ctx, q, ss.run.Spider, ss.run.ID)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			ss.log.Infow("[sql] purged stale rows", "table", def.name, "rows", n)
			ss.stats.Inc("sql/purged/"+def.name, n)
		}
	}
	return nil
}

func (ss *SQLStore) upsertRows(ctx context.Context, tx *sql.Tx, def tableDef, rows []record.Row) error {
	q, err := ss.upsertSQL(def)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]interface{}, len(def.columns))
		for i, col := range def.columns {
			args[i] = cvtValue(row[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// upsertSQL builds the dialect-specific insert-or-replace statement for
// a table. On conflict every column is overwritten - latest write wins.
func (ss *SQLStore) upsertSQL(def tableDef) (string, error) {
	placeholders := strings.TrimRight(strings.Repeat("?,", len(def.columns)), ",")
	colList := strings.Join(def.columns, ",")

	switch ss.driverName {
	case "postgres", "pgx", "pq-timeouts", "cloudsqlpostgres":
		sets := make([]string, len(def.columns))
		for i, c := range def.columns {
			sets[i] = fmt.Sprintf("%s=EXCLUDED.%s", c, c)
		}
		q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s`,
			def.name, colList, placeholders,
			strings.Join(def.pks, ","), strings.Join(sets, ","))
		return ss.rebind(q), nil
	case "sqlite3":
		// no per-column conflict clause needed - REPLACE covers it
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (%s)`,
			def.name, colList, placeholders), nil
	default:
		return "", fmt.Errorf("no upsert support for driver %s", ss.driverName)
	}
}

// cvtValue readies a projected value for the sql driver. Structured
// values (lists, maps) become canonical JSON strings - none of the
// current tables carry them, but projections shouldn't silently break
// if one grows one.
func cvtValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case *int64:
		if val == nil {
			return nil
		}
		return *val
	case []string, []interface{}, map[string]interface{}, map[string]string:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return v
	}
}

func (ss *SQLStore) upsertScrape(ctx context.Context, reason string, finish time.Time) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := ss.txUpsertScrape(ctx, tx, reason, finish); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (ss *SQLStore) txUpsertScrape(ctx context.Context, tx *sql.Tx, reason string, finish time.Time) error {
	def := tableDef{
		name: "scrape",
		columns: []string{
			"id", "spider", "stats", "finish_reason", "errors",
			"start_time", "finish_time",
		},
		pks: []string{"id"},
	}
	q, err := ss.upsertSQL(def)
	if err != nil {
		return err
	}
	var finishVal interface{}
	if !finish.IsZero() {
		finishVal = finish
	}
	_, err = tx.ExecContext(ctx, q,
		ss.run.ID,
		ss.run.Spider,
		ss.stats.JSON(),
		reason,
		ss.stats.Get("errors"),
		ss.run.StartTime,
		finishVal)
	return err
}
