package main

// print run history from the scrape ledger

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	var driver = flag.String("driver", "sqlite3", "sql driver (sqlite3 or postgres)")
	var connStr = flag.String("database", "regomat.db", "database connection string")
	var source = flag.String("source", "", "limit to one source")
	var limit = flag.Int("n", 20, "max runs to show")
	flag.Parse()

	db, err := sql.Open(*driver, *connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	defer db.Close()

	query := `SELECT id, spider, start_time, finish_time, finish_reason, errors, stats
		FROM scrape`
	args := []interface{}{}
	if *source != "" {
		query += ` WHERE spider=?`
		args = append(args, *source)
	}
	query += fmt.Sprintf(` ORDER BY start_time DESC LIMIT %d`, *limit)
	if *driver == "postgres" {
		query = rebindDollar(query)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSOURCE\tSTARTED\tFINISHED\tRESULT\tITEMS\tERRORS")
	for rows.Next() {
		var id, spider string
		var started, finished, reason sql.NullString
		var errCnt sql.NullInt64
		var statsJSON sql.NullString
		if err := rows.Scan(&id, &spider, &started, &finished, &reason, &errCnt, &statsJSON); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			id, spider, started.String, finished.String, reason.String,
			itemCount(statsJSON.String), errCnt.Int64)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	w.Flush()
}

// itemCount digs the items counter out of the stored stats blob.
func itemCount(statsJSON string) int64 {
	if statsJSON == "" {
		return 0
	}
	stats := map[string]int64{}
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		return 0
	}
	return stats["items"]
}

// rebindDollar converts ? placeholders to postgres $n form.
func rebindDollar(query string) string {
	out := []byte{}
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
