// Package audit persists the venue's event stream to a SQL trail, the
// durable complement to internal/eventstream's live broadcast. Grounded
// on the teacher's internal/storage/relationaldb/postgres package: a
// schema-on-open database/sql wrapper reached through a driver name,
// adapted from rippled's ledgers/transactions tables to a single
// append-only events table. The driver is selected the same way the
// teacher selects postgres vs sqlite (relationaldb.Config.Driver) —
// here via internal/config's AuditConfig.Driver, which picks between
// github.com/lib/pq (postgres) and modernc.org/sqlite (embedded, no
// cgo), both blank-imported below.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Record is one durable row: an emitted event plus the metadata needed
// to replay or inspect the trail later.
type Record struct {
	Seq       int64
	Kind      string
	Payload   string
	EmittedAt int64
}

// Trail appends events to a SQL table and reads them back in order.
type Trail struct {
	db     *sql.DB
	driver string
}

// sqlDriverName maps a configured audit driver to the database/sql
// driver name registered by its blank import above.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case "postgres":
		return "postgres", nil
	case "sqlite":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("audit: unsupported driver %q", driver)
	}
}

// Open connects to dsn using driver ("postgres" or "sqlite") and
// ensures the events table exists.
func Open(ctx context.Context, driver, dsn string) (*Trail, error) {
	sqlDriver, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: opening %s: %w", driver, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: pinging %s: %w", driver, err)
	}

	t := &Trail{db: db, driver: driver}
	if err := t.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

func (t *Trail) initSchema(ctx context.Context) error {
	schema := `CREATE TABLE IF NOT EXISTS events (
		seq %s,
		kind VARCHAR(64) NOT NULL,
		payload TEXT NOT NULL,
		emitted_at BIGINT NOT NULL
	)`
	serial := "BIGSERIAL PRIMARY KEY"
	if t.driver == "sqlite" {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	if _, err := t.db.ExecContext(ctx, fmt.Sprintf(schema, serial)); err != nil {
		return fmt.Errorf("audit: creating events table: %w", err)
	}
	if _, err := t.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`); err != nil {
		return fmt.Errorf("audit: creating kind index: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (t *Trail) Close() error { return t.db.Close() }

// Append records one event under kind, JSON-encoding payload.
func (t *Trail) Append(ctx context.Context, kind string, payload any, emittedAt int64) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("audit: encoding %s payload: %w", kind, err)
	}
	_, err = t.db.ExecContext(ctx,
		`INSERT INTO events (kind, payload, emitted_at) VALUES ($1, $2, $3)`,
		kind, string(blob), emittedAt)
	if err != nil {
		return fmt.Errorf("audit: appending %s event: %w", kind, err)
	}
	return nil
}

// Since returns every event recorded with seq strictly greater than
// afterSeq, oldest first.
func (t *Trail) Since(ctx context.Context, afterSeq int64) ([]Record, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT seq, kind, payload, emitted_at FROM events WHERE seq > $1 ORDER BY seq ASC`,
		afterSeq)
	if err != nil {
		return nil, fmt.Errorf("audit: querying events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Seq, &r.Kind, &r.Payload, &r.EmittedAt); err != nil {
			return nil, fmt.Errorf("audit: scanning event row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the total number of recorded events.
func (t *Trail) Count(ctx context.Context) (int64, error) {
	var n int64
	err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit: counting events: %w", err)
	}
	return n, nil
}
