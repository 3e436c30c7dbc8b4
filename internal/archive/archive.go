// Package archive keeps a history of tally runs in a SQLite database. Each
// run records its source, its totals, and every item count, so earlier
// tallies can be reviewed after the backup file has been overwritten.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tally/internal/tally"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "tally.db"

// Archive errors.
var (
	ErrArchiveClosed = errors.New("archive is closed")
	ErrRunNotFound   = errors.New("run not found")
)

// Run describes one archived tally.
type Run struct {
	ID            string    `json:"run_id"`
	Source        string    `json:"source"`
	DistinctItems int       `json:"distinct_items"`
	TotalItems    int       `json:"total_items"`
	CreatedAt     time.Time `json:"created_at"`
}

// Archive is an open run history database.
type Archive struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// Open creates dataDir if needed, opens the database inside it, and applies
// the schema.
func Open(dataDir string) (*Archive, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// A single connection keeps PRAGMA settings in force for every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}

	return &Archive{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (a *Archive) Path() string {
	return a.dbPath
}

// Close releases the database. Close is idempotent.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Record stores the contents of t as a new run. The run row and all item
// rows are written in one transaction: either the whole run is archived or
// nothing is.
func (a *Archive) Record(source string, t *tally.Table, at time.Time) (Run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return Run{}, ErrArchiveClosed
	}

	run := Run{
		ID:            generateUUID(),
		Source:        source,
		DistinctItems: t.Len(),
		TotalItems:    t.Total(),
		CreatedAt:     at.UTC().Truncate(time.Second),
	}

	tx, err := a.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("beginning record transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, source, distinct_items, total_items, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.DistinctItems, run.TotalItems, run.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_items (run_id, name, count) VALUES (?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing item insert: %w", err)
	}
	defer stmt.Close()

	for name, count := range t.All() {
		if _, err := stmt.Exec(run.ID, name, count); err != nil {
			return Run{}, fmt.Errorf("inserting item %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing record transaction: %w", err)
	}
	return run, nil
}

// Runs returns every archived run, newest first.
func (a *Archive) Runs() ([]Run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil, ErrArchiveClosed
	}

	rows, err := a.db.Query(
		`SELECT run_id, source, distinct_items, total_items, created_at FROM runs ORDER BY created_at DESC, run_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.DistinctItems, &r.TotalItems, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Items returns the item counts of one run sorted by name. It returns
// ErrRunNotFound if no run has that ID.
func (a *Archive) Items(runID string) ([]tally.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil, ErrArchiveClosed
	}

	var exists int
	err := a.db.QueryRow(`SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up run %s: %w", runID, err)
	}

	// Byte-wise collation matches the ordering of tally.Table.
	rows, err := a.db.Query(
		`SELECT name, count FROM run_items WHERE run_id = ? ORDER BY name COLLATE BINARY`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying items of run %s: %w", runID, err)
	}
	defer rows.Close()

	items := []tally.Entry{}
	for rows.Next() {
		var e tally.Entry
		if err := rows.Scan(&e.Name, &e.Count); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// generateUUID generates a new UUID v7 for run IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
