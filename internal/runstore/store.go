// Package runstore persists extraction run records durably: a SQLite store
// for queryable run and triple history, and flat JSON files for replay.
package runstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/biograph/internal/kgextract"
)

// Store persists run records to SQLite with write-through semantics: the
// caller keeps its in-memory record, SaveRun writes the durable copy. The full
// record is stored as JSON for replay; integrated triples additionally get
// their own rows so the accumulated graph can be queried without decoding
// every record.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	doi             TEXT NOT NULL DEFAULT '',
	started_at      TEXT NOT NULL DEFAULT '',
	completed_at    TEXT NOT NULL DEFAULT '',
	segment_count   INTEGER NOT NULL DEFAULT 0,
	entity_count    INTEGER NOT NULL DEFAULT 0,
	degraded_stages TEXT NOT NULL DEFAULT '[]',
	record          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS triples (
	run_id     TEXT NOT NULL,
	position   INTEGER NOT NULL,
	head       TEXT NOT NULL,
	relation   TEXT NOT NULL,
	tail       TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	clarity    REAL NOT NULL DEFAULT 0,
	relevance  REAL NOT NULL DEFAULT 0,
	source     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);
`

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes the run row and its integrated triples in one transaction.
// Saving the same run twice replaces the previous rows.
func (s *Store) SaveRun(rec kgextract.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	title, doi := "", ""
	if rec.Metadata != nil {
		title, doi = rec.Metadata.Title, rec.Metadata.DOI
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO runs (run_id, title, doi, started_at, completed_at, segment_count, entity_count, degraded_stages, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		title,
		doi,
		timeString(rec.StartedAt),
		timeString(rec.CompletedAt),
		len(rec.Segments),
		len(rec.Entities),
		marshalList(rec.DegradedStages),
		string(blob),
	); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM triples WHERE run_id = ?`, rec.RunID); err != nil {
		return fmt.Errorf("clear triples: %w", err)
	}
	for i, t := range rec.IntegratedTriples {
		if _, err := tx.Exec(`INSERT INTO triples (run_id, position, head, relation, tail, confidence, clarity, relevance, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, i, t.Head, t.Relation, t.Tail, t.Confidence, t.Clarity, t.Relevance, t.Source,
		); err != nil {
			return fmt.Errorf("save triple %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// LoadRun decodes the stored record for one run.
func (s *Store) LoadRun(runID string) (kgextract.RunRecord, error) {
	var blob string
	err := s.db.Get(&blob, `SELECT record FROM runs WHERE run_id = ?`, runID)
	if err == sql.ErrNoRows {
		return kgextract.RunRecord{}, fmt.Errorf("run %s: not found", runID)
	}
	if err != nil {
		return kgextract.RunRecord{}, fmt.Errorf("load run %s: %w", runID, err)
	}
	return kgextract.RunRecordFromJSON([]byte(blob))
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	RunID       string `db:"run_id" json:"run_id"`
	Title       string `db:"title" json:"title"`
	DOI         string `db:"doi" json:"doi"`
	StartedAt   string `db:"started_at" json:"started_at"`
	CompletedAt string `db:"completed_at" json:"completed_at"`
	TripleCount int    `db:"triple_count" json:"triple_count"`
}

// ListRuns returns run summaries, newest first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	var out []RunSummary
	err := s.db.Select(&out, `SELECT r.run_id, r.title, r.doi, r.started_at, r.completed_at,
		(SELECT COUNT(*) FROM triples t WHERE t.run_id = r.run_id) AS triple_count
		FROM runs r ORDER BY r.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// AllTriples returns every integrated triple across all runs in run order,
// the durable counterpart of the pipeline's accumulated accepted set.
func (s *Store) AllTriples() ([]kgextract.Triple, error) {
	rows, err := s.db.Query(`SELECT t.head, t.relation, t.tail, t.confidence, t.clarity, t.relevance, t.source
		FROM triples t JOIN runs r ON r.run_id = t.run_id
		ORDER BY r.started_at, t.position`)
	if err != nil {
		return nil, fmt.Errorf("query triples: %w", err)
	}
	defer rows.Close()

	var out []kgextract.Triple
	for rows.Next() {
		var t kgextract.Triple
		if err := rows.Scan(&t.Head, &t.Relation, &t.Tail, &t.Confidence, &t.Clarity, &t.Relevance, &t.Source); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func marshalList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
