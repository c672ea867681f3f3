package cache

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/importguard/importguard/pkg/report"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS results (
	fingerprint TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// SQLite is a Store persisted in a single-file SQLite database, so cached
// results survive between runs. Writes go through transactions; a reader
// sees either the previous entry or the new one, never a torn payload.
// Every failure is swallowed into a miss or no-op.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the cache database inside dir.
func OpenSQLite(dir string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, logger: logger}, nil
}

// Close releases the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(fp Fingerprint) (*report.ContractCheck, bool) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM results WHERE fingerprint = ?`, string(fp)).Scan(&payload)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Debug("cache read failed", "error", err)
		}
		return nil, false
	}

	var check report.ContractCheck
	if err := json.Unmarshal(payload, &check); err != nil {
		// Corrupted entry: drop it and recompute.
		s.logger.Debug("cache entry corrupted", "fingerprint", string(fp), "error", err)
		_, _ = s.db.Exec(`DELETE FROM results WHERE fingerprint = ?`, string(fp))
		return nil, false
	}
	return &check, true
}

func (s *SQLite) Put(fp Fingerprint, check *report.ContractCheck) {
	payload, err := json.Marshal(check)
	if err != nil {
		s.logger.Debug("cache encode failed", "error", err)
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Debug("cache write failed", "error", err)
		return
	}
	if _, err := tx.Exec(
		`INSERT INTO results (fingerprint, payload) VALUES (?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET payload = excluded.payload`,
		string(fp), payload,
	); err != nil {
		_ = tx.Rollback()
		s.logger.Debug("cache write failed", "error", err)
		return
	}
	if err := tx.Commit(); err != nil {
		s.logger.Debug("cache write failed", "error", err)
	}
}
