package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots in a local SQLite file. Used when the engine
// runs on a node without Redis — the snapshot survives process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// snapshots table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		namespace  TEXT NOT NULL,
		exam_id    TEXT NOT NULL,
		payload    BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, exam_id)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, snap *model.Snapshot) error {
	raw, err := Encode(snap)
	if err != nil {
		return err
	}

	// Full-row upsert: the previous payload is always replaced wholesale.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (namespace, exam_id, payload, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (namespace, exam_id) DO UPDATE
		 SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		snap.Namespace, snap.ExamID.String(), raw,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, namespace string, examID uuid.UUID) (*model.Snapshot, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE namespace = ? AND exam_id = ?`,
		namespace, examID.String(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return Decode(raw)
}

func (s *SQLiteStore) Delete(ctx context.Context, namespace string, examID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE namespace = ? AND exam_id = ?`,
		namespace, examID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
