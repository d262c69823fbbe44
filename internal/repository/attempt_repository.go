package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fluentia/exam-engine/internal/model"
)

// ErrRecordNotFound is returned when no attempt record matches.
var ErrRecordNotFound = errors.New("attempt record not found")

// AttemptRepository handles durable attempt record data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Upsert stores an attempt record. Re-delivery of the same (exam, namespace)
// record keeps the first result id.
func (r *AttemptRepository) Upsert(ctx context.Context, rec *model.AttemptRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempt_records (exam_id, namespace, result_id, mode, answer_count, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (exam_id, namespace) DO NOTHING`,
		rec.ExamID, rec.Namespace, rec.ResultID, rec.Mode, rec.AnswerCount, rec.SubmittedAt)
	return err
}

// GetByExamAndNamespace retrieves the finished attempt for one exam and one
// device namespace.
func (r *AttemptRepository) GetByExamAndNamespace(ctx context.Context, examID uuid.UUID, namespace string) (*model.AttemptRecord, error) {
	rec := &model.AttemptRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT exam_id, namespace, result_id, mode, answer_count, submitted_at
		 FROM attempt_records
		 WHERE exam_id = $1 AND namespace = $2`, examID, namespace,
	).Scan(&rec.ExamID, &rec.Namespace, &rec.ResultID, &rec.Mode, &rec.AnswerCount, &rec.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// HasFinished reports whether a finished attempt exists for the pair.
func (r *AttemptRepository) HasFinished(ctx context.Context, examID uuid.UUID, namespace string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM attempt_records WHERE exam_id = $1 AND namespace = $2
		 )`, examID, namespace,
	).Scan(&exists)
	return exists, err
}
