package postgres

import (
	"context"
	"errors"
	"fmt"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// Ensure interface compliance
var _ repository.SubmissionRepository = (*SubmissionRepo)(nil)

const uniqueViolation = "23505"

// querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type SubmissionRepo struct {
	db querier
}

func NewSubmissionRepo(db querier) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

func (r *SubmissionRepo) ExistsActive(ctx context.Context, registration string) (bool, error) {
	const sql = `
SELECT EXISTS (
  SELECT 1 FROM form_submissions
   WHERE car_registration = $1 AND is_active
);`
	var exists bool
	if err := r.db.QueryRow(ctx, sql, registration).Scan(&exists); err != nil {
		return false, fmt.Errorf("ExistsActive submission: %w", err)
	}
	return exists, nil
}

func (r *SubmissionRepo) Insert(ctx context.Context, s *model.Submission) error {
	const sql = `
INSERT INTO form_submissions (name, email, phone, car_registration, discount_code, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at;`
	err := r.db.QueryRow(ctx, sql,
		s.Name, s.Email, s.Phone, s.CarRegistration, s.DiscountCode, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return mapInsertError(err)
	}
	return nil
}

func (r *SubmissionRepo) List(ctx context.Context, limit, offset int) ([]*model.Submission, error) {
	const sql = `
SELECT id, name, email, phone, car_registration, discount_code, is_active, created_at
  FROM form_submissions
 ORDER BY created_at DESC, id DESC
 LIMIT $1 OFFSET $2;`
	rows, err := r.db.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("List submissions: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Submission, 0, limit)
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.CarRegistration, &s.DiscountCode, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateRegistration
	}
	return fmt.Errorf("Insert submission: %w", err)
}
