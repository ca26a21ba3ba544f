package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

var ErrNotFound = errors.New("not found")

// MySQLScanRepo is the confirmed-scan audit trail backing the admin
// scan history view.
type MySQLScanRepo struct{ db *sql.DB }

func NewMySQLScanRepo(db *sql.DB) *MySQLScanRepo { return &MySQLScanRepo{db: db} }

func (r *MySQLScanRepo) Insert(ctx context.Context, rec *domain.ScanRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO scans (id,session_id,user_id,raw,normalized,format,backend,created_at)
VALUES (?,?,?,?,?,?,?,?)
`, rec.ID, rec.SessionID, rec.UserID, rec.Raw, rec.Normalized, rec.Format, rec.Backend, rec.CreatedAt)
	return err
}

func (r *MySQLScanRepo) GetByID(ctx context.Context, id string) (*domain.ScanRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,session_id,user_id,raw,normalized,format,backend,created_at
FROM scans WHERE id=?`, id)
	var rec domain.ScanRecord
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.Raw, &rec.Normalized, &rec.Format, &rec.Backend, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *MySQLScanRepo) ListRecent(ctx context.Context, limit int) ([]domain.ScanRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id,session_id,user_id,raw,normalized,format,backend,created_at
FROM scans ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScanRecord
	for rows.Next() {
		var rec domain.ScanRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.Raw, &rec.Normalized, &rec.Format, &rec.Backend, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ usecase.ScanLogRepo = (*MySQLScanRepo)(nil)
