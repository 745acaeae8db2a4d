package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteSemesterRepository implements SemesterRepository.
type SQLiteSemesterRepository struct {
	db *sql.DB
}

// NewSQLiteSemesterRepository creates a new semester repository.
func NewSQLiteSemesterRepository(db *sql.DB) *SQLiteSemesterRepository {
	return &SQLiteSemesterRepository{db: db}
}

func (r *SQLiteSemesterRepository) scan(row interface{ Scan(...any) error }) (*models.Semester, error) {
	var s models.Semester
	var start, end string
	var active int
	if err := row.Scan(&s.ID, &s.Name, &s.ShortCode, &start, &end, &active); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.StartDate, _ = time.Parse(time.RFC3339, start)
	s.EndDate, _ = time.Parse(time.RFC3339, end)
	s.Active = active != 0
	return &s, nil
}

func (r *SQLiteSemesterRepository) GetByID(ctx context.Context, id int64) (*models.Semester, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, short_code, start_date, end_date, active FROM semesters WHERE id = ?`, id)
	return r.scan(row)
}

func (r *SQLiteSemesterRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.Semester, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, short_code, start_date, end_date, active FROM semesters WHERE short_code = ?`, shortCode)
	return r.scan(row)
}

func (r *SQLiteSemesterRepository) List(ctx context.Context) ([]*models.Semester, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, short_code, start_date, end_date, active FROM semesters ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Semester
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteSemesterRepository) Create(ctx context.Context, s *models.Semester) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO semesters (name, short_code, start_date, end_date, active) VALUES (?, ?, ?, ?, ?)`,
		s.Name, s.ShortCode, s.StartDate.UTC().Format(time.RFC3339), s.EndDate.UTC().Format(time.RFC3339), boolToInt(s.Active),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("create semester %q: %w", s.Name, err)
	}
	id, _ := res.LastInsertId()
	s.ID = id
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
