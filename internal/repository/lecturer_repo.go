package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteLecturerRepository implements LecturerRepository.
type SQLiteLecturerRepository struct {
	db *sql.DB
}

// NewSQLiteLecturerRepository creates a new lecturer repository.
func NewSQLiteLecturerRepository(db *sql.DB) *SQLiteLecturerRepository {
	return &SQLiteLecturerRepository{db: db}
}

func (r *SQLiteLecturerRepository) scan(row interface{ Scan(...any) error }) (*models.Lecturer, error) {
	var l models.Lecturer
	var title, email sql.NullString
	if err := row.Scan(&l.ID, &l.Name, &title, &email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.Title = ptrFromNullString(title)
	l.Email = ptrFromNullString(email)
	return &l, nil
}

func (r *SQLiteLecturerRepository) GetByEmail(ctx context.Context, email string) (*models.Lecturer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, title, email FROM lecturers WHERE email_lower = lower(?) LIMIT 1`, email)
	return r.scan(row)
}

func (r *SQLiteLecturerRepository) FindByNameContains(ctx context.Context, fragment string) (*models.Lecturer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, title, email FROM lecturers WHERE name LIKE '%' || ? || '%' COLLATE NOCASE LIMIT 1`, fragment)
	return r.scan(row)
}

func (r *SQLiteLecturerRepository) Create(ctx context.Context, l *models.Lecturer) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO lecturers (name, title, email) VALUES (?, ?, ?)`,
		l.Name, nullString(l.Title), nullString(l.Email),
	)
	if err != nil {
		return fmt.Errorf("create lecturer %q: %w", l.Name, err)
	}
	id, _ := res.LastInsertId()
	l.ID = id
	return nil
}

// Update writes l's title and email as given; it never changes the stored
// name.
func (r *SQLiteLecturerRepository) Update(ctx context.Context, l *models.Lecturer) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lecturers SET title = ?, email = ? WHERE id = ?`,
		nullString(l.Title), nullString(l.Email), l.ID,
	)
	if err != nil {
		return fmt.Errorf("update lecturer id=%d: %w", l.ID, err)
	}
	return nil
}
