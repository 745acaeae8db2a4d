package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteCourseTypeRepository implements CourseTypeRepository.
type SQLiteCourseTypeRepository struct {
	db *sql.DB
}

// NewSQLiteCourseTypeRepository creates a new course-type repository.
func NewSQLiteCourseTypeRepository(db *sql.DB) *SQLiteCourseTypeRepository {
	return &SQLiteCourseTypeRepository{db: db}
}

func (r *SQLiteCourseTypeRepository) GetByCode(ctx context.Context, code string) (*models.CourseType, error) {
	var ct models.CourseType
	err := r.db.QueryRowContext(ctx, `SELECT id, code, name FROM course_types WHERE code = ?`, code).
		Scan(&ct.ID, &ct.Code, &ct.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *SQLiteCourseTypeRepository) Create(ctx context.Context, ct *models.CourseType) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO course_types (code, name) VALUES (?, ?)`, ct.Code, ct.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("create course type %q: %w", ct.Code, err)
	}
	id, _ := res.LastInsertId()
	ct.ID = id
	return nil
}
