package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// SQLiteChangeLogRepository implements ChangeLogRepository.
type SQLiteChangeLogRepository struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteChangeLogRepository creates a new change-log repository.
func NewSQLiteChangeLogRepository(db *sql.DB) *SQLiteChangeLogRepository {
	return &SQLiteChangeLogRepository{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (r *SQLiteChangeLogRepository) Create(ctx context.Context, c *models.ChangeLog) error {
	if c.ID == "" {
		c.ID = ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO change_logs (id, scraping_run_id, entity_type, entity_id, change_type, field_name, old_value, new_value, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ScrapingRunID, c.EntityType, c.EntityID, string(c.ChangeType),
		nullString(c.FieldName), nullString(c.OldValue), nullString(c.NewValue), c.Description,
	)
	if err != nil {
		return fmt.Errorf("create change log for run id=%s: %w", c.ScrapingRunID, err)
	}
	return nil
}

func (r *SQLiteChangeLogRepository) ListByRun(ctx context.Context, runID string) ([]*models.ChangeLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, scraping_run_id, entity_type, entity_id, change_type, field_name, old_value, new_value, description
		 FROM change_logs WHERE scraping_run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list change logs for run id=%s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.ChangeLog
	for rows.Next() {
		var c models.ChangeLog
		var changeType string
		var field, oldVal, newVal sql.NullString
		if err := rows.Scan(&c.ID, &c.ScrapingRunID, &c.EntityType, &c.EntityID, &changeType, &field, &oldVal, &newVal, &c.Description); err != nil {
			return nil, err
		}
		c.ChangeType = models.ChangeType(changeType)
		c.FieldName = ptrFromNullString(field)
		c.OldValue = ptrFromNullString(oldVal)
		c.NewValue = ptrFromNullString(newVal)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *SQLiteChangeLogRepository) StatsByType(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT change_type, COUNT(*) FROM change_logs WHERE scraping_run_id = ? GROUP BY change_type`, runID)
	if err != nil {
		return nil, fmt.Errorf("stats change logs for run id=%s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	stats := make(map[string]int)
	for rows.Next() {
		var changeType string
		var count int
		if err := rows.Scan(&changeType, &count); err != nil {
			return nil, err
		}
		stats[changeType] = count
	}
	return stats, rows.Err()
}
