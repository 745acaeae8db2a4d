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

// SQLiteScrapingRunRepository implements ScrapingRunRepository.
type SQLiteScrapingRunRepository struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteScrapingRunRepository creates a new scraping-run repository.
func NewSQLiteScrapingRunRepository(db *sql.DB) *SQLiteScrapingRunRepository {
	return &SQLiteScrapingRunRepository{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (r *SQLiteScrapingRunRepository) scan(row interface{ Scan(...any) error }) (*models.ScrapingRun, error) {
	var run models.ScrapingRun
	var start string
	var end sql.NullString
	var status string
	var total, newEntries, updated sql.NullInt64
	var errMsg sql.NullString
	if err := row.Scan(&run.ID, &run.SemesterID, &start, &end, &status, &total, &newEntries, &updated, &errMsg, &run.SourceURL); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	run.StartTime, _ = time.Parse(time.RFC3339, start)
	if end.Valid {
		t, err := time.Parse(time.RFC3339, end.String)
		if err == nil {
			run.EndTime = &t
		}
	}
	run.Status = models.RunStatus(status)
	run.TotalEntries = ptrFromNullInt(total)
	run.NewEntries = ptrFromNullInt(newEntries)
	run.UpdatedEntries = ptrFromNullInt(updated)
	run.ErrorMessage = ptrFromNullString(errMsg)
	return &run, nil
}

const scrapingRunColumns = `id, semester_id, start_time, end_time, status, total_entries, new_entries, updated_entries, error_message, source_url`

func (r *SQLiteScrapingRunRepository) Create(ctx context.Context, run *models.ScrapingRun) error {
	if run.ID == "" {
		run.ID = ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scraping_runs (id, semester_id, start_time, end_time, status, total_entries, new_entries, updated_entries, error_message, source_url)
		 VALUES (?, ?, ?, NULL, ?, NULL, NULL, NULL, NULL, ?)`,
		run.ID, run.SemesterID, run.StartTime.UTC().Format(time.RFC3339), string(run.Status), run.SourceURL,
	)
	if err != nil {
		return fmt.Errorf("create scraping run id=%s: %w", run.ID, err)
	}
	return nil
}

func (r *SQLiteScrapingRunRepository) Complete(ctx context.Context, id string, total, newCount, updated int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scraping_runs SET status = ?, end_time = ?, total_entries = ?, new_entries = ?, updated_entries = ? WHERE id = ?`,
		string(models.RunCompleted), time.Now().UTC().Format(time.RFC3339), total, newCount, updated, id,
	)
	if err != nil {
		return fmt.Errorf("complete scraping run id=%s: %w", id, err)
	}
	return nil
}

func (r *SQLiteScrapingRunRepository) Fail(ctx context.Context, id, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scraping_runs SET status = ?, end_time = ?, error_message = ? WHERE id = ?`,
		string(models.RunFailed), time.Now().UTC().Format(time.RFC3339), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("fail scraping run id=%s: %w", id, err)
	}
	return nil
}

func (r *SQLiteScrapingRunRepository) GetByID(ctx context.Context, id string) (*models.ScrapingRun, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scrapingRunColumns+` FROM scraping_runs WHERE id = ?`, id)
	return r.scan(row)
}

func (r *SQLiteScrapingRunRepository) History(ctx context.Context, semesterID int64, limit int) ([]*models.ScrapingRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scrapingRunColumns+` FROM scraping_runs WHERE semester_id = ? ORDER BY start_time DESC LIMIT ?`,
		semesterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list scraping run history for semester id=%d: %w", semesterID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.ScrapingRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteScrapingRunRepository) RecentSince(ctx context.Context, since time.Time) ([]*models.ScrapingRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scrapingRunColumns+` FROM scraping_runs WHERE start_time >= ? ORDER BY start_time DESC`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list recent scraping runs since %s: %w", since, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.ScrapingRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
