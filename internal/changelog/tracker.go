// Package changelog provides a thin façade over ScrapingRunRepository and
// ChangeLogRepository: opening and closing a run, and recording entity
// mutations as audit rows.
package changelog

import (
	"context"
	"log/slog"
	"time"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/repository"
)

// Tracker records the lifecycle of one ScrapingRun and the entity changes
// observed during it.
type Tracker struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// New builds a Tracker over the given repositories.
func New(repos *repository.Repositories, logger *slog.Logger) *Tracker {
	return &Tracker{repos: repos, logger: logger}
}

// OpenRun creates a new running ScrapingRun for semesterID.
func (t *Tracker) OpenRun(ctx context.Context, semesterID int64, sourceURL string) (*models.ScrapingRun, error) {
	run := &models.ScrapingRun{
		SemesterID: semesterID,
		StartTime:  time.Now(),
		Status:     models.RunRunning,
		SourceURL:  sourceURL,
	}
	if err := t.repos.ScrapingRun.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteRun marks a run completed with its final totals (C3).
func (t *Tracker) CompleteRun(ctx context.Context, runID string, total, newCount, updated int) error {
	return t.repos.ScrapingRun.Complete(ctx, runID, total, newCount, updated)
}

// FailRun marks a run failed with an error message (C3).
func (t *Tracker) FailRun(ctx context.Context, runID, errMsg string) error {
	return t.repos.ScrapingRun.Fail(ctx, runID, errMsg)
}

// LogCreated records a CREATED change-log row. Repository write failures
// are logged, not propagated: a missed audit row never blocks the harvest.
func (t *Tracker) LogCreated(ctx context.Context, runID, entityType string, entityID int64, description string) {
	t.log(ctx, runID, entityType, entityID, models.ChangeCreated, nil, nil, nil, description)
}

// LogUpdated records an UPDATED change-log row for one changed field.
func (t *Tracker) LogUpdated(ctx context.Context, runID, entityType string, entityID int64, fieldName, oldValue, newValue string) {
	t.log(ctx, runID, entityType, entityID, models.ChangeUpdated, &fieldName, &oldValue, &newValue,
		entityType+" "+fieldName+" changed")
}

func (t *Tracker) log(ctx context.Context, runID, entityType string, entityID int64, changeType models.ChangeType,
	fieldName, oldValue, newValue *string, description string) {
	entry := &models.ChangeLog{
		ScrapingRunID: runID,
		EntityType:    entityType,
		EntityID:      entityID,
		ChangeType:    changeType,
		FieldName:     fieldName,
		OldValue:      oldValue,
		NewValue:      newValue,
		Description:   description,
	}
	if err := t.repos.ChangeLog.Create(ctx, entry); err != nil {
		t.logger.Warn("change log write failed", "run_id", runID, "entity_type", entityType, "error", err)
		return
	}
	t.logger.Info(description, "run_id", runID, "entity_type", entityType, "entity_id", entityID)
}

// Stats returns the created/updated/deleted counts for a completed run.
func (t *Tracker) Stats(ctx context.Context, runID string) (map[string]int, error) {
	return t.repos.ChangeLog.StatsByType(ctx, runID)
}
