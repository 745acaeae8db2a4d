// Package orchestrator owns the harvest job lifecycle: single-job
// exclusivity, the three job kinds (discovery, remote selection, local
// re-run), per-semester worker fan-out, cancellation and pause, wiring the
// session pool, worker pool, upsert pipeline, progress tracker, change
// tracker and metrics registry together.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/changelog"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/config"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/htmlparse"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/metrics"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/progress"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/repository"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/sessionpool"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/upsert"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/workerpool"
)

// job is the handle for the single in-flight job slot.
type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Orchestrator is the single-job-slot harvest coordinator.
type Orchestrator struct {
	cfg      config.Config
	repos    *repository.Repositories
	tracker  *progress.Tracker
	changes  *changelog.Tracker
	pipeline *upsert.Pipeline
	sessions *sessionpool.Pool
	workers  *workerpool.Pool
	metrics  *metrics.Registry
	logger   *slog.Logger

	mu  sync.Mutex
	job *job
}

// New wires an Orchestrator over its dependencies.
func New(
	cfg config.Config,
	repos *repository.Repositories,
	tracker *progress.Tracker,
	changes *changelog.Tracker,
	pipeline *upsert.Pipeline,
	sessions *sessionpool.Pool,
	workers *workerpool.Pool,
	reg *metrics.Registry,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg: cfg, repos: repos, tracker: tracker, changes: changes, pipeline: pipeline,
		sessions: sessions, workers: workers, metrics: reg, logger: logger,
	}
}

// StartDiscoveryJob opens a session, lists every remote semester, ensures a
// local Semester exists for each, and harvests them all.
func (o *Orchestrator) StartDiscoveryJob() Result {
	return o.submitJob(0, "discovery", "Entdecke Semester...", o.runDiscovery)
}

// StartRemoteScrapingJob resolves identifiers against the remote semester
// list and harvests each match. An empty list is rejected synchronously;
// identifiers that don't match any remote option fail the job once it runs
// (resolving them requires a network round trip).
func (o *Orchestrator) StartRemoteScrapingJob(identifiers []string) Result {
	if len(identifiers) == 0 {
		return invalidArgument("identifiers must not be empty")
	}
	ids := append([]string(nil), identifiers...)
	return o.submitJob(len(ids), "remote", "Starte ausgewählte Semester...", func(ctx context.Context) {
		o.runRemote(ctx, ids)
	})
}

// StartLocalScrapingJob re-harvests one already-known Semester, matched
// against the remote option list by short code or name.
func (o *Orchestrator) StartLocalScrapingJob(semesterID int64) Result {
	semester, err := o.repos.Semester.GetByID(context.Background(), semesterID)
	if err == repository.ErrNotFound {
		return invalidArgument(fmt.Sprintf("unknown semester id %d", semesterID))
	}
	if err != nil {
		return internalError(err)
	}

	return o.submitJob(1, "local", "Starte lokales Semester...", func(ctx context.Context) {
		o.runLocal(ctx, semester)
	})
}

// PauseScraping soft-pauses: it marks the tracker paused without stopping
// in-flight workers, matching the current design's non-stopping pause.
func (o *Orchestrator) PauseScraping(msg string) Result {
	if msg == "" {
		msg = "Scraping pausiert"
	}
	o.tracker.Pause(msg)
	return accepted()
}

// StopScraping cancels the running job's context and waits for it to unwind.
// If the job had already finished on its own (no cancellation actually
// occurred), the tracker is reset to idle instead of left at its prior state.
func (o *Orchestrator) StopScraping(msg string) Result {
	if msg == "" {
		msg = "Scraping abgebrochen"
	}

	o.mu.Lock()
	j := o.job
	o.mu.Unlock()
	if j == nil {
		return accepted()
	}

	select {
	case <-j.done:
		o.tracker.Reset(msg)
		return accepted()
	default:
	}

	j.cancel()
	<-j.done

	if o.tracker.Snapshot().Status != progress.StatusFailed {
		o.tracker.Reset(msg)
	}
	return accepted()
}

// IsJobRunning reports whether a job is currently occupying the job slot.
func (o *Orchestrator) IsJobRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job == nil {
		return false
	}
	select {
	case <-o.job.done:
		return false
	default:
		return true
	}
}

// GetProgressSnapshot returns the current progress snapshot.
func (o *Orchestrator) GetProgressSnapshot() progress.Snapshot {
	return o.tracker.Snapshot()
}

// GetAvailableRemoteSemesters fetches the remote semester option list and
// pairs each display name with its inferred short name.
func (o *Orchestrator) GetAvailableRemoteSemesters(ctx context.Context) ([]RemoteSemester, error) {
	_, options, err := o.fetchSemesterOptionsDoc(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RemoteSemester, 0, len(options))
	for _, opt := range options {
		out = append(out, RemoteSemester{DisplayName: opt.DisplayName, ShortName: inferShortCode(opt.DisplayName)})
	}
	return out, nil
}

// submitJob rejects with Busy if a job already occupies the slot, otherwise
// resets the tracker and starts run in its own goroutine under a cancellable
// context, immediately returning Accepted.
func (o *Orchestrator) submitJob(total int, task, msg string, run func(ctx context.Context)) Result {
	o.mu.Lock()
	if o.job != nil {
		select {
		case <-o.job.done:
		default:
			o.mu.Unlock()
			o.tracker.Warn("Es läuft bereits ein Scraping-Prozess")
			return busy("Es läuft bereits ein Scraping-Prozess")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	o.job = &job{cancel: cancel, done: done}
	o.mu.Unlock()

	o.tracker.Start(total, task, msg)

	go func() {
		defer close(done)
		defer cancel()
		run(ctx)
	}()

	return accepted()
}

func (o *Orchestrator) runDiscovery(ctx context.Context) {
	_, options, err := o.fetchSemesterOptionsDoc(ctx)
	if err != nil {
		o.failJob(err)
		return
	}

	o.tracker.Update("discovery", 0, len(options), fmt.Sprintf("%d Semester gefunden", len(options)))

	for i, opt := range options {
		if ctx.Err() != nil {
			o.tracker.Fail("Scraping abgebrochen")
			return
		}

		semester, err := o.ensureSemester(ctx, opt.DisplayName)
		if err != nil {
			o.logger.Error("ensure semester failed", "semester", opt.DisplayName, "error", err)
			o.metrics.Inc(metrics.ErrorsTotal)
			continue
		}
		if err := o.harvestSemester(ctx, semester, opt.DisplayName); err != nil {
			o.logger.Error("harvest semester failed", "semester", semester.ShortCode, "error", err)
		}
		o.tracker.Update("discovery", i+1, len(options), "")
	}

	if ctx.Err() == nil {
		o.tracker.Finish("Entdeckung abgeschlossen")
	}
}

func (o *Orchestrator) runRemote(ctx context.Context, identifiers []string) {
	_, options, err := o.fetchSemesterOptionsDoc(ctx)
	if err != nil {
		o.failJob(err)
		return
	}
	names := displayNames(options)

	resolved := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		name, ok := matchRemoteOption(id, names)
		if !ok {
			o.tracker.Fail(fmt.Sprintf("unbekanntes Semester: %s", id))
			return
		}
		resolved = append(resolved, name)
	}

	for i, name := range resolved {
		if ctx.Err() != nil {
			o.tracker.Fail("Scraping abgebrochen")
			return
		}

		semester, err := o.ensureSemester(ctx, name)
		if err != nil {
			o.logger.Error("ensure semester failed", "semester", name, "error", err)
			o.metrics.Inc(metrics.ErrorsTotal)
			continue
		}
		if err := o.harvestSemester(ctx, semester, name); err != nil {
			o.logger.Error("harvest semester failed", "semester", semester.ShortCode, "error", err)
		}
		o.tracker.Update("remote", i+1, len(resolved), "")
	}

	if ctx.Err() == nil {
		o.tracker.Finish("Scraping abgeschlossen")
	}
}

func (o *Orchestrator) runLocal(ctx context.Context, semester *models.Semester) {
	_, options, err := o.fetchSemesterOptionsDoc(ctx)
	if err != nil {
		o.failJob(err)
		return
	}
	names := displayNames(options)

	matchName, ok := matchRemoteOption(semester.ShortCode, names)
	if !ok {
		matchName, ok = matchRemoteOption(semester.Name, names)
	}
	if !ok {
		o.tracker.Fail(fmt.Sprintf("Semester %s nicht in der Quelle gefunden", semester.ShortCode))
		return
	}

	if err := o.harvestSemester(ctx, semester, matchName); err != nil {
		o.logger.Error("harvest semester failed", "semester", semester.ShortCode, "error", err)
		return
	}
	o.tracker.Finish("Scraping abgeschlossen")
}

// ensureSemester looks up a Semester by its inferred short code, creating it
// with the season-based default date window on first discovery.
func (o *Orchestrator) ensureSemester(ctx context.Context, displayName string) (*models.Semester, error) {
	shortCode := inferShortCode(displayName)

	existing, err := o.repos.Semester.GetByShortCode(ctx, shortCode)
	if err == nil {
		return existing, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	start, end := defaultDateWindow(displayName)
	semester := &models.Semester{Name: displayName, ShortCode: shortCode, StartDate: start, EndDate: end, Active: true}
	if err := o.repos.Semester.Create(ctx, semester); err != nil {
		if err == repository.ErrUniqueViolation {
			return o.repos.Semester.GetByShortCode(ctx, shortCode)
		}
		return nil, err
	}
	return semester, nil
}

// harvestSemester opens a ScrapingRun, fetches the study program list, fans
// out across the worker pool (or runs serially) and completes or fails the
// run depending on the outcome.
func (o *Orchestrator) harvestSemester(ctx context.Context, semester *models.Semester, remoteDisplayName string) error {
	stopTimer := o.metrics.Time(metrics.SemesterDuration)
	defer stopTimer()

	run, err := o.changes.OpenRun(ctx, semester.ID, o.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("open scraping run: %w", err)
	}
	o.metrics.Inc(metrics.RunsTotal)

	programs, err := o.listStudyPrograms(ctx, remoteDisplayName)
	if err != nil {
		o.finishRun(ctx, run.ID, upsert.Stats{}, err)
		return err
	}

	o.tracker.StartSubTask(semester.ShortCode, semester.Name, len(programs))

	var mu sync.Mutex
	var stats upsert.Stats
	processed := 0
	record := func(s upsert.Stats) {
		mu.Lock()
		stats.TotalEntries += s.TotalEntries
		stats.NewEntries += s.NewEntries
		stats.UpdatedEntries += s.UpdatedEntries
		processed++
		o.tracker.UpdateSubTask(semester.ShortCode, processed, "")
		mu.Unlock()
	}

	harvestErr := o.runPrograms(ctx, semester, remoteDisplayName, programs, run.ID, record)

	o.tracker.FinishSubTask(semester.ShortCode, harvestErr != nil, semester.Name)
	o.finishRun(ctx, run.ID, stats, harvestErr)
	return harvestErr
}

func (o *Orchestrator) runPrograms(
	ctx context.Context, semester *models.Semester, remoteDisplayName string,
	programs []htmlparse.StudyProgramLink, runID string, record func(upsert.Stats),
) error {
	if !o.cfg.ParallelEnabled {
		for _, program := range programs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s, err := o.harvestProgram(ctx, semester, remoteDisplayName, program, runID)
			if err != nil {
				return err
			}
			record(s)
			o.sleepInterTaskDelay()
		}
		return nil
	}

	tasks := make([]workerpool.Task, len(programs))
	for i, program := range programs {
		program := program
		tasks[i] = func(taskCtx context.Context) error {
			s, err := o.harvestProgram(taskCtx, semester, remoteDisplayName, program, runID)
			if err != nil {
				return err
			}
			record(s)
			o.sleepInterTaskDelay()
			return nil
		}
	}
	return o.workers.Run(ctx, tasks)
}

func (o *Orchestrator) sleepInterTaskDelay() {
	if o.cfg.ParallelInterTaskDelay > 0 {
		time.Sleep(o.cfg.ParallelInterTaskDelay)
	}
}

// sleepRespectfulDelay throttles individual requests against the legacy
// catalog, independent of ParallelInterTaskDelay which only spaces out whole
// program tasks. It applies per request so a single program with many
// fach-semester variants does not burst the upstream server.
func (o *Orchestrator) sleepRespectfulDelay() {
	if o.cfg.RespectfulDelay > 0 {
		time.Sleep(o.cfg.RespectfulDelay)
	}
}

// listStudyPrograms acquires a session, primes it to remoteDisplayName, and
// fetches verz.html.
func (o *Orchestrator) listStudyPrograms(ctx context.Context, remoteDisplayName string) ([]htmlparse.StudyProgramLink, error) {
	session, release, err := o.sessions.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	var doc *goquery.Document
	err = withRetry(ctx, o.cfg.MaxRetries, o.cfg.RetryDelay, func() error {
		if _, primeErr := session.Prime(ctx, remoteDisplayName); primeErr != nil {
			return primeErr
		}
		var fetchErr error
		doc, fetchErr = session.FetchStudyPrograms(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch study programs: %w", err)
	}
	return htmlparse.StudyProgramLinks(doc), nil
}

// harvestProgram acquires a pooled session, opens one study program's pages
// (every fach-semester variant, or the default page if none are offered) and
// persists every parsed row through the upsert pipeline.
func (o *Orchestrator) harvestProgram(
	ctx context.Context, semester *models.Semester, remoteDisplayName string,
	program htmlparse.StudyProgramLink, runID string,
) (upsert.Stats, error) {
	stopTimer := o.metrics.Time(metrics.ProgramDuration)
	defer stopTimer()

	if ctx.Err() != nil {
		return upsert.Stats{}, ctx.Err()
	}

	session, release, err := o.sessions.Acquire(ctx)
	if err != nil {
		return upsert.Stats{}, fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	studyProgramID := o.resolveStudyProgramID(ctx, program)

	var stats upsert.Stats
	err = withRetry(ctx, o.cfg.MaxRetries, o.cfg.RetryDelay, func() error {
		if _, primeErr := session.Prime(ctx, remoteDisplayName); primeErr != nil {
			return primeErr
		}
		doc, openErr := session.OpenProgram(ctx, program.Href)
		if openErr != nil {
			return openErr
		}

		fachOptions := htmlparse.FachSemesterOptions(doc)
		if len(fachOptions) == 0 {
			s, applyErr := o.applyRows(ctx, doc, semester.ID, studyProgramID, runID)
			stats = s
			return applyErr
		}

		var combined upsert.Stats
		for i, fach := range fachOptions {
			fachDoc := doc
			if fach.IsPostRequired {
				if i > 0 {
					o.sleepRespectfulDelay()
				}
				fachDoc, err = session.OpenProgramSemester(ctx, program.Code, program.DisplayName, fach.Value)
				if err != nil {
					return err
				}
			}
			s, applyErr := o.applyRows(ctx, fachDoc, semester.ID, studyProgramID, runID)
			if applyErr != nil {
				return applyErr
			}
			combined.TotalEntries += s.TotalEntries
			combined.NewEntries += s.NewEntries
			combined.UpdatedEntries += s.UpdatedEntries
		}
		stats = combined
		return nil
	})
	return stats, err
}

func (o *Orchestrator) applyRows(ctx context.Context, doc *goquery.Document, semesterID, studyProgramID int64, runID string) (upsert.Stats, error) {
	result := htmlparse.ParseScheduleRows(doc)
	if result.Skipped > 0 {
		o.tracker.Warn(fmt.Sprintf("%d Zeile(n) übersprungen", result.Skipped))
	}

	var stats upsert.Stats
	for _, row := range result.Rows {
		stopTimer := o.metrics.Time(metrics.RowPersistDuration)
		s, err := o.pipeline.Apply(ctx, upsert.Input{
			Row: row, SemesterID: semesterID, StudyProgramID: studyProgramID, RunID: runID,
		})
		stopTimer()
		if err != nil {
			return stats, err
		}
		stats.TotalEntries += s.TotalEntries
		stats.NewEntries += s.NewEntries
		stats.UpdatedEntries += s.UpdatedEntries
	}
	return stats, nil
}

// resolveStudyProgramID looks the program up by code, falling back to a
// name-contains match; returns 0 if neither resolves, which the upsert
// pipeline treats as "no study-program link for this row".
func (o *Orchestrator) resolveStudyProgramID(ctx context.Context, program htmlparse.StudyProgramLink) int64 {
	if sp, err := o.repos.StudyProgram.GetByCode(ctx, program.Code); err == nil {
		return sp.ID
	}
	if sp, err := o.repos.StudyProgram.FindByNameContains(ctx, program.DisplayName); err == nil {
		return sp.ID
	}
	o.tracker.Warn(fmt.Sprintf("Studiengang nicht gefunden: %s", program.DisplayName))
	return 0
}

func (o *Orchestrator) fetchSemesterOptionsDoc(ctx context.Context) (*goquery.Document, []htmlparse.SemesterOption, error) {
	session, release, err := o.sessions.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	var doc *goquery.Document
	err = withRetry(ctx, o.cfg.MaxRetries, o.cfg.RetryDelay, func() error {
		var fetchErr error
		doc, fetchErr = session.FetchSemesterOptions(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch semester options: %w", err)
	}
	return doc, htmlparse.SemesterOptions(doc), nil
}

func (o *Orchestrator) failJob(err error) {
	o.metrics.Inc(metrics.ErrorsTotal)
	o.tracker.Fail(err.Error())
	o.logger.Error("job failed", "error", err)
}

func (o *Orchestrator) finishRun(ctx context.Context, runID string, stats upsert.Stats, err error) {
	if err != nil {
		o.metrics.Inc(metrics.RunsFailure)
		o.metrics.Inc(metrics.ErrorsTotal)
		if failErr := o.changes.FailRun(ctx, runID, err.Error()); failErr != nil {
			o.logger.Error("fail run write failed", "run_id", runID, "error", failErr)
		}
		return
	}
	o.metrics.Inc(metrics.RunsSuccess)
	if completeErr := o.changes.CompleteRun(ctx, runID, stats.TotalEntries, stats.NewEntries, stats.UpdatedEntries); completeErr != nil {
		o.logger.Error("complete run write failed", "run_id", runID, "error", completeErr)
	}
}

func displayNames(options []htmlparse.SemesterOption) []string {
	out := make([]string, len(options))
	for i, opt := range options {
		out[i] = opt.DisplayName
	}
	return out
}
