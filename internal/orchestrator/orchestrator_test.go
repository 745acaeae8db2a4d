package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/changelog"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/config"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/database/migrations"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/metrics"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/progress"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/repository"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/sessionpool"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/upsert"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/workerpool"
	_ "github.com/tursodatabase/go-libsql"
)

const scheduleTableHTML = `
<table>
<tr><td>Art</td><td>Titel</td><td>Dozent</td><td>Tag</td><td>Zeit</td><td>Raum</td><td>Rhythmus</td><td>Info</td></tr>
<tr>
  <td>V</td><td>Algorithmen</td><td>Prof. Meier</td><td>Di</td><td>10:00 - 11:30</td>
  <td>MIB/1001</td><td>w&ouml;chentlich</td><td><a href="info.html?satz=42">i</a></td>
</tr>
</table>`

// newFixtureServer builds a minimal stand-in for the course catalog: one
// semester option, two study programs, one schedule row apiece, with an
// optional per-request delay to keep a job observably "running".
func newFixtureServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()

	programHref := func(code, name string) string {
		v := url.Values{"stdg": {code}, "stdg1": {name}}
		return "stgvrz.html?" + v.Encode()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		fmt.Fprint(w, `<html><body><select name="sem_wahl"><option selected>Sommersemester 2024</option></select></body></html>`)
	})
	mux.HandleFunc("/verz.html", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		fmt.Fprintf(w, `<html><body><table>
			<tr><td><b><u>Fakultät Test</u></b></td></tr>
			<tr><td><a href="%s">BAI</a></td></tr>
			<tr><td><a href="%s">BMA</a></td></tr>
		</table></body></html>`, programHref("BAI", "BAI/Angewandte Informatik (Bachelor)"), programHref("BMA", "BMA/Mathematik (Bachelor)"))
	})
	mux.HandleFunc("/stgvrz.html", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		fmt.Fprintf(w, `<html><body>%s</body></html>`, scheduleTableHTML)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOrchestrator(t *testing.T, baseURL string) *Orchestrator {
	t.Helper()
	return newTestOrchestratorConfig(t, baseURL, false)
}

func newTestOrchestratorConfig(t *testing.T, baseURL string, parallel bool) *Orchestrator {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	repos := repository.NewRepositories(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := progress.New()
	changes := changelog.New(repos, logger)
	pipeline := upsert.New(repos, changes, logger)

	cfg := config.Config{
		BaseURL:                 baseURL,
		UserAgent:               "orchestrator-test",
		Timeout:                 5 * time.Second,
		MaxRetries:              0,
		RetryDelay:              time.Millisecond,
		ParallelEnabled:         parallel,
		ParallelMaxWorkers:      2,
		ParallelSessionPoolSize: 2,
	}
	sessions := sessionpool.New(cfg.BaseURL, cfg.UserAgent, cfg.Timeout, cfg.ParallelSessionPoolSize)
	workers := workerpool.New(cfg.ParallelMaxWorkers)
	reg := metrics.New()

	return New(cfg, repos, tracker, changes, pipeline, sessions, workers, reg, logger)
}

func waitUntilIdle(t *testing.T, o *Orchestrator) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !o.IsJobRunning() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish before deadline")
}

func TestOrchestrator_DiscoveryJob_PersistsCourseAndCompletesRun(t *testing.T) {
	srv := newFixtureServer(t, 0)
	orch := newTestOrchestrator(t, srv.URL+"/")

	result := orch.StartDiscoveryJob()
	if !result.Accepted() {
		t.Fatalf("StartDiscoveryJob() = %+v, want accepted", result)
	}
	waitUntilIdle(t, orch)

	snap := orch.GetProgressSnapshot()
	if snap.Status != progress.StatusCompleted {
		t.Fatalf("snapshot = %+v, want completed", snap)
	}

	semester, err := orch.repos.Semester.GetByShortCode(context.Background(), "SS24")
	if err != nil {
		t.Fatalf("GetByShortCode(SS24) error = %v", err)
	}

	found, err := orch.repos.Course.FindActiveByNameCI(context.Background(), semester.ID, "algorithmen")
	if err != nil {
		t.Fatalf("FindActiveByNameCI() error = %v", err)
	}
	course, err := orch.repos.Course.LoadWithScheduleEntries(context.Background(), found.ID)
	if err != nil {
		t.Fatalf("LoadWithScheduleEntries() error = %v", err)
	}
	if len(course.ScheduleEntries) != 1 {
		t.Fatalf("len(ScheduleEntries) = %d, want 1", len(course.ScheduleEntries))
	}

	runs, err := orch.repos.ScrapingRun.History(context.Background(), semester.ID, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1 (one run covers every study program)", len(runs))
	}
	if runs[0].Status != "completed" {
		t.Errorf("run status = %q, want completed", runs[0].Status)
	}
	if runs[0].TotalEntries == nil || *runs[0].TotalEntries != 2 {
		t.Errorf("TotalEntries = %v, want 2 (one schedule row per study program)", runs[0].TotalEntries)
	}
}

func TestOrchestrator_StartDiscoveryJob_RejectsWhileBusy(t *testing.T) {
	srv := newFixtureServer(t, 50*time.Millisecond)
	orch := newTestOrchestrator(t, srv.URL+"/")

	first := orch.StartDiscoveryJob()
	if !first.Accepted() {
		t.Fatalf("first StartDiscoveryJob() = %+v, want accepted", first)
	}

	second := orch.StartDiscoveryJob()
	if second.Kind != ResultBusy {
		t.Fatalf("second StartDiscoveryJob() = %+v, want busy", second)
	}

	waitUntilIdle(t, orch)
}

func TestOrchestrator_StartRemoteScrapingJob_RejectsEmptyList(t *testing.T) {
	srv := newFixtureServer(t, 0)
	orch := newTestOrchestrator(t, srv.URL+"/")

	result := orch.StartRemoteScrapingJob(nil)
	if result.Kind != ResultInvalidArgument {
		t.Fatalf("StartRemoteScrapingJob(nil) = %+v, want invalid argument", result)
	}
}

func TestOrchestrator_StartLocalScrapingJob_RejectsUnknownID(t *testing.T) {
	srv := newFixtureServer(t, 0)
	orch := newTestOrchestrator(t, srv.URL+"/")

	result := orch.StartLocalScrapingJob(999)
	if result.Kind != ResultInvalidArgument {
		t.Fatalf("StartLocalScrapingJob(999) = %+v, want invalid argument", result)
	}
}

func TestOrchestrator_StopScraping_EndsJobPromptly(t *testing.T) {
	srv := newFixtureServer(t, 40*time.Millisecond)
	orch := newTestOrchestrator(t, srv.URL+"/")

	if !orch.StartDiscoveryJob().Accepted() {
		t.Fatal("StartDiscoveryJob() not accepted")
	}

	stop := orch.StopScraping("halt")
	if !stop.Accepted() {
		t.Fatalf("StopScraping() = %+v, want accepted", stop)
	}
	if orch.IsJobRunning() {
		t.Fatal("IsJobRunning() = true after StopScraping returned")
	}

	snap := orch.GetProgressSnapshot()
	if snap.Status != progress.StatusIdle && snap.Status != progress.StatusFailed {
		t.Errorf("snapshot.Status = %v, want idle or failed", snap.Status)
	}
}

func TestOrchestrator_GetAvailableRemoteSemesters(t *testing.T) {
	srv := newFixtureServer(t, 0)
	orch := newTestOrchestrator(t, srv.URL+"/")

	semesters, err := orch.GetAvailableRemoteSemesters(context.Background())
	if err != nil {
		t.Fatalf("GetAvailableRemoteSemesters() error = %v", err)
	}
	if len(semesters) != 1 || semesters[0].ShortName != "SS24" {
		t.Fatalf("semesters = %+v, want one SS24 entry", semesters)
	}
}

func TestOrchestrator_DiscoveryJob_ParallelModeCompletes(t *testing.T) {
	srv := newFixtureServer(t, 0)
	orch := newTestOrchestratorConfig(t, srv.URL+"/", true)

	if !orch.StartDiscoveryJob().Accepted() {
		t.Fatal("StartDiscoveryJob() not accepted")
	}
	waitUntilIdle(t, orch)

	snap := orch.GetProgressSnapshot()
	if snap.Status != progress.StatusCompleted {
		t.Fatalf("snapshot = %+v, want completed", snap)
	}

	semester, err := orch.repos.Semester.GetByShortCode(context.Background(), "SS24")
	if err != nil {
		t.Fatalf("GetByShortCode(SS24) error = %v", err)
	}
	runs, err := orch.repos.ScrapingRun.History(context.Background(), semester.ID, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 1 || runs[0].TotalEntries == nil || *runs[0].TotalEntries != 2 {
		t.Fatalf("runs = %+v, want one completed run with TotalEntries=2", runs)
	}
}
