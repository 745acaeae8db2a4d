// Command harvester runs the course-catalog harvest job manager as a local
// CLI: start a discovery/remote/local scraping job, watch its progress, or
// pause/stop it. There is no network-facing surface here; a REST API or
// dashboard is a separate, out-of-scope collaborator that would call the
// same orchestrator.Orchestrator methods this CLI calls directly.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/changelog"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/config"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/database"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/logging"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/metrics"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/orchestrator"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/progress"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/repository"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/sessionpool"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/upsert"
	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/workerpool"
)

func main() {
	logger := logging.SetDefault()

	orch, err := wireOrchestrator(logger)
	if err != nil {
		logger.Error("failed to initialize harvester", "error", err)
		os.Exit(1)
	}

	if err := newRootCmd(orch).Execute(); err != nil {
		os.Exit(1)
	}
}

// wireOrchestrator loads configuration, opens the database, runs migrations
// and constructs every component the orchestrator depends on.
func wireOrchestrator(logger *slog.Logger) (*orchestrator.Orchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.MigrateWithLogger(db, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repos := repository.NewRepositories(db)
	tracker := progress.New()
	changes := changelog.New(repos, logger)
	pipeline := upsert.New(repos, changes, logger)
	sessions := sessionpool.New(cfg.BaseURL, cfg.UserAgent, cfg.Timeout, cfg.ParallelSessionPoolSize)
	workers := workerpool.New(cfg.ParallelMaxWorkers)
	reg := metrics.New()

	return orchestrator.New(cfg, repos, tracker, changes, pipeline, sessions, workers, reg, logger), nil
}

func newRootCmd(orch *orchestrator.Orchestrator) *cobra.Command {
	root := &cobra.Command{
		Use:   "harvester",
		Short: "Course-catalog harvest job manager",
	}

	root.AddCommand(
		newDiscoverCmd(orch),
		newRemoteCmd(orch),
		newLocalCmd(orch),
		newStatusCmd(orch),
		newPauseCmd(orch),
		newStopCmd(orch),
	)
	return root
}

func newDiscoverCmd(orch *orchestrator.Orchestrator) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discover every remote semester and harvest each of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(orch.StartDiscoveryJob())
		},
	}
}

func newRemoteCmd(orch *orchestrator.Orchestrator) *cobra.Command {
	return &cobra.Command{
		Use:   "remote <identifier>...",
		Short: "Harvest one or more remote semesters by short code or display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(orch.StartRemoteScrapingJob(args))
		},
	}
}

func newLocalCmd(orch *orchestrator.Orchestrator) *cobra.Command {
	return &cobra.Command{
		Use:   "local <semester-id>",
		Short: "Re-harvest one already-known semester by its database id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid semester id %q: %w", args[0], err)
			}
			return printResult(orch.StartLocalScrapingJob(id))
		},
	}
}

func newStatusCmd(orch *orchestrator.Orchestrator) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current progress snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(orch.GetProgressSnapshot())
		},
	}
}

func newPauseCmd(orch *orchestrator.Orchestrator) *cobra.Command {
	return &cobra.Command{
		Use:   "pause [message]",
		Short: "Soft-pause the running job without stopping its workers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(orch.PauseScraping(firstArg(args)))
		},
	}
}

func newStopCmd(orch *orchestrator.Orchestrator) *cobra.Command {
	return &cobra.Command{
		Use:   "stop [message]",
		Short: "Cancel the running job and wait for it to unwind",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(orch.StopScraping(firstArg(args)))
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printResult(r orchestrator.Result) error {
	if r.Kind == orchestrator.ResultInternalError {
		return r.Err
	}
	return printJSON(r)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var _ = progress.Snapshot{}
