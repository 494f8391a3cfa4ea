// Package jobs implements the background-job commands.
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sellerscout/internal/bootstrap"
	"sellerscout/internal/database"
	"sellerscout/internal/job"
	"sellerscout/internal/pipeline"
	"sellerscout/internal/taxonomy"
)

var (
	mainCategoryID int
	regions        string
	pages          int
	minSales       int
	maxSales       int
	limit          int
)

// Command returns the jobs command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run and inspect background collection jobs",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Collect all subcategories of a main category as one job",
		RunE:  runJob,
	}
	runCmd.Flags().IntVarP(&mainCategoryID, "main-id", "m", 0, "main category ID")
	runCmd.Flags().StringVarP(&regions, "regions", "r", "", "comma-separated region codes")
	runCmd.Flags().IntVarP(&pages, "pages", "p", 1, "catalog pages per subcategory")
	runCmd.Flags().IntVar(&minSales, "min-sales", 0, "minimum sale count")
	runCmd.Flags().IntVar(&maxSales, "max-sales", 0, "maximum sale count (0 = unbounded)")
	runCmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum sellers to collect (0 = unlimited)")
	for _, flag := range []string{"main-id", "regions"} {
		if err := runCmd.MarkFlagRequired(flag); err != nil {
			fmt.Fprintf(os.Stderr, "Error marking %s flag as required: %v\n", flag, err)
			os.Exit(1)
		}
	}

	statusCmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Print a job's status",
		Args:  cobra.ExactArgs(1),
		RunE:  jobStatus,
	}

	resultCmd := &cobra.Command{
		Use:   "result <job-id>",
		Short: "Print a finished job's result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  jobResult,
	}

	cmd.AddCommand(runCmd, statusCmd, resultCmd)
	return cmd
}

func runJob(cmd *cobra.Command, _ []string) error {
	deps, err := bootstrap.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	db, err := database.NewPostgresConnection(database.Config(deps.Config.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if migrateErr := database.Migrate(cmd.Context(), db); migrateErr != nil {
		return migrateErr
	}

	redisClient, err := job.NewRedisClient(deps.Config.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	tree, err := taxonomy.Load(deps.Config.Parser.CategoriesFile)
	if err != nil {
		return err
	}

	tr := bootstrap.SetupTransport(deps.Config, deps.Logger)
	defer tr.Close()

	pipe, err := bootstrap.NewPipeline(
		deps.Config,
		tr,
		database.NewSellerRepository(db),
		database.NewContactCacheRepository(db),
		deps.Logger,
	)
	if err != nil {
		return err
	}

	runner := job.NewRunner(
		job.NewRedisStore(redisClient),
		pipe,
		tree,
		database.NewCollectionLogRepository(db),
		deps.Config.Parser.JobConcurrency,
		deps.Logger,
	)

	q := pipeline.Query{
		Pages:    pages,
		MinSales: minSales,
		MaxSales: maxSales,
		Limit:    limit,
	}
	q.Regions = splitRegions(regions)
	if len(q.Regions) == 0 {
		return fmt.Errorf("at least one region code is required")
	}

	jobID, err := runner.Submit(cmd.Context(), job.Request{
		MainCategoryID: mainCategoryID,
		Query:          q,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Job %s submitted, waiting for completion...\n", jobID)
	runner.Wait()

	status, err := runner.Status(cmd.Context(), jobID)
	if err != nil {
		return err
	}
	fmt.Printf("Job %s: %s\n", jobID, status)

	return nil
}

func jobStatus(cmd *cobra.Command, args []string) error {
	runner, closer, err := readOnlyRunner()
	if err != nil {
		return err
	}
	defer closer()

	status, err := runner.Status(cmd.Context(), args[0])
	if errors.Is(err, job.ErrJobNotFound) {
		return fmt.Errorf("job %s not found", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Println(status)
	return nil
}

func jobResult(cmd *cobra.Command, args []string) error {
	runner, closer, err := readOnlyRunner()
	if err != nil {
		return err
	}
	defer closer()

	result, err := runner.Result(cmd.Context(), args[0])
	if errors.Is(err, job.ErrJobNotReady) {
		return fmt.Errorf("job %s is still running", args[0])
	}
	if errors.Is(err, job.ErrJobNotFound) {
		return fmt.Errorf("job %s not found", args[0])
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	fmt.Println(string(out))

	return nil
}

// readOnlyRunner builds a runner good for Status and Result reads only.
func readOnlyRunner() (*job.Runner, func(), error) {
	deps, err := bootstrap.NewCommandDeps()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	redisClient, err := job.NewRedisClient(deps.Config.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	runner := job.NewRunner(job.NewRedisStore(redisClient), nil, nil, nil, 1, deps.Logger)
	return runner, func() { redisClient.Close() }, nil
}

func splitRegions(raw string) []string {
	var out []string
	for _, r := range strings.Split(strings.ReplaceAll(raw, ";", ","), ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
