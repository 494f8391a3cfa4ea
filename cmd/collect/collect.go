// Package collect implements the one-shot collection command.
package collect

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sellerscout/internal/bootstrap"
	"sellerscout/internal/database"
	"sellerscout/internal/domain"
	"sellerscout/internal/pipeline"
)

const urlColumnWidth = 48

var (
	category   string
	shard      string
	regions    string
	pages      int
	minSales   int
	maxSales   int
	minRegDate string
	maxRegDate string
	limit      int
)

// Command returns the collect command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect sellers for one subcategory",
		Long: `Collect runs a single collection query against the catalog and prints
the enriched sellers as a table.

Examples:
  sellerscout collect -c "cat=9827" -s "electronic" -r 77
  sellerscout collect -c "cat=9827" -s "electronic" -r "77,50" --min-sales 100 --limit 20`,
		RunE: runCollect,
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "catalog query, e.g. \"cat=9827\"")
	cmd.Flags().StringVarP(&shard, "shard", "s", "", "catalog shard")
	cmd.Flags().StringVarP(&regions, "regions", "r", "", "comma-separated region codes")
	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "catalog pages to fetch")
	cmd.Flags().IntVar(&minSales, "min-sales", 0, "minimum sale count")
	cmd.Flags().IntVar(&maxSales, "max-sales", 0, "maximum sale count (0 = unbounded)")
	cmd.Flags().StringVar(&minRegDate, "reg-date", "", "minimum registration date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&maxRegDate, "max-reg-date", "", "maximum registration date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum sellers to collect (0 = unlimited)")

	for _, flag := range []string{"category", "shard", "regions"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			fmt.Fprintf(os.Stderr, "Error marking %s flag as required: %v\n", flag, err)
			os.Exit(1)
		}
	}

	return cmd
}

func runCollect(cmd *cobra.Command, _ []string) error {
	deps, err := bootstrap.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	q, err := buildQuery()
	if err != nil {
		return err
	}

	db, err := database.NewPostgresConnection(database.Config(deps.Config.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if migrateErr := database.Migrate(cmd.Context(), db); migrateErr != nil {
		return migrateErr
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

	records, truncated, err := pipe.Collect(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	logRepo := database.NewCollectionLogRepository(db)
	if len(records) > 0 {
		if touchErr := logRepo.Touch(cmd.Context(), "cat", q.Params()); touchErr != nil {
			deps.Logger.Warn("failed to touch collection log", "error", touchErr)
		}
	}

	renderTable(records)
	if truncated {
		fmt.Printf("\nResult truncated at limit %d.\n", limit)
	}
	fmt.Printf("Collected %d sellers.\n", len(records))

	return nil
}

func buildQuery() (pipeline.Query, error) {
	q := pipeline.Query{
		Category: category,
		Shard:    shard,
		Pages:    pages,
		MinSales: minSales,
		MaxSales: maxSales,
		Limit:    limit,
	}

	for _, r := range strings.Split(strings.ReplaceAll(regions, ";", ","), ",") {
		if r = strings.TrimSpace(r); r != "" {
			q.Regions = append(q.Regions, r)
		}
	}
	if len(q.Regions) == 0 {
		return q, fmt.Errorf("at least one region code is required")
	}

	var err error
	if q.MinRegDate, err = parseDate(minRegDate); err != nil {
		return q, err
	}
	if q.MaxRegDate, err = parseDate(maxRegDate); err != nil {
		return q, err
	}

	return q, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", raw, err)
	}
	return t.UTC(), nil
}

func renderTable(records []domain.SellerRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Seller", "Store", "INN", "Sales", "Registered", "Phones", "Emails"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: urlColumnWidth},
	})

	for i, rec := range records {
		t.AppendRow(table.Row{
			i + 1,
			rec.URL,
			rec.StoreName,
			rec.INN,
			rec.SaleCount,
			rec.RegistrationDate.Format("2006-01-02"),
			strings.Join(rec.Phones, "\n"),
			strings.Join(rec.Emails, "\n"),
		})
	}
	t.Render()
}
