package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sellerscout/internal/domain"
	"sellerscout/internal/logger"
	"sellerscout/internal/pipeline"
	"sellerscout/internal/taxonomy"
)

// Request describes a background collection over all leaf subcategories of
// one main category.
type Request struct {
	MainCategoryID int
	Query          pipeline.Query // Category, Shard and CategoryName are filled per leaf
}

// Collector runs one subcategory query. Satisfied by pipeline.Pipeline.
type Collector interface {
	Collect(ctx context.Context, q pipeline.Query) ([]domain.SellerRecord, bool, error)
}

// Taxonomy expands a main category into leaf subcategories.
type Taxonomy interface {
	Leaves(mainID int) []taxonomy.Category
}

// LogToucher records that a parameter set was collected.
type LogToucher interface {
	Touch(ctx context.Context, parserType string, params domain.Params) error
}

// Runner executes collection jobs in the background and persists their
// lifecycle in a StateStore.
type Runner struct {
	store       StateStore
	collector   Collector
	taxonomy    Taxonomy
	log         logger.Interface
	collectLog  LogToucher
	concurrency int

	wg sync.WaitGroup
}

// NewRunner creates a job runner with the given subcategory concurrency.
func NewRunner(
	store StateStore,
	collector Collector,
	tax Taxonomy,
	collectLog LogToucher,
	concurrency int,
	log logger.Interface,
) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		store:       store,
		collector:   collector,
		taxonomy:    tax,
		collectLog:  collectLog,
		concurrency: concurrency,
		log:         log,
	}
}

// Submit persists a pending job and launches its run goroutine. The
// returned ID is the handle for Status and Result.
func (r *Runner) Submit(ctx context.Context, req Request) (string, error) {
	jobID := uuid.NewString()

	if err := r.store.Set(ctx, jobID, domain.JobState{Status: domain.JobStatusPending}); err != nil {
		return "", fmt.Errorf("failed to persist pending job: %w", err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(context.WithoutCancel(ctx), jobID, req)
	}()

	return jobID, nil
}

// Wait blocks until all submitted jobs have finished. Used on shutdown and
// by the synchronous CLI paths.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Status returns the job's current status.
func (r *Runner) Status(ctx context.Context, jobID string) (string, error) {
	state, err := r.store.Get(ctx, jobID)
	if err != nil {
		return "", err
	}
	return state.Status, nil
}

// Result returns the collected records of a finished job. A pending or
// running job yields ErrJobNotReady; a failed one returns its stored error.
func (r *Runner) Result(ctx context.Context, jobID string) ([]domain.SellerRecord, error) {
	state, err := r.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch state.Status {
	case domain.JobStatusFinished:
		return state.Result, nil
	case domain.JobStatusFailed:
		return nil, fmt.Errorf("job failed: %s", state.Error)
	default:
		return nil, ErrJobNotReady
	}
}

// run drives one job to a terminal state. Subcategories execute under a
// bounded semaphore and their results are consumed as they complete; once
// the aggregate satisfies the limit, outstanding work is cancelled.
func (r *Runner) run(ctx context.Context, jobID string, req Request) {
	log := r.log.With("job_id", jobID)

	if err := r.store.Set(ctx, jobID, domain.JobState{Status: domain.JobStatusInProgress}); err != nil {
		log.Error("failed to mark job in progress", "error", err)
		return
	}

	records, err := r.collectAll(ctx, req, log)
	if err != nil {
		log.Error("job failed", "error", err)
		if setErr := r.store.Set(ctx, jobID, domain.JobState{
			Status: domain.JobStatusFailed,
			Error:  err.Error(),
		}); setErr != nil {
			log.Error("failed to persist failed job state", "error", setErr)
		}
		return
	}

	if len(records) > 0 {
		params := req.Query.Params()
		params["main_id"] = req.MainCategoryID
		if touchErr := r.collectLog.Touch(ctx, "all", params); touchErr != nil {
			log.Warn("failed to touch collection log", "error", touchErr)
		}
	}

	if setErr := r.store.Set(ctx, jobID, domain.JobState{
		Status: domain.JobStatusFinished,
		Result: records,
	}); setErr != nil {
		log.Error("failed to persist finished job state", "error", setErr)
		return
	}
	log.Info("job finished", "records", len(records))
}

type leafResult struct {
	records []domain.SellerRecord
	err     error
}

// collectAll fans the pipeline out across the leaf subcategories.
func (r *Runner) collectAll(ctx context.Context, req Request, log logger.Interface) ([]domain.SellerRecord, error) {
	leaves := r.taxonomy.Leaves(req.MainCategoryID)
	if len(leaves) == 0 {
		return nil, fmt.Errorf("no subcategories under category %d", req.MainCategoryID)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, r.concurrency)
	results := make(chan leafResult, len(leaves))

	var wg sync.WaitGroup
	for _, leaf := range leaves {
		wg.Add(1)
		go func(leaf taxonomy.Category) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-runCtx.Done():
				results <- leafResult{}
				return
			}
			defer func() { <-sem }()

			q := req.Query
			q.Category = leaf.Query
			q.Shard = leaf.Shard
			q.CategoryName = leaf.Name

			records, _, err := r.collector.Collect(runCtx, q)
			results <- leafResult{records: records, err: err}
		}(leaf)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var aggregate []domain.SellerRecord
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			cancel()
			continue
		}

		for _, rec := range res.records {
			if req.Query.Limit > 0 && len(aggregate) >= req.Query.Limit {
				break
			}
			aggregate = append(aggregate, rec)
		}
		if req.Query.Limit > 0 && len(aggregate) >= req.Query.Limit {
			cancel()
		}
		log.Debug("subcategory collected", "records", len(res.records), "total", len(aggregate))
	}

	if firstErr != nil && len(aggregate) == 0 {
		return nil, firstErr
	}
	return aggregate, nil
}
