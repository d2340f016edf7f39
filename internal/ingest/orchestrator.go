// Package ingest drives the scrape pipeline: it walks the resort catalog,
// calls the scraper with polite spacing between upstream requests, and
// persists whatever each scrape yields.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/time/rate"

	"github.com/lox/powderline/internal/metrics"
	"github.com/lox/powderline/internal/models"
	"github.com/lox/powderline/internal/scrape"
	"github.com/lox/powderline/internal/store"
)

// ConditionsScraper is what the orchestrator needs from the scrape layer.
type ConditionsScraper interface {
	Scrape(ctx context.Context, upstreamID string) (*scrape.Result, error)
}

// Summary reports one pass over the catalog. Errors holds at most
// maxReportedErrors entries so a systemic outage does not balloon logs.
type Summary struct {
	Total   int
	Success int
	Failed  int
	Skipped int
	Errors  []string
}

const (
	maxReportedErrors = 10

	// Minimum spacing between upstream page fetches across the whole
	// process, shared by sequential and bounded runs.
	defaultMinSpacing = 2 * time.Second

	rawPayloadSource = "conditions"
)

type Orchestrator struct {
	store   *store.Store
	scraper ConditionsScraper
	limiter *rate.Limiter
	now     func() time.Time
}

func NewOrchestrator(st *store.Store, scraper ConditionsScraper) *Orchestrator {
	return &Orchestrator{
		store:   st,
		scraper: scraper,
		limiter: rate.NewLimiter(rate.Every(defaultMinSpacing), 1),
		now:     time.Now,
	}
}

// ScrapeAll walks every active resort sequentially. Resorts without an
// upstream id are skipped, one resort's failure never stops the pass, and
// the returned error aggregates all per-resort failures.
func (o *Orchestrator) ScrapeAll(ctx context.Context) (*Summary, error) {
	resorts, err := o.store.GetActiveResorts()
	if err != nil {
		return nil, fmt.Errorf("load resorts: %w", err)
	}

	summary := &Summary{Total: len(resorts)}
	var errs *multierror.Error
	for _, r := range resorts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if r.UpstreamID == "" {
			summary.Skipped++
			continue
		}
		if err := o.scrapeOne(ctx, r); err != nil {
			summary.Failed++
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", r.Slug, err))
			if len(summary.Errors) < maxReportedErrors {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", r.Slug, err))
			}
			continue
		}
		summary.Success++
	}
	return summary, errs.ErrorOrNil()
}

// ScrapeAllBounded runs the same pass with n workers feeding off one resort
// channel. The shared limiter keeps upstream spacing polite regardless of
// worker count.
func (o *Orchestrator) ScrapeAllBounded(ctx context.Context, n int) (*Summary, error) {
	if n < 1 {
		n = 1
	}
	resorts, err := o.store.GetActiveResorts()
	if err != nil {
		return nil, fmt.Errorf("load resorts: %w", err)
	}

	summary := &Summary{Total: len(resorts)}
	var mu sync.Mutex
	var errs *multierror.Error
	work := make(chan models.Resort)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range work {
				err := o.scrapeOne(ctx, r)
				mu.Lock()
				if err != nil {
					summary.Failed++
					errs = multierror.Append(errs, fmt.Errorf("%s: %w", r.Slug, err))
					if len(summary.Errors) < maxReportedErrors {
						summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", r.Slug, err))
					}
				} else {
					summary.Success++
				}
				mu.Unlock()
			}
		}()
	}

	for _, r := range resorts {
		if ctx.Err() != nil {
			break
		}
		if r.UpstreamID == "" {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}
		work <- r
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, errs.ErrorOrNil()
}

func (o *Orchestrator) scrapeOne(ctx context.Context, r models.Resort) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return err
	}

	run, err := o.store.StartScrapeRun(r.ID, "conditions")
	if err != nil {
		log.Printf("ingest: start scrape run for %s: %v", r.Slug, err)
	}

	res, err := o.scraper.Scrape(ctx, r.UpstreamID)
	if err != nil {
		if run != nil {
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
			if cerr := o.store.CompleteScrapeRun(run); cerr != nil {
				log.Printf("ingest: complete scrape run for %s: %v", r.Slug, cerr)
			}
		}
		metrics.ConditionsStored.WithLabelValues("failed").Inc()
		return err
	}

	if run != nil {
		run.HTTPStatus = sql.NullInt64{Int64: int64(res.Fetch.HTTPStatus), Valid: true}
		run.ResponseSizeBytes = sql.NullInt64{Int64: int64(res.Fetch.ResponseSize), Valid: true}
		run.FieldsParsed = sql.NullInt64{Int64: countParsedFields(res.Conditions), Valid: true}
		run.Success = true
	}

	var runID *int64
	if run != nil {
		runID = &run.ID
	}
	if _, err := o.store.StoreRawPayload(runID, rawPayloadSource, r.ID, []byte(res.RawHTML)); err != nil {
		log.Printf("ingest: store raw payload for %s: %v", r.Slug, err)
	}

	conditions := res.Conditions
	conditions.ResortID = r.ID
	conditions.ScrapedOn = o.today()
	inserted, err := o.store.InsertConditions(conditions)
	if err != nil {
		return fmt.Errorf("store conditions: %w", err)
	}
	if inserted {
		metrics.ConditionsStored.WithLabelValues("stored").Inc()
	} else {
		metrics.ConditionsStored.WithLabelValues("duplicate").Inc()
		log.Printf("ingest: %s already has conditions for today, kept first reading", r.Slug)
	}

	info := res.Info
	info.ResortID = r.ID
	info.UpdatedAt = o.now().UTC()
	if err := o.store.UpsertResortInfo(info); err != nil {
		return fmt.Errorf("store resort info: %w", err)
	}

	if run != nil {
		if err := o.store.CompleteScrapeRun(run); err != nil {
			log.Printf("ingest: complete scrape run for %s: %v", r.Slug, err)
		}
	}
	return nil
}

func (o *Orchestrator) today() time.Time {
	now := o.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// countParsedFields feeds the scrape_runs audit row; a sudden drop across
// the board is the signal that the upstream markup changed.
func countParsedFields(c models.ResortConditions) int64 {
	var n int64
	for _, valid := range []bool{
		c.SnowDepthSummitCm.Valid, c.SnowDepthBaseCm.Valid,
		c.NewSnow24hCm.Valid, c.NewSnow48hCm.Valid, c.NewSnow7dCm.Valid,
		c.LiftsOpen.Valid, c.LiftsTotal.Valid,
		c.RunsOpen.Valid, c.RunsTotal.Valid,
		c.TerrainOpenKm.Valid, c.TerrainTotalKm.Valid, c.TerrainOpenPct.Valid,
		c.SeasonStart.Valid, c.SeasonEnd.Valid, c.LastSnowfall.Valid,
		c.ConditionsLabel.Valid, c.FirstChair.Valid, c.LastChair.Valid,
	} {
		if valid {
			n++
		}
	}
	return n
}
