package ingest

import (
	"context"
	"log"
	"time"

	"github.com/lox/powderline/internal/photos"
	"github.com/lox/powderline/internal/radar"
	"github.com/lox/powderline/internal/snapcache"
	"github.com/lox/powderline/internal/snowdepth"
	"github.com/lox/powderline/internal/store"
)

type Scheduler struct {
	store          *store.Store
	orchestrator   *Orchestrator
	depthResolver  *snowdepth.Resolver
	radarClient    *radar.Client
	photoClient    *photos.Client
	scrapeInterval time.Duration
	depthInterval  time.Duration
	radarInterval  time.Duration
	photoInterval  time.Duration
}

func NewScheduler(st *store.Store, orchestrator *Orchestrator) *Scheduler {
	return &Scheduler{
		store:          st,
		orchestrator:   orchestrator,
		scrapeInterval: 6 * time.Hour,
		depthInterval:  time.Hour,
		radarInterval:  snapcache.RadarTTL,
		photoInterval:  24 * time.Hour,
	}
}

// SetDepthResolver configures the scheduler to refresh snow depth readings.
func (s *Scheduler) SetDepthResolver(r *snowdepth.Resolver) {
	s.depthResolver = r
}

// SetRadarClient configures the scheduler to keep the frame index warm.
func (s *Scheduler) SetRadarClient(c *radar.Client) {
	s.radarClient = c
}

// SetPhotoClient configures the scheduler to backfill resort photos. The
// photo cache holds for a week so the daily pass is nearly always a no-op.
func (s *Scheduler) SetPhotoClient(c *photos.Client) {
	s.photoClient = c
}

func (s *Scheduler) Run(ctx context.Context) {
	s.runScrapeCycle(ctx)
	s.refreshSnowDepths(ctx)
	s.refreshRadar(ctx)
	s.refreshPhotos(ctx)

	scrapeTicker := time.NewTicker(s.scrapeInterval)
	depthTicker := time.NewTicker(s.depthInterval)
	radarTicker := time.NewTicker(s.radarInterval)
	photoTicker := time.NewTicker(s.photoInterval)
	cleanupTicker := time.NewTicker(24 * time.Hour)
	defer scrapeTicker.Stop()
	defer depthTicker.Stop()
	defer radarTicker.Stop()
	defer photoTicker.Stop()
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-scrapeTicker.C:
			s.runScrapeCycle(ctx)
		case <-depthTicker.C:
			s.refreshSnowDepths(ctx)
		case <-radarTicker.C:
			s.refreshRadar(ctx)
		case <-photoTicker.C:
			s.refreshPhotos(ctx)
		case <-cleanupTicker.C:
			s.runCleanup()
		}
	}
}

func (s *Scheduler) runScrapeCycle(ctx context.Context) {
	start := time.Now()
	summary, err := s.orchestrator.ScrapeAll(ctx)
	if err != nil {
		log.Printf("scheduler: scrape cycle finished with errors: %v", err)
	}
	if summary != nil {
		log.Printf("scheduler: scrape cycle done in %s: %d resorts, %d stored, %d failed, %d skipped",
			time.Since(start).Round(time.Second), summary.Total, summary.Success, summary.Failed, summary.Skipped)
	}
}

func (s *Scheduler) refreshSnowDepths(ctx context.Context) {
	if s.depthResolver == nil {
		return
	}
	resorts, err := s.store.GetActiveResorts()
	if err != nil {
		log.Printf("scheduler: load resorts for snow depth: %v", err)
		return
	}
	for _, r := range resorts {
		reading, err := s.depthResolver.Resolve(ctx, r)
		if err != nil {
			log.Printf("scheduler: snow depth for %s: %v", r.Slug, err)
			continue
		}
		if err := s.store.UpsertSnowDepth(*reading); err != nil {
			log.Printf("scheduler: store snow depth for %s: %v", r.Slug, err)
		}
	}
}

func (s *Scheduler) refreshRadar(ctx context.Context) {
	if s.radarClient == nil {
		return
	}
	frames, err := s.radarClient.Frames(ctx)
	if err != nil {
		log.Printf("scheduler: refresh radar frames: %v", err)
		return
	}
	log.Printf("scheduler: radar index current, %d frames", len(frames))
}

func (s *Scheduler) refreshPhotos(ctx context.Context) {
	if s.photoClient == nil {
		return
	}
	resorts, err := s.store.GetActiveResorts()
	if err != nil {
		log.Printf("scheduler: load resorts for photos: %v", err)
		return
	}
	for _, r := range resorts {
		if _, err := s.photoClient.Photo(ctx, r); err != nil {
			log.Printf("scheduler: photo for %s: %v", r.Slug, err)
		}
	}
}

func (s *Scheduler) runCleanup() {
	if n, err := s.store.CleanupExpiredSnapshots(7); err != nil {
		log.Printf("scheduler: cleanup snapshots: %v", err)
	} else if n > 0 {
		log.Printf("scheduler: cleaned up %d expired snapshots", n)
	}
	if n, err := s.store.CleanupOldRawPayloads(30); err != nil {
		log.Printf("scheduler: cleanup raw payloads: %v", err)
	} else if n > 0 {
		log.Printf("scheduler: cleaned up %d old raw payloads", n)
	}
}
