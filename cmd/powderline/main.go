package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/powderline/internal/api"
	"github.com/lox/powderline/internal/ingest"
	"github.com/lox/powderline/internal/models"
	"github.com/lox/powderline/internal/photos"
	"github.com/lox/powderline/internal/radar"
	"github.com/lox/powderline/internal/scrape"
	"github.com/lox/powderline/internal/snapcache"
	"github.com/lox/powderline/internal/snowdepth"
	"github.com/lox/powderline/internal/store"
	"github.com/lox/powderline/internal/weather"
)

const userAgent = "powderline/1.0 (snow conditions aggregator)"

var defaultResorts = []models.Resort{
	{Slug: "jackson-hole", Name: "Jackson Hole", UpstreamID: "jackson-hole", Latitude: 43.5875, Longitude: -110.8279, Timezone: "America/Denver", State: "WY", Active: true},
	{Slug: "alta", Name: "Alta", UpstreamID: "alta", Latitude: 40.5884, Longitude: -111.6386, Timezone: "America/Denver", State: "UT", Active: true},
	{Slug: "snowbird", Name: "Snowbird", UpstreamID: "snowbird", Latitude: 40.5830, Longitude: -111.6508, Timezone: "America/Denver", State: "UT", Active: true},
	{Slug: "palisades-tahoe", Name: "Palisades Tahoe", UpstreamID: "palisades-tahoe", Latitude: 39.1969, Longitude: -120.2358, Timezone: "America/Los_Angeles", State: "CA", Active: true},
	{Slug: "mammoth", Name: "Mammoth Mountain", UpstreamID: "mammoth-mountain", Latitude: 37.6308, Longitude: -119.0326, Timezone: "America/Los_Angeles", State: "CA", Active: true},
	{Slug: "steamboat", Name: "Steamboat", UpstreamID: "steamboat", Latitude: 40.4572, Longitude: -106.8045, Timezone: "America/Denver", State: "CO", Active: true},
}

// SNOTEL station triplets for resorts with telemetry nearby; the rest fall
// back to modeled depth.
var snotelStations = snowdepth.Stations{
	"alta":         "366:UT:SNTL",
	"snowbird":     "766:UT:SNTL",
	"jackson-hole": "677:WY:SNTL",
	"steamboat":    "709:CO:SNTL",
}

type cli struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name='env-file',help='Environment file to load.'"`
	DB      string                   `help:"Path to the SQLite database." default:"data/powderline.db" env:"POWDERLINE_DB"`

	Serve   serveCmd   `cmd:"" default:"withargs" help:"Run the ingestion scheduler and API server."`
	Scrape  scrapeCmd  `cmd:"" help:"Run one scrape pass over the catalog and exit."`
	Cleanup cleanupCmd `cmd:"" help:"Delete expired snapshots and old raw payloads, then exit."`
}

type app struct {
	store        *store.Store
	orchestrator *ingest.Orchestrator
	resolver     *snowdepth.Resolver
	weather      *weather.Client
	cache        *snapcache.Cache
	radar        *radar.Client
	photos       *photos.Client
}

type serveCmd struct {
	Port   string `help:"HTTP server port." default:"8080" env:"POWDERLINE_PORT"`
	NoPoll bool   `help:"Disable background ingestion (server only, for local dev)."`
}

func (c *serveCmd) Run(a *app) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !c.NoPoll {
		scheduler := ingest.NewScheduler(a.store, a.orchestrator)
		scheduler.SetDepthResolver(a.resolver)
		scheduler.SetRadarClient(a.radar)
		scheduler.SetPhotoClient(a.photos)
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	server := api.NewServer(a.store, a.weather, a.cache, a.radar, c.Port)
	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

type scrapeCmd struct {
	Workers int `help:"Concurrent scrape workers." default:"1"`
}

func (c *scrapeCmd) Run(a *app) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var summary *ingest.Summary
	var err error
	if c.Workers > 1 {
		summary, err = a.orchestrator.ScrapeAllBounded(ctx, c.Workers)
	} else {
		summary, err = a.orchestrator.ScrapeAll(ctx)
	}
	if summary != nil {
		log.Printf("scrape: %d resorts, %d stored, %d failed, %d skipped",
			summary.Total, summary.Success, summary.Failed, summary.Skipped)
		for _, msg := range summary.Errors {
			log.Printf("scrape: %s", msg)
		}
	}
	return err
}

type cleanupCmd struct {
	SnapshotDays int `help:"Snapshot retention window in days." default:"7"`
	PayloadDays  int `help:"Raw payload retention window in days." default:"30"`
}

func (c *cleanupCmd) Run(a *app) error {
	snapshots, err := a.store.CleanupExpiredSnapshots(c.SnapshotDays)
	if err != nil {
		return err
	}
	payloads, err := a.store.CleanupOldRawPayloads(c.PayloadDays)
	if err != nil {
		return err
	}
	log.Printf("cleanup: removed %d snapshots, %d raw payloads", snapshots, payloads)
	return nil
}

func main() {
	var flags cli
	kctx := kong.Parse(&flags,
		kong.Name("powderline"),
		kong.Description("Ski resort conditions and forecast aggregator."),
		kong.UsageOnError(),
	)

	if flags.DB == "" {
		log.Fatal("database path required")
	}
	db, err := sql.Open("sqlite", flags.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	for _, r := range defaultResorts {
		if err := st.UpsertResort(r); err != nil {
			log.Fatalf("upsert resort %s: %v", r.Slug, err)
		}
	}
	log.Println("resorts seeded")

	cache := snapcache.New(st)
	a := &app{
		store:        st,
		orchestrator: ingest.NewOrchestrator(st, scrape.New(scrape.DefaultBaseURL, userAgent)),
		resolver:     snowdepth.New(snotelStations),
		weather:      weather.NewClient(),
		cache:        cache,
		radar:        radar.New(st, cache),
		photos:       photos.New(st, cache),
	}

	if err := kctx.Run(a); err != nil {
		log.Fatalf("%s: %v", kctx.Command(), err)
	}
}
