package store

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/powderline/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := New(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func seedResort(t *testing.T, store *Store, slug string) models.Resort {
	t.Helper()
	err := store.UpsertResort(models.Resort{
		Slug:       slug,
		Name:       "Test " + slug,
		UpstreamID: slug + "-mountain",
		Latitude:   44.5,
		Longitude:  -110.8,
		Timezone:   "America/Denver",
		State:      "WY",
		Active:     true,
	})
	if err != nil {
		t.Fatalf("upsert resort: %v", err)
	}
	r, err := store.GetResortBySlug(slug)
	if err != nil || r == nil {
		t.Fatalf("get resort back: %v", err)
	}
	return *r
}

func TestUpsertAndGetResort(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "jackson")

	if r.ID == 0 {
		t.Fatal("resort ID not assigned")
	}

	// Upserting the same slug updates in place rather than duplicating.
	r.Name = "Renamed"
	if err := store.UpsertResort(r); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	resorts, err := store.GetActiveResorts()
	if err != nil {
		t.Fatalf("list resorts: %v", err)
	}
	if len(resorts) != 1 {
		t.Fatalf("resorts = %d, want 1", len(resorts))
	}
	if resorts[0].Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", resorts[0].Name)
	}

	missing, err := store.GetResortBySlug("nope")
	if err != nil {
		t.Fatalf("lookup unknown slug: %v", err)
	}
	if missing != nil {
		t.Error("unknown slug should return nil")
	}
}

func TestInsertConditionsAppendOnly(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "alta")
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	c := models.ResortConditions{
		ResortID:          r.ID,
		ScrapedOn:         day,
		SnowDepthSummitCm: sql.NullFloat64{Float64: 250, Valid: true},
		LiftsOpen:         sql.NullInt64{Int64: 5, Valid: true},
		LiftsTotal:        sql.NullInt64{Int64: 7, Valid: true},
		IsOpen:            true,
	}
	inserted, err := store.InsertConditions(c)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert of the day should write a row")
	}

	// Same date again: the first reading wins.
	c.SnowDepthSummitCm = sql.NullFloat64{Float64: 999, Valid: true}
	inserted, err = store.InsertConditions(c)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Error("second insert on same date should be skipped")
	}

	got, err := store.GetLatestConditions(r.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil {
		t.Fatal("no conditions stored")
	}
	if got.SnowDepthSummitCm.Float64 != 250 {
		t.Errorf("summit depth = %v, want the first day's 250", got.SnowDepthSummitCm.Float64)
	}
	if !got.ScrapedOn.Equal(day) {
		t.Errorf("scraped_on = %v, want %v", got.ScrapedOn, day)
	}

	// A later date becomes the latest.
	c.ScrapedOn = day.AddDate(0, 0, 1)
	c.SnowDepthSummitCm = sql.NullFloat64{Float64: 260, Valid: true}
	if _, err := store.InsertConditions(c); err != nil {
		t.Fatalf("next day insert: %v", err)
	}
	got, _ = store.GetLatestConditions(r.ID)
	if got.SnowDepthSummitCm.Float64 != 260 {
		t.Errorf("latest summit depth = %v, want 260", got.SnowDepthSummitCm.Float64)
	}

	history, err := store.GetConditionsHistory(r.ID, 36500)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history rows = %d, want 2", len(history))
	}
}

func TestLatestConditionsEmpty(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "empty")
	got, err := store.GetLatestConditions(r.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got != nil {
		t.Error("want nil when nothing is stored")
	}
}

func TestUpsertResortInfo(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "brighton")

	info := models.ResortInfo{
		ResortID:         r.ID,
		ElevationBaseM:   sql.NullInt64{Int64: 1600, Valid: true},
		ElevationSummitM: sql.NullInt64{Int64: 3200, Valid: true},
		VerticalDropM:    sql.NullInt64{Int64: 1600, Valid: true},
		LiftsTotal:       sql.NullInt64{Int64: 12, Valid: true},
		UpdatedAt:        time.Now().UTC(),
	}
	if err := store.UpsertResortInfo(info); err != nil {
		t.Fatalf("upsert info: %v", err)
	}

	info.LiftsTotal = sql.NullInt64{Int64: 13, Valid: true}
	if err := store.UpsertResortInfo(info); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := store.GetResortInfo(r.ID)
	if err != nil {
		t.Fatalf("get info: %v", err)
	}
	if got == nil {
		t.Fatal("info missing")
	}
	if got.LiftsTotal.Int64 != 13 {
		t.Errorf("lifts total = %d, want updated 13", got.LiftsTotal.Int64)
	}
	if got.ElevationSummitM.Int64 != 3200 {
		t.Errorf("summit = %d, want 3200", got.ElevationSummitM.Int64)
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "targhee")
	now := time.Now().UTC()

	snap := &models.ForecastSnapshot{
		ResortID:  r.ID,
		Source:    "forecast",
		Payload:   []byte(`{"models":[]}`),
		FetchedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.InsertSnapshot(snap); err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}
	if snap.ID == 0 {
		t.Fatal("snapshot ID not assigned")
	}

	got, err := store.LatestSnapshot(r.ID, "forecast")
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if got == nil || string(got.Payload) != `{"models":[]}` {
		t.Fatalf("latest snapshot = %+v", got)
	}

	none, err := store.LatestSnapshot(r.ID, "radar")
	if err != nil {
		t.Fatalf("latest radar snapshot: %v", err)
	}
	if none != nil {
		t.Error("want nil for source with no snapshots")
	}

	hourly := []models.HourlyForecast{
		{SnapshotID: snap.ID, Time: "2026-01-10T08:00", TempF: sql.NullFloat64{Float64: 20, Valid: true}},
	}
	daily := []models.DailyForecast{
		{SnapshotID: snap.ID, Date: "2026-01-10", SnowfallIn: sql.NullFloat64{Float64: 4.5, Valid: true}},
	}
	if err := store.ReplaceForecastRows(snap, hourly, daily); err != nil {
		t.Fatalf("replace rows: %v", err)
	}

	gotHourly, err := store.GetHourlyForecasts(snap.ID)
	if err != nil || len(gotHourly) != 1 {
		t.Fatalf("hourly rows = %v (%v), want 1", gotHourly, err)
	}
	if gotHourly[0].Time != "2026-01-10T08:00" || gotHourly[0].TempF.Float64 != 20 {
		t.Errorf("hourly row = %+v", gotHourly[0])
	}
	gotDaily, err := store.GetDailyForecasts(snap.ID)
	if err != nil || len(gotDaily) != 1 {
		t.Fatalf("daily rows = %v (%v), want 1", gotDaily, err)
	}
	if gotDaily[0].Date != "2026-01-10" || gotDaily[0].SnowfallIn.Float64 != 4.5 {
		t.Errorf("daily row = %+v", gotDaily[0])
	}

	// A newer snapshot's rows supersede the old snapshot's rows.
	next := &models.ForecastSnapshot{
		ResortID:  r.ID,
		Source:    "forecast",
		Payload:   []byte(`{"models":[]}`),
		FetchedAt: now.Add(time.Hour),
		ExpiresAt: now.Add(2 * time.Hour),
	}
	if err := store.InsertSnapshot(next); err != nil {
		t.Fatalf("insert next snapshot: %v", err)
	}
	nextDaily := []models.DailyForecast{
		{SnapshotID: next.ID, Date: "2026-01-11", SnowfallIn: sql.NullFloat64{Float64: 2, Valid: true}},
	}
	if err := store.ReplaceForecastRows(next, nil, nextDaily); err != nil {
		t.Fatalf("replace rows for next snapshot: %v", err)
	}
	stale, err := store.GetDailyForecasts(snap.ID)
	if err != nil || len(stale) != 0 {
		t.Errorf("superseded snapshot kept %d daily rows (%v), want 0", len(stale), err)
	}
	staleHourly, err := store.GetHourlyForecasts(snap.ID)
	if err != nil || len(staleHourly) != 0 {
		t.Errorf("superseded snapshot kept %d hourly rows (%v), want 0", len(staleHourly), err)
	}
}

func TestCleanupExpiredSnapshotsKeepsLatest(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "snowbird")
	old := time.Now().UTC().AddDate(0, 0, -30)

	for i := 0; i < 3; i++ {
		snap := &models.ForecastSnapshot{
			ResortID:  r.ID,
			Source:    "forecast",
			Payload:   []byte("{}"),
			FetchedAt: old.Add(time.Duration(i) * time.Hour),
			ExpiresAt: old.Add(time.Duration(i+1) * time.Hour),
		}
		if err := store.InsertSnapshot(snap); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	deleted, err := store.CleanupExpiredSnapshots(7)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2 with the newest kept", deleted)
	}
	got, err := store.LatestSnapshot(r.ID, "forecast")
	if err != nil || got == nil {
		t.Fatalf("latest after cleanup: %v %v", got, err)
	}
}

func TestUpsertSnowDepth(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "solitude")

	reading := models.SnowDepthReading{
		ResortID:     r.ID,
		DepthIn:      42.5,
		Source:       "snotel",
		SourceDetail: "station 366",
		UpdatedAt:    time.Now().UTC(),
	}
	if err := store.UpsertSnowDepth(reading); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	reading.DepthIn = 44
	reading.Source = "open-meteo"
	if err := store.UpsertSnowDepth(reading); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := store.GetSnowDepth(r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DepthIn != 44 || got.Source != "open-meteo" {
		t.Errorf("reading = %+v, want updated depth and source", got)
	}
}

func TestRadarFrames(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := store.UpsertRadarFrame(models.RadarFrame{
			FrameTime: base.Add(time.Duration(i) * 5 * time.Minute),
			Path:      "/frames/a.png",
		})
		if err != nil {
			t.Fatalf("upsert frame: %v", err)
		}
	}
	// Same frame time replaces the path.
	if err := store.UpsertRadarFrame(models.RadarFrame{FrameTime: base, Path: "/frames/b.png"}); err != nil {
		t.Fatalf("replace frame: %v", err)
	}

	frames, err := store.GetRecentRadarFrames(10)
	if err != nil {
		t.Fatalf("recent frames: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	if frames[len(frames)-1].Path != "/frames/b.png" {
		t.Errorf("oldest frame path = %q, want replaced /frames/b.png", frames[len(frames)-1].Path)
	}
}

func TestScrapeRuns(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "powmow")

	run, err := store.StartScrapeRun(r.ID, "conditions")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	run.HTTPStatus = sql.NullInt64{Int64: 200, Valid: true}
	run.FieldsParsed = sql.NullInt64{Int64: 14, Valid: true}
	run.Success = true
	if err := store.CompleteScrapeRun(run); err != nil {
		t.Fatalf("complete run: %v", err)
	}

	fail, err := store.StartScrapeRun(r.ID, "conditions")
	if err != nil {
		t.Fatalf("start fail run: %v", err)
	}
	fail.ErrorMessage = sql.NullString{String: "status 503", Valid: true}
	if err := store.CompleteScrapeRun(fail); err != nil {
		t.Fatalf("complete fail run: %v", err)
	}

	errors, err := store.GetRecentScrapeErrors(10)
	if err != nil {
		t.Fatalf("recent errors: %v", err)
	}
	if len(errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(errors))
	}
	if errors[0].ErrorMessage.String != "status 503" {
		t.Errorf("error message = %q", errors[0].ErrorMessage.String)
	}

	health, err := store.GetScrapeHealth(7)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if len(health) != 1 || health[0].TotalRuns != 2 || health[0].SuccessRuns != 1 {
		t.Errorf("health = %+v, want 2 runs with 1 success", health)
	}
}

func TestRawPayloadRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	r := seedResort(t, store, "deer-valley")

	body := []byte("<html>conditions page</html>")
	id, err := store.StoreRawPayload(nil, "conditions", r.ID, body)
	if err != nil {
		t.Fatalf("store payload: %v", err)
	}
	if id == 0 {
		t.Fatal("payload ID not assigned")
	}

	got, err := store.GetRawPayload(id)
	if err != nil {
		t.Fatalf("get payload: %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("payload = %q, want original body back", got)
	}
}
