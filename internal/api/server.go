// Package api serves the normalized resort data as JSON. All upstream
// weather calls go through the snapshot cache so request traffic never
// translates directly into upstream traffic.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/powderline/internal/models"
	"github.com/lox/powderline/internal/radar"
	"github.com/lox/powderline/internal/snapcache"
	"github.com/lox/powderline/internal/store"
	"github.com/lox/powderline/internal/weather"
)

type Server struct {
	store   *store.Store
	weather *weather.Client
	cache   *snapcache.Cache
	radar   *radar.Client
	port    string
	now     func() time.Time
}

func NewServer(st *store.Store, wc *weather.Client, cache *snapcache.Cache, rc *radar.Client, port string) *Server {
	return &Server{
		store:   st,
		weather: wc,
		cache:   cache,
		radar:   rc,
		port:    port,
		now:     time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/resorts", s.handleResorts)
	mux.HandleFunc("GET /api/resorts/{slug}/conditions", s.handleConditions)
	mux.HandleFunc("GET /api/resorts/{slug}/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/resorts/{slug}/forecast/hourly", s.handleForecastHourly)
	mux.HandleFunc("GET /api/resorts/{slug}/season-snowfall", s.handleSeasonSnowfall)
	mux.HandleFunc("GET /api/radar", s.handleRadar)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolveResort handles the two request-level 4xx conditions: an unknown
// slug is 404 and a resort without coordinates cannot serve weather, 422.
func (s *Server) resolveResort(w http.ResponseWriter, r *http.Request, needCoords bool) *models.Resort {
	slug := r.PathValue("slug")
	resort, err := s.store.GetResortBySlug(slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if resort == nil {
		writeError(w, http.StatusNotFound, "unknown resort: "+slug)
		return nil
	}
	if needCoords && resort.Latitude == 0 && resort.Longitude == 0 {
		writeError(w, http.StatusUnprocessableEntity, "resort has no coordinates: "+slug)
		return nil
	}
	return resort
}

func (s *Server) handleResorts(w http.ResponseWriter, r *http.Request) {
	resorts, err := s.store.GetActiveResorts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]resortView, 0, len(resorts))
	for _, resort := range resorts {
		out = append(out, newResortView(resort))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	resort := s.resolveResort(w, r, false)
	if resort == nil {
		return
	}

	conditions, err := s.store.GetLatestConditions(resort.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	info, err := s.store.GetResortInfo(resort.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	depth, err := s.store.GetSnowDepth(resort.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	photo, err := s.store.GetResortPhoto(resort.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newConditionsView(*resort, conditions, info, depth, photo))
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	resort := s.resolveResort(w, r, true)
	if resort == nil {
		return
	}

	snap, fresh, err := s.cache.GetOrFetchSnapshot(r.Context(), resort.ID, "forecast", snapcache.WeatherTTL, func(ctx context.Context) ([]byte, error) {
		resp := s.weather.FetchAllModels(ctx, resort.Latitude, resort.Longitude, resort.Timezone)
		return json.Marshal(resp)
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if fresh {
		// Derived rows track the snapshot; a failure here must not fail
		// the response, the payload is already stored.
		if err := s.storeDailyRows(snap); err != nil {
			log.Printf("api: daily rows for %s: %v", resort.Slug, err)
		}
	}
	writeRawJSON(w, snap.Payload)
}

func (s *Server) handleForecastHourly(w http.ResponseWriter, r *http.Request) {
	resort := s.resolveResort(w, r, true)
	if resort == nil {
		return
	}

	snap, fresh, err := s.cache.GetOrFetchSnapshot(r.Context(), resort.ID, "forecast_hourly", snapcache.WeatherTTL, func(ctx context.Context) ([]byte, error) {
		resp := s.weather.FetchAllModelsHourly(ctx, resort.Latitude, resort.Longitude, resort.Timezone)
		return json.Marshal(resp)
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if fresh {
		if err := s.storeHourlyRows(snap); err != nil {
			log.Printf("api: hourly rows for %s: %v", resort.Slug, err)
		}
	}
	writeRawJSON(w, snap.Payload)
}

func (s *Server) handleSeasonSnowfall(w http.ResponseWriter, r *http.Request) {
	resort := s.resolveResort(w, r, true)
	if resort == nil {
		return
	}

	payload, err := s.cache.GetOrFetch(r.Context(), resort.ID, "season", snapcache.WeatherTTL, func(ctx context.Context) ([]byte, error) {
		cmp, err := s.weather.CompareSeasons(ctx, resort.Latitude, resort.Longitude, s.now().UTC())
		if err != nil {
			return nil, err
		}
		return json.Marshal(cmp)
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeRawJSON(w, payload)
}

func (s *Server) handleRadar(w http.ResponseWriter, r *http.Request) {
	if s.radar == nil {
		writeError(w, http.StatusNotFound, "radar not configured")
		return
	}
	frames, err := s.radar.Frames(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	out := make([]radarFrameView, 0, len(frames))
	for _, f := range frames {
		out = append(out, radarFrameView{Time: f.FrameTime.Unix(), Path: f.Path})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{"status": "ok"}
	resorts, err := s.store.GetActiveResorts()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	health["resorts"] = len(resorts)

	stale := 0
	cutoff := s.now().UTC().AddDate(0, 0, -2)
	for _, resort := range resorts {
		if resort.UpstreamID == "" {
			continue
		}
		cond, err := s.store.GetLatestConditions(resort.ID)
		if err != nil {
			continue
		}
		if cond == nil || cond.ScrapedOn.Before(cutoff) {
			stale++
		}
	}
	if stale > 0 {
		health["status"] = "degraded"
		health["staleResorts"] = stale
	}
	writeJSON(w, http.StatusOK, health)
}

// writeRawJSON passes an already-encoded payload straight through, the
// common case for cache hits.
func writeRawJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}
