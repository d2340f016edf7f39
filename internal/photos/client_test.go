package photos

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/lox/powderline/internal/models"
	"github.com/lox/powderline/internal/snapcache"
	"github.com/lox/powderline/internal/store"
)

const pageImageBody = `{
	"query": {
		"pages": {
			"12345": {
				"title": "Alta Ski Area",
				"original": {"source": "https://upload.wikimedia.org/alta.jpg"}
			}
		}
	}
}`

func setup(t *testing.T, body string) (*Client, *store.Store, *int) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := New(st, snapcache.New(st))
	c.apiURL = srv.URL
	return c, st, &hits
}

func TestPhoto(t *testing.T) {
	c, st, hits := setup(t, pageImageBody)
	resort := models.Resort{ID: 1, Slug: "alta", Name: "Alta Ski Area"}

	photo, err := c.Photo(context.Background(), resort)
	if err != nil {
		t.Fatalf("Photo: %v", err)
	}
	if photo == nil || photo.URL != "https://upload.wikimedia.org/alta.jpg" {
		t.Fatalf("photo = %+v", photo)
	}
	if photo.Credit.String != "Wikipedia: Alta Ski Area" {
		t.Errorf("credit = %q", photo.Credit.String)
	}

	stored, err := st.GetResortPhoto(1)
	if err != nil || stored == nil {
		t.Fatalf("stored photo missing: %v", err)
	}

	// Second lookup inside the week-long TTL stays local.
	if _, err := c.Photo(context.Background(), resort); err != nil {
		t.Fatalf("second Photo: %v", err)
	}
	if *hits != 1 {
		t.Errorf("upstream hits = %d, want 1", *hits)
	}
}

func TestPhotoArticleWithoutImage(t *testing.T) {
	c, _, _ := setup(t, `{"query": {"pages": {"1": {"title": "Obscure Hill"}}}}`)
	photo, err := c.Photo(context.Background(), models.Resort{ID: 2, Name: "Obscure Hill"})
	if err != nil {
		t.Fatalf("Photo: %v", err)
	}
	if photo != nil {
		t.Errorf("photo = %+v, want nil for article without an image", photo)
	}
}
