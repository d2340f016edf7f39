// Package scrape extracts live conditions and static resort numbers from the
// upstream ski-information site. The markup has no stable schema, so each
// field runs an ordered regex battery over the rendered page text; a field
// that matches nothing stays null. Only a transport failure of the primary
// page fails the scrape as a whole.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/k3a/html2text"

	"github.com/lox/powderline/internal/httputil"
	"github.com/lox/powderline/internal/metrics"
	"github.com/lox/powderline/internal/models"
)

const DefaultBaseURL = "https://www.skiresort.info"

type Scraper struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func New(baseURL, userAgent string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    httputil.NewClient(),
	}
}

// FetchResult carries transport details back to the orchestrator for the
// scrape_runs audit table.
type FetchResult struct {
	HTTPStatus   int
	ResponseSize int
}

// Result is a successful scrape. Conditions and Info have no resort id set;
// the caller owns identity and persistence.
type Result struct {
	Conditions models.ResortConditions
	Info       models.ResortInfo
	RawHTML    string
	Fetch      FetchResult
}

// Scrape fetches the resort detail page and, best-effort, the ski-lifts
// page. It returns nil only when the primary page cannot be fetched at all;
// parse misses surface as null fields on an otherwise valid Result.
func (s *Scraper) Scrape(ctx context.Context, upstreamID string) (*Result, error) {
	html, fetch, err := s.fetchPage(ctx, fmt.Sprintf("/ski-resort/%s/", upstreamID), "detail")
	if err != nil {
		return nil, err
	}

	text := html2text.HTML2Text(html)

	res := &Result{
		Conditions: parseConditions(text),
		Info:       parseInfo(text),
		RawHTML:    html,
		Fetch:      *fetch,
	}

	// The lift-type breakdown lives on a second page. Its failure is
	// non-fatal and leaves the five count fields null.
	liftHTML, _, err := s.fetchPage(ctx, fmt.Sprintf("/ski-resort/%s/ski-lifts/", upstreamID), "lifts")
	if err == nil {
		parseLiftTypes(html2text.HTML2Text(liftHTML), &res.Info)
	}

	applyLiftTotalFallback(&res.Conditions, &res.Info)
	return res, nil
}

// fetchPage retrieves one page, retrying rate-limit statuses and transient
// network failures. Only non-retryable statuses end the attempt early.
func (s *Scraper) fetchPage(ctx context.Context, path, page string) (string, *FetchResult, error) {
	url := s.baseURL + path
	result := &FetchResult{}

	var body []byte
	started := time.Now()
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", s.userAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			// Connection resets and timeouts are worth another attempt.
			return fmt.Errorf("fetch %s: %w", path, err)
		}
		defer resp.Body.Close()

		result.HTTPStatus = resp.StatusCode

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			return fmt.Errorf("rate limited: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", path, resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	metrics.ScrapeLatency.WithLabelValues(page).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ScrapeFetchesTotal.WithLabelValues(page, "error").Inc()
		return "", result, err
	}
	metrics.ScrapeFetchesTotal.WithLabelValues(page, "ok").Inc()

	result.ResponseSize = len(body)
	return string(body), result, nil
}

// firstMatch runs a battery in order and returns the submatches of the first
// pattern that hits.
func firstMatch(text string, battery []*regexp.Regexp) []string {
	for _, re := range battery {
		if m := re.FindStringSubmatch(text); m != nil {
			return m
		}
	}
	return nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
