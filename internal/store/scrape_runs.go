package store

import (
	"database/sql"
	"time"
)

// ScrapeRun represents a single upstream fetch operation for auditing.
type ScrapeRun struct {
	ID                int64
	StartedAt         time.Time
	FinishedAt        sql.NullTime
	ResortID          sql.NullInt64
	Page              string // "conditions", "lifts", "snotel", ...
	HTTPStatus        sql.NullInt64
	ResponseSizeBytes sql.NullInt64
	FieldsParsed      sql.NullInt64
	Success           bool
	ErrorMessage      sql.NullString
}

// StartScrapeRun creates a new scrape run record and returns it.
func (s *Store) StartScrapeRun(resortID int64, page string) (*ScrapeRun, error) {
	run := &ScrapeRun{
		StartedAt: time.Now().UTC(),
		Page:      page,
	}
	if resortID > 0 {
		run.ResortID = sql.NullInt64{Int64: resortID, Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (started_at, resort_id, page, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.ResortID, run.Page)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CompleteScrapeRun updates the scrape run with results.
func (s *Store) CompleteScrapeRun(run *ScrapeRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE scrape_runs SET
			finished_at = ?,
			http_status = ?,
			response_size_bytes = ?,
			fields_parsed = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.HTTPStatus, run.ResponseSizeBytes, run.FieldsParsed,
		run.Success, run.ErrorMessage, run.ID)
	return err
}

// ScrapeHealthSummary is one day of scrape outcomes per page.
type ScrapeHealthSummary struct {
	Date        string
	Page        string
	TotalRuns   int
	SuccessRuns int
	FailedRuns  int
}

// GetScrapeHealth returns scrape health summaries for the last N days.
func (s *Store) GetScrapeHealth(days int) ([]ScrapeHealthSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			DATE(SUBSTR(started_at, 1, 19)) as date,
			page,
			COUNT(*) as total_runs,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) as success_runs,
			SUM(CASE WHEN NOT success THEN 1 ELSE 0 END) as failed_runs
		FROM scrape_runs
		WHERE SUBSTR(started_at, 1, 19) > datetime('now', '-' || ? || ' days')
		GROUP BY date, page
		ORDER BY date DESC, page
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ScrapeHealthSummary
	for rows.Next() {
		var h ScrapeHealthSummary
		if err := rows.Scan(&h.Date, &h.Page, &h.TotalRuns, &h.SuccessRuns, &h.FailedRuns); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

// GetRecentScrapeErrors returns recent failed scrape runs.
func (s *Store) GetRecentScrapeErrors(limit int) ([]ScrapeRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, resort_id, page,
			   http_status, response_size_bytes, fields_parsed, success, error_message
		FROM scrape_runs
		WHERE success = FALSE
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ScrapeRun
	for rows.Next() {
		var r ScrapeRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.ResortID, &r.Page,
			&r.HTTPStatus, &r.ResponseSizeBytes, &r.FieldsParsed, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
