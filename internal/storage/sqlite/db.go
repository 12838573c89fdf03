// Package sqlite is the durable store of past account usage, rich time
// entries, and the selection audit history.
package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"accountbot/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS account_usage (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_key   TEXT NOT NULL,
		account_key TEXT NOT NULL,
		used_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_usage_issue ON account_usage(issue_key);
	CREATE INDEX IF NOT EXISTS idx_usage_account ON account_usage(account_key);

	CREATE TABLE IF NOT EXISTS time_entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_key   TEXT NOT NULL,
		account_key TEXT NOT NULL,
		description TEXT DEFAULT '',
		seconds     INTEGER DEFAULT 0,
		logged_at   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_issue ON time_entries(issue_key);

	CREATE TABLE IF NOT EXISTS selection_history (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_key    TEXT NOT NULL,
		account_key  TEXT NOT NULL,
		account_name TEXT DEFAULT '',
		confidence   REAL NOT NULL,
		method       TEXT NOT NULL,
		reason       TEXT DEFAULT '',
		decided_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_sh_issue ON selection_history(issue_key);
	CREATE INDEX IF NOT EXISTS idx_sh_date ON selection_history(decided_at);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, err
	}

	// Migration: older databases carried time entries without a project key.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('time_entries') WHERE name = 'project_key'`).Scan(&colCount)
	if colCount == 0 {
		_, _ = db.Exec(`ALTER TABLE time_entries ADD COLUMN project_key TEXT DEFAULT ''`)
	}

	return db, nil
}

func InsertUsage(db *sql.DB, rec domain.UsageRecord) error {
	_, err := db.Exec(
		`INSERT INTO account_usage (issue_key, account_key) VALUES (?, ?)`,
		rec.IssueKey, rec.AccountKey,
	)
	return err
}

func ListUsage(db *sql.DB) ([]domain.UsageRecord, error) {
	rows, err := db.Query(`SELECT issue_key, account_key FROM account_usage ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UsageRecord
	for rows.Next() {
		var r domain.UsageRecord
		if err := rows.Scan(&r.IssueKey, &r.AccountKey); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func InsertTimeEntries(db *sql.DB, entries []domain.TimeEntry) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO time_entries (issue_key, project_key, account_key, description, seconds, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, en := range entries {
		projectKey := en.ProjectKey
		if projectKey == "" {
			projectKey = projectKeyFromIssue(en.IssueKey)
		}
		if _, err := stmt.Exec(en.IssueKey, projectKey, en.AccountKey, en.Description, en.Seconds, en.LoggedAt); err != nil {
			return inserted, err
		}
		inserted++
	}

	return inserted, tx.Commit()
}

func ListTimeEntriesForProject(db *sql.DB, projectKey string) ([]domain.TimeEntry, error) {
	rows, err := db.Query(
		`SELECT issue_key, project_key, account_key, description, seconds, logged_at
		 FROM time_entries WHERE project_key = ? ORDER BY logged_at`,
		projectKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TimeEntry
	for rows.Next() {
		var en domain.TimeEntry
		if err := rows.Scan(&en.IssueKey, &en.ProjectKey, &en.AccountKey, &en.Description, &en.Seconds, &en.LoggedAt); err != nil {
			return nil, err
		}
		out = append(out, en)
	}
	return out, rows.Err()
}

func InsertSelection(db *sql.DB, rec domain.SelectionRecord) error {
	_, err := db.Exec(
		`INSERT INTO selection_history (issue_key, account_key, account_name, confidence, method, reason)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.IssueKey, rec.AccountKey, rec.AccountName, rec.Confidence, rec.Method, rec.Reason,
	)
	return err
}

func RecentSelections(db *sql.DB, limit int) ([]domain.SelectionRecord, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT id, issue_key, account_key, account_name, confidence, method, reason, decided_at
		 FROM selection_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SelectionRecord
	for rows.Next() {
		var r domain.SelectionRecord
		if err := rows.Scan(&r.ID, &r.IssueKey, &r.AccountKey, &r.AccountName, &r.Confidence, &r.Method, &r.Reason, &r.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SelectionStatsSince aggregates selections decided at or after the cutoff.
func SelectionStatsSince(db *sql.DB, since time.Time) (domain.SelectionStats, error) {
	rows, err := db.Query(
		`SELECT confidence, method FROM selection_history WHERE decided_at >= ?`,
		since,
	)
	if err != nil {
		return domain.SelectionStats{}, err
	}
	defer rows.Close()

	var stats domain.SelectionStats
	var confidenceSum float64
	for rows.Next() {
		var confidence float64
		var method string
		if err := rows.Scan(&confidence, &method); err != nil {
			return domain.SelectionStats{}, err
		}
		stats.Total++
		confidenceSum += confidence
		switch method {
		case domain.MethodAI:
			stats.AICount++
		case domain.MethodFallback:
			stats.FallbackCount++
		}
		switch {
		case confidence < 0.5:
			stats.BucketBelow50++
		case confidence < 0.7:
			stats.Bucket50to70++
		case confidence < 0.9:
			stats.Bucket70to90++
		default:
			stats.Bucket90Plus++
		}
	}
	if err := rows.Err(); err != nil {
		return domain.SelectionStats{}, err
	}
	if stats.Total > 0 {
		stats.AvgConfidence = confidenceSum / float64(stats.Total)
	}
	return stats, nil
}

// projectKeyFromIssue derives "WEB" from "WEB-123". Issue keys without a
// hyphen have no project.
func projectKeyFromIssue(issueKey string) string {
	idx := strings.LastIndex(issueKey, "-")
	if idx <= 0 {
		return ""
	}
	return issueKey[:idx]
}
