package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"AUScraper/internal/logger"
	"AUScraper/internal/models"

	_ "modernc.org/sqlite" // pure Go driver
)

// DBRepository is the sqlite mirror of the corpus plus the run ledger. The
// JSON corpus file stays the source of truth.
type DBRepository struct {
	DB *sql.DB
}

// InitDB opens (creating if needed) the index at filepath.
func InitDB(path string) (*DBRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating index directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	createRecordsTableSQL := `
	CREATE TABLE IF NOT EXISTS records (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"position" INTEGER NOT NULL,
		"url" TEXT UNIQUE,
		"title" TEXT,
		"title_key" TEXT,
		"summary" TEXT,
		"key_learnings" TEXT,
		"topics" TEXT,
		"industries" TEXT,
		"products" TEXT,
		"error" TEXT,
		"sync_gen" INTEGER,
		"indexed_at" DATETIME
	);`
	if _, err = db.Exec(createRecordsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating records table: %w", err)
	}

	createRunsTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		"id" TEXT NOT NULL PRIMARY KEY,
		"started_at" DATETIME,
		"ended_at" DATETIME,
		"found" INTEGER,
		"filtered" INTEGER,
		"new_records" INTEGER,
		"failed" INTEGER,
		"total" INTEGER,
		"status" TEXT,
		"error" TEXT
	);`
	if _, err = db.Exec(createRunsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating runs table: %w", err)
	}

	logger.Debug("index initialized", "path", path)
	return &DBRepository{DB: db}, nil
}

// Close closes the database connection.
func (repo *DBRepository) Close() error {
	return repo.DB.Close()
}

// SyncCorpus makes the records table mirror corpus, keyed by URL.
func (repo *DBRepository) SyncCorpus(corpus models.Corpus) error {
	tx, err := repo.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT INTO records (
		position, url, title, title_key, summary, key_learnings,
		topics, industries, products, error, sync_gen, indexed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		position=excluded.position,
		title=excluded.title,
		title_key=excluded.title_key,
		summary=excluded.summary,
		key_learnings=excluded.key_learnings,
		topics=excluded.topics,
		industries=excluded.industries,
		products=excluded.products,
		error=excluded.error,
		sync_gen=excluded.sync_gen,
		indexed_at=excluded.indexed_at;
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	gen := now.UnixNano()
	for i, r := range corpus {
		r = r.Normalize()
		_, err := stmt.Exec(
			i, r.URL, r.Title, models.NormalizeTitle(r.Title), r.Summary, r.KeyLearnings,
			r.Tags.Topics, r.Tags.Industries, r.Tags.Products, r.Error, gen, now,
		)
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", r.URL, err)
		}
	}
	// the corpus file is authoritative; drop rows it no longer has
	if _, err := tx.Exec("DELETE FROM records WHERE sync_gen <> ?", gen); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordRun stores a ledger row for a finished run.
func (repo *DBRepository) RecordRun(run models.RunRecord) error {
	_, err := repo.DB.Exec(`
	INSERT INTO runs (id, started_at, ended_at, found, filtered, new_records, failed, total, status, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		ended_at=excluded.ended_at,
		found=excluded.found,
		filtered=excluded.filtered,
		new_records=excluded.new_records,
		failed=excluded.failed,
		total=excluded.total,
		status=excluded.status,
		error=excluded.error;
	`,
		run.ID, run.StartedAt, run.EndedAt, run.Found, run.Filtered, run.New,
		run.Failed, run.Total, run.Status, run.Error,
	)
	return err
}

func recordConditions(filters models.RecordFilters) (string, []interface{}) {
	var args []interface{}
	var conditions []string

	tagFilter := func(column, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions,
			fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(records.%s) WHERE json_each.value = ?)", column))
		args = append(args, value)
	}
	tagFilter("topics", filters.Topic)
	tagFilter("industries", filters.Industry)
	tagFilter("products", filters.Product)

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

// CountRecords counts the records matching filters, ignoring paging.
func (repo *DBRepository) CountRecords(filters models.RecordFilters) (int, error) {
	where, args := recordConditions(filters)
	var n int
	if err := repo.DB.QueryRow("SELECT COUNT(*) FROM records"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// GetRecords retrieves records in corpus order based on a set of filters.
func (repo *DBRepository) GetRecords(filters models.RecordFilters) ([]models.DetailRecord, error) {
	where, args := recordConditions(filters)
	query := `SELECT url, title, summary, key_learnings, topics, industries, products, error
	          FROM records` + where + " ORDER BY position ASC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filters.Offset)
		}
	}

	rows, err := repo.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute filtered query: %w", err)
	}
	defer rows.Close()

	records := []models.DetailRecord{}
	for rows.Next() {
		var r models.DetailRecord
		var errText sql.NullString
		if err := rows.Scan(
			&r.URL, &r.Title, &r.Summary, &r.KeyLearnings,
			&r.Tags.Topics, &r.Tags.Industries, &r.Tags.Products, &errText,
		); err != nil {
			logger.Warn("error scanning record row", "error", err)
			continue
		}
		r.Error = errText.String
		records = append(records, r.Normalize())
	}
	return records, rows.Err()
}

// GetRuns returns the most recent runs first. limit <= 0 returns all.
func (repo *DBRepository) GetRuns(limit int) ([]models.RunRecord, error) {
	query := `SELECT id, started_at, ended_at, found, filtered, new_records, failed, total, status, error
	          FROM runs ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := repo.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RunRecord{}
	for rows.Next() {
		var r models.RunRecord
		var errText sql.NullString
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.EndedAt, &r.Found, &r.Filtered, &r.New,
			&r.Failed, &r.Total, &r.Status, &errText,
		); err != nil {
			logger.Warn("error scanning run row", "error", err)
			continue
		}
		r.Error = errText.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
