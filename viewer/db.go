package main

import (
	"context"
	"database/sql"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DBCache maintains a cached DuckDB connection that refreshes periodically.
type DBCache struct {
	roots       []string
	refreshRate time.Duration

	mu          sync.RWMutex
	db          *sql.DB
	lastRefresh time.Time

	// Cached runs index for fast pagination
	runsIndex     []RunSummary
	runsIndexTime time.Time
}

// NewDBCache creates a new DBCache with the given roots and refresh rate.
func NewDBCache(roots []string, refreshRate time.Duration) *DBCache {
	return &DBCache{
		roots:       roots,
		refreshRate: refreshRate,
	}
}

// Get returns the cached DB connection, refreshing if needed.
func (c *DBCache) Get() (*sql.DB, error) {
	c.mu.RLock()
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		db := c.db
		c.mu.RUnlock()
		return db, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		return c.db, nil
	}

	return c.refreshLocked()
}

// Refresh forces a refresh of the cached DB connection.
func (c *DBCache) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.refreshLocked()
	return err
}

func (c *DBCache) refreshLocked() (*sql.DB, error) {
	start := time.Now()

	newDB, err := openDuckDBWithGlobs(c.roots)
	if err != nil {
		return nil, err
	}

	if c.db != nil {
		_ = c.db.Close()
	}

	c.db = newDB
	c.lastRefresh = time.Now()
	// Invalidate runs index so it gets rebuilt on next access
	c.runsIndex = nil
	c.runsIndexTime = time.Time{}

	log.Printf("DBCache refreshed in %v", time.Since(start))
	return c.db, nil
}

// GetRunsIndex returns the cached runs index, rebuilding if needed.
// The index is only rebuilt when the DB itself is refreshed (new files detected).
func (c *DBCache) GetRunsIndex(ctx context.Context) ([]RunSummary, error) {
	c.mu.RLock()
	if c.runsIndex != nil && c.db != nil {
		idx := c.runsIndex
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if c.runsIndex != nil && c.db != nil {
		return c.runsIndex, nil
	}

	if c.db == nil {
		if _, err := c.refreshLocked(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	runs, err := queryAllRuns(ctx, c.db, c.roots)
	if err != nil {
		return nil, err
	}

	c.runsIndex = runs
	c.runsIndexTime = time.Now()
	log.Printf("Runs index rebuilt: %d runs in %v", len(runs), time.Since(start))

	return c.runsIndex, nil
}

// Close closes the cached DB connection.
func (c *DBCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// openDuckDBWithGlobs creates a DuckDB connection using glob patterns for the
// roots. Much faster than enumerating all files.
func openDuckDBWithGlobs(roots []string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	// Basic pragmas; ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=4")

	globs := make([]string, 0, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		glob := filepath.Join(root, "**", "*.parquet")
		globs = append(globs, "'"+escapeSQLString(glob)+"'")
	}

	if len(globs) == 0 {
		// Empty view
		_, err := db.Exec(`CREATE OR REPLACE VIEW epochs AS
			SELECT * FROM (
				SELECT
					NULL::VARCHAR AS run_id,
					NULL::INTEGER AS restart,
					NULL::INTEGER AS epoch,
					NULL::DOUBLE AS temperature,
					NULL::DOUBLE AS score,
					NULL::DOUBLE AS best_score,
					NULL::BOOLEAN AS accepted,
					NULL::INTEGER AS program_size,
					NULL::VARCHAR AS program,
					NULL::VARCHAR AS source,
					NULL::BIGINT AS unix_millis,
					NULL::VARCHAR AS filename
			) WHERE 1=0`)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	// Exclude tmp directories so half-written batches never show up.
	sqlText := `CREATE OR REPLACE VIEW epochs AS
		SELECT * FROM read_parquet([` + strings.Join(globs, ",") + `], filename=true, union_by_name=true)
		WHERE NOT contains(filename, '/tmp/')`
	if _, err := db.Exec(sqlText); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func makeRelativeToRoots(filename string, roots []string) string {
	fn := strings.TrimSpace(filename)
	if fn == "" {
		return ""
	}
	best := fn
	bestLen := len(best)
	for _, r := range roots {
		root := strings.TrimSpace(r)
		if root == "" {
			continue
		}
		rel, err := filepath.Rel(root, fn)
		if err != nil {
			continue
		}
		// Ignore paths that escape the root.
		if strings.HasPrefix(rel, "..") {
			continue
		}
		cand := filepath.ToSlash(filepath.Join(root, rel))
		if len(cand) < bestLen {
			best = cand
			bestLen = len(cand)
		}
	}
	return best
}

// queryAllRuns loads all run summaries from DuckDB (used to build the cache).
func queryAllRuns(ctx context.Context, db *sql.DB, roots []string) ([]RunSummary, error) {
	// One pass: aggregate per run, then join in the best-scoring program.
	query := `WITH run_stats AS (
		SELECT
			run_id,
			try_cast(regexp_extract(run_id, '^run_([0-9]+)_w', 1) AS BIGINT) AS started_ns,
			COUNT(*)::BIGINT AS epochs,
			(MAX(restart) - MIN(restart) + 1)::BIGINT AS restarts,
			SUM(CASE WHEN accepted THEN 1 ELSE 0 END)::BIGINT AS accepted,
			MAX(best_score) AS best_score,
			MIN(source)::VARCHAR AS source,
			MIN(filename)::VARCHAR AS file
		FROM epochs
		GROUP BY run_id
	),
	best_rows AS (
		SELECT run_id, program
		FROM (
			SELECT run_id, program,
				row_number() OVER (PARTITION BY run_id ORDER BY score DESC, program_size ASC) AS rn
			FROM epochs
		)
		WHERE rn = 1
	)
	SELECT
		r.run_id,
		r.started_ns,
		r.epochs,
		r.restarts,
		r.accepted,
		r.best_score,
		COALESCE(b.program, '') AS best_program,
		r.source,
		r.file
	FROM run_stats r
	LEFT JOIN best_rows b ON r.run_id = b.run_id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RunSummary, 0, 1024)
	for rows.Next() {
		var r RunSummary
		var file string
		if err := rows.Scan(&r.RunID, &r.StartedNs, &r.Epochs, &r.Restarts, &r.Accepted, &r.BestScore, &r.BestProgram, &r.Source, &file); err != nil {
			return nil, err
		}
		r.SourceFile = makeRelativeToRoots(file, roots)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Pre-sort by started_ns DESC (default) for fast subsequent sorts
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedNs == nil && out[j].StartedNs == nil {
			return out[i].RunID > out[j].RunID
		}
		if out[i].StartedNs == nil {
			return false
		}
		if out[j].StartedNs == nil {
			return true
		}
		if *out[i].StartedNs != *out[j].StartedNs {
			return *out[i].StartedNs > *out[j].StartedNs
		}
		return out[i].RunID > out[j].RunID
	})

	return out, nil
}

func normalizeSort(sortKey string, sortDir string) (string, string) {
	sk := strings.ToLower(strings.TrimSpace(sortKey))
	sd := strings.ToLower(strings.TrimSpace(sortDir))
	if sd != "asc" && sd != "desc" {
		sd = "desc"
	}
	switch sk {
	case "time", "started", "started_ns":
		sk = "started_ns"
	case "id", "run", "run_id":
		sk = "run_id"
	case "epochs":
		sk = "epochs"
	case "restarts":
		sk = "restarts"
	case "score", "best", "best_score":
		sk = "best_score"
	case "source":
		sk = "source"
	case "file", "filename":
		sk = "file"
	default:
		sk = "started_ns"
		sd = "desc"
	}
	return sk, sd
}

// paginateRuns sorts and paginates a runs index in memory.
func paginateRuns(runs []RunSummary, limit, offset int, sortKey, sortDir string) []RunSummary {
	sk, sd := normalizeSort(sortKey, sortDir)

	sorted := make([]RunSummary, len(runs))
	copy(sorted, runs)

	sort.Slice(sorted, func(i, j int) bool {
		var less bool
		switch sk {
		case "started_ns":
			if sorted[i].StartedNs == nil && sorted[j].StartedNs == nil {
				less = sorted[i].RunID < sorted[j].RunID
			} else if sorted[i].StartedNs == nil {
				less = false // nil goes last in ASC
			} else if sorted[j].StartedNs == nil {
				less = true
			} else {
				less = *sorted[i].StartedNs < *sorted[j].StartedNs
			}
		case "run_id":
			less = sorted[i].RunID < sorted[j].RunID
		case "epochs":
			less = sorted[i].Epochs < sorted[j].Epochs
		case "restarts":
			less = sorted[i].Restarts < sorted[j].Restarts
		case "best_score":
			less = sorted[i].BestScore < sorted[j].BestScore
		case "source":
			less = sorted[i].Source < sorted[j].Source
		case "file":
			less = sorted[i].SourceFile < sorted[j].SourceFile
		default:
			less = sorted[i].RunID < sorted[j].RunID
		}

		if sd == "desc" {
			return !less
		}
		return less
	})

	if offset >= len(sorted) {
		return []RunSummary{}
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end]
}

func queryRunScores(ctx context.Context, db *sql.DB, runID string, limit, offset int) ([]ScorePoint, int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM epochs WHERE run_id = ?`, runID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT restart::INTEGER, epoch::INTEGER, temperature, score, best_score, accepted, program_size::INTEGER, unix_millis::BIGINT
		 FROM epochs
		 WHERE run_id = ?
		 ORDER BY restart ASC, epoch ASC
		 LIMIT ? OFFSET ?`, runID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	points := make([]ScorePoint, 0, limit)
	for rows.Next() {
		var p ScorePoint
		if err := rows.Scan(&p.Restart, &p.Epoch, &p.Temperature, &p.Score, &p.BestScore, &p.Accepted, &p.ProgramSize, &p.UnixMillis); err != nil {
			return nil, 0, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return points, total, nil
}

func queryStats(ctx context.Context, db *sql.DB, fromMs, toMs, bucketMs int64) ([]StatsPoint, error) {
	query := `WITH bucketed AS (
		SELECT
			(? + floor((unix_millis - ?)::DOUBLE / ?::DOUBLE) * ?)::BIGINT AS bucket_start_ms,
			accepted,
			best_score
		FROM epochs
		WHERE unix_millis >= ? AND unix_millis <= ?
	)
	SELECT
		bucket_start_ms,
		COUNT(*)::BIGINT AS epochs,
		SUM(CASE WHEN accepted THEN 1 ELSE 0 END)::BIGINT AS accepted,
		MAX(best_score) AS best_score
	FROM bucketed
	GROUP BY bucket_start_ms
	ORDER BY bucket_start_ms ASC`

	rows, err := db.QueryContext(ctx, query, fromMs, fromMs, bucketMs, bucketMs, fromMs, toMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]StatsPoint, 0, 1024)
	for rows.Next() {
		var p StatsPoint
		if err := rows.Scan(&p.TMs, &p.Epochs, &p.Accepted, &p.BestScore); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// queryGlobalBest returns the single best-scoring epoch row across all runs.
func queryGlobalBest(ctx context.Context, db *sql.DB) (BestUpdate, bool, error) {
	row := db.QueryRowContext(ctx,
		`SELECT run_id, score, program, unix_millis::BIGINT
		 FROM epochs
		 ORDER BY score DESC, program_size ASC
		 LIMIT 1`)

	var b BestUpdate
	if err := row.Scan(&b.RunID, &b.BestScore, &b.Program, &b.UnixMillis); err != nil {
		if err == sql.ErrNoRows {
			return BestUpdate{}, false, nil
		}
		return BestUpdate{}, false, err
	}
	return b, true, nil
}
