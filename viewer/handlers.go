package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

func withCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < 0 {
		return def
	}
	return n
}

func parseInt64Query(r *http.Request, key string, def int64) int64 {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func handleRuns(cache *DBCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withCORS(w, r)
		if r.Method == http.MethodOptions {
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		runs, err := cache.GetRunsIndex(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		limit := parseIntQuery(r, "limit", 200)
		offset := parseIntQuery(r, "offset", 0)
		sortKey := strings.TrimSpace(r.URL.Query().Get("sort"))
		sortDir := strings.TrimSpace(r.URL.Query().Get("dir"))

		page := paginateRuns(runs, limit, offset, sortKey, sortDir)
		writeJSON(w, RunsResponse{Total: int64(len(runs)), Runs: page})
	}
}

func handleRunScores(cache *DBCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withCORS(w, r)
		if r.Method == http.MethodOptions {
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// /api/runs/{id}/scores
		rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "scores" {
			http.NotFound(w, r)
			return
		}
		runID, err := url.PathUnescape(parts[0])
		if err != nil {
			http.Error(w, "bad run id", http.StatusBadRequest)
			return
		}

		db, err := cache.Get()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		limit := parseIntQuery(r, "limit", 10000)
		offset := parseIntQuery(r, "offset", 0)

		points, total, err := queryRunScores(r.Context(), db, runID, limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, ScoresResponse{RunID: runID, Total: total, Points: points})
	}
}

func handleStats(cache *DBCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withCORS(w, r)
		if r.Method == http.MethodOptions {
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fromMs := parseInt64Query(r, "from_ms", 0)
		toMs := parseInt64Query(r, "to_ms", 0)
		bucketMs := parseInt64Query(r, "bucket_ms", 60_000)
		if bucketMs <= 0 {
			bucketMs = 60_000
		}
		if fromMs <= 0 || toMs <= 0 || toMs <= fromMs {
			// Default: last 24h.
			nowMs := time.Now().UnixMilli()
			toMs = nowMs
			fromMs = nowMs - 24*time.Hour.Milliseconds()
		}

		db, err := cache.Get()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		points, err := queryStats(r.Context(), db, fromMs, toMs, bucketMs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, StatsResponse{FromMs: fromMs, ToMs: toMs, BucketMs: bucketMs, Points: points})
	}
}

func handleBest(cache *DBCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withCORS(w, r)
		if r.Method == http.MethodOptions {
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		db, err := cache.Get()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		best, ok, err := queryGlobalBest(r.Context(), db)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, best)
	}
}
