package main

// RunSummary aggregates one synthesis run (one worker's annealing session).
type RunSummary struct {
	RunID string `json:"run_id"`
	// StartedNs is parsed from run_id for runs with format: run_<unix_nano>_w<worker>.
	// Nil for run IDs that do not match that format.
	StartedNs   *int64  `json:"started_ns"`
	Epochs      int64   `json:"epochs"`
	Restarts    int64   `json:"restarts"`
	Accepted    int64   `json:"accepted"`
	BestScore   float64 `json:"best_score"`
	BestProgram string  `json:"best_program"`
	Source      string  `json:"source"`
	SourceFile  string  `json:"file"`
}

type RunsResponse struct {
	Total int64        `json:"total"`
	Runs  []RunSummary `json:"runs"`
}

// ScorePoint is one epoch of a run's score trace.
type ScorePoint struct {
	Restart     int32   `json:"restart"`
	Epoch       int32   `json:"epoch"`
	Temperature float64 `json:"temperature"`
	Score       float64 `json:"score"`
	BestScore   float64 `json:"best_score"`
	Accepted    bool    `json:"accepted"`
	ProgramSize int32   `json:"program_size"`
	UnixMillis  int64   `json:"unix_millis"`
}

type ScoresResponse struct {
	RunID  string       `json:"run_id"`
	Total  int64        `json:"total"`
	Points []ScorePoint `json:"points"`
}

// StatsPoint buckets synthesis throughput and progress over wall-clock time.
type StatsPoint struct {
	TMs       int64   `json:"t_ms"`
	Epochs    int64   `json:"epochs"`
	Accepted  int64   `json:"accepted"`
	BestScore float64 `json:"best_score"`
}

type StatsResponse struct {
	FromMs   int64        `json:"from_ms"`
	ToMs     int64        `json:"to_ms"`
	BucketMs int64        `json:"bucket_ms"`
	Points   []StatsPoint `json:"points"`
}

// BestUpdate is pushed over the live websocket whenever the global best
// program changes.
type BestUpdate struct {
	RunID      string  `json:"run_id"`
	BestScore  float64 `json:"best_score"`
	Program    string  `json:"program"`
	UnixMillis int64   `json:"unix_millis"`
}
