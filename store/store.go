// Package store persists synthesis telemetry as Parquet batch files.
// Long-running synthesis workers append epoch rows through a BatchWriter;
// readers (the viewer, offline analysis) only ever see fully-written files
// because batches are staged in a tmp/ directory and renamed into place.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// EpochRow is a single annealing epoch observation.
//
// Program is the canonical source rendering of the candidate, which doubles
// as its identity: two rows with the same Program describe the same program.
// Score uses the run's sentinel (-1e6) for candidates that faulted.
type EpochRow struct {
	RunID       string  `parquet:"run_id,dict"`
	Restart     int32   `parquet:"restart"`
	Epoch       int32   `parquet:"epoch"`
	Temperature float64 `parquet:"temperature"`
	Score       float64 `parquet:"score"`
	BestScore   float64 `parquet:"best_score"`
	Accepted    bool    `parquet:"accepted"`
	ProgramSize int32   `parquet:"program_size"`
	Program     string  `parquet:"program"`
	Source      string  `parquet:"source,dict"`
	UnixMillis  int64   `parquet:"unix_millis"`
}

const epochSchemaTag = "epoch_row_v1"

// WriteEpochParquet writes rows to a single file, staging through a .tmp
// sibling so a crash never leaves a truncated parquet behind.
func WriteEpochParquet(outPath string, rows []EpochRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", epochSchemaTag),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadEpochParquet loads every row from a batch file. Intended for tests
// and small offline inspection; the viewer queries batches through DuckDB.
func ReadEpochParquet(path string) ([]EpochRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[EpochRow](f)
	defer reader.Close()

	out := make([]EpochRow, 0, reader.NumRows())
	buf := make([]EpochRow, 256)
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			break
		}
	}
	return out, nil
}
