package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// BatchWriter streams epoch rows into rotating parquet batch files. Rows
// accumulate in a file under outDir/tmp; once the open batch reaches the
// flush threshold it is renamed into outDir and a fresh one starts on the
// next Append. Readers only ever see finalized files.
type BatchWriter struct {
	outDir    string
	tmpDir    string
	flushRows int

	tmpPath string
	outPath string
	file    *os.File
	writer  *parquet.GenericWriter[EpochRow]
	rows    int

	runs    int
	flushed int
	batches int
}

// NewBatchWriter prepares outDir and its tmp staging directory. No file is
// created until the first Append. A flushRows of zero or less keeps a single
// batch open until Close.
func NewBatchWriter(outDir string, flushRows int) (*BatchWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}
	return &BatchWriter{outDir: absOut, tmpDir: tmpDir, flushRows: flushRows}, nil
}

// BufferedRows reports rows written to the open batch that have not been
// finalized yet.
func (b *BatchWriter) BufferedRows() int { return b.rows }

// Totals reports the finalized batch count, the rows they hold, and the
// completed runs recorded over the writer's lifetime.
func (b *BatchWriter) Totals() (batches, rows, runs int) {
	return b.batches, b.flushed, b.runs
}

// NoteRunDone records that a run finished with all of its rows submitted.
func (b *BatchWriter) NoteRunDone() { b.runs++ }

// Append writes rows into the open batch, starting one if necessary. When
// the batch reaches the flush threshold it is finalized and its published
// path returned; otherwise the path is empty.
func (b *BatchWriter) Append(rows []EpochRow) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	if b.writer == nil {
		if err := b.open(); err != nil {
			return "", err
		}
	}
	if _, err := b.writer.Write(rows); err != nil {
		return "", fmt.Errorf("write rows: %w", err)
	}
	b.rows += len(rows)
	if b.flushRows > 0 && b.rows >= b.flushRows {
		return b.finalize()
	}
	return "", nil
}

// Close finalizes whatever batch is open. Calling it with nothing buffered
// is a no-op.
func (b *BatchWriter) Close() (string, error) {
	if b.writer == nil {
		return "", nil
	}
	return b.finalize()
}

func (b *BatchWriter) open() error {
	name := fmt.Sprintf("batch_%d.parquet", time.Now().UnixNano())
	b.tmpPath = filepath.Join(b.tmpDir, name)
	b.outPath = filepath.Join(b.outDir, name)

	f, err := os.OpenFile(b.tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open tmp parquet: %w", err)
	}
	w := parquet.NewGenericWriter[EpochRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", epochSchemaTag)

	b.file = f
	b.writer = w
	b.rows = 0
	return nil
}

// finalize closes the open batch and renames it out of tmp/. An empty batch
// is removed instead of published.
func (b *BatchWriter) finalize() (string, error) {
	closeErr := b.writer.Close()
	_ = b.file.Sync()
	fileErr := b.file.Close()
	b.writer = nil
	b.file = nil

	if closeErr != nil {
		_ = os.Remove(b.tmpPath)
		return "", fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		_ = os.Remove(b.tmpPath)
		return "", fmt.Errorf("close parquet file: %w", fileErr)
	}
	if b.rows == 0 {
		_ = os.Remove(b.tmpPath)
		return "", nil
	}
	if err := os.Rename(b.tmpPath, b.outPath); err != nil {
		return "", fmt.Errorf("publish parquet batch: %w", err)
	}
	b.batches++
	b.flushed += b.rows
	b.rows = 0
	return b.outPath, nil
}
