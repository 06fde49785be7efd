package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/catchsynth/catchsynth/store"
)

func epochRow(epoch int) store.EpochRow {
	return store.EpochRow{
		RunID:       "run_1700000000000000000_w0",
		Epoch:       int32(epoch),
		Temperature: 100,
		Score:       float64(epoch),
		BestScore:   float64(epoch),
		Program:     fmt.Sprintf("return actions[%d]\n", epoch%3),
		ProgramSize: 3,
		Source:      "anneal",
		UnixMillis:  1700000000000 + int64(epoch),
	}
}

func TestParquetWriterLoopFlushes(t *testing.T) {
	dir := t.TempDir()

	const total = 5
	in := make(chan epochWriteRequest, total+1)
	for i := 0; i < total; i++ {
		in <- epochWriteRequest{rows: []store.EpochRow{epochRow(i)}}
	}
	in <- epochWriteRequest{runDone: true}
	close(in)

	// Threshold of 2 forces mid-stream flushes plus a final partial one.
	parquetWriterLoop(dir, 2, in)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read out dir: %v", err)
	}
	var rows int
	var batches int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		batches++
		got, err := store.ReadEpochParquet(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("ReadEpochParquet(%s): %v", e.Name(), err)
		}
		rows += len(got)
	}
	if batches != 3 {
		t.Errorf("published %d batch files, want 3", batches)
	}
	if rows != total {
		t.Errorf("batches hold %d rows, want %d", rows, total)
	}

	tmpEntries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	if err != nil {
		t.Fatalf("read tmp dir: %v", err)
	}
	if len(tmpEntries) != 0 {
		t.Errorf("tmp dir still holds %d entries after shutdown", len(tmpEntries))
	}
}
