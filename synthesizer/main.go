package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/catchsynth/catchsynth/catcher"
	"github.com/catchsynth/catchsynth/dsl"
	"github.com/catchsynth/catchsynth/eval"
	"github.com/catchsynth/catchsynth/optimizer"
	"github.com/catchsynth/catchsynth/store"
	"github.com/catchsynth/catchsynth/synthesizer/anneal"
)

var totalEpochs atomic.Int64
var totalAccepted atomic.Int64
var totalRestarts atomic.Int64

type WorkerUpdate struct {
	WorkerID  int
	BestScore float64
	Program   string
}

type epochWriteRequest struct {
	rows    []store.EpochRow
	runDone bool
}

type model struct {
	bestScore   float64
	bestProgram string
	epochs      int64
	accepted    int64
	restarts    int64
	startTime   time.Time
	recent      []string
	updates     chan WorkerUpdate
}

func initialModel(updates chan WorkerUpdate) model {
	return model{
		bestScore: anneal.FailedScore,
		startTime: time.Now(),
		updates:   updates,
	}
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates chan WorkerUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.epochs = totalEpochs.Load()
		m.accepted = totalAccepted.Load()
		m.restarts = totalRestarts.Load()
		return m, tickCmd()
	case WorkerUpdate:
		if msg.BestScore > m.bestScore {
			m.bestScore = msg.BestScore
			m.bestProgram = msg.Program
		}
		logMsg := fmt.Sprintf("Worker %d: best %.0f", msg.WorkerID, msg.BestScore)
		m.recent = append([]string{logMsg}, m.recent...)
		if len(m.recent) > 10 {
			m.recent = m.recent[:10]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	epochsPerSec := float64(m.epochs) / duration.Seconds()
	if duration.Seconds() < 1 {
		epochsPerSec = 0
	}

	s := fmt.Sprintf("Epochs:     %d\n", m.epochs)
	s += fmt.Sprintf("Accepted:   %d\n", m.accepted)
	s += fmt.Sprintf("Restarts:   %d\n", m.restarts)
	s += fmt.Sprintf("Duration:   %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Epochs/Sec: %.2f\n", epochsPerSec)
	s += fmt.Sprintf("Best Score: %.0f\n\n", m.bestScore)

	if m.bestProgram != "" {
		s += "Best Program:\n" + m.bestProgram + "\n"
	}

	s += "Recent Improvements:\n"
	for _, r := range m.recent {
		s += r + "\n"
	}

	s += "\nPress q to quit.\n"
	return s
}

func main() {
	outDir := flag.String("out-dir", "data/runs", "Output directory for epoch parquet batches")
	workers := flag.Int("workers", 4, "Number of concurrent annealing workers")
	rowsPerFlush := flag.Int("rows-per-flush", 2048, "Number of epoch rows to buffer per parquet flush")
	timeLimit := flag.Duration("time-limit", 30*time.Second, "Wall-clock budget per worker")
	initialTemp := flag.Float64("initial-temp", 100, "Initial temperature")
	finalTemp := flag.Float64("final-temp", 1, "Cooling loop stops once temperature falls below this")
	alpha := flag.Float64("alpha", 0.9, "Cooling rate")
	beta := flag.Float64("beta", 100, "Acceptance sharpness")
	maxDepth := flag.Int("max-depth", 4, "Max depth for generated subtrees")
	maxSize := flag.Int("max-size", 50, "Soft cap on program size")
	mode := flag.String("mode", "regen", "Restart mode: regen (fresh program each restart) or continue (reseed from best)")
	optimize := flag.Bool("optimize", false, "Run the constant optimizer on candidates")
	parallelOpt := flag.Bool("parallel-optimize", false, "Fan optimizer batches out over goroutines")
	batchSize := flag.Int("batch-size", 0, "Optimizer batch size (0 = pick from parallel-optimize)")
	episodes := flag.Int("episodes", 4, "Catcher episodes per evaluation")
	seed := flag.Int64("seed", 1, "Base RNG seed; worker i uses seed+i")
	useTUI := flag.Bool("tui", false, "Render a live dashboard instead of log output")
	flag.Parse()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	restartMode := anneal.RegenerateEachRestart
	if *mode == "continue" {
		restartMode = anneal.ContinueFromBest
	} else if *mode != "regen" {
		log.Fatalf("unknown -mode %q (want regen or continue)", *mode)
	}

	cfg := anneal.Config{
		InitialTemp: *initialTemp,
		FinalTemp:   *finalTemp,
		Alpha:       *alpha,
		Beta:        *beta,
		MaxDepth:    *maxDepth,
		MaxSize:     *maxSize,
		TimeLimit:   *timeLimit,
		Mode:        restartMode,
		Optimize:    *optimize,
		Parallel:    *parallelOpt,
		BatchSize:   *batchSize,
	}

	grammar := dsl.CatcherGrammar(len(eval.Actions), 64, 1)

	log.Printf("Starting synthesis with %d workers (budget %s)", *workers, *timeLimit)

	updates := make(chan WorkerUpdate, *workers)
	writeReqs := make(chan epochWriteRequest, (*workers)*4)

	writerDone := make(chan struct{})
	go func() {
		parquetWriterLoop(*outDir, *rowsPerFlush, writeReqs)
		close(writerDone)
	}()

	runStamp := time.Now().UnixNano()

	var workerWG sync.WaitGroup
	for i := 0; i < *workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()

			evalCfg := eval.DefaultConfig()
			evalCfg.Episodes = *episodes
			evalCfg.Seed = *seed
			evalCfg.Settings = catcher.DefaultSettings
			evaluator := eval.New(evalCfg)

			rng := rand.New(rand.NewSource(*seed + int64(workerID)))

			var opt anneal.Optimizer
			if *optimize {
				opt = optimizer.New(optimizer.DefaultConfig(), evaluator, rng)
			}

			runID := fmt.Sprintf("run_%d_w%d", runStamp, workerID)
			workerBest := anneal.FailedScore
			lastRestart := -1

			s := &anneal.Synthesizer{
				Config:  cfg,
				Grammar: grammar,
				Eval:    evaluator,
				Opt:     opt,
				Rng:     rng,
				OnEpoch: func(st anneal.EpochStat) {
					totalEpochs.Add(1)
					if st.Accepted {
						totalAccepted.Add(1)
					}
					if st.Restart != lastRestart {
						totalRestarts.Add(1)
						lastRestart = st.Restart
					}

					program := st.Program.String()
					writeReqs <- epochWriteRequest{rows: []store.EpochRow{{
						RunID:       runID,
						Restart:     int32(st.Restart),
						Epoch:       int32(st.Epoch),
						Temperature: st.Temperature,
						Score:       st.Score,
						BestScore:   st.BestScore,
						Accepted:    st.Accepted,
						ProgramSize: int32(st.Program.Size()),
						Program:     program,
						Source:      "anneal",
						UnixMillis:  time.Now().UnixMilli(),
					}}}

					if st.BestScore > workerBest {
						workerBest = st.BestScore
						// Avoid blocking shutdown if the UI loop stops consuming.
						select {
						case updates <- WorkerUpdate{WorkerID: workerID, BestScore: st.BestScore, Program: program}:
						default:
						}
					}
				},
			}

			best, bestScore := s.Synthesize(ctx)
			writeReqs <- epochWriteRequest{runDone: true}
			if best != nil {
				log.Printf("Worker %d finished: best score %.0f\n%s", workerID, bestScore, best.String())
			} else {
				log.Printf("Worker %d finished without a valid program", workerID)
			}
		}(i)
	}

	// Close down the writer once every worker's budget has elapsed.
	allDone := make(chan struct{})
	go func() {
		workerWG.Wait()
		close(allDone)
	}()

	if *useTUI {
		go func() {
			<-allDone
			cancel()
		}()
		p := tea.NewProgram(initialModel(updates), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			log.Fatal(err)
		}
		<-allDone
		close(writeReqs)
		<-writerDone
		log.Printf("Shutdown complete: final parquet flush done (epochs=%d)", totalEpochs.Load())
		return
	}

	startTime := time.Now()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-allDone:
			close(writeReqs)
			<-writerDone
			log.Printf("Shutdown complete: final parquet flush done (epochs=%d)", totalEpochs.Load())
			return
		case <-ctx.Done():
			log.Printf("Shutdown requested; waiting for workers to finish current restarts...")
			<-allDone
			close(writeReqs)
			<-writerDone
			log.Printf("Shutdown complete: final parquet flush done (epochs=%d)", totalEpochs.Load())
			return
		case update := <-updates:
			log.Printf("Worker %d: best %.0f", update.WorkerID, update.BestScore)
		case <-ticker.C:
			duration := time.Since(startTime)
			epochs := totalEpochs.Load()
			epochsPerSec := float64(epochs) / duration.Seconds()
			log.Printf("Stats: Epochs: %d, Epochs/s: %.2f, Accepted: %d, Restarts: %d",
				epochs, epochsPerSec, totalAccepted.Load(), totalRestarts.Load())
		}
	}
}

func parquetWriterLoop(outDir string, rowsPerFlush int, in <-chan epochWriteRequest) {
	if rowsPerFlush <= 0 {
		rowsPerFlush = 2048
	}

	bw, err := store.NewBatchWriter(outDir, rowsPerFlush)
	if err != nil {
		log.Printf("Parquet writer disabled: %v", err)
		for range in {
		}
		return
	}

	sinceFlush := 0
	for req := range in {
		if req.runDone {
			bw.NoteRunDone()
		}
		if len(req.rows) == 0 {
			continue
		}
		sinceFlush += len(req.rows)
		outPath, err := bw.Append(req.rows)
		if err != nil {
			log.Printf("Parquet write failed (rows=%d): %v", len(req.rows), err)
			continue
		}
		if outPath != "" {
			log.Printf("Parquet flush ok: %s (rows=%d)", outPath, sinceFlush)
			sinceFlush = 0
		}
	}

	outPath, err := bw.Close()
	if err != nil {
		log.Printf("Parquet final flush failed (rows=%d): %v", sinceFlush, err)
		return
	}
	if outPath != "" {
		log.Printf("Parquet final flush ok: %s (rows=%d)", outPath, sinceFlush)
	}
	batches, rows, runs := bw.Totals()
	log.Printf("Parquet writer done: %d batches, %d rows, %d runs", batches, rows, runs)
}
