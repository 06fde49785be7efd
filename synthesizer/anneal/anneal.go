package anneal

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/catchsynth/catchsynth/dsl"
)

// FailedScore is the sentinel an evaluator returns for a program that
// could not be evaluated. It is excluded from best-so-far bookkeeping and
// from archiving, but still competes in acceptance as a legitimately bad
// score.
const FailedScore float64 = -1_000_000

// Evaluator scores a candidate program. Implementations must be
// deterministic for a fixed configuration and must signal failure with
// FailedScore rather than panicking; the raw components are informational.
type Evaluator interface {
	Evaluate(p dsl.Node) (components []float64, score float64)
}

// Optimizer refines the constant values of a candidate. It must not mutate
// its input; it returns a new tree, the constant assignment it settled on,
// the new score, and whether it actually improved on the input.
type Optimizer interface {
	Optimize(p dsl.Node, score float64) (dsl.Node, []float64, float64, bool)
}

// RestartMode selects how each restart of the outer loop seeds its current
// program.
type RestartMode int

const (
	// RegenerateEachRestart draws a fresh random program per restart,
	// keeping whatever global best earlier restarts found.
	RegenerateEachRestart RestartMode = iota
	// ContinueFromBest generates once up front and reseeds every restart
	// from the global best. More likely to get stuck on a local optimum.
	ContinueFromBest
)

type Config struct {
	InitialTemp float64
	FinalTemp   float64
	Alpha       float64 // cooling rate: t -> t / (1 + alpha*epoch)
	Beta        float64 // acceptance sharpness

	MaxDepth int
	MaxSize  int

	TimeLimit time.Duration
	Mode      RestartMode

	// Optimize queues candidates and flushes them to the Optimizer in
	// batches of BatchSize; Parallel fans the flush out over goroutines.
	Optimize  bool
	Parallel  bool
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		InitialTemp: 100,
		FinalTemp:   1,
		Alpha:       0.9,
		Beta:        100,
		MaxDepth:    4,
		MaxSize:     50,
		TimeLimit:   30 * time.Second,
		Mode:        RegenerateEachRestart,
		BatchSize:   1,
	}
}

// EpochStat is one inner-loop observation, surfaced through OnEpoch for
// archiving and dashboards. Sentinel-scored epochs are not surfaced.
type EpochStat struct {
	Restart     int
	Epoch       int
	Temperature float64
	Score       float64
	BestScore   float64
	Accepted    bool
	Program     dsl.Node
}

// Synthesizer runs simulated annealing over the strategy grammar.
type Synthesizer struct {
	Config  Config
	Grammar *dsl.Grammar
	Eval    Evaluator
	Opt     Optimizer
	Rng     *rand.Rand

	// OnEpoch, when set, receives one stat per evaluated candidate.
	OnEpoch func(EpochStat)
}

type scored struct {
	program dsl.Node
	score   float64
}

// Synthesize searches until the configured time budget elapses or ctx is
// cancelled. Cancellation is only observed between restarts: an in-flight
// cooling loop always runs to its temperature floor.
func (s *Synthesizer) Synthesize(ctx context.Context) (dsl.Node, float64) {
	cfg := s.Config
	rng := s.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	start := time.Now()

	var best dsl.Node
	bestScore := FailedScore

	if cfg.Mode == ContinueFromBest {
		best = Generate(rng, s.Grammar, cfg.MaxDepth, cfg.MaxSize)
		_, bestScore = s.Eval.Evaluate(best)
	}

	batch := make([]scored, 0, s.batchSize())
	restart := 0

	for time.Since(start) < cfg.TimeLimit {
		select {
		case <-ctx.Done():
			return best, bestScore
		default:
		}

		var current dsl.Node
		var currentScore float64

		switch cfg.Mode {
		case ContinueFromBest:
			current, currentScore = best, bestScore
		default:
			current = Generate(rng, s.Grammar, cfg.MaxDepth, cfg.MaxSize)
			_, currentScore = s.Eval.Evaluate(current)
			if best == nil || (currentScore > bestScore && currentScore != FailedScore) {
				best, bestScore = current, currentScore
			}
		}

		// Queued-but-unflushed candidates do not survive a restart.
		batch = batch[:0]

		temp := cfg.InitialTemp
		epoch := 0

		for temp > cfg.FinalTemp {
			candidate, err := Mutate(rng, s.Grammar, current, cfg.MaxDepth, cfg.MaxSize)
			if err != nil {
				// Corrupted tree: abort this iteration, keep current.
				log.Printf("anneal: dropping corrupt mutation at restart %d epoch %d: %v", restart, epoch, err)
				temp = reduceTemp(cfg, temp, epoch)
				epoch++
				continue
			}

			_, candidateScore := s.Eval.Evaluate(candidate)

			if cfg.Optimize && s.Opt != nil {
				batch = append(batch, scored{candidate, candidateScore})
				if len(batch) >= s.batchSize() {
					candidate, candidateScore = s.flushBatch(batch)
					batch = batch[:0]
				}
			}

			if candidateScore > bestScore && candidateScore != FailedScore {
				// Never publish a best whose bookkeeping cannot be trusted.
				if err := dsl.CheckCorrectSize(candidate); err != nil {
					log.Printf("anneal: refusing corrupt best at restart %d epoch %d: %v", restart, epoch, err)
				} else {
					best, bestScore = candidate, candidateScore
				}
			}

			delta := candidateScore - currentScore
			accepted := delta > 0 || s.accept(rng, delta, temp)
			if accepted {
				current, currentScore = candidate, candidateScore
			}

			if s.OnEpoch != nil && candidateScore != FailedScore {
				s.OnEpoch(EpochStat{
					Restart:     restart,
					Epoch:       epoch,
					Temperature: temp,
					Score:       candidateScore,
					BestScore:   bestScore,
					Accepted:    accepted,
					Program:     candidate,
				})
			}

			temp = reduceTemp(cfg, temp, epoch)
			epoch++
		}

		restart++
	}

	return best, bestScore
}

func (s *Synthesizer) batchSize() int {
	if s.Config.BatchSize > 0 {
		return s.Config.BatchSize
	}
	if s.Config.Parallel {
		return 5
	}
	return 1
}

// accept draws the Metropolis acceptance decision for a non-improving
// candidate.
func (s *Synthesizer) accept(rng *rand.Rand, delta, temp float64) bool {
	return rng.Float64() < acceptanceProbability(delta, s.Config.Beta, temp)
}

// acceptanceProbability is min(1, exp(delta*beta/temp)). For delta >= 0 it
// is exactly 1; for delta < 0 it shrinks as the temperature falls.
func acceptanceProbability(delta, beta, temp float64) float64 {
	return math.Min(1, math.Exp(delta*beta/temp))
}

// reduceTemp cools monotonically, with the rate slowing as the epoch
// index grows.
func reduceTemp(cfg Config, temp float64, epoch int) float64 {
	return temp / (1 + cfg.Alpha*float64(epoch))
}

// flushBatch hands the queued candidates to the optimizer and returns the
// best result. In parallel mode the batch fans out over one goroutine per
// candidate and gathers results back in submission order; the candidates
// themselves are immutable payloads, so no other state crosses the
// goroutine boundary.
func (s *Synthesizer) flushBatch(batch []scored) (dsl.Node, float64) {
	results := make([]scored, len(batch))

	if s.Config.Parallel {
		var wg sync.WaitGroup
		for i, item := range batch {
			wg.Add(1)
			go func(i int, item scored) {
				defer wg.Done()
				p, _, score, _ := s.Opt.Optimize(item.program, item.score)
				results[i] = scored{p, score}
			}(i, item)
		}
		wg.Wait()
	} else {
		for i, item := range batch {
			p, _, score, _ := s.Opt.Optimize(item.program, item.score)
			results[i] = scored{p, score}
		}
	}

	out := scored{program: nil, score: FailedScore}
	for _, r := range results {
		if r.program != nil && r.score > out.score {
			out = r
		}
	}
	if out.program == nil {
		// All optimizations failed; fall back to the raw batch tail.
		last := batch[len(batch)-1]
		return last.program, last.score
	}
	return out.program, out.score
}
