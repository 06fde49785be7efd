// Command enumerate builds the bottom-up program bank up to a cost cap and
// prints what it found, optionally scoring every program at the top level.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/catchsynth/catchsynth/bank"
	"github.com/catchsynth/catchsynth/catcher"
	"github.com/catchsynth/catchsynth/dsl"
	"github.com/catchsynth/catchsynth/eval"
	"github.com/catchsynth/catchsynth/store"
	"github.com/catchsynth/catchsynth/synthesizer/anneal"
)

func main() {
	maxCost := flag.Int("max-cost", 8, "Enumerate programs up to this cost")
	actions := flag.Int("actions", len(eval.Actions), "Number of entries in the actions array")
	maxConstant := flag.Float64("max-constant", 64, "Largest constant in the grammar pool")
	constantStep := flag.Float64("constant-step", 1, "Spacing of the constant pool")
	dump := flag.Bool("dump", false, "Print every banked program, not just counts")
	score := flag.Bool("score", false, "Evaluate every full strategy at the max cost")
	episodes := flag.Int("episodes", 4, "Catcher episodes per evaluation when -score is set")
	seed := flag.Int64("seed", 1, "Evaluation RNG seed")
	out := flag.String("out", "", "Write scored strategies to this parquet file (implies -score)")
	flag.Parse()

	grammar := dsl.CatcherGrammar(*actions, *maxConstant, *constantStep)

	start := time.Now()
	b := bank.Populate(grammar, *maxCost)
	log.Printf("Bank populated: %d programs up to cost %d in %v", b.Count(), *maxCost, time.Since(start))

	for _, cost := range b.Costs() {
		level := b.Level(cost)
		total := 0
		kinds := make([]dsl.Kind, 0, len(level))
		for k, programs := range level {
			total += len(programs)
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

		fmt.Printf("cost %d: %d programs\n", cost, total)
		for _, k := range kinds {
			fmt.Printf("  %-20s %d\n", k, len(level[k]))
			if *dump {
				for _, p := range level[k] {
					fmt.Printf("    %s\n", p)
				}
			}
		}
	}

	if !*score && *out == "" {
		return
	}

	evalCfg := eval.DefaultConfig()
	evalCfg.Episodes = *episodes
	evalCfg.Seed = *seed
	evalCfg.Settings = catcher.DefaultSettings
	evaluator := eval.New(evalCfg)

	type scored struct {
		program dsl.Node
		score   float64
	}

	strategies := b.Programs(*maxCost, dsl.KindStrategy)
	log.Printf("Scoring %d strategies at cost %d", len(strategies), *maxCost)

	all := make([]scored, 0, len(strategies))
	for _, p := range strategies {
		_, s := evaluator.Evaluate(p)
		all = append(all, scored{p, s})
	}

	if *out != "" {
		runID := fmt.Sprintf("enumerate_%d", time.Now().UnixNano())
		rows := make([]store.EpochRow, len(all))
		running := anneal.FailedScore
		for i, sc := range all {
			if sc.score > running {
				running = sc.score
			}
			rows[i] = store.EpochRow{
				RunID:       runID,
				Epoch:       int32(i),
				Score:       sc.score,
				BestScore:   running,
				ProgramSize: int32(sc.program.Size()),
				Program:     sc.program.String(),
				Source:      "enumerate",
				UnixMillis:  time.Now().UnixMilli(),
			}
		}
		if err := store.WriteEpochParquet(*out, rows); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
		log.Printf("Wrote %d scored strategies to %s", len(rows), *out)
	}

	best := all
	sort.SliceStable(best, func(i, j int) bool { return best[i].score > best[j].score })
	if len(best) > 10 {
		best = best[:10]
	}

	fmt.Println("\nTop strategies:")
	for _, sc := range best {
		fmt.Printf("score %.0f:\n%s\n", sc.score, sc.program)
	}
}
