package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"robosoccer/internal/config"
	"robosoccer/internal/learn"
	"robosoccer/internal/sim"
)

func main() {
	var cfgPath, out, weights string
	var seed int64
	var n int
	var seconds float64
	var saveLog bool
	flag.StringVar(&cfgPath, "config", "assets/sim.yaml", "config file")
	flag.StringVar(&out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.StringVar(&weights, "weights", "weights", "weights dir, or a .db file for sqlite")
	flag.Int64Var(&seed, "seed", 12345, "seed")
	flag.IntVar(&n, "n", 1, "number of matches")
	flag.Float64Var(&seconds, "seconds", 120, "match length in sim seconds")
	flag.BoolVar(&saveLog, "log", true, "save full event log when n==1")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	stores, closeStores, err := openStores(weights)
	if err != nil {
		panic(err)
	}
	defer closeStores()

	if n <= 1 {
		res := sim.RunMatch(cfg, stores, seed, seconds, saveLog)
		if err := os.WriteFile(out, sim.MarshalPretty(res), 0644); err != nil {
			panic(err)
		}
		fmt.Printf("Single match finished. Blue %d - %d Red, T=%.1fs, passes=%d -> %s\n",
			res.BlueGoals, res.RedGoals, res.Duration, res.Stats.Passes, out)
		return
	}

	type stat struct {
		BlueWins  int
		RedWins   int
		Draws     int
		BlueGoals int
		RedGoals  int
		Agg       sim.MatchStats
	}
	var st stat
	var mu sync.Mutex
	wg := sync.WaitGroup{}
	workers := 8
	jobs := make(chan int, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				res := sim.RunMatch(cfg, stores, seed+int64(workerID)*7919+int64(i), seconds, false)

				mu.Lock()
				switch {
				case res.BlueGoals > res.RedGoals:
					st.BlueWins++
				case res.RedGoals > res.BlueGoals:
					st.RedWins++
				default:
					st.Draws++
				}
				st.BlueGoals += res.BlueGoals
				st.RedGoals += res.RedGoals
				st.Agg.Passes += res.Stats.Passes
				st.Agg.Shots += res.Stats.Shots
				st.Agg.Turnovers += res.Stats.Turnovers
				st.Agg.StuckBreaks += res.Stats.StuckBreaks
				mu.Unlock()
			}
		}(w)
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	fn := float64(n)
	summary := map[string]any{
		"runs":            n,
		"seconds":         seconds,
		"blue_win_rate":   float64(st.BlueWins) / fn,
		"red_win_rate":    float64(st.RedWins) / fn,
		"draw_rate":       float64(st.Draws) / fn,
		"avg_blue_goals":  float64(st.BlueGoals) / fn,
		"avg_red_goals":   float64(st.RedGoals) / fn,
		"avg_passes":      float64(st.Agg.Passes) / fn,
		"avg_shots":       float64(st.Agg.Shots) / fn,
		"avg_turnovers":   float64(st.Agg.Turnovers) / fn,
		"avg_stuck_break": float64(st.Agg.StuckBreaks) / fn,
	}
	if err := os.WriteFile(out, sim.MarshalPretty(summary), 0644); err != nil {
		panic(err)
	}
	fmt.Printf("Batch %d done -> %s\n", n, filepath.Base(out))
}

// openStores maps a weights location to per-scope learner stores: a .db
// path opens one shared sqlite file, anything else is a directory of
// key=value text files.
func openStores(path string) (func(scope string) learn.Store, func(), error) {
	if filepath.Ext(path) == ".db" {
		db, err := learn.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return db.Store, func() { _ = db.Close() }, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, nil, err
	}
	return func(scope string) learn.Store {
		return learn.NewFileStore(filepath.Join(path, scope+".weights"))
	}, func() {}, nil
}
