package sim

import (
	"encoding/json"

	"robosoccer/internal/config"
	"robosoccer/internal/learn"
)

// MatchStats are cumulative event counters for one match.
type MatchStats struct {
	Passes      int `json:"passes"`
	Shots       int `json:"shots"`
	Turnovers   int `json:"turnovers"`
	StuckBreaks int `json:"stuck_breaks"`
}

// MatchResult summarizes a finished match.
type MatchResult struct {
	Seed      int64      `json:"seed"`
	Duration  float64    `json:"duration"`
	Ticks     uint64     `json:"ticks"`
	BlueGoals int        `json:"blue_goals"`
	RedGoals  int        `json:"red_goals"`
	Stats     MatchStats `json:"stats"`
	Events    []Event    `json:"events,omitempty"`
}

// Stats returns the running match counters.
func (e *Engine) Stats() MatchStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// RunMatch simulates one full self-play match of the given length and
// returns its summary. With record set the full event log rides along.
func RunMatch(cfg *config.Config, stores func(scope string) learn.Store, seed int64, seconds float64, record bool) MatchResult {
	e := NewEngine(cfg, stores, seed)
	e.SetRecording(record)

	ticks := uint64(seconds * cfg.Physics.TickHz)
	for i := uint64(0); i < ticks; i++ {
		e.Tick()
	}

	_ = e.SaveLearners()

	blue, red := e.Scores()
	res := MatchResult{
		Seed:      seed,
		Duration:  e.Now(),
		Ticks:     ticks,
		BlueGoals: blue,
		RedGoals:  red,
		Stats:     e.Stats(),
	}
	if record {
		res.Events = e.DrainEvents()
	}
	return res
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
