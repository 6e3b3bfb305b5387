package sim

import (
	"sort"

	"robosoccer/internal/behavior"
	"robosoccer/internal/world"
)

// BallSnapshot is the ball in the true (blue-perspective) frame.
type BallSnapshot struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

type RobotSnapshot struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Orient float64 `json:"orient"`
}

// TargetSnapshot is a planner's chosen off-ball destination for one robot.
type TargetSnapshot struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// MarkSnapshot binds a defender to the opponent it is marking.
type MarkSnapshot struct {
	DefenderID int     `json:"defender_id"`
	OppID      int     `json:"opp_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Snapshot is one tick's full observable state, all in the true frame. Red
// planner output is flipped out of its mirrored decision frame.
type Snapshot struct {
	Tick      uint64  `json:"tick"`
	Time      float64 `json:"time"`
	BlueScore int     `json:"blue_score"`
	RedScore  int     `json:"red_score"`

	Ball BallSnapshot    `json:"ball"`
	Blue []RobotSnapshot `json:"blue"`
	Red  []RobotSnapshot `json:"red"`

	OwnerID   int `json:"owner_id"`
	OwnerTeam int `json:"owner_team"`

	BlueAttacker int `json:"blue_attacker"`
	RedAttacker  int `json:"red_attacker"`

	Planned []TargetSnapshot `json:"planned,omitempty"`
	Marks   []MarkSnapshot   `json:"marks,omitempty"`
}

func robotSnapshots(rs []world.Robot) []RobotSnapshot {
	out := make([]RobotSnapshot, len(rs))
	for i, r := range rs {
		out[i] = RobotSnapshot{
			ID: r.ID, X: r.Pos.X, Y: r.Pos.Y,
			VX: r.Vel.X, VY: r.Vel.Y, Orient: r.Orient,
		}
	}
	return out
}

// appendTrace folds one planner trace into the snapshot. sign is +1 for the
// blue trace and -1 for red, whose coordinates live in the mirrored frame.
func appendTrace(s *Snapshot, tr *behavior.Trace, sign float64) {
	if tr == nil {
		return
	}
	ids := make([]int, 0, len(tr.Planned))
	for id := range tr.Planned {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		p := tr.Planned[id]
		s.Planned = append(s.Planned, TargetSnapshot{ID: id, X: p.X * sign, Y: p.Y * sign})
	}

	ids = ids[:0]
	for id := range tr.Marks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		m := tr.Marks[id]
		s.Marks = append(s.Marks, MarkSnapshot{
			DefenderID: id, OppID: m.OppID,
			X: m.Pos.X * sign, Y: m.Pos.Y * sign,
		})
	}
}

// Snapshot captures the current tick for transport and replay.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Tick:      e.tick,
		Time:      e.now,
		BlueScore: e.blueScore,
		RedScore:  e.redScore,
		Ball: BallSnapshot{
			X: e.st.Ball.Pos.X, Y: e.st.Ball.Pos.Y,
			VX: e.st.Ball.Vel.X, VY: e.st.Ball.Vel.Y,
		},
		Blue:         robotSnapshots(e.st.Our),
		Red:          robotSnapshots(e.st.Opp),
		OwnerID:      e.st.OwnerID,
		OwnerTeam:    e.st.OwnerTeam,
		BlueAttacker: -1,
		RedAttacker:  -1,
	}
	if e.blueTrace != nil {
		s.BlueAttacker = e.blueTrace.AttackerID
	}
	if e.redTrace != nil {
		s.RedAttacker = e.redTrace.AttackerID
	}
	appendTrace(&s, e.blueTrace, +1)
	appendTrace(&s, e.redTrace, -1)
	return s
}
