package sim

import (
	"sync"

	"robosoccer/internal/behavior"
	"robosoccer/internal/config"
	"robosoccer/internal/learn"
	"robosoccer/internal/util"
	"robosoccer/internal/world"
)

// Event is one timestamped occurrence in a match, recorded only when the
// engine runs with recording enabled.
type Event struct {
	T       float64        `json:"t"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Engine owns the authoritative match state and advances it tick by tick.
// The stored state is the blue perspective; red plans against a mirrored
// copy and its commands are mapped back before they touch the world.
//
// Both sides share one set of learners, so the match is self-play: every
// pass and shot from either team trains the same weights.
type Engine struct {
	mu  sync.Mutex
	cfg *config.Config

	st   world.State
	now  float64
	tick uint64

	blueScore int
	redScore  int

	blue *behavior.Planner
	red  *behavior.Planner

	pass     *learn.PassLearner
	action   *learn.ActionLearner
	position *learn.PositionLearner
	book     *rewardBook

	gkHoldOwner int
	gkHoldUntil float64
	bans        map[int]float64
	recent      recentLoss

	stuckSince   float64
	lastBall     world.Vec2
	lastRobotPos map[int]world.Vec2

	goalPending int // scoring team sign, 0 when none

	record bool
	events []Event
	stats  MatchStats

	blueTrace *behavior.Trace
	redTrace  *behavior.Trace
}

// NewEngine builds an engine from config and a weight store. The three
// learner scopes share the store; seed fixes every random choice so equal
// seeds replay identical matches.
func NewEngine(cfg *config.Config, stores func(scope string) learn.Store, seed int64) *Engine {
	pass := learn.NewPassLearner(cfg.Learning.Pass, stores("pass"))
	action := learn.NewActionLearner(cfg.Learning.Action, stores("action"), pass)
	position := learn.NewPositionLearner(cfg.Learning.Position, stores("position"))

	field := world.Field{
		Length:       cfg.Field.Length,
		Width:        cfg.Field.Width,
		GoalWidth:    cfg.Field.GoalWidth,
		RobotRadius:  cfg.Field.RobotRadius,
		DefenseDepth: cfg.Field.DefenseDepth,
		DefenseWidth: cfg.Field.DefenseWidth,
	}

	e := &Engine{
		cfg:          cfg,
		st:           world.Formation(field),
		pass:         pass,
		action:       action,
		position:     position,
		book:         newRewardBook(cfg, pass, action, position),
		blue:         behavior.NewPlanner(cfg, pass, action, position, util.New(seed)),
		red:          behavior.NewPlanner(cfg, pass, action, position, util.New(seed+1)),
		bans:         map[int]float64{},
		stuckSince:   -1,
		lastRobotPos: map[int]world.Vec2{},
		gkHoldOwner:  -1,
		gkHoldUntil:  -1,
	}
	return e
}

// SetRecording toggles event capture. Recording off keeps Tick allocation-free
// on the event path.
func (e *Engine) SetRecording(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record = on
}

// DrainEvents returns the captured events and clears the buffer.
func (e *Engine) DrainEvents() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev := e.events
	e.events = nil
	return ev
}

func (e *Engine) emitEvent(typ string, payload map[string]any) {
	switch typ {
	case "pass_attempt":
		e.stats.Passes++
	case "kick":
		if shot, _ := payload["shot"].(bool); shot {
			e.stats.Shots++
		}
	case "turnover":
		e.stats.Turnovers++
	case "stuck_burst", "stuck_award":
		e.stats.StuckBreaks++
	}
	if !e.record {
		return
	}
	e.events = append(e.events, Event{T: e.now, Type: typ, Payload: payload})
}

// decisionView returns the state in the given team's decision frame. Blue
// decides on the true frame; red decides on the mirror.
func (e *Engine) decisionView(team int) *world.State {
	if team == +1 {
		return &e.st
	}
	m := e.st.Mirror()
	return &m
}

// Tick advances the match by one step: plan and apply blue, plan and apply
// red on the mirrored frame, then ball physics, collisions, possession,
// reward windows, and the stuck breaker.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tick++
	e.now += e.cfg.Dt()

	blueCmds, blueTr := e.blue.Plan(&e.st, e.now)
	for _, c := range blueCmds {
		e.applyCommand(c, +1)
	}

	mirror := e.st.Mirror()
	redCmds, redTr := e.red.Plan(&mirror, e.now)
	for _, c := range redCmds {
		e.applyCommand(c.Unmirror(), -1)
	}

	e.blueTrace, e.redTrace = blueTr, redTr
	e.book.notePositions(blueTr.AttackFeatures, blueTr.DefenseFeatures, e.now)
	e.book.notePositions(redTr.AttackFeatures, redTr.DefenseFeatures, e.now)

	e.integrateBall()
	if e.goalPending != 0 {
		e.resetAfterGoal()
		return
	}

	e.resolveBallRobotCollisions()
	e.resolveRobotRobotCollisions()
	e.updatePossession()
	e.book.expire(e.st.OwnerTeam, e.st.Ball.Pos.X, e.now)
	e.breakStuckContests()
}

func (e *Engine) onGoal(scoringTeam int) {
	if scoringTeam == +1 {
		e.blueScore++
	} else {
		e.redScore++
	}
	e.book.onGoal(scoringTeam, e.now)
	e.emitEvent("goal", map[string]any{
		"team": scoringTeam, "blue": e.blueScore, "red": e.redScore,
	})
	e.st.Ball = world.Ball{}
	e.goalPending = scoringTeam
}

// resetAfterGoal restores the kickoff formation and clears every piece of
// transient match state while keeping scores and learned weights.
func (e *Engine) resetAfterGoal() {
	e.goalPending = 0
	e.resetPlay()
}

func (e *Engine) resetPlay() {
	e.st = world.Formation(e.st.Field)
	e.releaseOwner()
	e.bans = map[int]float64{}
	e.recent = recentLoss{}
	e.stuckSince = -1
	e.lastBall = world.Vec2{}
	e.lastRobotPos = map[int]world.Vec2{}
	e.blue.Reset()
	e.red.Reset()
	e.book.reset()
}

// Reset restarts the match: kickoff formation, zeroed clock and scores.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = 0
	e.tick = 0
	e.blueScore = 0
	e.redScore = 0
	e.resetPlay()
	e.emitEvent("reset", nil)
}

// PlaceBall teleports the ball, clearing possession so attachment re-runs
// from the new spot. Debug control surface.
func (e *Engine) PlaceBall(pos, vel world.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Ball.Pos = e.st.Field.ClampInside(pos, 0)
	e.st.Ball.Vel = vel
	e.releaseOwner()
	e.stuckSince = -1
	e.emitEvent("place_ball", map[string]any{"x": pos.X, "y": pos.Y})
}

// PlaceBallAtKeeper is the canned debug drop: a dead ball just in front of
// the given team's keeper (+1 blue, -1 red), possession cleared.
func (e *Engine) PlaceBallAtKeeper(team int) {
	x := (e.st.Field.HalfLength() - 0.6) * -float64(team)
	e.PlaceBall(world.Vec2{X: x, Y: 0}, world.Vec2{})
}

// Scores returns the running blue and red goal counts.
func (e *Engine) Scores() (blue, red int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blueScore, e.redScore
}

// Now returns the simulated clock in seconds.
func (e *Engine) Now() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// SaveLearners flushes all learner weights to their stores.
func (e *Engine) SaveLearners() error {
	if err := e.pass.Save(); err != nil {
		return err
	}
	if err := e.action.Save(); err != nil {
		return err
	}
	return e.position.Save()
}
