package behavior

import (
	"math"
	"math/rand"
	"sort"

	"robosoccer/internal/config"
	"robosoccer/internal/learn"
	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

// Trace is the decision byproduct of one planning pass, in the planning
// frame. The engine uses it for reward attribution and debug overlays.
type Trace struct {
	AttackerID int
	Passing    bool
	RegainSoon bool

	Roles           map[int]Role
	Marks           map[int]Mark
	Planned         map[int]world.Vec2
	AttackFeatures  map[int][]float64
	DefenseFeatures map[int][]float64
}

// Planner decides one team's commands per tick. It owns the role state
// (ball-winner hysteresis) and consults the shared learners; all times are
// sim-time seconds.
type Planner struct {
	cfg      *config.Config
	position *learn.PositionLearner
	winner   *BallWinner

	attackerID int
	lastSwitch float64
}

func NewPlanner(cfg *config.Config, pass *learn.PassLearner, action *learn.ActionLearner, position *learn.PositionLearner, rng *rand.Rand) *Planner {
	return &Planner{
		cfg:        cfg,
		position:   position,
		winner:     NewBallWinner(cfg, pass, action, rng),
		attackerID: -1,
		lastSwitch: math.Inf(-1),
	}
}

// AttackerID exposes the current ball-winner for the defending side's
// bookkeeping and for snapshots.
func (p *Planner) AttackerID() int { return p.attackerID }

// Reset drops role state after a goal or manual reset.
func (p *Planner) Reset() {
	p.attackerID = -1
	p.lastSwitch = math.Inf(-1)
}

// Plan produces commands for every robot in w.Our, in roster order. The
// state must be in this team's decision frame.
func (p *Planner) Plan(w *world.State, now float64) ([]world.Command, *Trace) {
	tr := &Trace{
		AttackerID:      -1,
		Roles:           map[int]Role{},
		Marks:           map[int]Mark{},
		Planned:         map[int]world.Vec2{},
		AttackFeatures:  map[int][]float64{},
		DefenseFeatures: map[int][]float64{},
	}
	if len(w.Our) == 0 {
		return nil, tr
	}
	ball := w.Ball.Pos

	p.updateAttacker(w, now)
	tr.AttackerID = p.attackerID

	// Attacking whenever the ball is in the opponent half or we hold it;
	// marks are only assigned while defending.
	attacking := ball.X > 0 || w.OwnerTeam == +1
	ballInOppHalf := ball.X > 0
	if !attacking {
		tr.Marks = AssignMarks(w, p.attackerID)
	}

	attacker := robotIn(w.Our, p.attackerID)

	// Precompute the winner command first so off-ball robots can react to a
	// pass in the same tick.
	var winnerCmd *world.Command
	if attacker != nil && !world.IsKeeper(attacker.ID) {
		wc := p.winner.Decide(w, *attacker)
		winnerCmd = &wc
		tr.Passing = wc.Kick && wc.PassTarget >= 0 && !wc.ShotIntent
	}

	// Likely regain: we clearly arrive first and nobody is close enough to
	// contest. Lets the team spread a beat before possession flips.
	if attacker != nil && !world.IsKeeper(attacker.ID) && w.OwnerTeam != +1 {
		dOur := attacker.Pos.Dist(ball)
		dOpp := 9.0
		if i := tactics.ClosestRobot(w.Opp, ball); i >= 0 {
			dOpp = w.Opp[i].Pos.Dist(ball)
		}
		tr.RegainSoon = dOur <= 0.75 && dOur+0.18 < dOpp && dOpp > 0.75
	}

	restDefID := p.restDefenderID(w, attacking, ballInOppHalf)

	cmds := make([]world.Command, 0, len(w.Our))
	for i := range w.Our {
		self := w.Our[i]
		isGK := world.IsKeeper(self.ID)
		isWinner := !isGK && self.ID == p.attackerID
		isBackup := isSecondClosest(w.Our, ball, self.ID)

		var cmd world.Command
		switch {
		case isGK:
			tr.Roles[self.ID] = RoleKeeper
			cmd = keeperConstraints(defenderCommand(w, self), self, w)
		case isWinner && winnerCmd != nil:
			tr.Roles[self.ID] = RoleBallWinner
			cmd = *winnerCmd
		default:
			if attacking {
				tr.Roles[self.ID] = RoleSupporter
				cmd = supporterCommand(w, self)
			} else {
				tr.Roles[self.ID] = RoleDefender
				cmd = defenderCommand(w, self)
			}
			cmd = p.offBallAdjust(w, self, cmd, tr, attacking, ballInOppHalf, restDefID)
			if isBackup {
				cmd = backupSupport(cmd, self, w)
			}
			deconflictBias(&cmd, self, w)
		}
		cmd.ID = self.ID
		cmds = append(cmds, cmd)
	}
	return cmds, tr
}

// updateAttacker applies the switch hysteresis: a candidate must be clearly
// closer, with a stricter margin near the center line, and switches are
// rate-limited by a hold window.
func (p *Planner) updateAttacker(w *world.State, now float64) {
	const (
		hold           = 0.6
		minAbs2        = 0.25 * 0.25
		centerDeadband = 0.15
		centerAbs2     = 0.35 * 0.35
	)
	ci := tactics.ClosestRobot(w.Our, w.Ball.Pos)
	if ci < 0 {
		return
	}
	cand := w.Our[ci]
	if cand.ID == p.attackerID {
		return
	}
	if now-p.lastSwitch < hold {
		return
	}
	cur := robotIn(w.Our, p.attackerID)
	if cur == nil {
		p.attackerID = cand.ID
		p.lastSwitch = now
		return
	}
	candD2 := cand.Pos.Dist2(w.Ball.Pos)
	curD2 := cur.Pos.Dist2(w.Ball.Pos)

	clearlyCloser := candD2 < curD2*0.75 || (curD2-candD2) > minAbs2
	if !clearlyCloser {
		return
	}
	if math.Abs(w.Ball.Pos.X) < centerDeadband {
		if !(candD2 < curD2*0.55 || (curD2-candD2) > centerAbs2) {
			return
		}
	}
	p.attackerID = cand.ID
	p.lastSwitch = now
}

// restDefenderID holds exactly one field player back as a safety while the
// team attacks: the most central once the ball has crossed halfway (so both
// wide defenders can join), otherwise the deepest.
func (p *Planner) restDefenderID(w *world.State, attacking, ballInOppHalf bool) int {
	if !attacking {
		return -1
	}
	best := -1
	bestKey := math.Inf(1)
	for _, r := range w.Our {
		if world.IsKeeper(r.ID) || r.ID == p.attackerID {
			continue
		}
		var key float64
		if ballInOppHalf {
			key = math.Abs(r.Pos.Y)
		} else {
			key = math.Abs(r.Pos.X - (-w.Field.HalfLength()))
		}
		if key < bestKey {
			bestKey = key
			best = r.ID
		}
	}
	return best
}

// offBallAdjust replaces the base movement with the best grid point under
// the situational rubric plus the learned positional bonus, then records
// the planned target and its features for later reward attribution.
func (p *Planner) offBallAdjust(w *world.State, self world.Robot, cmd world.Command, tr *Trace, attacking, ballInOppHalf bool, restDefID int) world.Command {
	if attacking {
		isRestDef := self.ID == restDefID
		isSideDef := math.Abs(self.Pos.Y) > 0.55

		var base tactics.Scorer
		switch {
		case isRestDef:
			base = tactics.DefendWhileAttacking()
		case ballInOppHalf && isSideDef:
			base = tactics.WideDefenderJoinAttack()
		default:
			base = tactics.AttackOffBall()
		}

		scorer := func(w *world.State, s world.Robot, pt world.Vec2) float64 {
			v := base(w, s, pt) + p.position.AttackBonus(w, s, pt)
			if tr.Passing && !isRestDef {
				v += passSpreadBonus(w, s, pt)
			}
			if tr.RegainSoon && !isRestDef {
				v += preRegainSpreadBonus(w, s, pt)
			}
			return v
		}

		best := tactics.FindBest(w, self, p.cfg.Grid.AttackStep, scorer)
		target := best.Pos.Add(deconflictOffset(w, self, tr.Planned, best.Pos))

		tr.Planned[self.ID] = target
		tr.AttackFeatures[self.ID] = p.position.AttackFeatures(w, self, target)

		moveTo(&cmd, self, target, 1.35)
		cmd.Kick = false
		return cmd
	}

	var markPos *world.Vec2
	if m, ok := tr.Marks[self.ID]; ok {
		mp := m.Pos
		markPos = &mp
	}
	markFor := func(id int) (world.Vec2, bool) {
		m, ok := tr.Marks[id]
		return m.Pos, ok
	}
	base := tactics.DefendOffBall(markFor)
	scorer := func(w *world.State, s world.Robot, pt world.Vec2) float64 {
		var mp *world.Vec2
		if m, ok := tr.Marks[s.ID]; ok {
			v := m.Pos
			mp = &v
		}
		v := base(w, s, pt) + p.position.DefenseBonus(w, s, pt, mp)
		if mp == nil && tr.RegainSoon {
			v += preRegainSpreadBonus(w, s, pt)
		}
		return v
	}

	best := tactics.FindBest(w, self, p.cfg.Grid.DefenseStep, scorer)
	target := best.Pos
	// Man-marking skips spacing so the mark stays decisive.
	if markPos == nil {
		target = target.Add(deconflictOffset(w, self, tr.Planned, target))
	}

	tr.Planned[self.ID] = target
	tr.DefenseFeatures[self.ID] = p.position.DefenseFeatures(w, self, target, markPos)

	moveTo(&cmd, self, target, 1.25)
	cmd.Omega = 0
	cmd.Kick = false
	return cmd
}

// passSpreadBonus opens the field the moment the winner commits to a pass:
// use the width, leave the passer room, keep teammate spacing, and lean
// slightly forward.
func passSpreadBonus(w *world.State, self world.Robot, p world.Vec2) float64 {
	halfW := w.Field.HalfWidth()

	width01 := math.Min(1.0, math.Abs(p.Y)/(halfW+1e-9))
	widthBonus := 0.85 * width01

	db := p.Dist(w.Ball.Pos)
	ballPenalty := 0.0
	if db < 1.10 {
		ballPenalty = -1.35 * (1.10 - db) / 1.10
	}

	spacing := world.Clamp((nearestMateDist(w, self, p)-1.4)/1.2, -1, 1)
	spacingBonus := 0.65 * spacing

	forwardBonus := 0.20 * world.Clamp((p.X-w.Ball.Pos.X)/2.5, -1, 1)

	return widthBonus + spacingBonus + ballPenalty + forwardBonus
}

// preRegainSpreadBonus is a lighter spread applied while a regain looks
// imminent, so structure is kept until possession actually flips.
func preRegainSpreadBonus(w *world.State, self world.Robot, p world.Vec2) float64 {
	halfW := w.Field.HalfWidth()

	width01 := math.Min(1.0, math.Abs(p.Y)/(halfW+1e-9))
	widthBonus := 0.55 * width01

	db := p.Dist(w.Ball.Pos)
	ballPenalty := 0.0
	if db < 1.05 {
		ballPenalty = -0.90 * (1.05 - db) / 1.05
	}

	spacing := world.Clamp((nearestMateDist(w, self, p)-1.35)/1.1, -1, 1)
	spacingBonus := 0.45 * spacing

	forwardBonus := 0.12 * world.Clamp((p.X-w.Ball.Pos.X)/2.8, -1, 1)

	return widthBonus + spacingBonus + ballPenalty + forwardBonus
}

func nearestMateDist(w *world.State, self world.Robot, p world.Vec2) float64 {
	nearest := 9.0
	for i := range w.Our {
		if w.Our[i].ID == self.ID {
			continue
		}
		if d := w.Our[i].Pos.Dist(p); d < nearest {
			nearest = d
		}
	}
	return nearest
}

// deconflictOffset repels the target away from targets teammates already
// planned this tick, so ties in the grid do not stack robots on one point.
// Defender-like robots (central lanes) get a wider, stronger push.
func deconflictOffset(w *world.State, self world.Robot, planned map[int]world.Vec2, target world.Vec2) world.Vec2 {
	radius := 0.95
	gain := 0.42
	if math.Abs(self.Pos.Y) <= 1.2 {
		radius = 1.15
		gain = 0.55
	}

	ids := make([]int, 0, len(planned))
	for id := range planned {
		if id != self.ID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	var push world.Vec2
	for _, id := range ids {
		d := target.Sub(planned[id])
		d2 := d.Len2()
		if d2 < 1e-9 {
			// Identical point: deterministic nudge so robots never stack.
			ang := float64(self.ID)*1.7 + float64(id)*0.9
			push = push.Add(world.Vec2{X: math.Cos(ang), Y: math.Sin(ang)})
			continue
		}
		dist := math.Sqrt(d2)
		if dist > radius {
			continue
		}
		strength := (radius - dist) / radius
		strength *= strength
		push = push.Add(d.Scale(strength / dist))
	}

	const maxOff = 0.70
	if mag := push.Len(); mag > 1e-6 {
		push = push.Scale(math.Min(maxOff, mag*gain) / mag)
	}

	clamped := w.Field.ClampInside(target.Add(push), w.Field.RobotRadius+0.05)
	return clamped.Sub(target)
}

// backupSupport sends the second-closest robot behind the nearest opposing
// defender, offset laterally by id parity, to open a clean short lane.
func backupSupport(cmd world.Command, self world.Robot, w *world.State) world.Command {
	ball := w.Ball.Pos
	goal := world.Vec2{X: w.Field.HalfLength()}

	dir := goal.Sub(ball)
	if dir.Len() < 1e-6 {
		dir = world.Vec2{X: 1}
	} else {
		dir = dir.Norm()
	}
	lat := world.Vec2{X: -dir.Y, Y: dir.X}
	lateral := 0.45
	if self.ID%2 != 0 {
		lateral = -0.45
	}

	var target world.Vec2
	if i := tactics.ClosestRobot(w.Opp, ball); i >= 0 {
		target = w.Opp[i].Pos.Sub(dir.Scale(0.55)).Add(lat.Scale(lateral))
	} else {
		off := 0.7
		if self.ID%2 != 0 {
			off = -0.7
		}
		target = world.Vec2{X: ball.X - 0.8, Y: ball.Y + off}
	}
	target = w.Field.ClampInside(target, w.Field.RobotRadius+0.05)

	d := target.Sub(self.Pos)
	if dist := d.Len(); dist > 1e-6 {
		cmd.Vel = d.Scale(1.2 / dist)
	} else {
		cmd.Vel = world.Vec2{}
	}
	cmd.Omega = 0
	cmd.Kick = false
	return cmd
}

// deconflictBias spreads robots that are all driving straight at the ball
// by adding a small id-parity lateral component.
func deconflictBias(cmd *world.Command, self world.Robot, w *world.State) {
	d := w.Ball.Pos.Sub(self.Pos)
	dist := d.Len()
	if dist < 1e-6 {
		return
	}
	v := cmd.Vel.Len()
	if v < 0.2 {
		return
	}
	cos := cmd.Vel.Dot(d) / (v * dist)
	if cos < 0.85 {
		return
	}
	lat := world.Vec2{X: -d.Y / dist, Y: d.X / dist}
	sign := 1.0
	if abs(self.ID)%2 != 0 {
		sign = -1.0
	}
	cmd.Vel = cmd.Vel.Add(lat.Scale(0.18 * sign))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func robotIn(rs []world.Robot, id int) *world.Robot {
	for i := range rs {
		if rs[i].ID == id {
			return &rs[i]
		}
	}
	return nil
}

func isSecondClosest(rs []world.Robot, ball world.Vec2, id int) bool {
	if len(rs) < 2 {
		return false
	}
	best, second := -1, -1
	bestD2, secondD2 := math.Inf(1), math.Inf(1)
	for i := range rs {
		d2 := rs[i].Pos.Dist2(ball)
		switch {
		case d2 < bestD2:
			second, secondD2 = best, bestD2
			best, bestD2 = i, d2
		case d2 < secondD2:
			second, secondD2 = i, d2
		}
	}
	return second >= 0 && rs[second].ID == id
}
