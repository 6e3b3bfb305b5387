package behavior

import (
	"math"
	"math/rand"

	"robosoccer/internal/config"
	"robosoccer/internal/learn"
	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

// BallWinner is the on-ball role: chase the ball, then work through the
// shoot / pass cascade once it is controllable. The shoot-vs-pass gate and
// the short-pass ranking are learned; everything else is heuristic.
type BallWinner struct {
	cfg    *config.Config
	pass   *learn.PassLearner
	action *learn.ActionLearner
	rng    *rand.Rand
}

func NewBallWinner(cfg *config.Config, pass *learn.PassLearner, action *learn.ActionLearner, rng *rand.Rand) *BallWinner {
	return &BallWinner{cfg: cfg, pass: pass, action: action, rng: rng}
}

// Decide runs in the winner's decision frame (attacking +x).
func (b *BallWinner) Decide(w *world.State, self world.Robot) world.Command {
	cmd := world.NewCommand(self.ID)
	ball := w.Ball.Pos

	controlRange := w.Field.RobotRadius + 0.06
	if self.Pos.Dist(ball) > controlRange {
		moveToWithAvoid(&cmd, self, ball, 1.4, w)
		cmd.Kick = false
		return cmd
	}

	halfL := w.Field.HalfLength()
	goalX := halfL
	goalHalfW := w.Field.GoalWidth / 2

	// Simple fallback pass: nearest teammate with a clearly open lane.
	mate := b.nearestMate(w, self, 0.5)
	canPass := mate != nil &&
		!tactics.SegmentBlocked(ball, mate.Pos, w.Opp, 0.28) &&
		mateOpen(mate.Pos, w.Opp, 0.45)

	// Learned short pass among feasible receivers.
	short := b.pass.PickBestReceiver(w, self.ID, 1.05, 5.2)
	var shortMate *world.Robot
	if short != nil {
		shortMate = w.RobotByID(short.ReceiverID)
	}
	canShort := shortMate != nil &&
		!tactics.SegmentBlocked(ball, shortMate.Pos, w.Opp, 0.28) &&
		mateOpen(shortMate.Pos, w.Opp, 0.45)

	// "Requested" pass: pick a strong grid point for ourselves, then feed
	// the teammate nearest to it. Couples the off-ball score map with the
	// passer.
	requested := b.requestedMate(w, self)
	canRequested := requested != nil &&
		!tactics.SegmentBlocked(ball, requested.Pos, w.Opp, 0.28) &&
		mateOpen(requested.Pos, w.Opp, 0.45)

	long := b.bestLongMate(w, self)
	canLong := long != nil &&
		!tactics.SegmentBlocked(ball, long.Pos, w.Opp, 0.28) &&
		mateOpen(long.Pos, w.Opp, 0.35)

	inShootZone := learn.InShootZone(w)
	shotSpeed := 5.0
	if inShootZone {
		shotSpeed = 5.6
	}
	shotY, haveShotY := pickBestShotY(ball, goalX, goalHalfW, w.Opp)
	canShoot := haveShotY && b.canReachGoal(ball, world.Vec2{X: goalX, Y: shotY}, shotSpeed)

	eps := b.cfg.Learning.EpsilonOutside
	if inShootZone {
		eps = b.cfg.Learning.EpsilonShootZone
	}
	preferShoot := b.action.ChooseShoot(b.action.Features(w, self.ID), eps, b.rng)

	if canShoot && preferShoot {
		return b.kickCmd(cmd, ball, world.Vec2{X: goalX, Y: shotY}, shotSpeed, -1, true)
	}

	if !inShootZone && canShort {
		return b.kickCmd(cmd, ball, shortMate.Pos, 4.1, shortMate.ID, false)
	}

	if canRequested {
		// Only worth it when the target is meaningfully forward.
		if requested.Pos.X-ball.X > 0.35 {
			return b.kickCmd(cmd, ball, requested.Pos, 4.2, requested.ID, false)
		}
	}

	// All forward options closed: look for a safe reset pass before
	// resigning to a solo dribble.
	if !canPass && !canRequested && !canLong {
		if back := b.bestBackMate(w, self); back != nil &&
			!tactics.SegmentBlocked(ball, back.Pos, w.Opp, 0.28) &&
			mateOpen(back.Pos, w.Opp, 0.35) {
			return b.kickCmd(cmd, ball, back.Pos, 3.8, back.ID, false)
		}
	}

	if canPass {
		return b.kickCmd(cmd, ball, mate.Pos, 4.0, mate.ID, false)
	}

	if canLong {
		return b.kickCmd(cmd, ball, long.Pos, 6.4, long.ID, false)
	}

	// Occasional exploration shot when the lane is open anyway.
	if canShoot && b.rng.Float64() < 0.05 {
		return b.kickCmd(cmd, ball, world.Vec2{X: goalX, Y: shotY}, shotSpeed, -1, true)
	}

	// Keep the ball: carry toward the opponent goal with a lateral search
	// component for an opening lane.
	carry := world.Vec2{X: ball.X + 1.05, Y: ball.Y + carryOffsetY(self, w)}
	carry.X = world.Clamp(carry.X, -halfL+0.5, halfL-0.5)
	carry.Y = world.Clamp(carry.Y, -w.Field.HalfWidth()+0.5, w.Field.HalfWidth()-0.5)

	moveToWithAvoid(&cmd, self, carry, 1.0, w)
	cmd.Kick = false
	cmd.PassTarget = -1
	cmd.ShotIntent = false
	cmd.KickVel = world.Vec2{}
	return cmd
}

func (b *BallWinner) kickCmd(cmd world.Command, from, to world.Vec2, speed float64, passTarget int, shot bool) world.Command {
	cmd.Vel = world.Vec2{}
	cmd.Omega = 0
	cmd.Kick = true
	cmd.PassTarget = passTarget
	cmd.ShotIntent = shot
	kickToward(&cmd, from, to, speed)
	return cmd
}

func (b *BallWinner) nearestMate(w *world.State, self world.Robot, minDist float64) *world.Robot {
	var best *world.Robot
	bestD := math.Inf(1)
	for i := range w.Our {
		r := &w.Our[i]
		if r.ID == self.ID {
			continue
		}
		d := r.Pos.Dist(self.Pos)
		if d < minDist {
			continue
		}
		if d < bestD {
			bestD = d
			best = r
		}
	}
	return best
}

func (b *BallWinner) requestedMate(w *world.State, self world.Robot) *world.Robot {
	best := tactics.FindBest(w, self, b.cfg.Grid.RequestStep, tactics.AttackOffBall())
	var mate *world.Robot
	bestD2 := math.Inf(1)
	for i := range w.Our {
		r := &w.Our[i]
		if r.ID == self.ID {
			continue
		}
		d2 := r.Pos.Dist2(best.Pos)
		if d2 < bestD2 {
			bestD2 = d2
			mate = r
		}
	}
	// Not useful when the chosen mate is basically on top of us.
	if mate != nil && mate.Pos.Dist2(self.Pos) < 0.55*0.55 {
		return nil
	}
	return mate
}

// bestLongMate scores switch-of-play targets: far, forward-ish, wide, and
// not already under a defender.
func (b *BallWinner) bestLongMate(w *world.State, self world.Robot) *world.Robot {
	var best *world.Robot
	bestScore := math.Inf(-1)
	for i := range w.Our {
		r := &w.Our[i]
		if r.ID == self.ID {
			continue
		}
		d := r.Pos.Dist(self.Pos)
		if d < 2.6 {
			continue
		}
		forward := r.Pos.X - self.Pos.X
		if forward < -0.5 {
			continue
		}
		width := math.Min(math.Abs(r.Pos.Y), w.Field.HalfWidth())
		nearestOpp := math.Inf(1)
		for j := range w.Opp {
			if od := w.Opp[j].Pos.Dist(r.Pos); od < nearestOpp {
				nearestOpp = od
			}
		}
		score := 0.9*forward + 0.6*width - 0.7*d + 0.35*nearestOpp
		if score > bestScore {
			bestScore = score
			best = r
		}
	}
	return best
}

// bestBackMate picks a reset target behind the holder: central, open, and
// at a moderate distance.
func (b *BallWinner) bestBackMate(w *world.State, self world.Robot) *world.Robot {
	var best *world.Robot
	bestScore := math.Inf(-1)
	for i := range w.Our {
		r := &w.Our[i]
		if r.ID == self.ID {
			continue
		}
		d := r.Pos.Dist(self.Pos)
		if d < 0.8 {
			continue
		}
		if self.Pos.X-r.Pos.X < 0.35 {
			continue
		}
		central := 1.0 - math.Min(1.0, math.Abs(r.Pos.Y)/w.Field.HalfWidth())
		openBonus := 0.0
		if mateOpen(r.Pos, w.Opp, 0.35) {
			openBonus = 0.7
		}
		score := 1.2*central + openBonus - 0.25*d
		if score > bestScore {
			bestScore = score
			best = r
		}
	}
	return best
}

// canReachGoal mirrors the ball friction model: with per-tick damping the
// total travel converges to v0*dt/(1-damping), kept with a small safety
// factor for collisions.
func (b *BallWinner) canReachGoal(ball, goal world.Vec2, kickSpeed float64) bool {
	dt := b.cfg.Dt()
	damping := b.cfg.Physics.BallDamping
	if damping >= 1 {
		return true
	}
	maxTravel := (kickSpeed * dt) / (1.0 - damping) * 0.92
	return ball.Dist(goal) <= maxTravel
}

func mateOpen(p world.Vec2, opps []world.Robot, openR float64) bool {
	openR2 := openR * openR
	for i := range opps {
		if opps[i].Pos.Dist2(p) < openR2 {
			return false
		}
	}
	return true
}

// pickBestShotY samples aim lines inside the goal mouth and keeps the one
// with the best clearance, preferring central aims on ties. Returns false
// when every line is threatened.
func pickBestShotY(ball world.Vec2, goalX, goalHalfW float64, opps []world.Robot) (float64, bool) {
	const margin = 0.06
	lo := -goalHalfW + margin
	hi := goalHalfW - margin
	if hi < lo {
		lo = -goalHalfW
		hi = goalHalfW
	}

	ys := []float64{0, lo * 0.55, hi * 0.55, lo, hi}
	const danger = 0.28

	bestY := 0.0
	bestScore := math.Inf(-1)
	found := false
	for _, y := range ys {
		cy := world.Clamp(y, lo, hi)
		clearance := 9.0
		for i := range opps {
			cp := tactics.ClosestPointOnSegment(ball, world.Vec2{X: goalX, Y: cy}, opps[i].Pos)
			if d := opps[i].Pos.Dist(cp); d < clearance {
				clearance = d
			}
		}
		if clearance < danger {
			continue
		}
		score := clearance*2.0 - math.Abs(cy)*0.25
		if score > bestScore {
			bestScore = score
			bestY = cy
			found = true
		}
	}
	return bestY, found
}

// carryOffsetY searches sideways for a lane while dribbling, id-parity
// deterministic and biased inward near a sideline.
func carryOffsetY(self world.Robot, w *world.State) float64 {
	base := 0.6
	if self.ID%2 != 0 {
		base = -0.6
	}
	halfW := w.Field.HalfWidth()
	if w.Ball.Pos.Y > halfW-0.8 {
		base = -0.6
	}
	if w.Ball.Pos.Y < -halfW+0.8 {
		base = 0.6
	}
	return base
}
