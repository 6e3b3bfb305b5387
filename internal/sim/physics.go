package sim

import (
	"math"

	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

// gkBoxContains reports whether the ball is inside the given team's keeper
// box in the true frame, with a small slop against edge flicker.
func (e *Engine) gkBoxContains(ball world.Vec2, team int) bool {
	f := e.st.Field
	ownGoalX := -f.HalfLength() * float64(team)
	xFromGoal := (ball.X - ownGoalX) * float64(team)
	if xFromGoal < 0 || xFromGoal > f.DefenseDepth+0.05 {
		return false
	}
	return math.Abs(ball.Y) <= f.DefenseWidth/2+0.05
}

// applyCommand integrates one robot's command in the true frame. Beyond the
// plain motion it carries the contact rules: owner wall escape, right-of-way
// yielding near a contested ball, contest push, and the kick itself with its
// learning bookkeeping.
func (e *Engine) applyCommand(cmd world.Command, team int) {
	self := e.st.RobotByID(cmd.ID)
	if self == nil {
		return
	}
	f := e.st.Field
	halfL, halfW := f.HalfLength(), f.HalfWidth()
	dt := e.cfg.Dt()

	maxV := e.cfg.Physics.MaxSpeed
	v := world.Vec2{
		X: world.Clamp(cmd.Vel.X, -maxV, maxV),
		Y: world.Clamp(cmd.Vel.Y, -maxV, maxV),
	}
	omega := world.Clamp(cmd.Omega, -e.cfg.Physics.MaxOmega, e.cfg.Physics.MaxOmega)

	isOwner := e.st.OwnerID == self.ID && e.st.OwnerTeam == team

	// Owner pinned near a wall: slow down and, under pressure, auto-clear
	// back toward the field center so play never dies in a corner.
	if isOwner {
		const wallBand = 0.35
		nearWall := math.Abs(self.Pos.X) > halfL-wallBand || math.Abs(self.Pos.Y) > halfW-wallBand
		if nearWall {
			v = v.Scale(0.55)

			pressure := false
			if i := tactics.ClosestRobot(e.opponentsOf(team), e.st.Ball.Pos); i >= 0 {
				pressure = e.opponentsOf(team)[i].Pos.Dist2(e.st.Ball.Pos) < 0.55*0.55
			}
			ballNearWall := math.Abs(e.st.Ball.Pos.X) > halfL-0.08 || math.Abs(e.st.Ball.Pos.Y) > halfW-0.08
			if pressure || ballNearWall {
				cmd.Kick = true
				toCenter := e.st.Ball.Pos.Neg()
				if toCenter.Len() < 1e-6 {
					toCenter = world.Vec2{}
				} else {
					toCenter = toCenter.Norm()
				}
				k := toCenter.Scale(0.8).Add(world.Vec2{X: float64(team)}.Scale(0.2))
				if kd := k.Len(); kd > 1e-9 {
					k = k.Scale(1 / kd)
				}
				cmd.KickVel = k.Scale(4.2)
			}
		}
	}

	// Right of way: only each team's closest robot contests the ball; other
	// robots near it yield so the contest area stays clear. In a true close
	// contest the contestants get an extra push so contact actually happens.
	{
		mates := e.teammatesOf(team)
		opps := e.opponentsOf(team)
		mi := tactics.ClosestRobot(mates, e.st.Ball.Pos)
		oi := tactics.ClosestRobot(opps, e.st.Ball.Pos)

		isContestant := mi >= 0 && mates[mi].ID == self.ID
		gkPriority := world.IsKeeper(self.ID) && e.gkBoxContains(e.st.Ball.Pos, team)

		ballD2 := self.Pos.Dist2(e.st.Ball.Pos)
		if !isContestant && !gkPriority && ballD2 < 0.55*0.55 {
			v = v.Scale(0.35)
			away := self.Pos.Sub(e.st.Ball.Pos)
			if d := away.Len(); d > 1e-6 {
				v = v.Add(away.Scale(0.25 / d))
			}
		}

		if mi >= 0 && oi >= 0 {
			const contest2 = 0.65 * 0.65
			closeContest := mates[mi].Pos.Dist2(e.st.Ball.Pos) < contest2 &&
				opps[oi].Pos.Dist2(e.st.Ball.Pos) < contest2
			if closeContest && isContestant {
				toBall := e.st.Ball.Pos.Sub(self.Pos)
				if d := toBall.Len(); d > 1e-6 {
					v = v.Add(toBall.Scale(0.45 / d))
				}
			}
		}
	}

	self.Pos = self.Pos.Add(v.Scale(dt))
	self.Vel = v
	self.Orient += omega * dt

	if cmd.Kick {
		// Keeper catch: with a controllable ball in its own box, suppress
		// the clear so possession logic can grant the protected hold.
		if world.IsKeeper(self.ID) {
			bs2 := e.st.Ball.Vel.Len2()
			attach := e.cfg.Possession.AttachBallSpeed
			if bs2 <= attach*attach && e.gkBoxContains(e.st.Ball.Pos, team) {
				e.keepInsideField(self)
				return
			}
		}

		kickRange := f.RobotRadius + 0.03
		if self.Pos.Dist(e.st.Ball.Pos) <= kickRange {
			if isOwner && cmd.PassTarget >= 0 {
				view := e.decisionView(team)
				feats := e.book.pass.FeaturesFor(view, cmd.PassTarget)
				e.book.recordPass(team, self.ID, cmd.PassTarget, e.st.Ball.Pos.X, feats, e.now)
				e.emitEvent("pass_attempt", map[string]any{
					"team": team, "from": self.ID, "to": cmd.PassTarget,
				})
			}
			if isOwner && (cmd.PassTarget >= 0 || cmd.ShotIntent) {
				view := e.decisionView(team)
				feats := e.book.action.Features(view, self.ID)
				e.book.recordAction(team, self.ID, cmd.PassTarget, cmd.ShotIntent, e.st.Ball.Pos.X, feats, e.now)
			}

			k := cmd.KickVel
			if math.Abs(k.X) < 1e-9 && math.Abs(k.Y) < 1e-9 {
				k = world.Vec2{X: 4.0 * float64(team)}
			}
			e.st.Ball.Vel = k

			if e.st.OwnerID == self.ID && e.st.OwnerTeam == team {
				e.releaseOwner()
			}
			e.emitEvent("kick", map[string]any{
				"team": team, "id": self.ID, "shot": cmd.ShotIntent,
			})
		}
	}

	e.keepInsideField(self)
}

// integrateBall advances the ball, applies friction, and handles walls. A
// crossing inside the goal mouth scores; anywhere else the ball reflects.
func (e *Engine) integrateBall() {
	f := e.st.Field
	dt := e.cfg.Dt()
	halfL, halfW := f.HalfLength(), f.HalfWidth()
	goalHalfW := f.GoalWidth / 2

	b := &e.st.Ball
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	b.Vel = b.Vel.Scale(e.cfg.Physics.BallDamping)

	if b.Pos.X < -halfL && math.Abs(b.Pos.Y) <= goalHalfW {
		e.onGoal(-1)
		return
	}
	if b.Pos.X > halfL && math.Abs(b.Pos.Y) <= goalHalfW {
		e.onGoal(+1)
		return
	}

	if b.Pos.X < -halfL {
		b.Pos.X = -halfL
		b.Vel.X = -b.Vel.X
	} else if b.Pos.X > halfL {
		b.Pos.X = halfL
		b.Vel.X = -b.Vel.X
	}
	if b.Pos.Y < -halfW {
		b.Pos.Y = -halfW
		b.Vel.Y = -b.Vel.Y
	} else if b.Pos.Y > halfW {
		b.Pos.Y = halfW
		b.Vel.Y = -b.Vel.Y
	}
}

// resolveBallRobotCollisions pushes the ball out of any overlapping robot,
// excluding the current owner so the carry model is not undone.
func (e *Engine) resolveBallRobotCollisions() {
	minDist := e.st.Field.RobotRadius + 0.016
	minDist2 := minDist * minDist

	push := func(rs []world.Robot, team int) {
		for i := range rs {
			if e.st.OwnerID == rs[i].ID && e.st.OwnerTeam == team {
				continue
			}
			e.pushBallOutOf(&rs[i], minDist, minDist2)
		}
	}
	push(e.st.Our, +1)
	push(e.st.Opp, -1)
}

func (e *Engine) pushBallOutOf(r *world.Robot, minDist, minDist2 float64) {
	d := e.st.Ball.Pos.Sub(r.Pos)
	d2 := d.Len2()
	if d2 >= minDist2 {
		return
	}
	dist := math.Sqrt(math.Max(d2, 1e-9))
	n := d.Scale(1 / dist)

	e.st.Ball.Pos = r.Pos.Add(n.Scale(minDist))

	vn := e.st.Ball.Vel.Dot(n)
	if vn < 0 {
		e.st.Ball.Vel = e.st.Ball.Vel.Sub(n.Scale(e.cfg.Physics.BounceFactor * vn))
	}
}

// resolveRobotRobotCollisions separates overlapping robots pairwise over a
// couple of iterations to settle multi-overlap piles.
func (e *Engine) resolveRobotRobotCollisions() {
	minDist := e.st.Field.RobotRadius * 2
	minDist2 := minDist * minDist

	all := make([]*world.Robot, 0, len(e.st.Our)+len(e.st.Opp))
	for i := range e.st.Our {
		all = append(all, &e.st.Our[i])
	}
	for i := range e.st.Opp {
		all = append(all, &e.st.Opp[i])
	}

	for iter := 0; iter < 2; iter++ {
		for i := 0; i < len(all); i++ {
			for j := i + 1; j < len(all); j++ {
				a, b := all[i], all[j]
				d := b.Pos.Sub(a.Pos)
				d2 := d.Len2()
				if d2 >= minDist2 {
					continue
				}
				dist := math.Sqrt(math.Max(d2, 1e-9))
				n := d.Scale(1 / dist)
				push := (minDist - dist) * 0.5
				a.Pos = a.Pos.Sub(n.Scale(push))
				b.Pos = b.Pos.Add(n.Scale(push))
				e.keepInsideField(a)
				e.keepInsideField(b)
			}
		}
	}
}

func (e *Engine) keepInsideField(r *world.Robot) {
	r.Pos = e.st.Field.ClampInside(r.Pos, e.st.Field.RobotRadius)
}
