package sim

import (
	"math"

	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

type recentLoss struct {
	id   int
	team int
	at   float64
}

// robotOfTeam returns the roster slice holding id, with the team sign.
func (e *Engine) teammatesOf(team int) []world.Robot {
	if team == +1 {
		return e.st.Our
	}
	return e.st.Opp
}

func (e *Engine) opponentsOf(team int) []world.Robot {
	if team == +1 {
		return e.st.Opp
	}
	return e.st.Our
}

func (e *Engine) releaseOwner() {
	e.st.OwnerID = -1
	e.st.OwnerTeam = 0
	e.gkHoldOwner = -1
	e.gkHoldUntil = -1
}

// updatePossession runs the dribble attachment model: a slow ball near a
// robot sticks to it, the owner carries it glued slightly in front, and the
// keeper gets a protected hold that ends in a distribution kick.
func (e *Engine) updatePossession() {
	p := e.cfg.Possession
	r := e.st.Field.RobotRadius
	controlDist := r + p.ControlSlack
	detachDist := r + p.DetachSlack
	carryOffset := r + p.CarrySlack

	if e.st.OwnerID >= 0 {
		owner := e.st.RobotByID(e.st.OwnerID)
		if owner == nil || owner.Pos.Dist(e.st.Ball.Pos) > detachDist {
			e.recent = recentLoss{id: e.st.OwnerID, team: e.st.OwnerTeam, at: e.now}
			e.emitEvent("possession_lost", map[string]any{
				"id": e.st.OwnerID, "team": e.st.OwnerTeam,
			})
			e.releaseOwner()
			return
		}

		if world.IsKeeper(owner.ID) {
			if e.gkHoldOwner != owner.ID {
				e.gkHoldOwner = owner.ID
				e.gkHoldUntil = e.now + p.KeeperHold
			}
			if e.gkHoldUntil-e.now <= p.KeeperRelease {
				e.keeperDistribute(owner)
				return
			}
		} else if e.st.Ball.Vel.Len2() <= p.AttachBallSpeed*p.AttachBallSpeed {
			// A challenger right on a carried ball failed the steal: ban it
			// briefly so it cannot camp the control radius.
			opps := e.opponentsOf(e.st.OwnerTeam)
			if i := tactics.ClosestRobot(opps, e.st.Ball.Pos); i >= 0 {
				ch := opps[i]
				if !world.IsKeeper(ch.ID) && ch.Pos.Dist(e.st.Ball.Pos) <= controlDist {
					if e.bans[ch.ID] < e.now {
						e.bans[ch.ID] = e.now + p.StealBan
					}
				}
			}
		}

		e.carryBall(owner, carryOffset)
		return
	}

	// Attachment: a controllable ball binds to the nearest eligible robot.
	if e.st.Ball.Vel.Len2() > p.AttachBallSpeed*p.AttachBallSpeed {
		return
	}

	bestID, bestTeam := -1, 0
	bestD2 := controlDist * controlDist
	scan := func(rs []world.Robot, team int) {
		for i := range rs {
			if e.bans[rs[i].ID] > e.now {
				continue
			}
			if d2 := rs[i].Pos.Dist2(e.st.Ball.Pos); d2 < bestD2 {
				bestD2 = d2
				bestID = rs[i].ID
				bestTeam = team
			}
		}
	}
	scan(e.st.Our, +1)
	scan(e.st.Opp, -1)
	if bestID < 0 {
		return
	}

	// The robot that just fumbled the ball must not win it straight back
	// from the opponent who took it.
	if e.recent.team != 0 && e.now-e.recent.at <= p.RecentLossMemo &&
		e.recent.team != bestTeam && e.recent.id != bestID {
		e.bans[e.recent.id] = e.now + p.LoserBan
	}

	lostTeam := e.recent.team
	e.st.OwnerID = bestID
	e.st.OwnerTeam = bestTeam
	e.book.onAttach(bestID, bestTeam, e.st.Ball.Pos.X, e.now)
	if lostTeam != 0 && lostTeam != bestTeam {
		e.book.onTurnover(lostTeam, bestTeam, e.now)
		e.emitEvent("turnover", map[string]any{"lost": lostTeam, "won": bestTeam})
	}
	e.recent = recentLoss{}

	owner := e.st.RobotByID(bestID)
	if world.IsKeeper(bestID) {
		e.gkHoldOwner = bestID
		e.gkHoldUntil = e.now + p.KeeperHold
	}
	e.emitEvent("possession", map[string]any{"id": bestID, "team": bestTeam})

	f := world.Vec2{X: math.Cos(owner.Orient), Y: math.Sin(owner.Orient)}
	e.st.Ball.Pos = owner.Pos.Add(f.Scale(carryOffset))
	e.st.Ball.Vel = e.st.Ball.Vel.Scale(0.2)
}

// carryBall glues the ball in front of the owner. Along a wall the carry
// point slides sideways instead of clipping outside, with a small id-parity
// lateral offset so head-on wall carries from both teams do not overlap.
func (e *Engine) carryBall(owner *world.Robot, carryOffset float64) {
	f := e.st.Field
	halfL, halfW := f.HalfLength(), f.HalfWidth()
	fwd := world.Vec2{X: math.Cos(owner.Orient), Y: math.Sin(owner.Orient)}
	p := owner.Pos.Add(fwd.Scale(carryOffset))

	const margin = 0.02
	lat := 0.03
	if abs(owner.ID)%2 != 0 {
		lat = -0.03
	}
	hitWallX := p.X < -halfL+margin || p.X > halfL-margin
	hitWallY := p.Y < -halfW+margin || p.Y > halfW-margin
	if hitWallX {
		p.X = world.Clamp(p.X, -halfL+margin, halfL-margin)
		p.Y += lat
	}
	if hitWallY {
		p.Y = world.Clamp(p.Y, -halfW+margin, halfW-margin)
		p.X += lat
	}
	p.Y = world.Clamp(p.Y, -halfW+margin, halfW-margin)
	p.X = world.Clamp(p.X, -halfL+margin, halfL-margin)

	e.st.Ball.Pos = p
	e.st.Ball.Vel = e.st.Ball.Vel.Scale(0.4)
}

// keeperDistribute ends the protected hold with a pass to the best placed
// teammate, falling back to a straight clear upfield.
func (e *Engine) keeperDistribute(owner *world.Robot) {
	team := e.st.OwnerTeam
	if recv := e.pickKeeperReceiver(owner, team); recv != nil {
		dir := recv.Pos.Sub(e.st.Ball.Pos)
		if d := dir.Len(); d > 1e-6 {
			e.st.Ball.Vel = dir.Scale(4.1 / d)
		} else {
			e.st.Ball.Vel = world.Vec2{X: 4.4 * float64(team)}
		}
		e.emitEvent("keeper_pass", map[string]any{"from": owner.ID, "to": recv.ID})
	} else {
		e.st.Ball.Vel = world.Vec2{X: 4.4 * float64(team)}
		e.emitEvent("keeper_clear", map[string]any{"from": owner.ID})
	}
	e.releaseOwner()
}

// pickKeeperReceiver favors open teammates a comfortable pass length away,
// weighted toward the attacking half.
func (e *Engine) pickKeeperReceiver(owner *world.Robot, team int) *world.Robot {
	mates := e.teammatesOf(team)
	opps := e.opponentsOf(team)

	var best *world.Robot
	bestScore := math.Inf(-1)
	for i := range mates {
		r := &mates[i]
		if r.ID == owner.ID || world.IsKeeper(r.ID) {
			continue
		}
		dBall := r.Pos.Dist(e.st.Ball.Pos)
		if dBall < 0.65 {
			continue
		}
		nearestOpp := math.Inf(1)
		for j := range opps {
			if d := opps[j].Pos.Dist(r.Pos); d < nearestOpp {
				nearestOpp = d
			}
		}
		score := world.Clamp(nearestOpp, 0, 3)*0.55 +
			world.Clamp(r.Pos.X*float64(team), -3, 6)*0.35 -
			math.Abs(dBall-2.0)*0.35
		if score > bestScore {
			bestScore = score
			best = r
		}
	}
	return best
}

// breakStuckContests detects a deadlocked ball and resolves it: a pinned
// ball gets nudged back into play, a true shoulder-to-shoulder contest is
// awarded to the side that does not already own the ball.
func (e *Engine) breakStuckContests() {
	s := e.cfg.Stuck
	f := e.st.Field
	halfL, halfW := f.HalfLength(), f.HalfWidth()

	move2 := e.st.Ball.Pos.Dist2(e.lastBall)
	e.lastBall = e.st.Ball.Pos
	if move2 >= s.MoveEps*s.MoveEps {
		e.stuckSince = -1
		return
	}

	// Robot history must be warm before trusting the detection.
	moveCount := 0
	track := func(rs []world.Robot) {
		for i := range rs {
			id := rs[i].ID
			if _, ok := e.lastRobotPos[id]; ok {
				moveCount++
			}
			e.lastRobotPos[id] = rs[i].Pos
		}
	}
	track(e.st.Our)
	track(e.st.Opp)
	if moveCount < 4 {
		e.stuckSince = -1
		return
	}

	if e.st.OwnerID >= 0 && e.gkHoldOwner == e.st.OwnerID && e.now < e.gkHoldUntil {
		e.stuckSince = -1
		return
	}

	bi := tactics.ClosestRobot(e.st.Our, e.st.Ball.Pos)
	ri := tactics.ClosestRobot(e.st.Opp, e.st.Ball.Pos)
	if bi < 0 || ri < 0 {
		e.stuckSince = -1
		return
	}
	blueD2 := e.st.Our[bi].Pos.Dist2(e.st.Ball.Pos)
	redD2 := e.st.Opp[ri].Pos.Dist2(e.st.Ball.Pos)

	engage2 := s.EngageRadius * s.EngageRadius
	someoneNear := blueD2 < engage2 || redD2 < engage2 || e.st.OwnerID >= 0
	if !someoneNear {
		e.stuckSince = -1
		return
	}

	if e.stuckSince < 0 {
		e.stuckSince = e.now
		return
	}
	if e.now-e.stuckSince < s.Persistence {
		return
	}

	margin := f.RobotRadius + 0.06
	wallNormal := func(p world.Vec2) world.Vec2 {
		var n world.Vec2
		if p.X < -halfL+margin {
			n.X = 1
		} else if p.X > halfL-margin {
			n.X = -1
		}
		if p.Y < -halfW+margin {
			n.Y = 1
		} else if p.Y > halfW-margin {
			n.Y = -1
		}
		return n
	}

	contest2 := s.ContestRadius * s.ContestRadius
	closeContest := blueD2 < contest2 && redD2 < contest2

	if !closeContest {
		// Pin or stall: strip ownership and burst the ball toward open play.
		e.releaseOwner()

		dir := e.st.Ball.Pos.Neg().Norm()
		if n := wallNormal(e.st.Ball.Pos); n.Len2() > 0 {
			dir = dir.Scale(0.70).Add(n.Norm().Scale(0.30))
		}
		if d := dir.Len(); d > 1e-9 {
			dir = dir.Scale(1 / d)
		}

		speed := s.BurstSpeed
		ballNearWall := math.Abs(e.st.Ball.Pos.X) > halfL-0.10 || math.Abs(e.st.Ball.Pos.Y) > halfW-0.10
		if ballNearWall {
			speed = s.WallBurst
		}
		e.st.Ball.Vel = dir.Scale(speed)
		e.st.Ball.Pos = world.Vec2{
			X: world.Clamp(e.st.Ball.Pos.X+dir.X*0.10, -halfL+margin, halfL-margin),
			Y: world.Clamp(e.st.Ball.Pos.Y+dir.Y*0.10, -halfW+margin, halfW-margin),
		}
		e.emitEvent("stuck_burst", map[string]any{"speed": speed})
		e.stuckSince = -1
		return
	}

	// Close contest: award the ball away from the incumbent. Without an
	// incumbent the overall closest wins, ties to blue.
	var winner world.Robot
	var team int
	switch e.st.OwnerTeam {
	case +1:
		winner, team = e.st.Opp[ri], -1
	case -1:
		winner, team = e.st.Our[bi], +1
	default:
		if blueD2 <= redD2 {
			winner, team = e.st.Our[bi], +1
		} else {
			winner, team = e.st.Opp[ri], -1
		}
	}
	e.st.OwnerID = winner.ID
	e.st.OwnerTeam = team

	carryOffset := f.RobotRadius + e.cfg.Possession.CarrySlack
	fwd := world.Vec2{X: math.Cos(winner.Orient), Y: math.Sin(winner.Orient)}
	e.st.Ball.Pos = winner.Pos.Add(fwd.Scale(carryOffset))
	e.st.Ball.Vel = e.st.Ball.Vel.Scale(0.2)

	if n := wallNormal(e.st.Ball.Pos); n.Len2() > 0 {
		n = n.Norm()
		e.st.Ball.Pos = world.Vec2{
			X: world.Clamp(e.st.Ball.Pos.X+n.X*0.10, -halfL+margin, halfL-margin),
			Y: world.Clamp(e.st.Ball.Pos.Y+n.Y*0.10, -halfW+margin, halfW-margin),
		}
		e.st.Ball.Vel = e.st.Ball.Vel.Add(n.Scale(0.35))
	}
	e.emitEvent("stuck_award", map[string]any{"id": winner.ID, "team": team})
	e.stuckSince = -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
