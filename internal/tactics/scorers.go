package tactics

import (
	"math"

	"robosoccer/internal/world"
)

// Shared 10-point core used by all placement rubrics: open space (2),
// teammate spacing (1), unblocked pass options (capped per rubric), and a
// clear shooting line (2, or less for deep defenders).
func coreScore(w *world.State, self world.Robot, p world.Vec2, passCap int, shootPts float64) float64 {
	open2 := 2.0
	if i := ClosestRobot(w.Opp, p); i >= 0 {
		oppD := w.Opp[i].Pos.Dist(p)
		if oppD < 1.0 {
			open2 = world.Clamp(oppD, 0, 1) * 2.0
		}
	}

	mateMin := 9.0
	for i := range w.Our {
		if w.Our[i].ID == self.ID {
			continue
		}
		if d := w.Our[i].Pos.Dist(p); d < mateMin {
			mateMin = d
		}
	}
	mate1 := 1.0
	if mateMin < 1.05 {
		mate1 = world.Clamp(mateMin/1.05, 0, 1)
	}

	passOptions := 0
	for i := range w.Our {
		if w.Our[i].ID == self.ID {
			continue
		}
		if !SegmentBlocked(w.Our[i].Pos, p, w.Opp, 0.30) {
			passOptions++
		}
	}
	if passOptions > passCap {
		passOptions = passCap
	}

	theirGoal := world.Vec2{X: w.Field.HalfLength()}
	shoot := shootPts
	if SegmentBlocked(p, theirGoal, w.Opp, 0.35) {
		shoot = 0
	}

	return open2 + mate1 + float64(passOptions) + shoot
}

// AttackOffBall places attackers into open, passable, shootable space ahead
// of the play while avoiding the ball and interceptable lanes.
func AttackOffBall() Scorer {
	return func(w *world.State, self world.Robot, p world.Vec2) float64 {
		ball := w.Ball
		ballSpeed := ball.Vel.Len()
		ballFuture := PredictBall(w, 0.45)

		score10 := coreScore(w, self, p, 4, 2.0)

		assumedBallSpeed := math.Max(1.2, ballSpeed*0.9+1.2)
		interceptPenalty := 0.0
		if PassInterceptable(ball.Pos, p, w.Opp, assumedBallSpeed, 1.55, 0.18) {
			interceptPenalty = -1.15
		}

		ballD := p.Dist(ball.Pos)
		nearBallPenalty := 0.0
		if ballD < 0.85 {
			nearBallPenalty = -(0.85 - ballD) * 1.2
		}

		anticipateBonus := 0.0
		if ballSpeed > 0.25 {
			anticipateBonus = world.Clamp(1.6-p.Dist(ballFuture), -2, 2) * 0.35
		}

		// When the ball rolls forward, reward being ahead of it so the
		// line does not drift back.
		forwardFlow := 0.0
		if ballSpeed > 0.25 && ball.Vel.X > 0.20 {
			forwardFlow = world.Clamp(p.X-ball.Pos.X, -1.5, 2.5) * 0.18
		}

		goalDist := math.Abs(p.X - (-w.Field.HalfLength()))
		goalPenalty := 0.0
		if goalDist < 1.1 {
			goalPenalty = -(1.1 - goalDist) * 0.8
		}

		return score10 + nearBallPenalty + goalPenalty + interceptPenalty + anticipateBonus + forwardFlow
	}
}

// DefendWhileAttacking shapes the rest-defender: good space like an
// attacker, but held moderately behind the ball and out of the deep corners.
func DefendWhileAttacking() Scorer {
	return func(w *world.State, self world.Robot, p world.Vec2) float64 {
		ball := w.Ball
		halfW := w.Field.HalfWidth()
		ballSpeed := ball.Vel.Len()
		ballFuture := PredictBall(w, 0.35)

		score10 := coreScore(w, self, p, 3, 2.0)

		// Hold a cover band roughly 1.4..3.2m behind the ball.
		behindBall := ball.Pos.X - p.X
		err := math.Abs(behindBall - 2.2)
		behindPenalty := -math.Max(0, err-0.9) * 0.95

		tooFarPenalty := 0.0
		if behindBall > 4.2 {
			tooFarPenalty = -(behindBall - 4.2) * 1.15
		}
		aheadPenalty := 0.0
		if behindBall < -0.2 {
			aheadPenalty = -(-0.2 - behindBall) * 1.35
		}

		ourGoalX := -w.Field.HalfLength()
		fromOurGoal := math.Abs(p.X - ourGoalX)
		deepPenalty := 0.0
		if fromOurGoal < 2.8 {
			deepPenalty = -(2.8 - fromOurGoal) * 0.9
		}

		ballD := p.Dist(ball.Pos)
		nearBallPenalty := 0.0
		if ballD < 1.05 {
			nearBallPenalty = -(1.05 - ballD) * 1.4
		}

		transitionPenalty := 0.0
		if ballSpeed > 0.35 && ball.Vel.X < -0.25 {
			transitionPenalty = -0.9
		}

		coverFuture := 0.0
		if ballSpeed > 0.25 {
			coverFuture = world.Clamp(2.2-p.Dist(ballFuture), -2, 2) * 0.25
		}

		yNorm := math.Abs(p.Y) / halfW
		wingPenalty := 0.0
		if yNorm > 0.70 {
			wingPenalty = -(yNorm - 0.70) * 0.8
		}

		// Scoring ties plus deconfliction can otherwise park the rest
		// defender in a deep corner.
		cornerPenalty := 0.0
		if fromOurGoal < 2.2 && math.Abs(p.Y) > halfW*0.82 {
			cornerPenalty = -3.5
		}
		goalLinePenalty := 0.0
		if fromOurGoal < 1.0 {
			goalLinePenalty = -(1.0 - fromOurGoal) * 1.6
		}

		return score10 + behindPenalty + tooFarPenalty + aheadPenalty +
			deepPenalty + nearBallPenalty + wingPenalty +
			cornerPenalty + goalLinePenalty +
			transitionPenalty + coverFuture
	}
}

// WideDefenderJoinAttack steps wide defenders into midfield behind an
// advanced ball while keeping width and an escape line.
func WideDefenderJoinAttack() Scorer {
	return func(w *world.State, self world.Robot, p world.Vec2) float64 {
		ball := w.Ball
		halfW := w.Field.HalfWidth()

		base := coreScore(w, self, p, 3, 2.0)

		var desiredX float64
		if ball.Pos.X < 0.30 {
			desiredX = ball.Pos.X - 0.55
		} else {
			desiredX = math.Max(0.20, ball.Pos.X-1.05)
		}
		xHold := -math.Abs(p.X-desiredX) * 0.85

		crossMidReward := 0.0
		if ball.Pos.X > 0.45 && p.X > 0 {
			crossMidReward = 1.2
		}

		yAbs := math.Abs(p.Y)
		idealY := world.Clamp(halfW*0.48, 0.75, 2.20)
		widthScore := -math.Abs(yAbs-idealY) * 0.55
		wallPenalty := 0.0
		if yAbs > halfW*0.90 {
			wallPenalty = -(yAbs - halfW*0.90) * 1.4
		}

		ballD := p.Dist(ball.Pos)
		nearBallPenalty := 0.0
		if ballD < 1.10 {
			nearBallPenalty = -(1.10 - ballD) * 1.4
		}

		fromOurGoal := math.Abs(p.X - (-w.Field.HalfLength()))
		deepPenalty := 0.0
		if fromOurGoal < 3.1 {
			deepPenalty = -(3.1 - fromOurGoal) * 1.1
		}

		return base + xHold + crossMidReward + widthScore + wallPenalty + nearBallPenalty + deepPenalty
	}
}

// DefendOffBall holds a goal-side line, cuts lanes toward the most advanced
// opponent, and shadows an assigned mark when markFor provides one. The
// open-space core is dropped while marking so spacing heuristics cannot
// dilute the mark.
func DefendOffBall(markFor func(id int) (world.Vec2, bool)) Scorer {
	return func(w *world.State, self world.Robot, p world.Vec2) float64 {
		ball := w.Ball
		halfL := w.Field.HalfLength()
		halfW := w.Field.HalfWidth()

		var mark world.Vec2
		hasMark := false
		if markFor != nil {
			mark, hasMark = markFor(self.ID)
		}

		ballSpeed := ball.Vel.Len()
		ballFuture := PredictBall(w, 0.35)

		base := 0.0
		if !hasMark {
			base = coreScore(w, self, p, 2, 1.0)
		}

		// Lane anchoring keeps the three defenders from converging.
		laneHold := -math.Abs(p.Y-self.Pos.Y) * 0.28

		speedHold := 0.0
		if ballSpeed > 0.45 {
			speedHold = -math.Abs(p.X-self.Pos.X) * 0.22
		}

		ourGoalX := -halfL
		goalside := math.Abs(ball.Pos.X-ourGoalX) - math.Abs(p.X-ourGoalX)
		goalsideScore := world.Clamp(goalside, -2, 2)

		ballFromGoal := math.Abs(ball.Pos.X - ourGoalX)
		desiredLine := world.Clamp(1.9+0.35*ballFromGoal, 2.0, 5.2)
		lineHold := -math.Abs(math.Abs(p.X-ourGoalX)-desiredLine) * 0.55

		threat := -1
		bestAdv := math.Inf(-1)
		for i := range w.Opp {
			if w.Opp[i].Pos.X > bestAdv {
				bestAdv = w.Opp[i].Pos.X
				threat = i
			}
		}
		lineCut := 0.0
		futureCut := 0.0
		if threat >= 0 {
			cp := ClosestPointOnSegment(ball.Pos, w.Opp[threat].Pos, p)
			lineCut = -world.Clamp(p.Dist(cp), 0, 2)
			if ballSpeed > 0.25 {
				fp := ClosestPointOnSegment(ballFuture, w.Opp[threat].Pos, p)
				futureCut = -world.Clamp(p.Dist(fp), 0, 2.4) * 0.45
			}
		}

		ballD := p.Dist(ball.Pos)
		ballBandPenalty := 0.0
		if !hasMark && ballD < 0.90 {
			ballBandPenalty = -(0.90 - ballD) * 1.8
		}

		chaseDiscourage := 0.0
		dangerousTransition := ballSpeed > 0.35 && ball.Vel.X < -0.20
		if ballD < 1.20 && (ballSpeed > 0.45 || dangerousTransition) {
			chaseDiscourage = -(1.20 - ballD) * 2.2
		}

		speedStructure := 0.0
		if ballSpeed > 0.45 {
			speedStructure = 0.25
		}
		movePenalty := -0.25 * p.Dist(self.Pos)

		yNorm := math.Abs(p.Y) / halfW
		widthHold := -math.Max(0, yNorm-0.88) * 0.7

		markBias := 0.0
		markGoalSide := 0.0
		markLaneCut := 0.0
		markLaneSeparate := 0.0
		if hasMark {
			dMark := p.Dist(mark)
			markBias = -math.Max(0, math.Abs(dMark-1.25)-0.70) * 0.55

			notGoalSide := math.Abs(p.X-ourGoalX) - math.Abs(mark.X-ourGoalX)
			if notGoalSide > 0 {
				markGoalSide = -world.Clamp(notGoalSide, 0, 2) * 1.05
			}

			lp := ClosestPointOnSegment(ball.Pos, mark, p)
			markLaneCut = -world.Clamp(p.Dist(lp), 0, 2.2) * 0.45

			laneSign := 1.0
			if self.Pos.Y < 0 {
				laneSign = -1.0
			}
			markLaneSeparate = -math.Abs((p.Y-mark.Y)-laneSign*0.55) * 0.18
		}

		return base +
			1.10*goalsideScore +
			0.95*lineHold +
			0.85*lineCut +
			futureCut +
			laneHold +
			speedHold +
			widthHold +
			(1.0+speedStructure)*movePenalty +
			ballBandPenalty +
			chaseDiscourage +
			markBias +
			markGoalSide +
			markLaneCut +
			markLaneSeparate
	}
}
