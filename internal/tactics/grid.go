package tactics

import (
	"math"

	"robosoccer/internal/world"
)

// Scorer evaluates a candidate point for one robot. States handed to a
// scorer are always in the deciding team's frame (attacking +x).
type Scorer func(w *world.State, self world.Robot, p world.Vec2) float64

type GridPoint struct {
	Pos   world.Vec2
	Score float64
}

// FindBest samples the field on a fixed grid and returns the best-scoring
// point. Scan order is x-major then y, and only a strictly better score
// replaces the incumbent, so the first maximum wins and the result is
// deterministic for a given state.
func FindBest(w *world.State, self world.Robot, step float64, sc Scorer) GridPoint {
	if w == nil || sc == nil || step <= 0 {
		return GridPoint{Pos: self.Pos, Score: math.Inf(-1)}
	}
	halfL := w.Field.HalfLength()
	halfW := w.Field.HalfWidth()
	margin := w.Field.RobotRadius + 0.06

	best := GridPoint{Pos: self.Pos, Score: math.Inf(-1)}
	for x := -halfL + margin; x <= halfL-margin; x += step {
		for y := -halfW + margin; y <= halfW-margin; y += step {
			s := sc(w, self, world.Vec2{X: x, Y: y})
			if s > best.Score {
				best = GridPoint{Pos: world.Vec2{X: x, Y: y}, Score: s}
			}
		}
	}
	return best
}

// ClosestRobot returns the index of the robot nearest to p, or -1.
func ClosestRobot(rs []world.Robot, p world.Vec2) int {
	best := -1
	bestD2 := math.Inf(1)
	for i := range rs {
		d2 := rs[i].Pos.Dist2(p)
		if d2 < bestD2 {
			bestD2 = d2
			best = i
		}
	}
	return best
}

func ClosestPointOnSegment(a, b, p world.Vec2) world.Vec2 {
	ab := b.Sub(a)
	ab2 := ab.Len2()
	if ab2 <= 1e-9 {
		return a
	}
	t := world.Clamp(p.Sub(a).Dot(ab)/ab2, 0, 1)
	return a.Add(ab.Scale(t))
}

// SegmentBlocked reports whether any robot in opps sits within dangerRadius
// of the segment a-b.
func SegmentBlocked(a, b world.Vec2, opps []world.Robot, dangerRadius float64) bool {
	danger2 := dangerRadius * dangerRadius
	for i := range opps {
		cp := ClosestPointOnSegment(a, b, opps[i].Pos)
		if opps[i].Pos.Dist2(cp) < danger2 {
			return true
		}
	}
	return false
}

// PredictBall extrapolates the ball position t seconds ahead at constant
// velocity.
func PredictBall(w *world.State, t float64) world.Vec2 {
	return w.Ball.Pos.Add(w.Ball.Vel.Scale(t))
}

// PassInterceptable estimates whether an opponent running straight at
// oppMaxSpeed can reach within captureRadius of the pass segment before
// the ball does.
func PassInterceptable(a, b world.Vec2, opps []world.Robot, ballSpeed, oppMaxSpeed, captureRadius float64) bool {
	dist := b.Sub(a).Len()
	if dist < 1e-6 {
		return false
	}
	travelTime := dist / math.Max(0.1, ballSpeed)
	for i := range opps {
		cp := ClosestPointOnSegment(a, b, opps[i].Pos)
		od := opps[i].Pos.Dist(cp)
		need := math.Max(0, od-captureRadius)
		tOpp := need / math.Max(0.1, oppMaxSpeed)
		tBall := a.Dist(cp) / math.Max(0.1, ballSpeed)
		if tOpp < tBall && tBall <= travelTime+1e-6 {
			return true
		}
	}
	return false
}
