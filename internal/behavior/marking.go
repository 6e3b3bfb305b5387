package behavior

import (
	"math"
	"sort"

	"robosoccer/internal/world"
)

// Mark binds a back-line defender to one opponent for the tick.
type Mark struct {
	OppID int
	Pos   world.Vec2
}

// isBackLine reports whether the id belongs to the three-man back line of
// its roster (defender slots between keeper and forwards).
func isBackLine(id int) bool {
	k := id % 10
	return k >= 1 && k <= 3
}

// AssignMarks pairs back-line defenders with opponents: the nearest
// defender takes the ball holder, the next takes the likely receiver, and
// the rest are matched greedily by cost. The keeper and the team's
// ball-winner never take a mark so the challenger stays free to pressure.
// The opponent keeper is only markable while it holds the ball.
func AssignMarks(w *world.State, winnerID int) map[int]Mark {
	marks := map[int]Mark{}
	if len(w.Our) == 0 || len(w.Opp) == 0 {
		return marks
	}
	ball := w.Ball.Pos

	var defs []world.Robot
	for _, r := range w.Our {
		if world.IsKeeper(r.ID) || r.ID == winnerID || !isBackLine(r.ID) {
			continue
		}
		defs = append(defs, r)
	}
	sort.SliceStable(defs, func(i, j int) bool {
		return math.Abs(defs[i].Pos.Y) < math.Abs(defs[j].Pos.Y)
	})

	var holder *world.Robot
	if w.OwnerTeam == -1 {
		for i := range w.Opp {
			if w.Opp[i].ID == w.OwnerID {
				holder = &w.Opp[i]
				break
			}
		}
	}

	var receiver *world.Robot
	bestRecvD2 := math.Inf(1)
	for i := range w.Opp {
		o := &w.Opp[i]
		if world.IsKeeper(o.ID) {
			continue
		}
		if holder != nil && o.ID == holder.ID {
			continue
		}
		if d2 := o.Pos.Dist2(ball); d2 < bestRecvD2 {
			bestRecvD2 = d2
			receiver = o
		}
	}

	usedDef := map[int]bool{}
	oppTaken := map[int]bool{}

	takeNearest := func(target *world.Robot) {
		if target == nil {
			return
		}
		best := -1
		bestD2 := math.Inf(1)
		for i := range defs {
			if usedDef[defs[i].ID] {
				continue
			}
			if d2 := defs[i].Pos.Dist2(target.Pos); d2 < bestD2 {
				bestD2 = d2
				best = i
			}
		}
		if best >= 0 {
			marks[defs[best].ID] = Mark{OppID: target.ID, Pos: target.Pos}
			usedDef[defs[best].ID] = true
			oppTaken[target.ID] = true
		}
	}
	takeNearest(holder)
	takeNearest(receiver)

	for _, d := range defs {
		if usedDef[d.ID] {
			continue
		}
		best := -1
		bestCost := math.Inf(1)
		for i := range w.Opp {
			o := w.Opp[i]
			if oppTaken[o.ID] {
				continue
			}
			if world.IsKeeper(o.ID) && (holder == nil || o.ID != holder.ID) {
				continue
			}
			if c := markCost(ball, d, o); c < bestCost {
				bestCost = c
				best = i
			}
		}
		if best >= 0 {
			marks[d.ID] = Mark{OppID: w.Opp[best].ID, Pos: w.Opp[best].Pos}
			oppTaken[w.Opp[best].ID] = true
		}
	}
	return marks
}

// markCost prefers threatening opponents (advanced toward our goal, near
// the ball) while keeping lane stability and avoiding marks behind the
// defender. Lower is better.
func markCost(ball world.Vec2, def, opp world.Robot) float64 {
	advToOurGoal := -opp.Pos.X
	threatBonus := world.Clamp(advToOurGoal, -6, 6) * 0.75

	dBall := opp.Pos.Dist(ball)
	receiveBonus := world.Clamp(2.2-dBall, -2.2, 2.2) * 0.60

	yCost := math.Abs(opp.Pos.Y-def.Pos.Y) * 1.05

	ahead := opp.Pos.X - def.Pos.X
	behindPenalty := 0.0
	if ahead < -0.2 {
		behindPenalty = -ahead * 0.65
	}

	return yCost + behindPenalty - threatBonus - receiveBonus
}
