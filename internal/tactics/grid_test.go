package tactics

import (
	"math"
	"testing"

	"robosoccer/internal/world"
)

func testState() *world.State {
	s := world.Formation(world.Field{Length: 9, Width: 6, GoalWidth: 1, RobotRadius: 0.09})
	return &s
}

func TestFindBestDeterministicAndInBounds(t *testing.T) {
	w := testState()
	self := w.Our[4]
	sc := func(w *world.State, self world.Robot, p world.Vec2) float64 {
		return -p.Dist2(world.Vec2{X: 1.0, Y: -0.5})
	}

	a := FindBest(w, self, 0.45, sc)
	b := FindBest(w, self, 0.45, sc)
	if a != b {
		t.Fatalf("same input, different result: %+v vs %+v", a, b)
	}

	margin := w.Field.RobotRadius + 0.06
	if math.Abs(a.Pos.X) > w.Field.HalfLength()-margin+1e-9 ||
		math.Abs(a.Pos.Y) > w.Field.HalfWidth()-margin+1e-9 {
		t.Fatalf("best point out of bounds: %+v", a.Pos)
	}
	if a.Pos.Dist(world.Vec2{X: 1.0, Y: -0.5}) > 0.45 {
		t.Fatalf("best point too far from the optimum: %+v", a.Pos)
	}
}

func TestFindBestPlateauKeepsFirstPoint(t *testing.T) {
	w := testState()
	self := w.Our[4]

	// Every point scores the same; only a strictly better score may replace
	// the incumbent, so the first point of the x-major scan must win.
	g := FindBest(w, self, 0.45, func(*world.State, world.Robot, world.Vec2) float64 { return 1 })

	margin := w.Field.RobotRadius + 0.06
	first := world.Vec2{X: -w.Field.HalfLength() + margin, Y: -w.Field.HalfWidth() + margin}
	if g.Pos != first {
		t.Fatalf("plateau winner = %+v, want first scan point %+v", g.Pos, first)
	}
	if g.Score != 1 {
		t.Fatalf("score = %v", g.Score)
	}
}

func TestFindBestDegenerateInputs(t *testing.T) {
	w := testState()
	self := w.Our[1]
	g := FindBest(w, self, 0, func(*world.State, world.Robot, world.Vec2) float64 { return 1 })
	if g.Pos != self.Pos || !math.IsInf(g.Score, -1) {
		t.Fatalf("zero step must return self position: %+v", g)
	}
	g = FindBest(nil, self, 0.5, nil)
	if g.Pos != self.Pos {
		t.Fatalf("nil inputs must return self position: %+v", g)
	}
}

func TestClosestPointOnSegment(t *testing.T) {
	a := world.Vec2{X: 0, Y: 0}
	b := world.Vec2{X: 2, Y: 0}

	if cp := ClosestPointOnSegment(a, b, world.Vec2{X: 1, Y: 1}); cp != (world.Vec2{X: 1, Y: 0}) {
		t.Fatalf("interior projection: %+v", cp)
	}
	if cp := ClosestPointOnSegment(a, b, world.Vec2{X: -5, Y: 3}); cp != a {
		t.Fatalf("clamp to a: %+v", cp)
	}
	if cp := ClosestPointOnSegment(a, b, world.Vec2{X: 9, Y: -2}); cp != b {
		t.Fatalf("clamp to b: %+v", cp)
	}
	if cp := ClosestPointOnSegment(a, a, world.Vec2{X: 3, Y: 3}); cp != a {
		t.Fatalf("degenerate segment: %+v", cp)
	}
}

func TestSegmentBlocked(t *testing.T) {
	a := world.Vec2{X: 0, Y: 0}
	b := world.Vec2{X: 3, Y: 0}
	opps := []world.Robot{{ID: 10, Pos: world.Vec2{X: 1.5, Y: 0.2}}}

	if !SegmentBlocked(a, b, opps, 0.3) {
		t.Fatalf("opponent 0.2 off the lane must block at radius 0.3")
	}
	if SegmentBlocked(a, b, opps, 0.1) {
		t.Fatalf("opponent 0.2 off the lane must not block at radius 0.1")
	}
	if SegmentBlocked(a, b, nil, 0.5) {
		t.Fatalf("no opponents can never block")
	}

	// Direction of travel must not matter.
	placements := []world.Vec2{
		{X: 1.5, Y: 0.2},   // mid lane
		{X: -0.1, Y: 0.05}, // just past a
		{X: 3.2, Y: -0.1},  // just past b
		{X: 1.0, Y: 2.0},   // well clear
	}
	for _, p := range placements {
		o := []world.Robot{{ID: 10, Pos: p}}
		for _, r := range []float64{0.1, 0.3, 0.5} {
			if SegmentBlocked(a, b, o, r) != SegmentBlocked(b, a, o, r) {
				t.Fatalf("blocked(a,b) != blocked(b,a) for opp %+v radius %v", p, r)
			}
		}
	}
}

func TestClosestRobot(t *testing.T) {
	rs := []world.Robot{
		{ID: 1, Pos: world.Vec2{X: 2, Y: 0}},
		{ID: 2, Pos: world.Vec2{X: 0.5, Y: 0}},
		{ID: 3, Pos: world.Vec2{X: -3, Y: 1}},
	}
	if i := ClosestRobot(rs, world.Vec2{}); i != 1 {
		t.Fatalf("closest index = %d, want 1", i)
	}
	if i := ClosestRobot(nil, world.Vec2{}); i != -1 {
		t.Fatalf("empty slice must return -1, got %d", i)
	}
}

func TestPredictBall(t *testing.T) {
	w := testState()
	w.Ball.Pos = world.Vec2{X: 1, Y: 1}
	w.Ball.Vel = world.Vec2{X: -2, Y: 0.5}
	p := PredictBall(w, 0.5)
	if p != (world.Vec2{X: 0, Y: 1.25}) {
		t.Fatalf("predict = %+v", p)
	}
}

func TestPassInterceptable(t *testing.T) {
	a := world.Vec2{X: 0, Y: 0}
	b := world.Vec2{X: 4, Y: 0}

	near := []world.Robot{{ID: 10, Pos: world.Vec2{X: 2, Y: 0.3}}}
	if !PassInterceptable(a, b, near, 2.0, 2.0, 0.15) {
		t.Fatalf("close fast defender should intercept a slow pass")
	}

	far := []world.Robot{{ID: 10, Pos: world.Vec2{X: 2, Y: 2.8}}}
	if PassInterceptable(a, b, far, 6.0, 2.0, 0.15) {
		t.Fatalf("distant defender cannot catch a fast pass")
	}
}
