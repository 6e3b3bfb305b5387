package behavior

import (
	"math"

	"robosoccer/internal/world"
)

// BallInKeeperBox reports whether the ball sits inside our keeper's box,
// with a small slop so possession handling does not flicker at the edge.
func BallInKeeperBox(w *world.State) bool {
	xFromGoal := w.Ball.Pos.X + w.Field.HalfLength()
	if xFromGoal < 0 || xFromGoal > w.Field.DefenseDepth+0.05 {
		return false
	}
	return math.Abs(w.Ball.Pos.Y) <= w.Field.DefenseWidth/2+0.05
}

// keeperConstraints rewrites the keeper's movement so it never joins
// midfield contests: chase the ball only inside the box, otherwise hold a
// spot between ball and goal, and sit at home when play is deep in the
// opponent half. Any kick decided by the base behavior is left alone.
func keeperConstraints(cmd world.Command, self world.Robot, w *world.State) world.Command {
	halfL := w.Field.HalfLength()
	ownGoalX := -halfL

	homeX := ownGoalX + 0.35
	minX := ownGoalX + w.Field.RobotRadius
	maxX := ownGoalX + w.Field.DefenseDepth
	halfW := w.Field.DefenseWidth / 2

	inBox := BallInKeeperBox(w)

	var target world.Vec2
	if inBox {
		target = world.Vec2{
			X: world.Clamp(w.Ball.Pos.X, minX, maxX),
			Y: world.Clamp(w.Ball.Pos.Y, -halfW, halfW),
		}
	} else {
		target = world.Vec2{
			X: world.Clamp((w.Ball.Pos.X+ownGoalX)*0.5, minX, maxX),
			Y: world.Clamp(w.Ball.Pos.Y*0.7, -halfW, halfW),
		}
		if w.Ball.Pos.X > 0.5 {
			target = world.Vec2{X: homeX, Y: 0}
		}
	}

	d := target.Sub(self.Pos)
	dist := d.Len()
	if dist > 1e-6 {
		speed := 1.4
		if inBox {
			speed = 1.7
		}
		cmd.Vel = d.Scale(speed / dist)
	} else {
		cmd.Vel = world.Vec2{}
	}
	cmd.Omega = 0
	return cmd
}
