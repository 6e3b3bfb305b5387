package behavior

import (
	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

// defenderCommand is the baseline defensive action: hold the line between
// ball and our goal, cut the lane to the likely receiver, and clear a close
// ball out of our half. The grid adjustment usually replaces the movement,
// but the keeper runs this unadjusted so its clear kick survives.
func defenderCommand(w *world.State, self world.Robot) world.Command {
	cmd := world.NewCommand(self.ID)

	ball := w.Ball.Pos
	goal := world.Vec2{X: -w.Field.HalfLength()}

	target := world.Vec2{X: (ball.X + goal.X) * 0.5, Y: ball.Y * 0.5}
	if i := tactics.ClosestRobot(w.Opp, ball); i >= 0 {
		p := tactics.ClosestPointOnSegment(ball, w.Opp[i].Pos, self.Pos)
		target = p
		// Stay in our half.
		if target.X > 0 {
			target.X = 0
		}
	}

	controlRange := w.Field.RobotRadius + 0.05
	if ball.X < 0 && self.Pos.Dist(ball) <= controlRange {
		cmd.Vel = world.Vec2{}
		cmd.Omega = 0
		cmd.Kick = true
		cmd.KickVel = world.Vec2{X: 5.0}
		return cmd
	}

	moveTo(&cmd, self, target, 1.2)
	cmd.Kick = false
	return cmd
}
