package behavior

import (
	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

// laneSlot spreads supporters into stable lanes by id: -1, +1, -2, +2.
func laneSlot(id int) int {
	k := id
	if k < 0 {
		k = -k
	}
	i := k % 4
	mag := i/2 + 1
	if i%2 == 0 {
		return -mag
	}
	return mag
}

// supporterCommand moves an off-ball robot into a receiving spot ahead of
// the ball, sliding laterally when the pass lane is covered. The slide
// sequence is id-deterministic so supporters do not jitter between lanes.
func supporterCommand(w *world.State, self world.Robot) world.Command {
	cmd := world.NewCommand(self.ID)

	ball := w.Ball.Pos
	laneY := float64(laneSlot(self.ID)) * 1.35

	target := world.Vec2{X: ball.X + 1.35, Y: 0.5*ball.Y + 0.5*laneY}

	if tactics.SegmentBlocked(ball, target, w.Opp, 0.30) {
		slide := 0.7
		if self.ID%2 != 0 {
			slide = -0.7
		}
		tries := []float64{slide, -slide, 1.2 * slide, -1.2 * slide}
		found := false
		for _, off := range tries {
			try := world.Vec2{X: target.X, Y: target.Y + off}
			if !tactics.SegmentBlocked(ball, try, w.Opp, 0.30) {
				target = try
				found = true
				break
			}
		}
		if !found {
			target.Y += slide
		}
	}

	// Do not park on top of the ball while supporting.
	const minBallDist = 0.9
	d := target.Sub(ball)
	if dist := d.Len(); dist < minBallDist && dist > 1e-6 {
		target = ball.Add(d.Scale(minBallDist / dist))
	}

	target = w.Field.ClampInside(target, w.Field.RobotRadius+0.05)

	moveTo(&cmd, self, target, 1.3)
	cmd.Kick = false
	return cmd
}
