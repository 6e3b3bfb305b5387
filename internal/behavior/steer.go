package behavior

import (
	"math"

	"robosoccer/internal/world"
)

// moveTo points cmd at the target with the given speed, stopping inside a
// 5cm deadband so robots do not oscillate on their spot.
func moveTo(cmd *world.Command, self world.Robot, target world.Vec2, speed float64) {
	d := target.Sub(self.Pos)
	dist := d.Len()
	if dist < 0.05 {
		cmd.Vel = world.Vec2{}
		cmd.Omega = 0
		return
	}
	cmd.Vel = d.Scale(speed / dist)
	cmd.Omega = 0
}

// moveToWithAvoid blends the straight-line velocity with a capped repulsion
// from every other robot so approach runs do not ram through traffic.
func moveToWithAvoid(cmd *world.Command, self world.Robot, target world.Vec2, speed float64, w *world.State) {
	d := target.Sub(self.Pos)
	dist := d.Len()

	var v world.Vec2
	if dist >= 0.05 {
		v = d.Scale(speed / dist)
	}

	keep := w.Field.RobotRadius * 2.4
	keep2 := keep * keep
	influence := keep * 2.0
	influence2 := influence * influence

	repel := repelFrom(self, w.Our, keep2, influence2)
	repel = repel.Add(repelFrom(self, w.Opp, keep2, influence2))

	const repelGain = 1.2
	v = v.Add(repel.Scale(repelGain))

	if mag := v.Len(); mag > speed && mag > 1e-9 {
		v = v.Scale(speed / mag)
	}
	cmd.Vel = v
	cmd.Omega = 0
}

func repelFrom(self world.Robot, robots []world.Robot, keep2, influence2 float64) world.Vec2 {
	var out world.Vec2
	for i := range robots {
		r := robots[i]
		if r.ID == self.ID {
			continue
		}
		d := self.Pos.Sub(r.Pos)
		d2 := d.Len2()
		if d2 < 1e-9 || d2 > influence2 {
			continue
		}
		w := 1.0
		if d2 >= keep2 {
			w = (influence2 - d2) / (influence2 - keep2)
		}
		out = out.Add(d.Scale(w / math.Sqrt(d2)))
	}
	return out
}

// kickToward fills KickVel with a kick of the given speed from "from" at
// "to". A degenerate direction leaves the kick vector zero; the engine
// substitutes a straight forward kick in that case.
func kickToward(cmd *world.Command, from, to world.Vec2, speed float64) {
	d := to.Sub(from)
	dist := d.Len()
	if dist <= 1e-6 {
		cmd.KickVel = world.Vec2{}
		return
	}
	cmd.KickVel = d.Scale(speed / dist)
}
