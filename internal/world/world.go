package world

import "math"

// Reserved roster ids for the two goalkeepers.
const (
	BlueKeeperID = 0
	RedKeeperID  = 10
)

func IsKeeper(id int) bool { return id == BlueKeeperID || id == RedKeeperID }

// Field holds the play-area geometry. Coordinates are centered: x spans
// [-Length/2, +Length/2] between the goals, y spans [-Width/2, +Width/2].
type Field struct {
	Length       float64
	Width        float64
	GoalWidth    float64
	RobotRadius  float64
	DefenseDepth float64
	DefenseWidth float64
}

func (f Field) HalfLength() float64 { return f.Length / 2 }
func (f Field) HalfWidth() float64  { return f.Width / 2 }

// ClampInside clamps p so a robot center stays at least margin from the walls.
func (f Field) ClampInside(p Vec2, margin float64) Vec2 {
	return Vec2{
		X: Clamp(p.X, -f.HalfLength()+margin, f.HalfLength()-margin),
		Y: Clamp(p.Y, -f.HalfWidth()+margin, f.HalfWidth()-margin),
	}
}

type Ball struct {
	Pos Vec2
	Vel Vec2
}

type Robot struct {
	ID     int
	Pos    Vec2
	Vel    Vec2
	Orient float64
}

// State is a decision-frame view of the match: Our always attacks +x.
// The engine keeps the blue-perspective state as the true frame and hands
// the red team a mirrored copy.
type State struct {
	Field Field
	Ball  Ball
	Our   []Robot
	Opp   []Robot

	// Possession snapshot. OwnerTeam is +1 when a robot in Our holds the
	// ball, -1 for Opp, 0 when the ball is free. OwnerID is -1 when free.
	OwnerID   int
	OwnerTeam int
}

func (s *State) RobotByID(id int) *Robot {
	for i := range s.Our {
		if s.Our[i].ID == id {
			return &s.Our[i]
		}
	}
	for i := range s.Opp {
		if s.Opp[i].ID == id {
			return &s.Opp[i]
		}
	}
	return nil
}

func mirrorRobot(r Robot) Robot {
	return Robot{
		ID:     r.ID,
		Pos:    r.Pos.Neg(),
		Vel:    r.Vel.Neg(),
		Orient: normAngle(r.Orient + math.Pi),
	}
}

func normAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Mirror flips the frame through the field center: rosters swap sides,
// positions and velocities negate, orientations rotate by pi. Applying it
// twice restores the original state.
func (s State) Mirror() State {
	m := State{
		Field:     s.Field,
		Ball:      Ball{Pos: s.Ball.Pos.Neg(), Vel: s.Ball.Vel.Neg()},
		Our:       make([]Robot, len(s.Opp)),
		Opp:       make([]Robot, len(s.Our)),
		OwnerID:   s.OwnerID,
		OwnerTeam: -s.OwnerTeam,
	}
	for i, r := range s.Opp {
		m.Our[i] = mirrorRobot(r)
	}
	for i, r := range s.Our {
		m.Opp[i] = mirrorRobot(r)
	}
	return m
}

// Command is one robot's requested motion for a tick, expressed in the
// frame the deciding team saw. PassTarget is -1 when the kick is not a pass.
type Command struct {
	ID         int
	Vel        Vec2
	Omega      float64
	Kick       bool
	KickVel    Vec2
	PassTarget int
	ShotIntent bool
}

func NewCommand(id int) Command { return Command{ID: id, PassTarget: -1} }

// Unmirror maps a command decided in the mirrored frame back to the true
// frame. Orientation rate is frame-independent.
func (c Command) Unmirror() Command {
	c.Vel = c.Vel.Neg()
	c.KickVel = c.KickVel.Neg()
	return c
}

// Formation returns the kickoff state in the blue perspective: keeper on the
// goal line, three defenders on a back line, two attackers near the center.
// Red occupies the mirror image with ids offset by ten.
func Formation(f Field) State {
	halfL := f.HalfLength()
	blue := []Robot{
		{ID: BlueKeeperID, Pos: Vec2{-halfL + 0.35, 0}},
		{ID: 1, Pos: Vec2{-halfL + 1.35, -1.0}},
		{ID: 2, Pos: Vec2{-halfL + 1.35, 0}},
		{ID: 3, Pos: Vec2{-halfL + 1.35, 1.0}},
		{ID: 4, Pos: Vec2{-0.6, -0.9}},
		{ID: 5, Pos: Vec2{-0.6, 0.9}},
	}
	red := make([]Robot, len(blue))
	for i, r := range blue {
		red[i] = Robot{ID: r.ID + 10, Pos: r.Pos.Neg(), Orient: math.Pi}
	}
	return State{
		Field:     f,
		Ball:      Ball{},
		Our:       blue,
		Opp:       red,
		OwnerID:   -1,
		OwnerTeam: 0,
	}
}
