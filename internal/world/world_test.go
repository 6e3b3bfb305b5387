package world

import (
	"math"
	"testing"
)

func testField() Field {
	return Field{Length: 9, Width: 6, GoalWidth: 1, RobotRadius: 0.09}
}

func TestMirrorIsInvolution(t *testing.T) {
	s := Formation(testField())
	s.Ball.Pos = Vec2{1.2, -0.7}
	s.Ball.Vel = Vec2{-0.3, 0.9}
	s.OwnerID = 12
	s.OwnerTeam = -1

	m := s.Mirror().Mirror()

	if m.Ball.Pos != s.Ball.Pos || m.Ball.Vel != s.Ball.Vel {
		t.Fatalf("ball changed: %+v vs %+v", m.Ball, s.Ball)
	}
	if m.OwnerID != s.OwnerID || m.OwnerTeam != s.OwnerTeam {
		t.Fatalf("owner changed: %d/%d vs %d/%d", m.OwnerID, m.OwnerTeam, s.OwnerID, s.OwnerTeam)
	}
	if len(m.Our) != len(s.Our) || len(m.Opp) != len(s.Opp) {
		t.Fatalf("roster sizes changed")
	}
	for i := range s.Our {
		a, b := s.Our[i], m.Our[i]
		if a.ID != b.ID || a.Pos.Dist(b.Pos) > 1e-12 {
			t.Fatalf("robot %d moved: %+v vs %+v", a.ID, a.Pos, b.Pos)
		}
		if math.Abs(math.Cos(a.Orient)-math.Cos(b.Orient)) > 1e-12 ||
			math.Abs(math.Sin(a.Orient)-math.Sin(b.Orient)) > 1e-12 {
			t.Fatalf("robot %d orientation changed", a.ID)
		}
	}
}

func TestMirrorSwapsRostersAndOwnerSign(t *testing.T) {
	s := Formation(testField())
	s.OwnerTeam = +1
	s.OwnerID = 4

	m := s.Mirror()
	if m.OwnerTeam != -1 {
		t.Fatalf("owner team = %d, want -1", m.OwnerTeam)
	}
	if m.Our[0].ID != RedKeeperID {
		t.Fatalf("mirrored Our[0] = %d, want red keeper", m.Our[0].ID)
	}
	if got := m.Opp[0].Pos; got != s.Our[0].Pos.Neg() {
		t.Fatalf("mirrored keeper pos = %+v", got)
	}
}

func TestCommandUnmirror(t *testing.T) {
	c := NewCommand(14)
	c.Vel = Vec2{1, -2}
	c.KickVel = Vec2{-3, 0.5}
	c.Omega = 1.5

	u := c.Unmirror()
	if u.Vel != (Vec2{-1, 2}) || u.KickVel != (Vec2{3, -0.5}) {
		t.Fatalf("unmirror vectors wrong: %+v", u)
	}
	if u.Omega != c.Omega || u.ID != c.ID || u.PassTarget != -1 {
		t.Fatalf("unmirror touched scalar fields: %+v", u)
	}
}

func TestFormationLayout(t *testing.T) {
	s := Formation(testField())
	if len(s.Our) != 6 || len(s.Opp) != 6 {
		t.Fatalf("roster sizes: %d/%d", len(s.Our), len(s.Opp))
	}
	if s.Our[0].ID != BlueKeeperID || s.Opp[0].ID != RedKeeperID {
		t.Fatalf("keepers misplaced")
	}
	if s.OwnerID != -1 || s.OwnerTeam != 0 {
		t.Fatalf("kickoff must start unowned")
	}
	for i := range s.Our {
		if s.Our[i].Pos.X >= 0 {
			t.Fatalf("blue robot %d on the wrong half: %+v", s.Our[i].ID, s.Our[i].Pos)
		}
		want := s.Our[i].Pos.Neg()
		if s.Opp[i].Pos != want {
			t.Fatalf("red robot %d not mirrored: %+v want %+v", s.Opp[i].ID, s.Opp[i].Pos, want)
		}
	}
}

func TestClampInside(t *testing.T) {
	f := testField()
	p := f.ClampInside(Vec2{100, -100}, 0.1)
	if p.X != f.HalfLength()-0.1 || p.Y != -f.HalfWidth()+0.1 {
		t.Fatalf("clamp = %+v", p)
	}
}
