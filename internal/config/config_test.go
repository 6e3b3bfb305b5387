package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsComplete(t *testing.T) {
	c := Default()
	if c.Physics.TickHz <= 0 || c.Dt() <= 0 {
		t.Fatalf("tick rate unset: %+v", c.Physics)
	}
	if c.Field.Length <= 0 || c.Field.Width <= 0 || c.Field.RobotRadius <= 0 {
		t.Fatalf("field unset: %+v", c.Field)
	}
	if c.Possession.KeeperHold <= c.Possession.KeeperRelease {
		t.Fatalf("keeper hold must exceed the release lead time: %+v", c.Possession)
	}
	if c.Stuck.ContestRadius >= c.Stuck.EngageRadius {
		t.Fatalf("contest radius must be tighter than engage radius: %+v", c.Stuck)
	}
	if c.Reward.PassWindow >= c.Reward.ActionWindow {
		t.Fatalf("pass window must close before the action window: %+v", c.Reward)
	}
	if c.Learning.Pass.Rate <= 0 || c.Learning.Position.SaveEvery <= 0 {
		t.Fatalf("learning config unset: %+v", c.Learning)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	src := "physics:\n  tick_hz: 30\nstuck:\n  persistence: 1.5\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Physics.TickHz != 30 {
		t.Fatalf("tick_hz = %v, want overridden 30", c.Physics.TickHz)
	}
	if c.Stuck.Persistence != 1.5 {
		t.Fatalf("persistence = %v, want overridden 1.5", c.Stuck.Persistence)
	}
	// Untouched keys keep their defaults.
	d := Default()
	if c.Physics.MaxSpeed != d.Physics.MaxSpeed || c.Possession.KeeperHold != d.Possession.KeeperHold {
		t.Fatalf("defaults lost under overlay: %+v", c)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if c.Physics.TickHz != Default().Physics.TickHz {
		t.Fatalf("missing file must return defaults")
	}
}

func TestLoadRejectsMalformedYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("physics: [not a map"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed yaml must error")
	}
}

func TestDt(t *testing.T) {
	c := Default()
	c.Physics.TickHz = 50
	if got := c.Dt(); got != 0.02 {
		t.Fatalf("dt = %v, want 0.02", got)
	}
}
