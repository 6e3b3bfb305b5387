package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type FieldConfig struct {
	Length       float64 `yaml:"length"`
	Width        float64 `yaml:"width"`
	GoalWidth    float64 `yaml:"goal_width"`
	RobotRadius  float64 `yaml:"robot_radius"`
	DefenseDepth float64 `yaml:"defense_depth"`
	DefenseWidth float64 `yaml:"defense_width"`
}

type PhysicsConfig struct {
	TickHz      float64 `yaml:"tick_hz"`
	MaxSpeed    float64 `yaml:"max_speed"`
	MaxOmega    float64 `yaml:"max_omega"`
	BallDamping float64 `yaml:"ball_damping"`
	// Outgoing normal speed multiplier when the ball bounces off a robot.
	BounceFactor float64 `yaml:"bounce_factor"`
}

type PossessionConfig struct {
	ControlSlack    float64 `yaml:"control_slack"`
	AttachBallSpeed float64 `yaml:"attach_ball_speed"`
	DetachSlack     float64 `yaml:"detach_slack"`
	CarrySlack      float64 `yaml:"carry_slack"`
	KeeperHold      float64 `yaml:"keeper_hold"`
	KeeperRelease   float64 `yaml:"keeper_release"`
	StealBan        float64 `yaml:"steal_ban"`
	LoserBan        float64 `yaml:"loser_ban"`
	RecentLossMemo  float64 `yaml:"recent_loss_memo"`
}

// StuckConfig controls the contest breaker that frees a ball pinned
// between robots or against a wall.
type StuckConfig struct {
	MoveEps       float64 `yaml:"move_eps"`
	Persistence   float64 `yaml:"persistence"`
	EngageRadius  float64 `yaml:"engage_radius"`
	ContestRadius float64 `yaml:"contest_radius"`
	BurstSpeed    float64 `yaml:"burst_speed"`
	WallBurst     float64 `yaml:"wall_burst"`
}

type LearnerConfig struct {
	Rate      float64 `yaml:"rate"`
	Decay     float64 `yaml:"decay"`
	SaveEvery int     `yaml:"save_every"`
}

type LearningConfig struct {
	Pass     LearnerConfig `yaml:"pass"`
	Action   LearnerConfig `yaml:"action"`
	Position LearnerConfig `yaml:"position"`
	// Exploration epsilons for the shoot gate, inside and outside the
	// shooting zone.
	EpsilonShootZone float64 `yaml:"epsilon_shoot_zone"`
	EpsilonOutside   float64 `yaml:"epsilon_outside"`
}

type RewardConfig struct {
	PassWindow    float64 `yaml:"pass_window"`
	ActionWindow  float64 `yaml:"action_window"`
	FeatureWindow float64 `yaml:"feature_window"`
}

type GridConfig struct {
	AttackStep  float64 `yaml:"attack_step"`
	DefenseStep float64 `yaml:"defense_step"`
	RequestStep float64 `yaml:"request_step"`
}

type Config struct {
	Field      FieldConfig      `yaml:"field"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Possession PossessionConfig `yaml:"possession"`
	Stuck      StuckConfig      `yaml:"stuck"`
	Learning   LearningConfig   `yaml:"learning"`
	Reward     RewardConfig     `yaml:"reward"`
	Grid       GridConfig       `yaml:"grid"`
}

func Default() *Config {
	return &Config{
		Field: FieldConfig{
			Length:       9.0,
			Width:        6.0,
			GoalWidth:    1.0,
			RobotRadius:  0.09,
			DefenseDepth: 1.15,
			DefenseWidth: 2.10,
		},
		Physics: PhysicsConfig{
			TickHz:       60,
			MaxSpeed:     2.0,
			MaxOmega:     6.0,
			BallDamping:  0.98,
			BounceFactor: 1.6,
		},
		Possession: PossessionConfig{
			ControlSlack:    0.035,
			AttachBallSpeed: 0.85,
			DetachSlack:     0.10,
			CarrySlack:      0.012,
			KeeperHold:      2.0,
			KeeperRelease:   0.35,
			StealBan:        0.8,
			LoserBan:        1.0,
			RecentLossMemo:  2.0,
		},
		Stuck: StuckConfig{
			MoveEps:       0.02,
			Persistence:   0.65,
			EngageRadius:  0.65,
			ContestRadius: 0.33,
			BurstSpeed:    1.5,
			WallBurst:     1.9,
		},
		Learning: LearningConfig{
			Pass:             LearnerConfig{Rate: 0.06, Decay: 0.002, SaveEvery: 12},
			Action:           LearnerConfig{Rate: 0.06, Decay: 0.002, SaveEvery: 12},
			Position:         LearnerConfig{Rate: 0.055, Decay: 0.002, SaveEvery: 18},
			EpsilonShootZone: 0.05,
			EpsilonOutside:   0.07,
		},
		Reward: RewardConfig{
			PassWindow:    1.25,
			ActionWindow:  1.75,
			FeatureWindow: 2.0,
		},
		Grid: GridConfig{
			AttackStep:  0.45,
			DefenseStep: 0.55,
			RequestStep: 0.55,
		},
	}
}

// Load reads tuning from a yaml file layered over the defaults. A missing
// file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Dt() float64 { return 1.0 / c.Physics.TickHz }
