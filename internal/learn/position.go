package learn

import (
	"fmt"
	"math"
	"sync"

	"robosoccer/internal/config"
	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

const (
	attackFeatureCount  = 6
	defenseFeatureCount = 5
)

var (
	positionAttackDefaults  = [attackFeatureCount]float64{0.35, 0.65, 0.75, 0.25, 0.10, 0.20}
	positionDefenseDefaults = [defenseFeatureCount]float64{0.65, 0.45, 0.55, 0.20, -0.15}
)

// PositionLearner supplies small learned bonuses on top of the handcrafted
// placement scorers, one linear model for attacking shape and one for
// defensive shape. Both share a save counter.
type PositionLearner struct {
	mu      sync.Mutex
	cfg     config.LearnerConfig
	store   Store
	wa      [attackFeatureCount]float64
	wd      [defenseFeatureCount]float64
	pending int
}

func NewPositionLearner(cfg config.LearnerConfig, store Store) *PositionLearner {
	l := &PositionLearner{cfg: cfg, store: store, wa: positionAttackDefaults, wd: positionDefenseDefaults}
	if store != nil {
		if m, err := store.Load(); err == nil {
			for i := 0; i < attackFeatureCount; i++ {
				if v, ok := m[fmt.Sprintf("wa.%d", i)]; ok {
					l.wa[i] = v
				}
			}
			for i := 0; i < defenseFeatureCount; i++ {
				if v, ok := m[fmt.Sprintf("wd.%d", i)]; ok {
					l.wd[i] = v
				}
			}
		}
	}
	return l
}

// AttackFeatures evaluates a candidate point for attacking shape: forward
// progress, openness, lane clearance, range, centrality and team spacing.
func (l *PositionLearner) AttackFeatures(w *world.State, self world.Robot, p world.Vec2) []float64 {
	if w == nil {
		return nil
	}
	ball := w.Ball.Pos
	halfW := w.Field.HalfWidth()

	f := make([]float64, attackFeatureCount)
	f[0] = world.Clamp((p.X-ball.X)/3.5, -1, 1)
	f[1] = world.Clamp(nearestRobotDist(p, w.Opp, -1)/2.5, 0, 1.5)
	f[2] = world.Clamp(laneClearance(ball, p, w.Opp), 0, 1.5)
	f[3] = world.Clamp(1.0-math.Abs(p.Dist(ball)-2.0)/2.0, -0.3, 1)
	f[4] = world.Clamp(1.0-math.Min(1.0, math.Abs(p.Y)/(halfW+1e-9)), 0, 1)
	f[5] = world.Clamp(nearestRobotDist(p, w.Our, self.ID)/1.4, 0, 1.5)
	return f
}

// DefenseFeatures evaluates a candidate point for defensive shape. When a
// mark is assigned the lane cut and distance terms track the mark, else the
// most advanced opponent.
func (l *PositionLearner) DefenseFeatures(w *world.State, self world.Robot, p world.Vec2, mark *world.Vec2) []float64 {
	if w == nil {
		return nil
	}
	ball := w.Ball.Pos
	ourGoalX := -w.Field.HalfLength()

	ballToGoal := math.Abs(ball.X - ourGoalX)
	pointToGoal := math.Abs(p.X - ourGoalX)
	goalside := world.Clamp((ballToGoal-pointToGoal)/2.0, -1, 1)

	desired := world.Clamp(1.9+0.35*ballToGoal, 2.0, 5.2)
	lineHold := -math.Abs(pointToGoal-desired) / 3.0

	cut := 0.0
	if mark != nil {
		cp := tactics.ClosestPointOnSegment(ball, *mark, p)
		cut = -world.Clamp(p.Dist(cp)/2.0, 0, 1)
	} else if len(w.Opp) > 0 {
		threat := 0
		for i := range w.Opp {
			if w.Opp[i].Pos.X > w.Opp[threat].Pos.X {
				threat = i
			}
		}
		cp := tactics.ClosestPointOnSegment(ball, w.Opp[threat].Pos, p)
		cut = -world.Clamp(p.Dist(cp)/2.4, 0, 1)
	}

	markDist := 0.0
	if mark != nil {
		err := math.Abs(p.Dist(*mark) - 1.25)
		markDist = -world.Clamp((err-0.70)/1.2, 0, 1)
	}

	f := make([]float64, defenseFeatureCount)
	f[0] = goalside
	f[1] = world.Clamp(lineHold, -1.2, 0)
	f[2] = cut
	f[3] = markDist
	f[4] = -p.Dist(self.Pos) / 4.0
	return f
}

// AttackBonus and DefenseBonus scale the learned score down so the
// handcrafted heuristics keep the upper hand.
func (l *PositionLearner) AttackBonus(w *world.State, self world.Robot, p world.Vec2) float64 {
	f := l.AttackFeatures(w, self, p)
	if f == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return dot(l.wa[:], f) * 0.55
}

func (l *PositionLearner) DefenseBonus(w *world.State, self world.Robot, p world.Vec2, mark *world.Vec2) float64 {
	f := l.DefenseFeatures(w, self, p, mark)
	if f == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return dot(l.wd[:], f) * 0.55
}

func (l *PositionLearner) ApplyAttackReward(reward float64, features []float64) {
	if len(features) != attackFeatureCount {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r := world.Clamp(reward, -2, 2)
	for i := range l.wa {
		l.wa[i] += l.cfg.Rate * (r*features[i] - l.cfg.Decay*l.wa[i])
	}
	l.bumpLocked()
}

func (l *PositionLearner) ApplyDefenseReward(reward float64, features []float64) {
	if len(features) != defenseFeatureCount {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r := world.Clamp(reward, -2, 2)
	for i := range l.wd {
		l.wd[i] += l.cfg.Rate * (r*features[i] - l.cfg.Decay*l.wd[i])
	}
	l.bumpLocked()
}

func (l *PositionLearner) bumpLocked() {
	l.pending++
	if l.pending >= l.cfg.SaveEvery {
		l.pending = 0
		l.saveLocked()
	}
}

func (l *PositionLearner) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *PositionLearner) saveLocked() error {
	if l.store == nil {
		return nil
	}
	m := make(map[string]float64, attackFeatureCount+defenseFeatureCount)
	for i := 0; i < attackFeatureCount; i++ {
		m[fmt.Sprintf("wa.%d", i)] = l.wa[i]
	}
	for i := 0; i < defenseFeatureCount; i++ {
		m[fmt.Sprintf("wd.%d", i)] = l.wd[i]
	}
	return l.store.Save(m)
}

func (l *PositionLearner) AttackWeights() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, attackFeatureCount)
	copy(out, l.wa[:])
	return out
}

func (l *PositionLearner) DefenseWeights() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, defenseFeatureCount)
	copy(out, l.wd[:])
	return out
}
