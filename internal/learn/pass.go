package learn

import (
	"math"
	"sync"

	"robosoccer/internal/config"
	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

const passFeatureCount = 5

var passKeys = [passFeatureCount]string{"w.forward", "w.openness", "w.lane", "w.range", "w.central"}

var passDefaults = [passFeatureCount]float64{0.55, 0.85, 0.95, 0.40, 0.25}

// PassLearner scores pass receivers with a small linear model and adapts
// the weights online from pass outcomes.
type PassLearner struct {
	mu      sync.Mutex
	cfg     config.LearnerConfig
	store   Store
	w       [passFeatureCount]float64
	pending int
}

// NewPassLearner loads weights from store, falling back to the built-in
// defaults when the store is empty or unreadable.
func NewPassLearner(cfg config.LearnerConfig, store Store) *PassLearner {
	l := &PassLearner{cfg: cfg, store: store, w: passDefaults}
	if store != nil {
		if m, err := store.Load(); err == nil {
			for i, k := range passKeys {
				if v, ok := m[k]; ok {
					l.w[i] = v
				}
			}
		}
	}
	return l
}

type ScoredPass struct {
	ReceiverID int
	Score      float64
	Features   []float64
}

// PickBestReceiver evaluates every teammate whose ball distance falls in
// [minDist, maxDist] and returns the highest scoring one, or nil.
// The state must be in the passer's decision frame.
func (l *PassLearner) PickBestReceiver(w *world.State, passerID int, minDist, maxDist float64) *ScoredPass {
	if w == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var best *ScoredPass
	for i := range w.Our {
		r := w.Our[i]
		if r.ID == passerID {
			continue
		}
		d := r.Pos.Dist(w.Ball.Pos)
		if d < minDist || d > maxDist {
			continue
		}
		f := passFeatures(w, r)
		s := dot(l.w[:], f)
		if best == nil || s > best.Score {
			best = &ScoredPass{ReceiverID: r.ID, Score: s, Features: f}
		}
	}
	return best
}

// FeaturesFor recomputes the feature vector for one receiver id, or nil if
// the id is not on the passing team.
func (l *PassLearner) FeaturesFor(w *world.State, receiverID int) []float64 {
	if w == nil {
		return nil
	}
	for i := range w.Our {
		if w.Our[i].ID == receiverID {
			return passFeatures(w, w.Our[i])
		}
	}
	return nil
}

// ApplyReward nudges the weights toward features that earned reward.
// L2 decay keeps the weights bounded over long sessions.
func (l *PassLearner) ApplyReward(reward float64, features []float64) {
	if len(features) != passFeatureCount {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r := world.Clamp(reward, -2, 2)
	for i := range l.w {
		l.w[i] += l.cfg.Rate * (r*features[i] - l.cfg.Decay*l.w[i])
	}
	l.pending++
	if l.pending >= l.cfg.SaveEvery {
		l.pending = 0
		l.saveLocked()
	}
}

func (l *PassLearner) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *PassLearner) saveLocked() error {
	if l.store == nil {
		return nil
	}
	m := make(map[string]float64, passFeatureCount)
	for i, k := range passKeys {
		m[k] = l.w[i]
	}
	return l.store.Save(m)
}

func (l *PassLearner) Weights() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, passFeatureCount)
	copy(out, l.w[:])
	return out
}

// Features: forward progress, receiver openness, lane clearance, range
// preference peaking near 2m, and centrality.
func passFeatures(w *world.State, receiver world.Robot) []float64 {
	ball := w.Ball.Pos
	f := make([]float64, passFeatureCount)

	f[0] = world.Clamp((receiver.Pos.X-ball.X)/3.5, -1, 1)
	f[1] = world.Clamp(nearestRobotDist(receiver.Pos, w.Opp, -1)/2.5, 0, 1.2)
	f[2] = world.Clamp(laneClearance(ball, receiver.Pos, w.Opp), 0, 1.5)

	d := receiver.Pos.Dist(ball)
	f[3] = world.Clamp(1.0-math.Abs(d-2.0)/2.0, -0.2, 1)

	halfW := w.Field.HalfWidth()
	f[4] = world.Clamp(1.0-math.Min(1.0, math.Abs(receiver.Pos.Y)/(halfW+1e-9)), 0, 1)
	return f
}

func nearestRobotDist(p world.Vec2, rs []world.Robot, excludeID int) float64 {
	best := 9.0
	for i := range rs {
		if rs[i].ID == excludeID {
			continue
		}
		if d := rs[i].Pos.Dist(p); d < best {
			best = d
		}
	}
	return best
}

func laneClearance(a, b world.Vec2, opps []world.Robot) float64 {
	best := 9.0
	for i := range opps {
		cp := tactics.ClosestPointOnSegment(a, b, opps[i].Pos)
		if d := opps[i].Pos.Dist(cp); d < best {
			best = d
		}
	}
	return best
}

func dot(w, f []float64) float64 {
	s := 0.0
	for i := 0; i < len(w) && i < len(f); i++ {
		s += w[i] * f[i]
	}
	return s
}
