package learn

import (
	"math"
	"math/rand"
	"sync"

	"robosoccer/internal/config"
	"robosoccer/internal/tactics"
	"robosoccer/internal/world"
)

const actionFeatureCount = 6

var actionKeys = [actionFeatureCount]string{
	"w.inShootZone", "w.goalLane", "w.distToGoal",
	"w.ballXAttack", "w.bestPassScore", "w.safePassCount",
}

var actionDefaults = [actionFeatureCount]float64{0.85, 0.90, -0.35, 0.20, -0.55, -0.25}

// ActionLearner gates the shoot-vs-pass choice with a logistic model
// P(shoot) = sigmoid(w.f), trained with a policy-gradient style update.
type ActionLearner struct {
	mu      sync.Mutex
	cfg     config.LearnerConfig
	store   Store
	pass    *PassLearner
	w       [actionFeatureCount]float64
	pending int
}

func NewActionLearner(cfg config.LearnerConfig, store Store, pass *PassLearner) *ActionLearner {
	l := &ActionLearner{cfg: cfg, store: store, pass: pass, w: actionDefaults}
	if store != nil {
		if m, err := store.Load(); err == nil {
			for i, k := range actionKeys {
				if v, ok := m[k]; ok {
					l.w[i] = v
				}
			}
		}
	}
	return l
}

// InShootZone reports whether the ball sits in the attacking last 30% of
// the field, in the decision frame.
func InShootZone(w *world.State) bool {
	return w.Ball.Pos.X > w.Field.HalfLength()*0.30
}

// Features builds the decision context for the given passer: zone, goal
// lane, goal distance, ball depth, quality of the best learned pass and the
// number of safe outlets.
func (l *ActionLearner) Features(w *world.State, passerID int) []float64 {
	if w == nil {
		return nil
	}
	ball := w.Ball.Pos
	halfL := w.Field.HalfLength()
	goal := world.Vec2{X: halfL}

	f := make([]float64, actionFeatureCount)
	if InShootZone(w) {
		f[0] = 1
	}
	if !tactics.SegmentBlocked(ball, goal, w.Opp, 0.30) {
		f[1] = 1
	}
	f[2] = world.Clamp(ball.Dist(goal)/(halfL*2), 0, 1.2)
	f[3] = world.Clamp(ball.X/halfL, -1, 1)

	bestPass := -1.0
	if sp := l.pass.PickBestReceiver(w, passerID, 0.75, 4.2); sp != nil {
		bestPass = sp.Score
	}
	f[4] = world.Clamp(bestPass/4.0, -1, 1)

	safe := 0
	for i := range w.Our {
		r := w.Our[i]
		if r.ID == passerID {
			continue
		}
		d := r.Pos.Dist(ball)
		if d < 0.75 || d > 4.2 {
			continue
		}
		if !tactics.SegmentBlocked(ball, r.Pos, w.Opp, 0.30) {
			safe++
		}
	}
	f[5] = world.Clamp(float64(safe)/4.0, 0, 1.2)
	return f
}

// ChooseShoot samples the gate. With probability epsilon it explores with
// a fair coin instead of the model.
func (l *ActionLearner) ChooseShoot(features []float64, epsilon float64, rng *rand.Rand) bool {
	if len(features) != actionFeatureCount {
		return false
	}
	l.mu.Lock()
	p := sigmoid(dot(l.w[:], features))
	l.mu.Unlock()
	if rng.Float64() < epsilon {
		return rng.Float64() < 0.5
	}
	return rng.Float64() < p
}

func (l *ActionLearner) ApplyReward(shoot bool, reward float64, features []float64) {
	if len(features) != actionFeatureCount {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r := world.Clamp(reward, -2, 2)
	p := sigmoid(dot(l.w[:], features))
	a := 0.0
	if shoot {
		a = 1.0
	}
	g := a - p
	for i := range l.w {
		l.w[i] += l.cfg.Rate * (r*g*features[i] - l.cfg.Decay*l.w[i])
	}
	l.pending++
	if l.pending >= l.cfg.SaveEvery {
		l.pending = 0
		l.saveLocked()
	}
}

func (l *ActionLearner) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *ActionLearner) saveLocked() error {
	if l.store == nil {
		return nil
	}
	m := make(map[string]float64, actionFeatureCount)
	for i, k := range actionKeys {
		m[k] = l.w[i]
	}
	return l.store.Save(m)
}

func (l *ActionLearner) Weights() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, actionFeatureCount)
	copy(out, l.w[:])
	return out
}

// Numerically stable in both tails.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}
