package sim

import (
	"sort"

	"robosoccer/internal/config"
	"robosoccer/internal/learn"
	"robosoccer/internal/world"
)

// teamOrder fixes iteration over the per-team maps; learner updates are
// order-sensitive, so replays must apply them identically.
var teamOrder = [2]int{+1, -1}

// pendingPass is an unresolved tagged pass: resolved by the next possession
// change (success, interception) or by window expiry.
type pendingPass struct {
	at       float64
	fromID   int
	toID     int
	startX   float64 // true frame
	features []float64
}

// pendingAction is an unresolved shoot-vs-pass choice. PassToID is -1 for
// shots so a resolved pass can find its matching action.
type pendingAction struct {
	at       float64
	fromID   int
	passToID int
	shoot    bool
	startX   float64
	features []float64
}

type posSample struct {
	at       float64
	features []float64
}

// rewardBook resolves pending learning outcomes. Each team keeps at most
// one pending pass and one pending action; per-robot position features
// stay eligible for team-shape rewards inside the feature window.
type rewardBook struct {
	cfg      *config.Config
	pass     *learn.PassLearner
	action   *learn.ActionLearner
	position *learn.PositionLearner

	pendingPass   map[int]*pendingPass
	pendingAction map[int]*pendingAction
	attackPos     map[int]posSample
	defensePos    map[int]posSample
}

func newRewardBook(cfg *config.Config, pass *learn.PassLearner, action *learn.ActionLearner, position *learn.PositionLearner) *rewardBook {
	return &rewardBook{
		cfg:           cfg,
		pass:          pass,
		action:        action,
		position:      position,
		pendingPass:   map[int]*pendingPass{},
		pendingAction: map[int]*pendingAction{},
		attackPos:     map[int]posSample{},
		defensePos:    map[int]posSample{},
	}
}

func (b *rewardBook) recordPass(team, fromID, toID int, startX float64, features []float64, now float64) {
	if features == nil {
		return
	}
	b.pendingPass[team] = &pendingPass{at: now, fromID: fromID, toID: toID, startX: startX, features: features}
}

func (b *rewardBook) recordAction(team, fromID, passToID int, shoot bool, startX float64, features []float64, now float64) {
	if features == nil {
		return
	}
	b.pendingAction[team] = &pendingAction{at: now, fromID: fromID, passToID: passToID, shoot: shoot, startX: startX, features: features}
}

// notePositions stores the positional features each planner emitted this
// tick. Features are frame-independent dot-product inputs, so the mirrored
// red frame needs no conversion.
func (b *rewardBook) notePositions(tr map[int][]float64, def map[int][]float64, now float64) {
	for id, f := range tr {
		b.attackPos[id] = posSample{at: now, features: f}
	}
	for id, f := range def {
		b.defensePos[id] = posSample{at: now, features: f}
	}
}

// expire runs the per-tick window checks: a pass that outlived its window
// failed (and drags its linked pass-action down with it), an action that
// outlived its window is scored by forward progress, or failed outright if
// the opponent holds the ball.
func (b *rewardBook) expire(ownerTeam int, ballX, now float64) {
	for _, team := range teamOrder {
		pp := b.pendingPass[team]
		if pp == nil || now-pp.at <= b.cfg.Reward.PassWindow {
			continue
		}
		b.pass.ApplyReward(-1.0, pp.features)
		if pa := b.pendingAction[team]; pa != nil && !pa.shoot {
			b.action.ApplyReward(false, -0.8, pa.features)
			delete(b.pendingAction, team)
		}
		delete(b.pendingPass, team)
	}

	for _, team := range teamOrder {
		pa := b.pendingAction[team]
		if pa == nil || now-pa.at <= b.cfg.Reward.ActionWindow {
			continue
		}
		if ownerTeam != 0 && ownerTeam != team {
			b.action.ApplyReward(pa.shoot, -1.0, pa.features)
			delete(b.pendingAction, team)
			continue
		}
		prog := (ballX - pa.startX) * float64(team)
		b.action.ApplyReward(pa.shoot, world.Clamp(prog*0.10, -0.6, 0.6), pa.features)
		delete(b.pendingAction, team)
	}
}

// onAttach resolves pending passes against the new owner: the intended
// receiver scores the pass and its action by success plus forward progress
// and lightly rewards the team's attacking shape; an opposing pickup fails
// both.
func (b *rewardBook) onAttach(newOwnerID, newOwnerTeam int, ballX, now float64) {
	for _, team := range teamOrder {
		pp := b.pendingPass[team]
		if pp == nil || now-pp.at > b.cfg.Reward.PassWindow {
			continue // expire handles it
		}
		if newOwnerTeam != team {
			b.pass.ApplyReward(-1.0, pp.features)
			if pa := b.pendingAction[team]; pa != nil && !pa.shoot {
				b.action.ApplyReward(false, -1.0, pa.features)
				delete(b.pendingAction, team)
			}
			delete(b.pendingPass, team)
			continue
		}
		if newOwnerID != pp.toID {
			continue // teammate touch, keep waiting
		}
		prog := (ballX - pp.startX) * float64(team)
		reward := 1.0 + world.Clamp(prog*0.20, -1, 1)
		b.pass.ApplyReward(reward, pp.features)
		if pa := b.pendingAction[team]; pa != nil && !pa.shoot &&
			pa.fromID == pp.fromID && pa.passToID == pp.toID {
			b.action.ApplyReward(false, reward, pa.features)
			delete(b.pendingAction, team)
		}
		b.teamAttackReward(team, 0.22+world.Clamp(prog*0.05, -0.25, 0.35), now)
		delete(b.pendingPass, team)
	}
}

// onTurnover penalizes the losing side's attacking shape and latest action
// and credits the winning side's defensive shape.
func (b *rewardBook) onTurnover(lostTeam, wonTeam int, now float64) {
	b.teamAttackReward(lostTeam, -0.25, now)
	b.teamDefenseReward(wonTeam, +0.25, now)
	if pa := b.pendingAction[lostTeam]; pa != nil {
		b.action.ApplyReward(pa.shoot, -1.0, pa.features)
		delete(b.pendingAction, lostTeam)
	}
}

// onGoal settles the latest action at the extremes and grades both teams'
// shapes: the scorers gain on both ends, the conceding side loses more on
// the defensive end.
func (b *rewardBook) onGoal(scoringTeam int, now float64) {
	for _, team := range teamOrder {
		pa := b.pendingAction[team]
		if pa == nil {
			continue
		}
		r := -2.0
		if team == scoringTeam {
			r = 2.0
		}
		b.action.ApplyReward(pa.shoot, r, pa.features)
		delete(b.pendingAction, team)
	}
	b.teamAttackReward(scoringTeam, +0.6, now)
	b.teamDefenseReward(scoringTeam, +0.3, now)
	b.teamAttackReward(-scoringTeam, -0.4, now)
	b.teamDefenseReward(-scoringTeam, -0.8, now)
}

func robotTeam(id int) int {
	if id >= 10 {
		return -1
	}
	return +1
}

func sortedIDs(m map[int]posSample) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (b *rewardBook) teamAttackReward(team int, reward, now float64) {
	for _, id := range sortedIDs(b.attackPos) {
		s := b.attackPos[id]
		if robotTeam(id) != team {
			continue
		}
		if now-s.at > b.cfg.Reward.FeatureWindow {
			continue
		}
		b.position.ApplyAttackReward(reward, s.features)
	}
}

func (b *rewardBook) teamDefenseReward(team int, reward, now float64) {
	for _, id := range sortedIDs(b.defensePos) {
		s := b.defensePos[id]
		if robotTeam(id) != team {
			continue
		}
		if now-s.at > b.cfg.Reward.FeatureWindow {
			continue
		}
		b.position.ApplyDefenseReward(reward, s.features)
	}
}

func (b *rewardBook) reset() {
	b.pendingPass = map[int]*pendingPass{}
	b.pendingAction = map[int]*pendingAction{}
	b.attackPos = map[int]posSample{}
	b.defensePos = map[int]posSample{}
}
