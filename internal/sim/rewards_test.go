package sim

import (
	"testing"

	"robosoccer/internal/config"
	"robosoccer/internal/learn"
)

func newTestBook() *rewardBook {
	cfg := config.Default()
	pass := learn.NewPassLearner(cfg.Learning.Pass, nil)
	action := learn.NewActionLearner(cfg.Learning.Action, nil, pass)
	position := learn.NewPositionLearner(cfg.Learning.Position, nil)
	return newRewardBook(cfg, pass, action, position)
}

func sameWeights(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var (
	passF   = []float64{0.6, 0.4, 0.8, 0.3, 0.2}
	actionF = []float64{1.0, 0.7, 0.4, 0.5, 0.3, 0.2}
	attF    = []float64{0.5, 0.6, 0.7, 0.3, 0.2, 0.4}
	defF    = []float64{0.4, 0.5, 0.6, 0.2, 0.1}
)

func TestPassExpiryPenalizesPassAndLinkedAction(t *testing.T) {
	b := newTestBook()
	b.recordPass(+1, 4, 5, 0, passF, 0)
	b.recordAction(+1, 4, 5, false, 0, actionF, 0)

	w0 := b.pass.Weights()
	a0 := b.action.Weights()
	b.expire(0, 0, b.cfg.Reward.PassWindow+0.1)

	w1 := b.pass.Weights()
	if w1[0] >= w0[0] {
		t.Fatalf("expired pass must lower the forward weight: %v -> %v", w0[0], w1[0])
	}
	if sameWeights(a0, b.action.Weights()) {
		t.Fatalf("linked pass-action must be penalized with the pass")
	}
	if b.pendingPass[+1] != nil || b.pendingAction[+1] != nil {
		t.Fatalf("expired outcomes must leave the book")
	}
}

func TestOpposingPickupFailsPendingPass(t *testing.T) {
	b := newTestBook()
	b.recordPass(+1, 4, 5, 0, passF, 0)

	w0 := b.pass.Weights()
	b.onAttach(14, -1, 0.5, 0.5)
	if w1 := b.pass.Weights(); w1[0] >= w0[0] {
		t.Fatalf("intercepted pass must lower the forward weight: %v -> %v", w0[0], w1[0])
	}
	if b.pendingPass[+1] != nil {
		t.Fatalf("intercepted pass still pending")
	}
}

func TestTeammateTouchKeepsPassPending(t *testing.T) {
	b := newTestBook()
	b.recordPass(+1, 4, 5, 0, passF, 0)

	w0 := b.pass.Weights()
	b.onAttach(3, +1, 0.5, 0.5) // not the intended receiver
	if !sameWeights(w0, b.pass.Weights()) {
		t.Fatalf("a teammate touch must not settle the pass")
	}
	if b.pendingPass[+1] == nil {
		t.Fatalf("pass must stay pending for the intended receiver")
	}
}

func TestIntendedReceiverRewardsPassActionAndShape(t *testing.T) {
	b := newTestBook()
	b.recordPass(+1, 4, 5, 0, passF, 0)
	b.recordAction(+1, 4, 5, false, 0, actionF, 0)
	b.notePositions(map[int][]float64{4: attF}, nil, 0)

	w0 := b.pass.Weights()
	wa0 := b.position.AttackWeights()
	b.onAttach(5, +1, 1.5, 0.5) // forward progress

	if w1 := b.pass.Weights(); w1[0] <= w0[0] {
		t.Fatalf("completed pass must raise the forward weight: %v -> %v", w0[0], w1[0])
	}
	if sameWeights(wa0, b.position.AttackWeights()) {
		t.Fatalf("a completed pass must reward the attacking shape")
	}
	if b.pendingPass[+1] != nil || b.pendingAction[+1] != nil {
		t.Fatalf("settled outcomes must leave the book")
	}
}

func TestShapeRewardSkipsOpponents(t *testing.T) {
	b := newTestBook()
	b.notePositions(map[int][]float64{14: attF}, nil, 0) // red sample only

	wa0 := b.position.AttackWeights()
	b.teamAttackReward(+1, 1.0, 0.1)
	if !sameWeights(wa0, b.position.AttackWeights()) {
		t.Fatalf("blue shape reward touched a red sample")
	}
}

func TestActionTimeoutScoredByProgress(t *testing.T) {
	b := newTestBook()
	b.recordAction(+1, 4, -1, true, 0, actionF, 0)

	a0 := b.action.Weights()
	b.expire(+1, 3.0, b.cfg.Reward.ActionWindow+0.1)
	if sameWeights(a0, b.action.Weights()) {
		t.Fatalf("timed out action must be graded by progress")
	}
	if b.pendingAction[+1] != nil {
		t.Fatalf("timed out action still pending")
	}
}

func TestActionTimeoutWithOpponentBallFails(t *testing.T) {
	b := newTestBook()
	b.recordAction(+1, 4, -1, true, 0, actionF, 0)

	a0 := b.action.Weights()
	b.expire(-1, 3.0, b.cfg.Reward.ActionWindow+0.1)
	if sameWeights(a0, b.action.Weights()) {
		t.Fatalf("losing the ball must fail the action outright")
	}
	if b.pendingAction[+1] != nil {
		t.Fatalf("failed action still pending")
	}
}

func TestTurnoverSettlesActionAndShapes(t *testing.T) {
	b := newTestBook()
	b.recordAction(+1, 4, 5, false, 0, actionF, 0)
	b.notePositions(map[int][]float64{4: attF}, map[int][]float64{14: defF}, 0)

	wa0 := b.position.AttackWeights()
	wd0 := b.position.DefenseWeights()
	b.onTurnover(+1, -1, 0.5)

	if b.pendingAction[+1] != nil {
		t.Fatalf("turnover must settle the pending action")
	}
	if sameWeights(wa0, b.position.AttackWeights()) {
		t.Fatalf("losing side's attacking shape untouched")
	}
	if sameWeights(wd0, b.position.DefenseWeights()) {
		t.Fatalf("winning side's defensive shape untouched")
	}
}

func TestGoalSettlesBothPendingActions(t *testing.T) {
	b := newTestBook()
	b.recordAction(+1, 4, -1, true, 0, actionF, 0)
	b.recordAction(-1, 14, -1, true, 0, actionF, 0)

	b.onGoal(+1, 0.5)
	if b.pendingAction[+1] != nil || b.pendingAction[-1] != nil {
		t.Fatalf("a goal must settle every pending action")
	}
}

func TestFeatureWindowFiltersStaleSamples(t *testing.T) {
	b := newTestBook()
	b.notePositions(map[int][]float64{4: attF}, nil, 0)

	wa0 := b.position.AttackWeights()
	b.teamAttackReward(+1, 1.0, b.cfg.Reward.FeatureWindow+1.0)
	if !sameWeights(wa0, b.position.AttackWeights()) {
		t.Fatalf("stale samples must not earn shape rewards")
	}

	b.teamAttackReward(+1, 1.0, 0.5)
	if sameWeights(wa0, b.position.AttackWeights()) {
		t.Fatalf("fresh samples must earn shape rewards")
	}
}

func TestBookResetClearsEverything(t *testing.T) {
	b := newTestBook()
	b.recordPass(+1, 4, 5, 0, passF, 0)
	b.recordAction(-1, 14, -1, true, 0, actionF, 0)
	b.notePositions(map[int][]float64{4: attF}, map[int][]float64{14: defF}, 0)

	b.reset()
	if len(b.pendingPass) != 0 || len(b.pendingAction) != 0 ||
		len(b.attackPos) != 0 || len(b.defensePos) != 0 {
		t.Fatalf("reset left state behind")
	}
}
