package sim

import (
	"math"
	"testing"

	"robosoccer/internal/world"
)

func TestAttachBindsNearestSlowBall(t *testing.T) {
	e := newTestEngine(1)
	r := e.st.RobotByID(4)
	e.st.Ball.Pos = r.Pos.Add(world.Vec2{X: 0.08})
	e.st.Ball.Vel = world.Vec2{X: 0.1}

	e.updatePossession()

	if e.st.OwnerID != 4 || e.st.OwnerTeam != +1 {
		t.Fatalf("owner = %d/%d, want 4/+1", e.st.OwnerID, e.st.OwnerTeam)
	}
	carry := e.st.Field.RobotRadius + e.cfg.Possession.CarrySlack
	if d := e.st.Ball.Pos.Dist(r.Pos); math.Abs(d-carry) > 1e-6 {
		t.Fatalf("ball not snapped to carry offset: %.4f vs %.4f", d, carry)
	}
}

func TestFastBallDoesNotAttach(t *testing.T) {
	e := newTestEngine(1)
	r := e.st.RobotByID(4)
	e.st.Ball.Pos = r.Pos.Add(world.Vec2{X: 0.08})
	e.st.Ball.Vel = world.Vec2{X: 3}

	e.updatePossession()
	if e.st.OwnerID != -1 {
		t.Fatalf("fast ball attached to %d", e.st.OwnerID)
	}
}

func TestBannedRobotCannotAttach(t *testing.T) {
	e := newTestEngine(1)
	r := e.st.RobotByID(4)
	e.st.Ball.Pos = r.Pos.Add(world.Vec2{X: 0.08})
	e.st.Ball.Vel = world.Vec2{}
	e.bans[4] = e.now + 1.0

	e.updatePossession()
	if e.st.OwnerID == 4 {
		t.Fatalf("banned robot won the ball")
	}
}

func TestDriftedBallDetaches(t *testing.T) {
	e := newTestEngine(1)
	e.st.OwnerID = 4
	e.st.OwnerTeam = +1
	e.st.Ball.Pos = e.st.RobotByID(4).Pos.Add(world.Vec2{X: 1.0})

	e.updatePossession()
	if e.st.OwnerID != -1 || e.st.OwnerTeam != 0 {
		t.Fatalf("drifted ball still owned: %d/%d", e.st.OwnerID, e.st.OwnerTeam)
	}
	if e.recent.team != +1 || e.recent.id != 4 {
		t.Fatalf("loss not remembered: %+v", e.recent)
	}
}

func TestTurnoverAppliesLoserBan(t *testing.T) {
	e := newTestEngine(1)
	// Blue 4 just lost the ball; red 14 is on it now.
	e.recent = recentLoss{id: 4, team: +1, at: e.now}
	taker := e.st.RobotByID(14)
	e.st.Ball.Pos = taker.Pos.Add(world.Vec2{X: -0.08})
	e.st.Ball.Vel = world.Vec2{}
	// Keep blue robots away so 14 is the unique candidate.
	e.st.RobotByID(4).Pos = world.Vec2{X: -3, Y: 2}

	e.updatePossession()

	if e.st.OwnerID != 14 || e.st.OwnerTeam != -1 {
		t.Fatalf("owner = %d/%d, want 14/-1", e.st.OwnerID, e.st.OwnerTeam)
	}
	if e.bans[4] <= e.now {
		t.Fatalf("fumbling robot must be banned from the instant rewin")
	}
	if e.recent.team != 0 {
		t.Fatalf("loss memo must clear on attach: %+v", e.recent)
	}
}

func TestKeeperPickupStartsHold(t *testing.T) {
	e := newTestEngine(1)
	gk := e.st.RobotByID(world.BlueKeeperID)
	e.st.Ball.Pos = gk.Pos.Add(world.Vec2{X: 0.08})
	e.st.Ball.Vel = world.Vec2{}

	e.updatePossession()

	if e.st.OwnerID != world.BlueKeeperID {
		t.Fatalf("keeper did not take the ball: owner=%d", e.st.OwnerID)
	}
	if e.gkHoldOwner != world.BlueKeeperID || e.gkHoldUntil <= e.now {
		t.Fatalf("hold window not started: owner=%d until=%v", e.gkHoldOwner, e.gkHoldUntil)
	}
}

func TestPickKeeperReceiverPrefersOpenForward(t *testing.T) {
	e := newTestEngine(1)
	gk := e.st.RobotByID(world.BlueKeeperID)
	e.st.Ball.Pos = gk.Pos.Add(world.Vec2{X: 0.1})

	recv := e.pickKeeperReceiver(gk, +1)
	if recv == nil {
		t.Fatalf("no receiver in a full formation")
	}
	if recv.ID == world.BlueKeeperID || world.IsKeeper(recv.ID) {
		t.Fatalf("keeper picked itself: %d", recv.ID)
	}
	if recv.Pos.Dist(e.st.Ball.Pos) < 0.65 {
		t.Fatalf("receiver inside the no-pass radius: %+v", recv.Pos)
	}
}

func TestStuckBurstFreesPinnedBall(t *testing.T) {
	e := newTestEngine(1)
	// Ball pinned in a corner with one blue robot leaning on it.
	e.st.Ball.Pos = world.Vec2{X: 4.42, Y: 2.92}
	e.st.Ball.Vel = world.Vec2{}
	e.st.RobotByID(4).Pos = world.Vec2{X: 4.32, Y: 2.72}

	// First call absorbs the ball jump, second seeds robot history, third
	// starts the timer.
	e.now = 1.0
	e.breakStuckContests()
	e.now = 1.02
	e.breakStuckContests()
	e.now = 1.04
	e.breakStuckContests()
	if e.stuckSince < 0 {
		t.Fatalf("stuck timer not running")
	}
	e.now = 2.0
	e.breakStuckContests()

	if e.stuckSince >= 0 {
		t.Fatalf("breaker did not fire")
	}
	// Near-wall pins get the stronger burst.
	if v := e.st.Ball.Vel.Len(); math.Abs(v-e.cfg.Stuck.WallBurst) > 1e-6 {
		t.Fatalf("wall pin must use the wall burst: %v", v)
	}
	if e.st.Ball.Vel.X >= 0 || e.st.Ball.Vel.Y >= 0 {
		t.Fatalf("burst must head toward open play: %+v", e.st.Ball.Vel)
	}
}

func TestStuckCloseContestAwardsNonOwner(t *testing.T) {
	e := newTestEngine(1)
	e.st.Ball.Pos = world.Vec2{X: 1.0, Y: 0}
	e.st.Ball.Vel = world.Vec2{}
	e.st.RobotByID(4).Pos = world.Vec2{X: 0.8, Y: 0}
	e.st.RobotByID(14).Pos = world.Vec2{X: 1.2, Y: 0}
	e.st.OwnerID = 4
	e.st.OwnerTeam = +1

	e.now = 1.0
	e.breakStuckContests()
	e.now = 1.02
	e.breakStuckContests()
	e.now = 2.0
	e.breakStuckContests() // timer starts here
	e.now = 2.7
	e.breakStuckContests()

	if e.st.OwnerID != 14 || e.st.OwnerTeam != -1 {
		t.Fatalf("contest must flip to the non-owner: %d/%d", e.st.OwnerID, e.st.OwnerTeam)
	}
}

func TestMovingBallResetsStuckTimer(t *testing.T) {
	e := newTestEngine(1)
	e.st.Ball.Pos = world.Vec2{X: 1.0, Y: 0}
	e.st.RobotByID(4).Pos = world.Vec2{X: 0.9, Y: 0}

	e.now = 1.0
	e.breakStuckContests()
	e.now = 1.02
	e.breakStuckContests()
	e.now = 1.04
	e.breakStuckContests()
	if e.stuckSince < 0 {
		t.Fatalf("timer should be running")
	}
	e.st.Ball.Pos = world.Vec2{X: 1.5, Y: 0}
	e.now = 1.06
	e.breakStuckContests()
	if e.stuckSince >= 0 {
		t.Fatalf("moving ball must reset the timer")
	}
}
