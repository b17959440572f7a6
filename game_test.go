package main

import (
	"math"
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

// recordingEconomy captures reward calls for assertions
type recordingEconomy struct {
	bonuses        []string
	bonusAmounts   []int
	killRewards    int
	finals         int
	finalScore     int
	finalWave      int
	finalNewRecord bool
}

func (r *recordingEconomy) GrantTokenBonus(kind string, amount, wave int) {
	r.bonuses = append(r.bonuses, kind)
	r.bonusAmounts = append(r.bonusAmounts, amount)
}

func (r *recordingEconomy) RecordKillReward(amount int) {
	r.killRewards++
}

func (r *recordingEconomy) ReportFinalScore(score, wave, kills int, duration float64, newRecord bool) {
	r.finals++
	r.finalScore = score
	r.finalWave = wave
	r.finalNewRecord = newRecord
}

func (r *recordingEconomy) countBonus(kind string) int {
	n := 0
	for _, b := range r.bonuses {
		if b == kind {
			n++
		}
	}
	return n
}

// mockBroadcaster captures sent frames for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	binary   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary = append(m.binary, data)
}

// breach kills the session by walking an enemy into the core
func breach(g *Game) {
	addEnemy(g, Vec3{Y: 3}, 3)
	g.updateEnemies(0.001)
}

func TestPhaseTransitions(t *testing.T) {
	g := NewGame(nil, nil)
	if g.phase != PhaseSelecting {
		t.Fatal("new game should be selecting")
	}

	g.StartSession()
	if g.phase != PhaseSelecting {
		t.Error("start without a machine should be ignored")
	}

	if !g.SelectMachine("vulcan") {
		t.Fatal("vulcan should be selectable")
	}
	if g.SelectMachine("bogus") {
		t.Error("unknown machine should be rejected")
	}
	if g.machine.ID != "vulcan" {
		t.Error("rejected selection must not clobber the current one")
	}

	g.StartSession()
	if g.phase != PhasePlaying {
		t.Fatal("expected playing after start")
	}
	if g.SelectMachine("sentry") {
		t.Error("selection is only possible from the menu")
	}

	breach(g)
	if g.phase != PhaseDead {
		t.Fatal("expected dead after breach")
	}

	g.Restart()
	if g.phase != PhasePlaying {
		t.Fatal("restart should return to playing")
	}

	g.ReturnToMenu()
	if g.phase != PhaseSelecting {
		t.Fatal("menu should return to selecting")
	}
	if g.machine != nil {
		t.Error("menu should clear the selected machine")
	}
	if g.bridge.State().Machine != "" {
		t.Error("bridge should see the selection cleared")
	}
}

func TestRestartRequiresDeployedMachine(t *testing.T) {
	g := NewGame(nil, nil)
	g.Restart()
	if g.phase != PhaseSelecting {
		t.Error("restart from the menu should be ignored")
	}
}

func TestDeployBonusOnlyOnce(t *testing.T) {
	rec := &recordingEconomy{}
	g := NewGame(nil, rec)
	g.SelectMachine("sentry")

	g.StartSession()
	if rec.countBonus(RewardDeploy) != 1 {
		t.Fatal("initial deployment should grant the bonus")
	}
	if rec.bonusAmounts[0] != DeployBonusTokens {
		t.Errorf("expected %d tokens, got %d", DeployBonusTokens, rec.bonusAmounts[0])
	}

	breach(g)
	g.Restart()
	g.ReturnToMenu()
	g.SelectMachine("tempest")
	g.StartSession()

	if rec.countBonus(RewardDeploy) != 1 {
		t.Errorf("deploy bonus granted %d times", rec.countBonus(RewardDeploy))
	}
}

func TestPresenceScoreAccrual(t *testing.T) {
	g, _ := newPlayingGame(t)
	addEnemy(g, Vec3{X: 70, Y: 3}, 3)
	addEnemy(g, Vec3{Y: 3, Z: 70}, 3)
	addEnemy(g, Vec3{X: -70, Y: 3}, 3)

	g.Tick(0.5)

	want := 0.5 * 3 * PresenceScoreRate
	if math.Abs(g.score-want) > 1e-9 {
		t.Errorf("expected presence score %f, got %f", want, g.score)
	}
	if g.shownScore != int(want) {
		t.Errorf("floored score should be pushed, shown %d", g.shownScore)
	}
	if g.bridge.State().Score != int(want) {
		t.Error("score should reach the bridge")
	}
}

func TestScoreNotPushedWithoutFloorChange(t *testing.T) {
	g, _ := newPlayingGame(t)
	rec := &patchRecorder{}
	g.bridge.Subscribe(rec)
	replay := len(rec.patches)

	addEnemy(g, Vec3{X: 70, Y: 3}, 3)
	g.Tick(0.1) // 0.2 points, floor still 0

	for _, p := range rec.patches[replay:] {
		if p.Score != nil {
			t.Fatal("no score push until the floored value changes")
		}
	}
}

func TestKillReward(t *testing.T) {
	rec := &recordingEconomy{}
	g := NewGame(NewTrackingScene(), rec)
	g.SelectMachine("sentry")
	g.StartSession()
	g.director.SpawnCD = 1000

	addEnemy(g, Vec3{Y: 3, Z: 20}, 1)
	addStaticBullet(g, Vec3{Y: 4, Z: 20})
	g.updateBullets(0.001)

	if rec.killRewards != 1 {
		t.Errorf("expected one kill reward, got %d", rec.killRewards)
	}
}

func TestNewRecordOnlyAboveSessionBest(t *testing.T) {
	rec := &recordingEconomy{}
	g := NewGame(NewTrackingScene(), rec)
	mb := &mockBroadcaster{}
	g.SetBroadcaster(mb)
	g.SelectMachine("sentry")
	g.StartSession()
	g.director.SpawnCD = 1000

	g.score = 50
	breach(g)
	if !rec.finalNewRecord {
		t.Error("first finished run is always a record")
	}
	if g.bestScore != 50 {
		t.Errorf("expected session best 50, got %d", g.bestScore)
	}

	g.Restart()
	g.director.SpawnCD = 1000
	g.score = 30
	breach(g)
	if rec.finalNewRecord {
		t.Error("30 does not beat a best of 50")
	}
	if g.bestScore != 50 {
		t.Error("session best must survive a worse run")
	}

	g.Restart()
	g.director.SpawnCD = 1000
	g.score = 60
	breach(g)
	if !rec.finalNewRecord || g.bestScore != 60 {
		t.Error("60 should set a new session best")
	}

	records := 0
	mb.mu.Lock()
	for _, m := range mb.messages {
		if env, ok := m.(Envelope); ok && env.T == MsgRecord {
			records++
		}
	}
	mb.mu.Unlock()
	if records != 2 {
		t.Errorf("expected 2 record announcements, got %d", records)
	}
}

func TestWaveClearBonusAndProgression(t *testing.T) {
	rec := &recordingEconomy{}
	g := NewGame(NewTrackingScene(), rec)
	g.SelectMachine("sentry")
	g.StartSession()

	// Spend the quota without spawning anyone.
	g.director.ToSpawn = 0
	g.Tick(0.01)

	if rec.countBonus(RewardWaveClear) != 1 {
		t.Fatal("clearing the wave should grant the bonus immediately")
	}
	i := len(rec.bonuses) - 1
	if rec.bonuses[i] != RewardWaveClear || rec.bonusAmounts[i] != 5+1 {
		t.Errorf("expected wave 1 clear bonus of 6, got %d", rec.bonusAmounts[i])
	}
	if g.director.Intermission <= 0 {
		t.Fatal("intermission should be running")
	}

	for i := 0; i < 200 && g.director.Wave == 1; i++ {
		g.Tick(0.033)
	}
	if g.director.Wave != 2 {
		t.Fatal("wave 2 never started")
	}
	if g.bridge.State().Wave != 2 {
		t.Error("wave change should reach the bridge")
	}
}

func TestRapidFireHalvesCooldown(t *testing.T) {
	g, _ := newPlayingGame(t)

	g.fireCD = 0
	g.updateFire(0.001)
	if math.Abs(g.fireCD-BaseFireRate) > 1e-9 {
		t.Errorf("expected base cooldown %f, got %f", BaseFireRate, g.fireCD)
	}

	g.rapidFireTimer = 5
	g.fireCD = 0
	g.updateFire(0.001)
	if math.Abs(g.fireCD-BaseFireRate/2) > 1e-9 {
		t.Errorf("expected halved cooldown, got %f", g.fireCD)
	}
}

func TestFireCyclesMuzzles(t *testing.T) {
	g, _ := newPlayingGame(t)

	g.fireCD = 0
	g.updateFire(0.001)
	g.fireCD = 0
	g.updateFire(0.001)

	if len(g.bullets) != 2 {
		t.Fatalf("expected 2 bullets, got %d", len(g.bullets))
	}
	// Sentry barrels sit left and right of the pivot.
	if g.bullets[0].Pos.X*g.bullets[1].Pos.X >= 0 {
		t.Error("consecutive shots should come from different barrels")
	}
}

func TestRestartResetsRunState(t *testing.T) {
	g, scene := newPlayingGame(t)
	g.score = 80
	g.kills = 4
	g.shieldCharges = 2
	g.rapidFireTimer = 3
	addEnemy(g, Vec3{X: 50, Y: 3}, 3)
	breach(g)

	g.Restart()

	if g.score != 0 || g.kills != 0 || g.shieldCharges != 0 || g.rapidFireTimer != 0 {
		t.Error("restart should zero the run state")
	}
	if len(g.enemies) != 0 {
		t.Error("restart should clear entities")
	}
	if scene.LiveCount() != 0 {
		t.Error("restart should detach every renderable")
	}
	if g.director.Wave != 1 {
		t.Error("restart should begin at wave 1")
	}
}

func TestNoDanglingRenderables(t *testing.T) {
	g, scene := newPlayingGame(t)
	g.director.SpawnCD = 0 // let spawning run

	for i := 0; i < 400; i++ {
		g.Tick(0.033)
	}
	g.ReturnToMenu()

	if scene.LiveCount() != 0 {
		t.Errorf("%d renderables left after teardown", scene.LiveCount())
	}
	if len(g.bullets) != 0 || len(g.enemies) != 0 || len(g.powerups) != 0 {
		t.Error("entity slices should be empty after teardown")
	}
}

func TestSetKeyMapping(t *testing.T) {
	g := NewGame(nil, nil)
	g.SetKey("KeyW", true)
	g.SetKey("ArrowRight", true)
	if !g.aim.Keys.Up || !g.aim.Keys.Right {
		t.Error("WASD and arrows should both map to aim keys")
	}
	g.SetKey("KeyW", false)
	if g.aim.Keys.Up {
		t.Error("key release should clear the state")
	}
	g.SetKey("KeyQ", true) // unmapped
	if g.aim.Keys != (KeyState{Right: true}) {
		t.Error("unknown codes must be ignored")
	}
}

func TestPointerIgnoredWhileSelecting(t *testing.T) {
	g := NewGame(nil, nil)
	before := g.aim.State.Target
	g.PointerMove(0.5, -0.2)
	if g.aim.State.Target != before {
		t.Error("pointer input should be inert in the menu")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g, _ := newPlayingGame(t)
	addEnemy(g, Vec3{X: 10, Y: 3, Z: 30}, 4)
	addStaticBullet(g, Vec3{Y: 4, Z: 15})
	p := &PowerUp{Pos: Vec3{X: 5, Y: 3}, Kind: PowerExplosive, TTL: 5, Alive: true}
	g.powerups = append(g.powerups, p)

	data, err := marshalSnapshot(g.Snapshot())
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var snap GameSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(snap.Enemies) != 1 || len(snap.Bullets) != 1 || len(snap.PowerUps) != 1 {
		t.Fatalf("entity counts lost in transit: %d/%d/%d",
			len(snap.Bullets), len(snap.Enemies), len(snap.PowerUps))
	}
	if snap.Enemies[0].HP != 4 {
		t.Error("enemy health lost in transit")
	}
	if snap.PowerUps[0].Kind != int(PowerExplosive) {
		t.Error("power-up kind lost in transit")
	}
}
