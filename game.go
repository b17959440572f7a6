package main

import (
	"log"
	"sync"
	"time"
)

const (
	TickRate       = 30 // simulation ticks per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = 2     // entity snapshot every N ticks
	MaxTickDelta   = 0.033 // seconds; large-step cap on dropped frames

	BaseFireRate      = 0.16 // seconds between shots
	KillScore         = 10
	PresenceScoreRate = 2.0 // score/s per live enemy

	KillRewardTokens  = 1
	DeployBonusTokens = 10
)

// Phase is the session state. Exactly one holds at a time; the simulation
// subsystems run only while Playing.
type Phase int

const (
	PhaseSelecting Phase = 0
	PhasePlaying   Phase = 1
	PhaseDead      Phase = 2
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseDead:
		return "dead"
	default:
		return "selecting"
	}
}

// Broadcaster delivers outbound frames to the connected client. Both
// methods must never block the game loop.
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// noopEconomy swallows reward signals when no ledger is attached
type noopEconomy struct{}

func (noopEconomy) GrantTokenBonus(string, int, int)              {}
func (noopEconomy) RecordKillReward(int)                          {}
func (noopEconomy) ReportFinalScore(int, int, int, float64, bool) {}

// pickupPoint is where power-up drops are collected from
var pickupPoint = Vec3{}

// Game holds one arena's full simulation state. A single mutex covers it;
// every subsystem runs synchronously inside one tick.
type Game struct {
	mu      sync.Mutex
	phase   Phase
	machine *MachineDef
	aim     *AimController
	scene   Scene
	bridge  *Bridge
	economy Economy

	bullets  []*Bullet
	enemies  []*Enemy
	powerups []*PowerUp

	director WaveDirector

	score          float64 // real-valued accumulator; display is the floor
	shownScore     int
	bestScore      int // best floored score this session
	kills          int
	runTime        float64
	fireCD         float64
	muzzleIdx      int
	rapidFireTimer float64
	explosiveTimer float64
	shieldCharges  int
	deployed       bool // deployment bonus already granted this session

	tick        uint64
	running     bool
	stop        chan struct{}
	broadcaster Broadcaster
}

// NewGame creates a Game in the Selecting phase
func NewGame(scene Scene, economy Economy) *Game {
	if scene == nil {
		scene = nullScene{}
	}
	if economy == nil {
		economy = noopEconomy{}
	}
	return &Game{
		phase:   PhaseSelecting,
		scene:   scene,
		bridge:  NewBridge(),
		economy: economy,
		aim:     NewAimController(DefaultCamera(), Vec3{}),
		stop:    make(chan struct{}),
	}
}

// Bridge returns the game's telemetry bridge
func (g *Game) Bridge() *Bridge {
	return g.bridge
}

// SetBroadcaster attaches the snapshot consumer
func (g *Game) SetBroadcaster(b Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcaster = b
}

// Run drives the fixed-cadence loop until Stop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()
	g.bridge.SetReadiness(true)

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			// Cap the step so dropped frames cannot destabilize the
			// integration; Tick itself takes dt verbatim.
			dt := now.Sub(last).Seconds()
			last = now
			if dt > MaxTickDelta {
				dt = MaxTickDelta
			}
			g.Tick(dt)
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
		g.bridge.SetReadiness(false)
	}
}

// --- actions driven by the UI/economy layer ---

// SelectMachine picks a platform variant by id. Unknown ids and attempts
// outside the Selecting phase return false without mutating state.
func (g *Game) SelectMachine(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseSelecting {
		return false
	}
	def, ok := MachineCatalogMap[id]
	if !ok {
		return false
	}
	g.machine = def
	g.aim.Pivot = Vec3{Y: def.PivotHeight}
	g.aim.Reset()
	g.bridge.SetActiveMachine(id)
	return true
}

// StartSession deploys the selected machine and begins wave 1. Silently a
// no-op until a machine has been selected.
func (g *Game) StartSession() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseSelecting || g.machine == nil {
		return
	}
	g.enterPlaying()

	if !g.deployed {
		g.deployed = true
		g.economy.GrantTokenBonus(RewardDeploy, DeployBonusTokens, 0)
	}
}

// Restart resets a running or finished session back to wave 1
func (g *Game) Restart() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.machine == nil || g.phase == PhaseSelecting {
		return
	}
	g.enterPlaying()
}

// ReturnToMenu goes back to selection from any phase, clearing the active
// machine and every entity.
func (g *Game) ReturnToMenu() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clearEntities()
	g.director = WaveDirector{}
	g.phase = PhaseSelecting
	g.machine = nil
	g.bridge.SetActiveMachine("")
	state := g.phase.String()
	g.bridge.Update(BridgePatch{State: &state})
}

// PointerMove updates the aim target from pointer coordinates. Ignored
// while Selecting.
func (g *Game) PointerMove(nx, ny float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseSelecting {
		return
	}
	g.aim.SetTargetFromPointer(nx, ny)
}

// SetKey records a key transition from the fixed aim mapping. Unknown
// codes are ignored.
func (g *Game) SetKey(code string, down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch code {
	case "KeyW", "ArrowUp":
		g.aim.Keys.Up = down
	case "KeyS", "ArrowDown":
		g.aim.Keys.Down = down
	case "KeyA", "ArrowLeft":
		g.aim.Keys.Left = down
	case "KeyD", "ArrowRight":
		g.aim.Keys.Right = down
	}
}

// --- tick ---

// Tick advances the simulation by dt seconds. Exposed directly so the core
// runs without a real ticker; the loop in Run caps dt before calling.
func (g *Game) Tick(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++

	if g.phase != PhasePlaying {
		return
	}
	g.runTime += dt

	// Fixed order: aim, director, fire, bullets, enemies, power-ups,
	// timers, score, then broadcast.
	g.aim.UpdateKeyboard(dt)

	ev := g.director.Tick(dt, len(g.enemies))
	if ev.Spawn {
		g.spawnEnemy()
	}
	if ev.WaveCleared {
		g.economy.GrantTokenBonus(RewardWaveClear, 5+g.director.Wave, g.director.Wave)
	}
	if ev.WaveStarted {
		g.pushWave()
	}

	g.updateFire(dt)
	g.updateBullets(dt)
	g.updateEnemies(dt)
	if g.phase != PhasePlaying {
		// Breach with no shield: the simulation froze mid-tick.
		return
	}
	g.updatePowerUps(dt)
	g.updateTimers(dt)

	g.score += dt * float64(len(g.enemies)) * PresenceScoreRate
	g.pushScoreIfChanged()

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

func (g *Game) spawnEnemy() {
	e := SpawnEnemy(g.director.Tuning)
	e.Handle = g.scene.Attach("enemy")
	g.enemies = append(g.enemies, e)
}

// updateFire counts the cooldown down and emits one bullet per expiry,
// cycling muzzle points round-robin.
func (g *Game) updateFire(dt float64) {
	g.fireCD -= dt
	if g.fireCD > 0 {
		return
	}
	muzzle := g.machine.MuzzleWorld(g.muzzleIdx, g.aim.State.Yaw, g.aim.State.Pitch)
	g.muzzleIdx++

	b := NewBullet(muzzle, g.aim.State.FireDir)
	b.Handle = g.scene.Attach("bullet")
	g.bullets = append(g.bullets, b)

	rate := BaseFireRate
	if g.rapidFireTimer > 0 {
		rate *= 0.5
	}
	g.fireCD = rate
}

// updateTimers counts the power-up timers down. A bridge push happens only
// on the tick a timer reaches zero.
func (g *Game) updateTimers(dt float64) {
	if g.rapidFireTimer > 0 {
		g.rapidFireTimer -= dt
		if g.rapidFireTimer <= 0 {
			g.rapidFireTimer = 0
			v := 0.0
			g.bridge.Update(BridgePatch{RapidFire: &v})
		}
	}
	if g.explosiveTimer > 0 {
		g.explosiveTimer -= dt
		if g.explosiveTimer <= 0 {
			g.explosiveTimer = 0
			v := 0.0
			g.bridge.Update(BridgePatch{Explosive: &v})
		}
	}
}

func (g *Game) pushScoreIfChanged() {
	cur := int(g.score)
	if cur == g.shownScore {
		return
	}
	g.shownScore = cur
	left := g.director.ToSpawn + len(g.enemies)
	g.bridge.Update(BridgePatch{Score: &cur, EnemiesLeft: &left})
}

func (g *Game) pushWave() {
	w := g.director.Wave
	left := g.director.ToSpawn + len(g.enemies)
	g.bridge.Update(BridgePatch{Wave: &w, EnemiesLeft: &left})
}

// enterPlaying resets all run state and begins wave 1. Caller holds mu.
func (g *Game) enterPlaying() {
	g.clearEntities()
	g.score = 0
	g.shownScore = 0
	g.kills = 0
	g.runTime = 0
	g.fireCD = 0
	g.muzzleIdx = 0
	g.rapidFireTimer = 0
	g.explosiveTimer = 0
	g.shieldCharges = 0
	g.aim.Reset()
	g.director.BeginWave(1)
	g.phase = PhasePlaying

	state := g.phase.String()
	score, shield := 0, 0
	rapid, explosive := 0.0, 0.0
	wave := 1
	left := g.director.ToSpawn
	g.bridge.Update(BridgePatch{
		State: &state, Score: &score, Wave: &wave, Shield: &shield,
		RapidFire: &rapid, Explosive: &explosive, EnemiesLeft: &left,
	})
}

// killPlayer freezes the simulation and reports the final score. A second
// breach after death cannot reach here: everything gates on PhasePlaying.
func (g *Game) killPlayer() {
	g.phase = PhaseDead

	final := int(g.score)
	newRecord := final > g.bestScore
	if newRecord {
		g.bestScore = final
	}
	g.economy.ReportFinalScore(final, g.director.Wave, g.kills, g.runTime, newRecord)

	state := g.phase.String()
	best := g.bestScore
	g.bridge.Update(BridgePatch{State: &state, Score: &final, BestScore: &best})

	if newRecord && g.broadcaster != nil {
		g.broadcaster.SendJSON(Envelope{T: MsgRecord, Data: RecordMsg{Score: final, Wave: g.director.Wave}})
	}
	log.Printf("session over: score=%d wave=%d kills=%d", final, g.director.Wave, g.kills)
}

// clearEntities removes every entity and detaches its renderable. Caller
// holds mu.
func (g *Game) clearEntities() {
	for _, b := range g.bullets {
		g.scene.Detach(b.Handle)
	}
	for _, e := range g.enemies {
		g.scene.Detach(e.Handle)
	}
	for _, p := range g.powerups {
		g.scene.Detach(p.Handle)
	}
	g.bullets = nil
	g.enemies = nil
	g.powerups = nil
}

// Snapshot returns the current entity state for broadcasting
func (g *Game) Snapshot() GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() GameSnapshot {
	snap := GameSnapshot{
		Tick: g.tick,
		Turret: TurretState{
			Yaw:     round2(g.aim.State.Yaw),
			Pitch:   round2(g.aim.State.Pitch),
			TargetX: round1(g.aim.State.Target.X),
			TargetZ: round1(g.aim.State.Target.Z),
		},
		Bullets:  make([]BulletState, 0, len(g.bullets)),
		Enemies:  make([]EnemyState, 0, len(g.enemies)),
		PowerUps: make([]PowerUpState, 0, len(g.powerups)),
	}
	for _, b := range g.bullets {
		snap.Bullets = append(snap.Bullets, b.ToState())
	}
	for _, e := range g.enemies {
		snap.Enemies = append(snap.Enemies, e.ToState())
	}
	for _, p := range g.powerups {
		snap.PowerUps = append(snap.PowerUps, p.ToState())
	}
	return snap
}

// broadcastState pushes the msgpack entity snapshot. Caller holds mu.
func (g *Game) broadcastState() {
	if g.broadcaster == nil {
		return
	}
	data, err := marshalSnapshot(g.snapshotLocked())
	if err != nil {
		log.Printf("snapshot marshal error: %v", err)
		return
	}
	g.broadcaster.SendBinary(data)
}
