package main

import "sync"

// BridgePatch is a partial snapshot of simulation state. Nil fields are
// "unchanged"; consumers merge patches instead of replacing state.
type BridgePatch struct {
	State       *string  `json:"state,omitempty"`
	Machine     *string  `json:"machine,omitempty"` // empty string = none selected
	Ready       *bool    `json:"ready,omitempty"`
	Score       *int     `json:"score,omitempty"`
	Wave        *int     `json:"wave,omitempty"`
	Shield      *int     `json:"shield,omitempty"`
	RapidFire   *float64 `json:"rapid,omitempty"`
	Explosive   *float64 `json:"explosive,omitempty"`
	EnemiesLeft *int     `json:"left,omitempty"` // unspawned + live for the wave
	BestScore   *int     `json:"best,omitempty"`
}

// BridgeState is the merged view of every patch pushed so far
type BridgeState struct {
	State       string
	Machine     string
	Ready       bool
	Score       int
	Wave        int
	Shield      int
	RapidFire   float64
	Explosive   float64
	EnemiesLeft int
	BestScore   int
}

// Merge applies a patch in place
func (s *BridgeState) Merge(p BridgePatch) {
	if p.State != nil {
		s.State = *p.State
	}
	if p.Machine != nil {
		s.Machine = *p.Machine
	}
	if p.Ready != nil {
		s.Ready = *p.Ready
	}
	if p.Score != nil {
		s.Score = *p.Score
	}
	if p.Wave != nil {
		s.Wave = *p.Wave
	}
	if p.Shield != nil {
		s.Shield = *p.Shield
	}
	if p.RapidFire != nil {
		s.RapidFire = *p.RapidFire
	}
	if p.Explosive != nil {
		s.Explosive = *p.Explosive
	}
	if p.EnemiesLeft != nil {
		s.EnemiesLeft = *p.EnemiesLeft
	}
	if p.BestScore != nil {
		s.BestScore = *p.BestScore
	}
}

// BridgeSink receives patches. Push must never block the game loop.
type BridgeSink interface {
	PushBridge(p BridgePatch)
}

// Bridge fans simulation state out to the UI/economy layer. It keeps the
// merged state so late subscribers can be brought up to date.
type Bridge struct {
	mu    sync.Mutex
	state BridgeState
	sinks []BridgeSink
}

// NewBridge creates an empty bridge
func NewBridge() *Bridge {
	return &Bridge{}
}

// Subscribe attaches a sink and immediately replays the merged state to it
func (b *Bridge) Subscribe(s BridgeSink) {
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	snapshot := b.fullPatch()
	b.mu.Unlock()
	s.PushBridge(snapshot)
}

// Update merges a patch and pushes it to every sink
func (b *Bridge) Update(p BridgePatch) {
	b.mu.Lock()
	b.state.Merge(p)
	sinks := make([]BridgeSink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.Unlock()

	for _, s := range sinks {
		s.PushBridge(p)
	}
}

// SetActiveMachine pushes the selected machine id (empty = none)
func (b *Bridge) SetActiveMachine(id string) {
	b.Update(BridgePatch{Machine: &id})
}

// SetReadiness pushes whether the simulation accepts a session start
func (b *Bridge) SetReadiness(ready bool) {
	b.Update(BridgePatch{Ready: &ready})
}

// State returns a copy of the merged state
func (b *Bridge) State() BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// fullPatch converts the merged state into one replay patch. Caller holds mu.
func (b *Bridge) fullPatch() BridgePatch {
	s := b.state
	return BridgePatch{
		State:       &s.State,
		Machine:     &s.Machine,
		Ready:       &s.Ready,
		Score:       &s.Score,
		Wave:        &s.Wave,
		Shield:      &s.Shield,
		RapidFire:   &s.RapidFire,
		Explosive:   &s.Explosive,
		EnemiesLeft: &s.EnemiesLeft,
		BestScore:   &s.BestScore,
	}
}
