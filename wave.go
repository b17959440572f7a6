package main

import (
	"math"
	"math/rand"
)

const (
	waveProgressionSpan = 18.0 // waves until intervals reach their floor
	spawnRetryDelay     = 0.25 // poll interval while at the simultaneous cap
)

// WaveTuning holds the difficulty parameters for one wave. Computed once
// when the wave begins and immutable until it is cleared.
type WaveTuning struct {
	Count            int
	BaseHealth       int
	BaseSpeed        float64
	MaxSimultaneous  int
	SpawnIntervalMin float64
	SpawnIntervalMax float64
}

// ComputeTuning derives the tuning for the given wave number (1-based)
func ComputeTuning(wave int) WaveTuning {
	w := float64(wave)
	p := math.Min(1, (w-1)/waveProgressionSpan)

	intervalMin := math.Max(0.95, 1.7-0.65*p)
	intervalMax := math.Max(intervalMin+0.55, 2.8-0.5*p)

	maxSim := 5 + int(math.Floor(0.6*w))
	if maxSim > 16 {
		maxSim = 16
	}

	return WaveTuning{
		Count:            int(math.Round(5 + 2.1*w + math.Pow(w, 1.05)*0.25)),
		BaseHealth:       3 + wave/2,
		BaseSpeed:        7 + 0.45*w,
		MaxSimultaneous:  maxSim,
		SpawnIntervalMin: intervalMin,
		SpawnIntervalMax: intervalMax,
	}
}

// intermissionDuration shortens the breather between waves as they get harder
func intermissionDuration(nextWave int) float64 {
	return math.Max(2.2, 4.2-math.Min(1.5, 0.15*float64(nextWave)))
}

// WaveDirector schedules enemy spawns for the current wave and runs the
// intermission between waves.
type WaveDirector struct {
	Wave         int
	Tuning       WaveTuning
	ToSpawn      int     // spawn quota remaining this wave
	SpawnCD      float64 // seconds until the next spawn attempt
	Intermission float64 // >0 while counting down between waves
}

// BeginWave recomputes tuning and resets the spawn quota for the wave
func (wd *WaveDirector) BeginWave(wave int) {
	wd.Wave = wave
	wd.Tuning = ComputeTuning(wave)
	wd.ToSpawn = wd.Tuning.Count
	wd.Intermission = 0
	wd.ScheduleNextSpawn(true, 0)
}

// ScheduleNextSpawn sets the spawn cooldown. The cooldown stretches as the
// arena fills so the live count stays near the simultaneous cap.
func (wd *WaveDirector) ScheduleNextSpawn(forceFast bool, live int) {
	t := wd.Tuning
	var base float64
	if forceFast {
		base = 0.6 * t.SpawnIntervalMin
	} else {
		base = t.SpawnIntervalMin + rand.Float64()*(t.SpawnIntervalMax-t.SpawnIntervalMin)
	}
	crowd := float64(live) / float64(t.MaxSimultaneous)
	wd.SpawnCD = base * (1 + crowd*0.8)
}

// WaveEvent reports what happened during one director tick
type WaveEvent struct {
	Spawn       bool // director authorized one enemy spawn
	WaveCleared bool // last enemy of the wave died; intermission started
	WaveStarted bool // intermission finished; Tuning is for the new wave
}

// Tick advances the director by dt given the current live enemy count.
// Spawning is deferred (never rejected) while the arena is at capacity.
func (wd *WaveDirector) Tick(dt float64, live int) WaveEvent {
	var ev WaveEvent

	if wd.Intermission > 0 {
		wd.Intermission -= dt
		if wd.Intermission <= 0 {
			wd.BeginWave(wd.Wave + 1)
			ev.WaveStarted = true
		}
		return ev
	}

	if wd.ToSpawn > 0 {
		wd.SpawnCD -= dt
		if wd.SpawnCD <= 0 {
			if live >= wd.Tuning.MaxSimultaneous {
				wd.SpawnCD = spawnRetryDelay
			} else {
				wd.ToSpawn--
				ev.Spawn = true
				wd.ScheduleNextSpawn(false, live+1)
			}
		}
		return ev
	}

	if live == 0 {
		// Quota spent and arena empty: the wave is cleared. The clear
		// bonus is granted now, when the intermission starts.
		wd.Intermission = intermissionDuration(wd.Wave + 1)
		ev.WaveCleared = true
	}
	return ev
}
