package main

import (
	"math"
	"testing"
)

func TestComputeTuningWaveOne(t *testing.T) {
	tu := ComputeTuning(1)
	if tu.Count != 7 {
		t.Errorf("expected 7 enemies on wave 1, got %d", tu.Count)
	}
	if tu.BaseHealth != 3 {
		t.Errorf("expected base health 3, got %d", tu.BaseHealth)
	}
	if math.Abs(tu.BaseSpeed-7.45) > 1e-9 {
		t.Errorf("expected base speed 7.45, got %f", tu.BaseSpeed)
	}
	if tu.MaxSimultaneous != 5 {
		t.Errorf("expected max simultaneous 5, got %d", tu.MaxSimultaneous)
	}
	if math.Abs(tu.SpawnIntervalMin-1.7) > 1e-9 || math.Abs(tu.SpawnIntervalMax-2.8) > 1e-9 {
		t.Errorf("expected intervals [1.7, 2.8], got [%f, %f]", tu.SpawnIntervalMin, tu.SpawnIntervalMax)
	}
}

func TestComputeTuningProgression(t *testing.T) {
	prev := ComputeTuning(1)
	for w := 2; w <= 80; w++ {
		tu := ComputeTuning(w)
		if tu.Count <= prev.Count {
			t.Errorf("wave %d: count %d did not grow from %d", w, tu.Count, prev.Count)
		}
		if tu.MaxSimultaneous < prev.MaxSimultaneous {
			t.Errorf("wave %d: max simultaneous decreased", w)
		}
		if tu.MaxSimultaneous > 16 {
			t.Errorf("wave %d: max simultaneous %d exceeds cap", w, tu.MaxSimultaneous)
		}
		if tu.SpawnIntervalMax < tu.SpawnIntervalMin+0.55 {
			t.Errorf("wave %d: interval span too narrow [%f, %f]", w, tu.SpawnIntervalMin, tu.SpawnIntervalMax)
		}
		prev = tu
	}
	if ComputeTuning(40).MaxSimultaneous != 16 {
		t.Error("deep waves should sit at the simultaneous cap")
	}
}

func TestIntermissionDuration(t *testing.T) {
	if math.Abs(intermissionDuration(1)-4.05) > 1e-9 {
		t.Errorf("expected 4.05 before wave 1, got %f", intermissionDuration(1))
	}
	if math.Abs(intermissionDuration(10)-2.7) > 1e-9 {
		t.Errorf("expected 2.7 before wave 10, got %f", intermissionDuration(10))
	}
	if math.Abs(intermissionDuration(50)-2.7) > 1e-9 {
		t.Error("intermission should bottom out at 2.7")
	}
}

func TestBeginWaveResetsQuota(t *testing.T) {
	var wd WaveDirector
	wd.BeginWave(1)
	if wd.Wave != 1 {
		t.Errorf("expected wave 1, got %d", wd.Wave)
	}
	if wd.ToSpawn != wd.Tuning.Count {
		t.Errorf("expected quota %d, got %d", wd.Tuning.Count, wd.ToSpawn)
	}
	// First spawn of a wave comes fast.
	want := 0.6 * wd.Tuning.SpawnIntervalMin
	if math.Abs(wd.SpawnCD-want) > 1e-9 {
		t.Errorf("expected fast first cooldown %f, got %f", want, wd.SpawnCD)
	}
}

func TestSpawnDeferredAtCapacity(t *testing.T) {
	var wd WaveDirector
	wd.BeginWave(1)
	wd.SpawnCD = 0.01

	ev := wd.Tick(0.05, wd.Tuning.MaxSimultaneous)
	if ev.Spawn {
		t.Error("should not spawn while the arena is at capacity")
	}
	if wd.ToSpawn != wd.Tuning.Count {
		t.Error("quota must not be consumed by a deferred spawn")
	}
	if math.Abs(wd.SpawnCD-spawnRetryDelay) > 1e-9 {
		t.Errorf("expected retry delay %f, got %f", spawnRetryDelay, wd.SpawnCD)
	}
}

func TestSpawnSchedulingHonorsQuotaAndCap(t *testing.T) {
	var wd WaveDirector
	wd.BeginWave(1)

	live := 0
	spawned := 0
	for i := 0; i < 10000 && (wd.ToSpawn > 0 || live > 0); i++ {
		ev := wd.Tick(0.05, live)
		if ev.Spawn {
			live++
			spawned++
			if live > wd.Tuning.MaxSimultaneous {
				t.Fatalf("live count %d exceeded cap %d", live, wd.Tuning.MaxSimultaneous)
			}
		}
		// Drain kills periodically so the wave can finish.
		if live > 0 && i%40 == 0 {
			live--
		}
	}
	if spawned != wd.Tuning.Count {
		t.Errorf("expected exactly %d spawns, got %d", wd.Tuning.Count, spawned)
	}
}

func TestWaveClearedStartsIntermission(t *testing.T) {
	var wd WaveDirector
	wd.BeginWave(3)
	wd.ToSpawn = 0

	ev := wd.Tick(0.05, 0)
	if !ev.WaveCleared {
		t.Fatal("empty arena with spent quota should clear the wave")
	}
	want := intermissionDuration(4)
	if math.Abs(wd.Intermission-want) > 1e-9 {
		t.Errorf("expected intermission %f, got %f", want, wd.Intermission)
	}

	started := false
	for i := 0; i < 100; i++ {
		if ev = wd.Tick(0.1, 0); ev.WaveStarted {
			started = true
			break
		}
	}
	if !started {
		t.Fatal("intermission never finished")
	}
	if wd.Wave != 4 {
		t.Errorf("expected wave 4 after intermission, got %d", wd.Wave)
	}
	if wd.ToSpawn != wd.Tuning.Count {
		t.Error("new wave should reset the spawn quota")
	}
}

func TestWaveNotClearedWhileEnemiesLive(t *testing.T) {
	var wd WaveDirector
	wd.BeginWave(2)
	wd.ToSpawn = 0

	ev := wd.Tick(0.05, 3)
	if ev.WaveCleared {
		t.Error("wave must not clear while enemies are still alive")
	}
	if wd.Intermission != 0 {
		t.Error("intermission must not start early")
	}
}

func TestScheduleNextSpawnCrowding(t *testing.T) {
	var wd WaveDirector
	wd.Tuning = ComputeTuning(1)

	wd.ScheduleNextSpawn(true, 0)
	base := 0.6 * wd.Tuning.SpawnIntervalMin
	if math.Abs(wd.SpawnCD-base) > 1e-9 {
		t.Errorf("expected uncrowded fast cooldown %f, got %f", base, wd.SpawnCD)
	}

	wd.ScheduleNextSpawn(true, wd.Tuning.MaxSimultaneous)
	if math.Abs(wd.SpawnCD-base*1.8) > 1e-9 {
		t.Errorf("full arena should stretch the cooldown to %f, got %f", base*1.8, wd.SpawnCD)
	}
}
