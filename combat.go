package main

const (
	ExplosiveRadius   = 10.0
	BulletHitPadY     = 0.5 // vertical slack above and below the hit band
	ExplosiveHitBonus = 1   // extra damage per hit while explosive rounds run
)

// bulletHits reports whether a bullet position intersects an enemy: its
// height must lie inside the enemy's vertical band and its horizontal
// distance inside the enemy radius.
func bulletHits(b *Bullet, e *Enemy) bool {
	if b.Pos.Y < e.Pos.Y-BulletHitPadY || b.Pos.Y > e.Pos.Y+2*e.HalfHeight+BulletHitPadY {
		return false
	}
	return HorizontalDistSq(b.Pos, e.Pos) <= e.Radius*e.Radius
}

// updateBullets integrates bullets, expires them, and resolves
// bullet-enemy hits. A bullet is consumed by the first enemy it satisfies
// in iteration order; it never damages more than one enemy. Caller holds mu.
func (g *Game) updateBullets(dt float64) {
	for _, b := range g.bullets {
		b.Update(dt)
		if !b.Alive {
			continue
		}
		for _, e := range g.enemies {
			if !e.Alive || !bulletHits(b, e) {
				continue
			}
			dmg := 1
			if g.explosiveTimer > 0 {
				dmg += ExplosiveHitBonus
			}
			if e.TakeDamage(dmg) {
				g.handleEnemyDeath(e)
			}
			b.Alive = false
			break
		}
	}
	g.sweepBullets()
	g.sweepEnemies()
}

// handleEnemyDeath applies the full death consequences: score, kill
// reward, the probabilistic power-up drop, and the explosive chain.
// Caller holds mu; the enemy is already dead.
func (g *Game) handleEnemyDeath(e *Enemy) {
	g.score += KillScore
	g.kills++
	g.economy.RecordKillReward(KillRewardTokens)

	if p := RollPowerUp(e.Pos); p != nil {
		p.Handle = g.scene.Attach("powerup")
		g.powerups = append(g.powerups, p)
	}

	if g.explosiveTimer > 0 {
		g.explodeAt(e.Pos)
	}
}

// explodeAt kills every live enemy within ExplosiveRadius of the position,
// with full death handling for each. Chains terminate because an enemy
// dies at most once.
func (g *Game) explodeAt(pos Vec3) {
	for _, e := range g.enemies {
		if !e.Alive {
			continue
		}
		if HorizontalDistSq(pos, e.Pos) <= ExplosiveRadius*ExplosiveRadius {
			e.Health = 0
			e.Alive = false
			g.handleEnemyDeath(e)
		}
	}
}

// updateEnemies steers enemies toward the core and resolves breaches. A
// breach with shield charges consumes one charge; without, the session
// ends immediately and no further enemies are processed this tick.
// Caller holds mu.
func (g *Game) updateEnemies(dt float64) {
	for _, e := range g.enemies {
		if !e.Alive {
			continue
		}
		if !e.Update(dt) {
			continue
		}
		if g.shieldCharges > 0 {
			g.shieldCharges--
			e.Alive = false
			s := g.shieldCharges
			g.bridge.Update(BridgePatch{Shield: &s})
			continue
		}
		g.killPlayer()
		break
	}
	g.sweepEnemies()
}

// updatePowerUps expires drops and applies pickups. Caller holds mu.
func (g *Game) updatePowerUps(dt float64) {
	for _, p := range g.powerups {
		p.Update(dt)
		if !p.Alive {
			continue
		}
		if p.InPickupRange(pickupPoint) {
			g.applyPowerUp(p.Kind)
			p.Alive = false
		}
	}
	g.sweepPowerUps()
}

// applyPowerUp activates a collected effect. Caller holds mu.
func (g *Game) applyPowerUp(kind PowerKind) {
	switch kind {
	case PowerRapidFire:
		g.rapidFireTimer = RapidFireDuration
		v := g.rapidFireTimer
		g.bridge.Update(BridgePatch{RapidFire: &v})
	case PowerShield:
		if g.shieldCharges < MaxShieldCharges {
			g.shieldCharges++
		}
		s := g.shieldCharges
		g.bridge.Update(BridgePatch{Shield: &s})
	case PowerExplosive:
		g.explosiveTimer = ExplosiveDuration
		v := g.explosiveTimer
		g.bridge.Update(BridgePatch{Explosive: &v})
	}
}

// Sweeps compact the live slices and detach renderables of removed
// entities so nothing dangles.

func (g *Game) sweepBullets() {
	live := g.bullets[:0]
	for _, b := range g.bullets {
		if b.Alive {
			live = append(live, b)
		} else {
			g.scene.Detach(b.Handle)
		}
	}
	g.bullets = live
}

func (g *Game) sweepEnemies() {
	live := g.enemies[:0]
	for _, e := range g.enemies {
		if e.Alive {
			live = append(live, e)
		} else {
			g.scene.Detach(e.Handle)
		}
	}
	g.enemies = live
}

func (g *Game) sweepPowerUps() {
	live := g.powerups[:0]
	for _, p := range g.powerups {
		if p.Alive {
			live = append(live, p)
		} else {
			g.scene.Detach(p.Handle)
		}
	}
	g.powerups = live
}
