package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/level"
)

func projectileEntities(w *ecs.World) []ecs.Entity {
	var out []ecs.Entity
	query := ecs.NewFilter1[components.Projectile](w).Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	return out
}

func TestWeaponFiresAtBoss(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 40, Health: 100, Pattern: PatternSpiral, AttackInterval: 1})
	ball := newTestBall(f.w, 0, "Red", r2.Vec{X: 400, Y: 500}, r2.Vec{X: 200, Y: 200})
	ballMap := ecs.NewMap[components.Ball](f.w)
	ballMap.Get(ball).Weapons = []components.WeaponSlot{{ID: "blaster"}}

	f.combat.Update(0.1, 1.0/60)
	shots := projectileEntities(f.w)
	if len(shots) != 1 {
		t.Fatalf("fired %d projectiles, want 1", len(shots))
	}

	bossEntity, _ := f.boss.Entity()
	f.combat.ProjectileHit(shots[0], bossEntity)

	hp, maxHP := f.boss.Health()
	if math.Abs(maxHP-hp-6) > 1e-9 {
		t.Errorf("boss took %v damage, want 6", maxHP-hp)
	}
	if got := ballMap.Get(ball).DamageDealt; math.Abs(got-6) > 1e-9 {
		t.Errorf("damage dealt = %v, want 6", got)
	}

	usage := f.combat.Usage()
	if usage[0].ID != "blaster" || usage[0].Shots != 1 || usage[0].Hits != 1 {
		t.Errorf("usage = %+v, want one blaster shot and hit", usage[0])
	}

	// Non-piercing shots are spent on the first hit.
	f.combat.Update(0.2, 1.0/60)
	if len(projectileEntities(f.w)) != 0 {
		t.Error("spent projectile was not removed")
	}

	// Cooldown holds the next shot back.
	if ballMap.Get(ball).Weapons[0].Cooldown <= 0 {
		t.Error("weapon cooldown not restarted")
	}
}

func TestWeaponHoldsFireOutOfRange(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 100, Size: 40, Health: 100, Pattern: PatternSpiral, AttackInterval: 1})
	ball := newTestBall(f.w, 0, "Red", r2.Vec{X: 400, Y: 1100}, r2.Vec{X: 200, Y: 200})
	ecs.NewMap[components.Ball](f.w).Get(ball).Weapons = []components.WeaponSlot{{ID: "pellet"}}

	f.combat.Update(0.1, 1.0/60)
	if n := len(projectileEntities(f.w)); n != 0 {
		t.Errorf("fired %d projectiles with nothing in range", n)
	}
}

func TestProjectileDestroysBall(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 40, Health: 100, Pattern: PatternSpiral, AttackInterval: 1})
	elim := &recordingEliminator{}
	f.combat.eliminator = elim
	ball := newTestBall(f.w, 0, "Red", r2.Vec{X: 400, Y: 600}, r2.Vec{X: 200, Y: 200})
	ballMap := ecs.NewMap[components.Ball](f.w)
	ballMap.Get(ball).Health = 5

	shot := f.combat.Spawn(r2.Vec{X: 400, Y: 590}, r2.Vec{Y: 100}, components.Projectile{FromBoss: true, Owner: -1, Damage: 8, Lifetime: 4}, 6)
	f.combat.ProjectileHit(shot, ball)

	if got := ballMap.Get(ball).Health; got != 0 {
		t.Errorf("health = %v, want 0", got)
	}
	if elim.eliminated[ball] != components.ReasonDestroyed {
		t.Errorf("ball not eliminated as destroyed: %v", elim.eliminated)
	}
}

func TestInvincibleBallTakesNoDamage(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 40, Health: 100, Pattern: PatternSpiral, AttackInterval: 1})
	ball := newTestBall(f.w, 0, "Red", r2.Vec{X: 400, Y: 600}, r2.Vec{X: 200, Y: 200})
	ecs.NewMap[components.Buffs](f.w).Get(ball).Add(components.Buff{ID: 1, Kind: components.BuffInvincibility, Multiplier: 1})

	if landed := f.combat.Hurt(ball, 50); landed != 0 {
		t.Errorf("invincible ball took %v damage", landed)
	}
}

func TestPickUpSizeBuffExpires(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 40, Health: 100, Pattern: PatternSpiral, AttackInterval: 1})
	ball := newTestBall(f.w, 0, "Red", r2.Vec{X: 400, Y: 600}, r2.Vec{X: 200, Y: 200})
	item := ecs.NewMap3[components.Position, components.Body, components.Item](f.w).NewEntity(
		&components.Position{X: 400, Y: 600},
		&components.Body{Kind: components.KindItem, Radius: 10, Sensor: true},
		&components.Item{Buff: components.BuffSize, Multiplier: 2, Duration: 3},
	)
	bodyMap := ecs.NewMap[components.Body](f.w)

	if !f.combat.PickUp(ball, item) {
		t.Fatal("pickup refused")
	}
	if f.combat.PickUp(ball, item) {
		t.Error("item picked up twice")
	}
	if r := bodyMap.Get(ball).Radius; r != 28 {
		t.Errorf("radius with size buff = %v, want 28", r)
	}

	f.sched.Advance(3.01)
	if r := bodyMap.Get(ball).Radius; r != 14 {
		t.Errorf("radius after expiry = %v, want 14", r)
	}
}

func TestSpeedBuffRescalesVelocity(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 40, Health: 100, Pattern: PatternSpiral, AttackInterval: 1})
	ball := newTestBall(f.w, 0, "Red", r2.Vec{X: 400, Y: 600}, r2.Vec{X: 320})
	item := ecs.NewMap3[components.Position, components.Body, components.Item](f.w).NewEntity(
		&components.Position{X: 400, Y: 600},
		&components.Body{Kind: components.KindItem, Radius: 10, Sensor: true},
		&components.Item{Buff: components.BuffSpeed, Multiplier: 1.5, Duration: 2},
	)
	velMap := ecs.NewMap[components.Velocity](f.w)

	f.combat.PickUp(ball, item)
	if got := r2.Norm(velMap.Get(ball).Vec()); math.Abs(got-480) > 1e-6 {
		t.Errorf("speed with buff = %v, want 480", got)
	}
	f.sched.Advance(2.5)
	if got := r2.Norm(velMap.Get(ball).Vec()); math.Abs(got-320) > 1e-6 {
		t.Errorf("speed after expiry = %v, want 320", got)
	}
}
