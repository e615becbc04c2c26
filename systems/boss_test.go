package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/level"
)

type bossFixture struct {
	w      *ecs.World
	sched  *Scheduler
	combat *Combat
	boss   *BossSystem
	deaths int
}

func newBossFixture(t *testing.T, def level.BossDef) *bossFixture {
	t.Helper()
	cfg := testConfig()
	f := &bossFixture{w: ecs.NewWorld(), sched: NewScheduler()}
	f.combat = NewCombat(f.w, cfg, f.sched, &recordingEliminator{})
	f.boss = NewBossSystem(f.w, cfg, testRNG(), f.sched, f.combat, func() { f.deaths++ })
	f.combat.SetBoss(f.boss)
	if _, err := f.boss.Spawn(&def); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	return f
}

func TestBossDiesExactlyOnce(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 50, Health: 50, Pattern: PatternSpread, AttackInterval: 1})
	ball := newTestBall(f.w, 0, "Red", r2.Vec{X: 400, Y: 500}, r2.Vec{Y: -320})
	ballMap := ecs.NewMap[components.Ball](f.w)

	for i := 0; i < 5; i++ {
		f.combat.DamageBoss(ball, 10)
	}
	if f.boss.State() != BossDead {
		t.Fatalf("state = %v after 50 damage, want dead", f.boss.State())
	}
	if f.deaths != 1 {
		t.Fatalf("death callback ran %d times, want 1", f.deaths)
	}

	f.combat.DamageBoss(ball, 10)
	if got := f.boss.TakeDamage(10); got != 0 {
		t.Errorf("damage landed on a dead boss: %v", got)
	}
	if f.deaths != 1 {
		t.Errorf("death callback ran again: %d", f.deaths)
	}
	if got := ballMap.Get(ball).DamageDealt; got != 50 {
		t.Errorf("damage dealt = %v, want 50", got)
	}
	if hp, _ := f.boss.Health(); hp != 0 {
		t.Errorf("health = %v, want 0", hp)
	}
}

func TestBossSpawnTwice(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 50, Health: 50, Pattern: PatternSpiral})
	if _, err := f.boss.Spawn(&level.BossDef{X: 100, Y: 100, Size: 10, Health: 10}); err != ErrBossSpawned {
		t.Errorf("second spawn err = %v, want ErrBossSpawned", err)
	}
}

func TestBossAttackTimer(t *testing.T) {
	cfg := testConfig()
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 50, Health: 100, Pattern: PatternSpread, AttackInterval: 1})

	f.sched.Advance(5)
	if n := f.combat.Projectiles(); n != 0 {
		t.Fatalf("idle boss fired %d projectiles", n)
	}

	f.boss.StartAttacking()
	f.sched.Advance(6.01)
	if n := f.combat.Projectiles(); n != cfg.Boss.SpreadCount {
		t.Fatalf("projectiles after one attack = %d, want %d", n, cfg.Boss.SpreadCount)
	}

	f.boss.TakeDamage(1000)
	f.sched.Advance(20)
	if n := f.combat.Projectiles(); n != cfg.Boss.SpreadCount {
		t.Errorf("dead boss kept attacking: %d projectiles", n)
	}

	// Pruning runs on its own clock once lifetimes expire.
	f.combat.Update(20, 1.0/60)
	if n := f.combat.Projectiles(); n != 0 {
		t.Errorf("expired projectiles not pruned: %d left", n)
	}
}

func TestBossCyclePatterns(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 50, Health: 100, Pattern: PatternCycle, AttackInterval: 1})
	f.boss.StartAttacking()

	want := []string{PatternSpiral, PatternSpread, PatternAimed, PatternRandom, PatternBurst, PatternSpiral}
	for i, p := range want {
		f.boss.Attack()
		if got := f.boss.Pattern(); got != p {
			t.Errorf("attack %d pattern = %q, want %q", i, got, p)
		}
	}
}

func TestBossBurstSubShots(t *testing.T) {
	cfg := testConfig()
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 50, Health: 100, Pattern: PatternBurst, AttackInterval: 5})
	f.boss.StartAttacking()
	f.boss.Attack()

	if n := f.combat.Projectiles(); n != 1 {
		t.Fatalf("burst should open with one shot, got %d", n)
	}
	f.sched.Advance(float64(cfg.Boss.BurstShots) * cfg.Boss.BurstGap)
	if n := f.combat.Projectiles(); n != cfg.Boss.BurstShots {
		t.Errorf("burst shots = %d, want %d", n, cfg.Boss.BurstShots)
	}
}

func TestBossAimedTargetsNearestBall(t *testing.T) {
	f := newBossFixture(t, level.BossDef{X: 400, Y: 300, Size: 50, Health: 100, Pattern: PatternAimed, AttackInterval: 5})
	newTestBall(f.w, 0, "Red", r2.Vec{X: 700, Y: 300}, r2.Vec{Y: 320})
	newTestBall(f.w, 1, "Blue", r2.Vec{X: 400, Y: 1100}, r2.Vec{Y: 320})
	f.boss.StartAttacking()
	f.boss.Attack()

	velFilter := ecs.NewFilter2[components.Velocity, components.Projectile](f.w)
	count := 0
	query := velFilter.Query()
	for query.Next() {
		vel, _ := query.Get()
		count++
		if vel.X <= 0 {
			t.Errorf("aimed shot %v does not head toward the nearest ball", vel.Vec())
		}
	}
	if count != 3 {
		t.Errorf("aimed attack fired %d shots, want 3", count)
	}
}

// TestBossZeroIntervalStillAdvances covers a config that skipped validation:
// the attack timer must not re-arm at the same instant forever.
func TestBossZeroIntervalStillAdvances(t *testing.T) {
	cfg := testConfig()
	cfg.Boss.AttackInterval = 0
	sched := NewScheduler()
	w := ecs.NewWorld()
	combat := NewCombat(w, cfg, sched, &recordingEliminator{})
	boss := NewBossSystem(w, cfg, testRNG(), sched, combat, func() {})
	combat.SetBoss(boss)
	if _, err := boss.Spawn(&level.BossDef{X: 400, Y: 300, Size: 50, Health: 100, Pattern: PatternSpread}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	boss.StartAttacking()

	fired := sched.Advance(1)
	maxAttacks := int(1/minAttackInterval) + 1
	if fired == 0 || fired > maxAttacks {
		t.Errorf("attacks in one second = %d, want 1..%d", fired, maxAttacks)
	}
}
