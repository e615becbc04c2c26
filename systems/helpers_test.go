package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/config"
)

type recordingEffects struct {
	bossDamage     float64
	projectileHits int
	pickups        int
	obstacleHits   int
}

func (r *recordingEffects) DamageBoss(_ ecs.Entity, amount float64) { r.bossDamage += amount }
func (r *recordingEffects) ProjectileHit(_, _ ecs.Entity) { r.projectileHits++ }
func (r *recordingEffects) PickUp(_, _ ecs.Entity) { r.pickups++ }
func (r *recordingEffects) ObstacleHit(_, _ ecs.Entity) { r.obstacleHits++ }

type recordingEliminator struct {
	eliminated map[ecs.Entity]string
	outcome    *Outcome
}

func (r *recordingEliminator) Eliminate(e ecs.Entity, reason string) {
	if r.eliminated == nil {
		r.eliminated = make(map[ecs.Entity]string)
	}
	r.eliminated[e] = reason
	if r.outcome != nil {
		r.outcome.Eliminate(e, reason)
	}
}

func testConfig() *config.Config {
	return config.Defaults()
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func newTestBall(w *ecs.World, index int, name string, p, v r2.Vec) ecs.Entity {
	m := ecs.NewMap6[components.Position, components.Velocity, components.Body, components.Ball, components.Tracking, components.Buffs](w)
	return m.NewEntity(
		&components.Position{X: p.X, Y: p.Y},
		&components.Velocity{X: v.X, Y: v.Y},
		&components.Body{Kind: components.KindBall, Shape: components.ShapeCircle, Radius: 14},
		&components.Ball{
			Index:           index,
			Name:            name,
			BaseRadius:      14,
			Health:          100,
			MaxHealth:       100,
			SpeedMultiplier: 1,
			Damage:          10,
			Fade:            1,
		},
		&components.Tracking{LastSafe: p},
		&components.Buffs{},
	)
}

func newTestObstacle(w *ecs.World, id int, p r2.Vec, body components.Body, behavior components.Behavior) ecs.Entity {
	m := ecs.NewMap3[components.Position, components.Body, components.Obstacle](w)
	body.Kind = components.KindObstacle
	return m.NewEntity(
		&components.Position{X: p.X, Y: p.Y},
		&body,
		&components.Obstacle{ID: id, Origin: p, OriginAngle: body.Angle, Behavior: behavior},
	)
}

func obstacleContact(ball, obstacle ecs.Entity, n r2.Vec) Contact {
	return Contact{
		Phase:  ContactBegin,
		A:      ball,
		AKind:  components.KindBall,
		B:      obstacle,
		BKind:  components.KindObstacle,
		Normal: n,
		Depth:  1,
	}
}
