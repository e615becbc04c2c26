package components

import "strings"

// BuffKind is a temporary modifier granted by an item.
type BuffKind uint8

const (
	BuffSpeed BuffKind = iota
	BuffDamage
	BuffSize
	BuffInvincibility
	BuffGhost
)

var buffNames = [...]string{"speed", "damage", "size", "invincibility", "ghost"}

func (k BuffKind) String() string {
	if int(k) < len(buffNames) {
		return buffNames[k]
	}
	return "unknown"
}

// ParseBuff returns the buff kind for a name.
func ParseBuff(s string) (BuffKind, bool) {
	s = strings.ToLower(s)
	for i, n := range buffNames {
		if n == s {
			return BuffKind(i), true
		}
	}
	return 0, false
}

// Buff is one active modifier.
type Buff struct {
	ID         uint64
	Kind       BuffKind
	Multiplier float64
}

// Buffs holds the modifiers active on a ball.
type Buffs struct {
	Active []Buff
}

// Add activates a buff.
func (b *Buffs) Add(buf Buff) {
	b.Active = append(b.Active, buf)
}

// Remove drops the buff with the given id. Unknown ids are ignored.
func (b *Buffs) Remove(id uint64) {
	for i := range b.Active {
		if b.Active[i].ID == id {
			b.Active = append(b.Active[:i], b.Active[i+1:]...)
			return
		}
	}
}

// Factor returns the product of all multipliers of the given kind.
func (b *Buffs) Factor(kind BuffKind) float64 {
	f := 1.0
	for _, buf := range b.Active {
		if buf.Kind == kind && buf.Multiplier > 0 {
			f *= buf.Multiplier
		}
	}
	return f
}

// Has reports whether any buff of the given kind is active.
func (b *Buffs) Has(kind BuffKind) bool {
	for _, buf := range b.Active {
		if buf.Kind == kind {
			return true
		}
	}
	return false
}

// Clear removes every buff.
func (b *Buffs) Clear() { b.Active = b.Active[:0] }

// Projectile is a non-blocking damage carrier fired by the boss or a ball weapon.
type Projectile struct {
	FromBoss bool
	Owner    int    // ball index when fired by a ball
	Weapon   string // weapon id when fired by a ball
	Damage   float64
	Spawned  float64 // race clock seconds
	Lifetime float64
	Piercing bool
	Dead     bool // pending removal
}

// Item is a pickup that grants a buff on contact.
type Item struct {
	Buff       BuffKind
	Multiplier float64
	Duration   float64
	Taken      bool
}

// Boss holds the health pool of the boss body.
type Boss struct {
	Health    float64
	MaxHealth float64
}
