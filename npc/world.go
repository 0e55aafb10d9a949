package npc

import "github.com/go-gl/mathgl/mgl64"

// EntityID identifies an entity owned by the host world. Zero means none.
type EntityID uint64

// ComponentID indexes a destructible element of a composite structure.
type ComponentID int

// NoComponent marks a hit or target without a sub-component.
const NoComponent ComponentID = -1

// OwnerID identifies the faction member that owns an entity.
type OwnerID int64

// Kind classifies what a ray hit or a nearby entity is.
type Kind int

const (
	KindUnknown Kind = iota
	KindTerrain
	KindObstacle
	KindCharacter
	KindStructure
	KindAgent
)

func (k Kind) String() string {
	switch k {
	case KindTerrain:
		return "terrain"
	case KindObstacle:
		return "obstacle"
	case KindCharacter:
		return "character"
	case KindStructure:
		return "structure"
	case KindAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// Targetable reports whether entities of this kind can be engaged.
func (k Kind) Targetable() bool {
	return k == KindCharacter || k == KindStructure || k == KindAgent
}

// Hit is the nearest intersection returned by a ray cast.
type Hit struct {
	Position  mgl64.Vec3
	Normal    mgl64.Vec3
	Entity    EntityID
	Kind      Kind
	Component ComponentID
}

// RayFilter returns true for hits the cast should pass through.
type RayFilter func(Hit) bool

// Entity is a read-only snapshot of a world entity for the current tick.
type Entity struct {
	ID       EntityID
	Kind     Kind
	Owner    OwnerID
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	// Center is the center of the entity's bounding volume.
	Center mgl64.Vec3
}

// Component is a sub-component of a composite structure.
type Component struct {
	ID       ComponentID
	Position mgl64.Vec3
}

// Space answers spatial queries against the host world. Every call is
// synchronous and must return within the tick.
type Space interface {
	CastRay(from, to mgl64.Vec3, skip RayFilter) (Hit, bool)
	// Entity revalidates a reference; ok is false once the entity is gone,
	// closed, or marked for removal.
	Entity(id EntityID) (Entity, bool)
	// NearbyEntities returns matching entities within radius, nearest first.
	NearbyEntities(center mgl64.Vec3, radius float64, match func(Entity) bool) []Entity
	Components(id EntityID) []Component
	Component(id EntityID, c ComponentID) (Component, bool)
}

// Body is the physical body an agent is bound to.
type Body interface {
	ID() EntityID
	Owner() OwnerID
	// Valid reports whether the body exists, is not closed or marked for
	// removal, is registered in the world, and its core block is alive.
	Valid() bool
	Position() mgl64.Vec3
	Velocity() mgl64.Vec3
	Up() mgl64.Vec3
	Forward() mgl64.Vec3
	Gravity() mgl64.Vec3
	Orient(up, forward mgl64.Vec3)
	ApplyForce(direction mgl64.Vec3, magnitude float64)
}

// Factions decides hostility between owners.
type Factions interface {
	IsHostile(a, b OwnerID) bool
}

// Damage is one damage event produced by one successful shot.
type Damage struct {
	Source    EntityID
	Target    EntityID
	Component ComponentID
	Amount    float64
	Point     mgl64.Vec3
	Normal    mgl64.Vec3
}

// Damager applies damage. It returns false without side effects when the
// target is indestructible, has lost its physics, or no longer exists.
type Damager interface {
	ApplyDamage(d Damage) bool
}

// Animator receives the movement mode each tick.
type Animator interface {
	SetMovementMode(m Mode)
}

// Env bundles the collaborators an agent consumes. Events may be nil.
type Env struct {
	Space    Space
	Factions Factions
	Damager  Damager
	Events   EventSink
	// Tick is the host tick stamped onto emitted events.
	Tick int
}

func (e Env) emit(ev Event) {
	if e.Events != nil {
		e.Events.Emit(ev)
	}
}

type nopAnimator struct{}

func (nopAnimator) SetMovementMode(Mode) {}
