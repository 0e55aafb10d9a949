package npc

import "fmt"

// Mode is the movement mode shared by steering and the animation layer.
type Mode int

const (
	ModeStanding Mode = iota
	ModeWalking
	ModeAttacking
)

func (m Mode) String() string {
	switch m {
	case ModeStanding:
		return "standing"
	case ModeWalking:
		return "walking"
	case ModeAttacking:
		return "attacking"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "standing":
		*m = ModeStanding
	case "walking":
		*m = ModeWalking
	case "attacking":
		*m = ModeAttacking
	default:
		return fmt.Errorf("npc: unknown mode %q", b)
	}
	return nil
}

// Locomotion turns a movement mode into a target speed.
type Locomotion struct {
	BaseSpeed    float64
	AttackFactor float64
	FastFactor   float64
	Fast         bool
}

func newLocomotion(cfg Config) Locomotion {
	return Locomotion{
		BaseSpeed:    cfg.BaseSpeed,
		AttackFactor: cfg.AttackSpeedFactor,
		FastFactor:   cfg.FastFactor,
	}
}

// Speed returns the desired ground speed for m.
func (l Locomotion) Speed(m Mode) float64 {
	switch m {
	case ModeWalking:
		if l.Fast {
			return l.BaseSpeed * l.FastFactor
		}
		return l.BaseSpeed
	case ModeAttacking:
		return l.BaseSpeed * l.AttackFactor
	default:
		return 0
	}
}
