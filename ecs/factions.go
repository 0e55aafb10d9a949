package ecs

import "github.com/milk9111/groundnpc/npc"

// Factions maps owners to named factions and records which factions are at
// war. Owner zero belongs to nobody and is never hostile.
type Factions struct {
	members map[npc.OwnerID]string
	wars    map[[2]string]bool
}

var _ npc.Factions = (*Factions)(nil)

func NewFactions() *Factions {
	return &Factions{
		members: make(map[npc.OwnerID]string),
		wars:    make(map[[2]string]bool),
	}
}

func warKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Join puts owner into faction, leaving any previous one.
func (f *Factions) Join(owner npc.OwnerID, faction string) {
	if f == nil || owner == 0 || faction == "" {
		return
	}
	f.members[owner] = faction
}

func (f *Factions) Faction(owner npc.OwnerID) (string, bool) {
	if f == nil {
		return "", false
	}
	name, ok := f.members[owner]
	return name, ok
}

// DeclareWar makes a and b hostile to each other.
func (f *Factions) DeclareWar(a, b string) {
	if f == nil || a == "" || b == "" || a == b {
		return
	}
	f.wars[warKey(a, b)] = true
}

func (f *Factions) MakePeace(a, b string) {
	if f == nil {
		return
	}
	delete(f.wars, warKey(a, b))
}

func (f *Factions) IsHostile(a, b npc.OwnerID) bool {
	if f == nil || a == 0 || b == 0 || a == b {
		return false
	}
	fa, okA := f.members[a]
	fb, okB := f.members[b]
	if !okA || !okB || fa == fb {
		return false
	}
	return f.wars[warKey(fa, fb)]
}
