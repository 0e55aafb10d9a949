package ecs

import (
	"testing"

	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

func TestSparseWorldEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if len(Entities(w)) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(Entities(w)))
			}
			if c.destroyIndex >= 0 {
				if !DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if IsAlive(w, ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
			}
		})
	}
}

func toSet(ents []Entity) map[Entity]struct{} {
	m := make(map[Entity]struct{}, len(ents))
	for _, e := range ents {
		m[e] = struct{}{}
	}
	return m
}

func intPtr(i int) *int {
	return &i
}

func TestSparseWorldComponentsAndQueries(t *testing.T) {
	t.Run("component_table", func(t *testing.T) {
		w := NewWorld()
		health := component.HealthComponent.Kind()
		owner := component.OwnerComponent.Kind()
		ttl := component.TTLComponent.Kind()

		e1 := CreateEntity(w)
		e2 := CreateEntity(w)

		tests := []struct {
			name     string
			setup    func() error
			check    func(t *testing.T)
			teardown func() bool
		}{
			{
				name:  "health_on_e1",
				setup: func() error { return Add(w, e1, health, &component.Health{Current: 10, Max: 30}) },
				check: func(t *testing.T) {
					v, ok := Get(w, e1, health)
					if !ok || v.Current != 10 {
						t.Fatalf("expected 10, got %v ok=%v", v, ok)
					}
				},
				teardown: func() bool { return Remove(w, e1, health) },
			},
			{
				name: "owner_on_both",
				setup: func() error {
					if err := Add(w, e1, owner, &component.Owner{ID: 1}); err != nil {
						return err
					}
					return Add(w, e2, owner, &component.Owner{ID: 2})
				},
				check: func(t *testing.T) {
					if !Has(w, e1, owner) || !Has(w, e2, owner) {
						t.Fatalf("expected both entities to have an owner")
					}
					if got := w.Query(owner.ID()); len(got) != 2 {
						t.Fatalf("query owner = %v", got)
					}
				},
				teardown: func() bool { return Remove(w, e1, owner) },
			},
			{
				name:  "ttl_and_remove",
				setup: func() error { return Add(w, e1, ttl, &component.TTL{Frames: 3}) },
				check: func(t *testing.T) {
					if _, ok := Get(w, e1, ttl); !ok {
						t.Fatalf("expected ttl present")
					}
					if got := w.Query(ttl.ID(), owner.ID()); len(got) != 0 {
						t.Fatalf("e1 owner was removed, query = %v", got)
					}
				},
				teardown: func() bool { return Remove(w, e1, ttl) },
			},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				if err := tc.setup(); err != nil {
					t.Fatalf("setup failed: %v", err)
				}
				tc.check(t)
				if !tc.teardown() {
					t.Fatalf("teardown failed for %s", tc.name)
				}
			})
		}
	})
}

func TestForEachVisitsOnlyHolders(t *testing.T) {
	w := NewWorld()
	health := component.HealthComponent.Kind()

	wall := CreateEntity(w)
	rock := CreateEntity(w)
	soldier := CreateEntity(w)
	if err := Add(w, wall, health, &component.Health{Current: 50, Max: 50}); err != nil {
		t.Fatal(err)
	}
	if err := Add(w, soldier, health, &component.Health{Current: 20, Max: 100}); err != nil {
		t.Fatal(err)
	}

	total := 0.0
	var ents []Entity
	ForEach(w, health, func(e Entity, h *component.Health) {
		ents = append(ents, e)
		total += h.Current
	})
	set := toSet(ents)
	if _, ok := set[rock]; ok || len(set) != 2 {
		t.Fatalf("visited %v, want wall and soldier only", ents)
	}
	if total != 70 {
		t.Fatalf("health total = %v, want 70", total)
	}
}

// damageable is what the damage pass needs before it can hurt something.
func damageable(w *World) []Entity {
	var res []Entity
	ForEach3(w, component.HealthComponent.Kind(), component.OwnerComponent.Kind(), component.ClassComponent.Kind(),
		func(e Entity, _ *component.Health, _ *component.Owner, _ *component.Class) { res = append(res, e) })
	return res
}

func TestForEach3(t *testing.T) {
	health := component.HealthComponent.Kind()
	owner := component.OwnerComponent.Kind()
	class := component.ClassComponent.Kind()

	tests := []struct {
		name  string
		build func(t *testing.T, w *World) []Entity
	}{
		{
			name: "intersection",
			build: func(t *testing.T, w *World) []Entity {
				full := CreateEntity(w)
				unowned := CreateEntity(w)
				decor := CreateEntity(w)
				for _, err := range []error{
					Add(w, full, health, &component.Health{Current: 10, Max: 10}),
					Add(w, full, owner, &component.Owner{ID: 2}),
					Add(w, full, class, &component.Class{Kind: npc.KindCharacter, Name: "rifleman"}),
					Add(w, unowned, health, &component.Health{Current: 10, Max: 10}),
					Add(w, unowned, class, &component.Class{Kind: npc.KindStructure}),
					Add(w, decor, class, &component.Class{Kind: npc.KindObstacle}),
				} {
					if err != nil {
						t.Fatal(err)
					}
				}
				return []Entity{full}
			},
		},
		{
			name: "ignores_destroyed",
			build: func(t *testing.T, w *World) []Entity {
				e := CreateEntity(w)
				for _, err := range []error{
					Add(w, e, health, &component.Health{Current: 1, Max: 1}),
					Add(w, e, owner, &component.Owner{ID: 1}),
					Add(w, e, class, &component.Class{Kind: npc.KindCharacter}),
				} {
					if err != nil {
						t.Fatal(err)
					}
				}
				if !DestroyEntity(w, e) {
					t.Fatal("destroy failed")
				}
				return nil
			},
		},
		{
			name: "missing_store",
			build: func(t *testing.T, w *World) []Entity {
				if err := Add(w, CreateEntity(w), health, &component.Health{Current: 1, Max: 1}); err != nil {
					t.Fatal(err)
				}
				return nil
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWorld()
			want := tc.build(t, w)
			got := damageable(w)
			if len(got) != len(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("got %v, want %v", got, want)
				}
			}
		})
	}
}

func TestEntityGenerationReuse(t *testing.T) {
	w := NewWorld()
	a := CreateEntity(w)
	h := component.NewComponent[int]()
	if err := Add(w, a, h.Kind(), intPtr(1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !DestroyEntity(w, a) {
		t.Fatalf("destroy failed")
	}

	b := CreateEntity(w)
	if b.id() != a.id() {
		t.Fatalf("expected slot %d to be reused, got %d", a.id(), b.id())
	}
	if b.generation() == a.generation() {
		t.Fatalf("expected a new generation for reused slot")
	}
	if IsAlive(w, a) {
		t.Fatalf("stale handle must not be alive")
	}
	if Has(w, b, h.Kind()) {
		t.Fatalf("reused slot must not inherit components")
	}
	if err := Add(w, a, h.Kind(), intPtr(2)); err != component.ErrEntityNotAlive {
		t.Fatalf("expected ErrEntityNotAlive for stale handle, got %v", err)
	}
	if FromNPC(b.NPC()) != b {
		t.Fatalf("npc id round trip lost the handle")
	}
}

func TestSparseSetRemoveKeepsOthers(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()
	ents := make([]Entity, 4)
	for i := range ents {
		ents[i] = CreateEntity(w)
		if err := Add(w, ents[i], h.Kind(), intPtr(i)); err != nil {
			t.Fatal(err)
		}
	}
	if !Remove(w, ents[1], h.Kind()) {
		t.Fatalf("remove failed")
	}
	if Remove(w, ents[1], h.Kind()) {
		t.Fatalf("second remove should report false")
	}
	for i, e := range ents {
		v, ok := Get(w, e, h.Kind())
		if i == 1 {
			if ok {
				t.Fatalf("removed value still present")
			}
			continue
		}
		if !ok || *v != i {
			t.Fatalf("entity %d: expected %d, got %v ok=%v", i, i, v, ok)
		}
	}
}

func TestForEachToleratesDestroy(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()
	for i := 0; i < 5; i++ {
		if err := Add(w, CreateEntity(w), h.Kind(), intPtr(i)); err != nil {
			t.Fatal(err)
		}
	}
	visited := 0
	ForEach(w, h.Kind(), func(e Entity, v *int) {
		visited++
		DestroyEntity(w, e)
	})
	if visited != 5 {
		t.Fatalf("expected 5 visits, got %d", visited)
	}
	if len(Entities(w)) != 0 {
		t.Fatalf("expected all entities destroyed, got %d", len(Entities(w)))
	}
}

func TestWorldUpdateOrderAndEvents(t *testing.T) {
	w := NewWorld()
	var order []string
	w.AddSystem(SystemFunc(func(w *World) {
		order = append(order, "a")
		w.Events().Push(Event{Type: "test", Tick: w.Tick()})
	}))
	w.AddSystem(SystemFunc(func(w *World) {
		order = append(order, "b")
		if n := len(w.Events().Pending()); n != 1 {
			t.Fatalf("expected 1 pending event, got %d", n)
		}
	}))

	w.Update()
	w.Update()

	if got := len(order); got != 4 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected order %v", order)
	}
	if w.Tick() != 2 {
		t.Fatalf("expected tick 2, got %d", w.Tick())
	}
	if n := len(w.Events().Pending()); n != 0 {
		t.Fatalf("undrained events should be dropped after update, got %d", n)
	}
}
