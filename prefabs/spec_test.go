package prefabs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/npc"
	"gopkg.in/yaml.v3"
)

func TestLoadNPCConfigMatchesDefaultsExceptSnap(t *testing.T) {
	cfg, err := LoadNPCConfig(NPCConfigFile)
	if err != nil {
		t.Fatalf("LoadNPCConfig: %v", err)
	}
	want := npc.DefaultConfig()
	want.SnapToSurface = true
	if cfg != want {
		t.Fatalf("npc.yaml drifted from the defaults:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestDecodeNPCConfig(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		wantErr string
		check   func(t *testing.T, cfg npc.Config)
	}{
		{
			name: "empty_means_defaults",
			data: "",
			check: func(t *testing.T, cfg npc.Config) {
				if cfg != npc.DefaultConfig() {
					t.Fatalf("got %+v", cfg)
				}
			},
		},
		{
			name: "override_keeps_other_defaults",
			data: "reach_distance: 4\nloop_waypoints: true\n",
			check: func(t *testing.T, cfg npc.Config) {
				if cfg.ReachDistance != 4 || !cfg.LoopWaypoints {
					t.Fatalf("override not applied: %+v", cfg)
				}
				if cfg.ProbeRange != npc.DefaultConfig().ProbeRange {
					t.Fatalf("probe_range lost its default")
				}
			},
		},
		{name: "unknown_key", data: "reach_distanse: 4\n", wantErr: "reach_distanse"},
		{name: "invalid_value", data: "tick_rate: 0\n", wantErr: "tick_rate"},
		{name: "bad_yaml", data: "reach_distance: [\n", wantErr: "unmarshal"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg, err := DecodeNPCConfig("test.yaml", []byte(c.data))
			if c.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), c.wantErr) {
					t.Fatalf("err = %v, want mention of %q", err, c.wantErr)
				}
				if cfg != npc.DefaultConfig() {
					t.Fatalf("failed decode should return defaults")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeNPCConfig: %v", err)
			}
			c.check(t, cfg)
		})
	}
}

func TestVec3SpecForms(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		want    mgl64.Vec3
		wantErr bool
	}{
		{"ground_pair", "[4, 7]", mgl64.Vec3{4, 0, 7}, false},
		{"triple", "[1, 2, 3]", mgl64.Vec3{1, 2, 3}, false},
		{"mapping", "{x: 1, z: 5}", mgl64.Vec3{1, 0, 5}, false},
		{"too_short", "[1]", mgl64.Vec3{}, true},
		{"scalar", "3", mgl64.Vec3{}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var v Vec3Spec
			err := yaml.Unmarshal([]byte(c.data), &v)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %v", v)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if v.Vec3() != c.want {
				t.Fatalf("got %v, want %v", v.Vec3(), c.want)
			}
		})
	}
}

func TestScenarioValidate(t *testing.T) {
	base := func() ScenarioSpec {
		return ScenarioSpec{
			Name:       "v",
			Factions:   []FactionSpec{{Name: "red", Owners: []int64{1}}},
			Characters: []CharacterSpec{{Name: "boss"}},
			Agents:     []AgentSpec{{Name: "a"}, {Name: "b"}},
			Squads:     []SquadSpec{{Name: "s", Order: "Guard", Members: []string{"a"}}},
		}
	}
	cases := []struct {
		name    string
		mutate  func(s *ScenarioSpec)
		wantErr string
	}{
		{"valid", func(s *ScenarioSpec) {}, ""},
		{"duplicate_name", func(s *ScenarioSpec) { s.Agents[1].Name = "boss" }, "duplicate"},
		{"unknown_faction", func(s *ScenarioSpec) { s.Wars = [][2]string{{"red", "green"}} }, "green"},
		{"unknown_enemy", func(s *ScenarioSpec) { s.Agents[0].Enemy = "ghost" }, "ghost"},
		{"unknown_order", func(s *ScenarioSpec) { s.Squads[0].Order = "dance" }, "dance"},
		{"script_without_name", func(s *ScenarioSpec) { s.Squads[0].Order = "script" }, "without script"},
		{"member_not_agent", func(s *ScenarioSpec) { s.Squads[0].Members = []string{"boss"} }, "boss"},
		{"structure_without_blocks", func(s *ScenarioSpec) { s.Structures = []StructureSpec{{Name: "hut"}} }, "no blocks"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := base()
			c.mutate(&s)
			err := s.Validate()
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, c.wantErr)
			}
		})
	}
}

func TestEmbeddedScenariosLoad(t *testing.T) {
	names := ScenarioNames()
	if len(names) < 2 {
		t.Fatalf("scenario names = %v", names)
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			spec, err := LoadScenario(name)
			if err != nil {
				t.Fatalf("LoadScenario: %v", err)
			}
			if spec.Name != name {
				t.Fatalf("name = %q", spec.Name)
			}
			for _, sq := range spec.Squads {
				if sq.Script == "" {
					continue
				}
				if _, err := LoadScript(sq.Script); err != nil {
					t.Fatalf("squad %s script: %v", sq.Name, err)
				}
			}
		})
	}
	if _, err := LoadScenario("missing"); err == nil {
		t.Fatalf("missing scenario should fail")
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "scripts"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	w, err := WatchPrefabs(root)
	if err != nil {
		t.Fatalf("WatchPrefabs: %v", err)
	}
	defer w.Close()

	write := func(rel string) {
		if err := os.WriteFile(filepath.Join(root, rel), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	// editors and the OS may report one save as several events
	waitFor := func(name string) Change {
		t.Helper()
		deadline := time.After(3 * time.Second)
		for {
			select {
			case c := <-w.Events:
				if filepath.Base(c.Path) == name {
					return c
				}
			case <-deadline:
				t.Fatalf("no change event for %s", name)
				return Change{}
			}
		}
	}

	write("notes.txt")
	write(NPCConfigFile)
	c := waitFor(NPCConfigFile)
	if c.Kind != ChangeSpec || !c.IsNPCConfig() {
		t.Fatalf("change = %+v, want npc config", c)
	}

	write(filepath.Join("scripts", "orbit.tengo"))
	c = waitFor("orbit.tengo")
	if c.Kind != ChangeScript || c.IsNPCConfig() {
		t.Fatalf("change = %+v, want script", c)
	}
}
