package prefabs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/npc"
	"gopkg.in/yaml.v3"
)

// NPCConfigFile holds the agent tuning.
const NPCConfigFile = "npc.yaml"

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// LoadNPCConfig decodes filename over npc.DefaultConfig, so keys the file
// leaves out keep their defaults. Unknown keys are rejected and an empty
// file means all defaults.
func LoadNPCConfig(filename string) (npc.Config, error) {
	cfg := npc.DefaultConfig()
	data, err := Load(filename)
	if err != nil {
		return cfg, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return DecodeNPCConfig(filename, data)
}

func DecodeNPCConfig(filename string, data []byte) (npc.Config, error) {
	cfg := npc.DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return npc.DefaultConfig(), fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return npc.DefaultConfig(), fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return cfg, nil
}

// Vec3Spec reads either [x, y, z] or {x: .., y: .., z: ..}.
type Vec3Spec mgl64.Vec3

func (v Vec3Spec) Vec3() mgl64.Vec3 { return mgl64.Vec3(v) }

func (v *Vec3Spec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var xs []float64
		if err := value.Decode(&xs); err != nil {
			return err
		}
		if len(xs) != 2 && len(xs) != 3 {
			return fmt.Errorf("vector must have 2 or 3 components, got %d", len(xs))
		}
		if len(xs) == 2 {
			// [x, z] on the ground
			*v = Vec3Spec{xs[0], 0, xs[1]}
			return nil
		}
		*v = Vec3Spec{xs[0], xs[1], xs[2]}
		return nil
	case yaml.MappingNode:
		var m struct {
			X float64 `yaml:"x"`
			Y float64 `yaml:"y"`
			Z float64 `yaml:"z"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		*v = Vec3Spec{m.X, m.Y, m.Z}
		return nil
	default:
		return fmt.Errorf("vector must be a sequence or a mapping")
	}
}

type HillSpec struct {
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	Height float64 `yaml:"height"`
	Radius float64 `yaml:"radius"`
}

type PlateauSpec struct {
	Min    Vec3Spec `yaml:"min"`
	Max    Vec3Spec `yaml:"max"`
	Height float64  `yaml:"height"`
	Ramp   float64  `yaml:"ramp"`
}

type TerrainSpec struct {
	Width    float64       `yaml:"width"`
	Depth    float64       `yaml:"depth"`
	Cell     float64       `yaml:"cell"`
	Base     float64       `yaml:"base"`
	Hills    []HillSpec    `yaml:"hills"`
	Plateaus []PlateauSpec `yaml:"plateaus"`
}

type FactionSpec struct {
	Name   string  `yaml:"name"`
	Owners []int64 `yaml:"owners"`
}

// BoxSpec is a static obstacle. Position is the footprint center on the
// ground; the box rests on the terrain.
type BoxSpec struct {
	Name     string   `yaml:"name"`
	Position Vec3Spec `yaml:"position"`
	Size     Vec3Spec `yaml:"size"`
}

type CharacterSpec struct {
	Name     string   `yaml:"name"`
	Owner    int64    `yaml:"owner"`
	Position Vec3Spec `yaml:"position"`
	Size     Vec3Spec `yaml:"size"`
	Mass     float64  `yaml:"mass"`
	Health   float64  `yaml:"health"`
}

type BlockSpec struct {
	// Offset is relative to the structure position, measured from the
	// ground.
	Offset    Vec3Spec `yaml:"offset"`
	Size      Vec3Spec `yaml:"size"`
	Integrity float64  `yaml:"integrity"`
}

type StructureSpec struct {
	Name           string      `yaml:"name"`
	Owner          int64       `yaml:"owner"`
	Position       Vec3Spec    `yaml:"position"`
	Indestructible bool        `yaml:"indestructible"`
	Blocks         []BlockSpec `yaml:"blocks"`
}

type AgentSpec struct {
	Name      string     `yaml:"name"`
	Owner     int64      `yaml:"owner"`
	Position  Vec3Spec   `yaml:"position"`
	Size      Vec3Spec   `yaml:"size"`
	Mass      float64    `yaml:"mass"`
	Health    float64    `yaml:"health"`
	WalkFast  bool       `yaml:"walk_fast"`
	Waypoints []Vec3Spec `yaml:"waypoints"`
	// Enemy names an entity to engage from the start.
	Enemy string `yaml:"enemy"`
}

type SquadSpec struct {
	Name    string     `yaml:"name"`
	Order   string     `yaml:"order"`
	Anchor  Vec3Spec   `yaml:"anchor"`
	Patrol  []Vec3Spec `yaml:"patrol"`
	Target  Vec3Spec   `yaml:"target"`
	Follow  string     `yaml:"follow"`
	Script  string     `yaml:"script"`
	Members []string   `yaml:"members"`
}

// ScenarioSpec describes a complete sandbox: terrain, factions and every
// entity. Entities reference each other by name.
type ScenarioSpec struct {
	Name       string          `yaml:"name"`
	Damping    float64         `yaml:"damping"`
	Terrain    TerrainSpec     `yaml:"terrain"`
	Factions   []FactionSpec   `yaml:"factions"`
	Wars       [][2]string     `yaml:"wars"`
	Obstacles  []BoxSpec       `yaml:"obstacles"`
	Characters []CharacterSpec `yaml:"characters"`
	Structures []StructureSpec `yaml:"structures"`
	Agents     []AgentSpec     `yaml:"agents"`
	Squads     []SquadSpec     `yaml:"squads"`
}

var validOrders = map[string]bool{"patrol": true, "attack": true, "guard": true, "follow": true, "script": true}

// Validate checks the cross references of a scenario.
func (s ScenarioSpec) Validate() error {
	var errs []error
	names := make(map[string]bool)
	addName := func(kind, name string) {
		if name == "" {
			return
		}
		if names[name] {
			errs = append(errs, fmt.Errorf("%s %q: duplicate name", kind, name))
		}
		names[name] = true
	}
	for _, o := range s.Obstacles {
		addName("obstacle", o.Name)
	}
	for _, c := range s.Characters {
		addName("character", c.Name)
	}
	for _, st := range s.Structures {
		addName("structure", st.Name)
		if len(st.Blocks) == 0 {
			errs = append(errs, fmt.Errorf("structure %q: no blocks", st.Name))
		}
	}
	agents := make(map[string]bool)
	for _, a := range s.Agents {
		addName("agent", a.Name)
		if a.Name != "" {
			agents[a.Name] = true
		}
	}
	factions := make(map[string]bool)
	for _, f := range s.Factions {
		factions[f.Name] = true
	}
	for _, war := range s.Wars {
		for _, f := range war {
			if !factions[f] {
				errs = append(errs, fmt.Errorf("war: unknown faction %q", f))
			}
		}
	}
	for _, a := range s.Agents {
		if a.Enemy != "" && !names[a.Enemy] {
			errs = append(errs, fmt.Errorf("agent %q: unknown enemy %q", a.Name, a.Enemy))
		}
	}
	for _, sq := range s.Squads {
		if !validOrders[strings.ToLower(sq.Order)] {
			errs = append(errs, fmt.Errorf("squad %q: unknown order %q", sq.Name, sq.Order))
		}
		if sq.Follow != "" && !names[sq.Follow] {
			errs = append(errs, fmt.Errorf("squad %q: unknown follow target %q", sq.Name, sq.Follow))
		}
		if strings.EqualFold(sq.Order, "script") && sq.Script == "" {
			errs = append(errs, fmt.Errorf("squad %q: script order without script", sq.Name))
		}
		for _, m := range sq.Members {
			if !agents[m] {
				errs = append(errs, fmt.Errorf("squad %q: unknown member %q", sq.Name, m))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("prefabs: scenario %s: %w", s.Name, err)
	}
	return nil
}

// LoadScenario loads scenarios/<name>.yaml and validates it.
func LoadScenario(name string) (ScenarioSpec, error) {
	filename := name
	if !isSpecFile(filename) {
		filename = "scenarios/" + name + ".yaml"
	}
	spec, err := LoadSpec[ScenarioSpec](filename)
	if err != nil {
		return spec, err
	}
	if spec.Name == "" {
		spec.Name = name
	}
	return spec, spec.Validate()
}
