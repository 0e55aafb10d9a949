package npc

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/groundnpc/common"
)

// steering is the ground-following state of one agent.
type steering struct {
	grounded   bool
	sampled    bool
	lastSample int
	ground     Hit

	intermediate    mgl64.Vec3
	hasIntermediate bool
	sweptFor        mgl64.Vec3
	lastSweep       int
	sweepHeading    float64
}

func (s *steering) reset() {
	*s = steering{}
}

func (s *steering) invalidateSweep() {
	s.hasIntermediate = false
}

// downOf returns the unit gravity direction of b, falling back to -Up.
func downOf(b Body) mgl64.Vec3 {
	if d, ok := common.Normalize(b.Gravity()); ok {
		return d
	}
	if u, ok := common.Normalize(b.Up()); ok {
		return u.Mul(-1)
	}
	return common.Up3.Mul(-1)
}

// sampleGround casts straight down along gravity from slightly above the
// body. It returns whether the grounded flag changed.
func (s *steering) sampleGround(space Space, b Body, cfg *Config, tick int) (changed bool) {
	if s.sampled && tick-s.lastSample < cfg.GroundSampleInterval {
		return false
	}
	was := s.grounded && s.sampled
	s.sampled = true
	s.lastSample = tick

	down := downOf(b)
	pos := b.Position()
	from := pos.Sub(down.Mul(cfg.GroundProbeUp))
	to := pos.Add(down.Mul(cfg.GroundProbeDown))
	hit, ok := space.CastRay(from, to, skipSelfAndAgents(b.ID()))
	s.grounded = ok
	if ok {
		s.ground = hit
	} else {
		s.ground = Hit{}
	}
	return was != s.grounded
}

// targetUp is the up axis the body should settle on: the ground normal, or
// inverse gravity when the ground is too steep to cling to.
func targetUp(normal, down mgl64.Vec3, steepDeg float64) mgl64.Vec3 {
	invGrav := down.Mul(-1)
	n, ok := common.Normalize(normal)
	if !ok || common.AngleBetweenDeg(n, invGrav) > steepDeg {
		return invGrav
	}
	return n
}

// orient blends the body's up toward the ground and yaws forward toward aim.
func (s *steering) orient(b Body, cfg *Config, aim mgl64.Vec3, hasAim bool) {
	up := b.Up()
	want := targetUp(s.ground.Normal, downOf(b), cfg.SteepGroundDeg)
	if common.AngleBetweenDeg(up, want) > cfg.UpDeadZoneDeg {
		if blended, ok := common.Normalize(common.LerpVec(up, want, cfg.UpBlend)); ok {
			up = blended
		} else {
			up = want
		}
	}
	if u, ok := common.Normalize(up); ok {
		up = u
	} else {
		up = want
	}

	fwd := b.Forward()
	if hasAim {
		if f, ok := common.Normalize(common.ProjectOnPlane(aim.Sub(b.Position()), up)); ok {
			fwd = f
		}
	}
	if f, ok := common.Normalize(common.ProjectOnPlane(fwd, up)); ok {
		fwd = f
	} else {
		fwd = perpendicular(up)
	}
	b.Orient(up, fwd)
}

func perpendicular(n mgl64.Vec3) mgl64.Vec3 {
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(n.Dot(ref)) > 0.9 {
		ref = mgl64.Vec3{0, 0, 1}
	}
	p, _ := common.Normalize(n.Cross(ref))
	return p
}

// needsSweep reports whether the cached intermediate target is stale.
func (s *steering) needsSweep(goal mgl64.Vec3, pos mgl64.Vec3, cfg *Config, tick int) bool {
	if !s.hasIntermediate {
		return true
	}
	if tick-s.lastSweep >= cfg.SweepInterval {
		return true
	}
	if common.Distance(goal, s.sweptFor) > cfg.ReachDistance {
		return true
	}
	// Arrived at a detour point before the next scheduled sweep.
	return s.intermediate != s.sweptFor && common.Distance(pos, s.intermediate) <= cfg.ReachDistance
}

type sweepResult struct {
	Target  mgl64.Vec3
	Heading float64
	// Accepted is false when no heading passed and the goal is used as is.
	Accepted bool
}

// sweep probes candidate headings around up, starting at the direct path,
// and returns the first acceptable one. A heading passes when its probe is
// clear or ends on a slope shallower than the slope limit.
func sweep(space Space, castFrom, goal, up, down mgl64.Vec3, cfg *Config, skip RayFilter) sweepResult {
	dir, ok := common.Normalize(common.ProjectOnPlane(goal.Sub(castFrom), up))
	if !ok {
		return sweepResult{Target: goal, Accepted: true}
	}
	goalDist := common.ProjectOnPlane(goal.Sub(castFrom), up).Len()
	invGrav := down.Mul(-1)

	for i := 0; ; i++ {
		deg := float64(i) * cfg.SweepStepDeg
		if deg > cfg.SweepMaxDeg {
			break
		}
		heading := common.RotateAround(dir, up, mgl64.DegToRad(deg))
		rng := cfg.ProbeRange + cfg.ProbeGrowth*float64(i)
		if i == 0 {
			rng = math.Min(rng, goalDist)
		}

		to := castFrom.Add(heading.Mul(rng))
		candidate := to
		accept := true
		if hit, ok := space.CastRay(castFrom, to, skip); ok {
			candidate = castFrom.Add(hit.Position.Sub(castFrom).Mul(cfg.ClipFactor))
			accept = common.AngleBetweenDeg(hit.Normal, invGrav) < cfg.SlopeLimitDeg
		}
		if !accept {
			continue
		}
		if i == 0 {
			return sweepResult{Target: goal, Accepted: true}
		}
		return sweepResult{Target: candidate, Heading: deg, Accepted: true}
	}
	return sweepResult{Target: goal}
}

// steerTo refreshes the intermediate target when stale and returns it.
func (s *steering) steerTo(space Space, b Body, goal mgl64.Vec3, cfg *Config, tick int) mgl64.Vec3 {
	pos := b.Position()
	if s.needsSweep(goal, pos, cfg, tick) {
		up := b.Up()
		castFrom := pos.Add(up.Mul(cfg.CastHeight))
		res := sweep(space, castFrom, goal, up, downOf(b), cfg, skipSelfAndAgents(b.ID()))
		s.intermediate = res.Target
		s.sweepHeading = res.Heading
		s.hasIntermediate = true
		s.sweptFor = goal
		s.lastSweep = tick
	}
	return s.intermediate
}

// drive applies a velocity-matching force toward target along the ground
// plane. It never teleports the body.
func (s *steering) drive(space Space, b Body, target mgl64.Vec3, speed float64, cfg *Config) bool {
	if speed <= 0 || !s.grounded {
		return false
	}
	up := b.Up()
	dir, ok := common.Normalize(common.ProjectOnPlane(target.Sub(b.Position()), up))
	if !ok {
		return false
	}
	rel := b.Velocity()
	if s.ground.Entity != 0 {
		if under, ok := space.Entity(s.ground.Entity); ok {
			rel = rel.Sub(under.Velocity)
		}
	}
	deficit := speed - rel.Dot(dir)
	if deficit <= cfg.VelocityDeadband {
		return false
	}
	b.ApplyForce(dir, cfg.ForceMagnitude)
	return true
}

func skipSelfAndAgents(self EntityID) RayFilter {
	return func(h Hit) bool {
		return h.Entity == self || h.Kind == KindAgent
	}
}

func skipSelf(self EntityID) RayFilter {
	return func(h Hit) bool {
		return h.Entity == self
	}
}
