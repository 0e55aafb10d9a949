package main

import (
	"fmt"
	"log"
	"math"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/prefabs"
	"golang.org/x/image/colornames"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	viewMargin = 16
)

type Game struct {
	frames int

	scenario string
	level    *Level
	log      *log.Logger

	watcher *prefabs.Watcher
	status  string

	paused   bool
	stepOnce bool
	debug    bool
	pauseUI  *ebitenui.UI
}

func NewGame(scenario string, debug bool, watch string, logger *log.Logger) (*Game, error) {
	g := &Game{scenario: scenario, debug: debug, log: logger}
	if err := g.restart(); err != nil {
		return nil, err
	}
	if watch != "" {
		w, err := prefabs.WatchPrefabs(watch)
		if err != nil {
			logger.Printf("hot reload disabled: %v", err)
		} else {
			g.watcher = w
		}
	}
	g.pauseUI = NewPauseUI(g)
	return g, nil
}

// restart rebuilds the scenario from scratch, picking up scenario edits.
func (g *Game) restart() error {
	lvl, err := LoadLevel(g.scenario, g.log)
	if err != nil {
		return err
	}
	lvl.Pipeline.Render.Debug = g.debug
	g.level = lvl
	g.status = fmt.Sprintf("loaded %s", lvl.Name)
	return nil
}

func (g *Game) setDebug(on bool) {
	g.debug = on
	if g.level != nil {
		g.level.Pipeline.Render.Debug = on
	}
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) Update() error {
	g.frames++
	g.drainWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.setDebug(!g.debug)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.restart(); err != nil {
			g.status = err.Error()
			g.log.Printf("restart: %v", err)
		}
	}

	if g.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
			g.stepOnce = true
		}
		if g.pauseUI != nil {
			g.pauseUI.Update()
		}
		if !g.stepOnce {
			return nil
		}
		g.stepOnce = false
	}

	g.level.Update()
	return nil
}

func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.applyChange(change)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Printf("watcher: %v", err)
		default:
			return
		}
	}
}

func (g *Game) applyChange(change prefabs.Change) {
	err := g.level.Pipeline.Reload(change)
	if err == nil {
		g.status = fmt.Sprintf("reloaded %s", change.Path)
		g.log.Print(g.status)
		return
	}
	g.status = err.Error()
	g.log.Printf("reload %s: %v", change.Path, err)
}

// view fits the terrain into the base resolution, centred.
func (g *Game) view() ecs.View {
	width, depth := g.level.Bounds()
	if width <= 0 || depth <= 0 {
		return ecs.View{Scale: 1}
	}
	scale := math.Min((baseWidth-2*viewMargin)/width, (baseHeight-2*viewMargin)/depth)
	return ecs.View{
		OffsetX: -(baseWidth/scale - width) / 2,
		OffsetY: -(baseHeight/scale - depth) / 2,
		Scale:   scale,
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	g.level.Draw(screen, g.view())

	state := "running"
	if g.paused {
		state = "paused"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"%s  tick %d  agents %d  faults %d  [%s]\nFPS: %.2f  P pause  . step  R restart  F1 debug\n%s",
		g.level.Name, g.level.World.Tick(), g.level.Agents.Len(), g.level.Agents.Faults(), state,
		ebiten.ActualFPS(), g.status,
	))

	if g.paused && g.pauseUI != nil {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
