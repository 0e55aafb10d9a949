package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/groundnpc/common"
)

func main() {
	scenario := flag.String("scenario", "skirmish", "scenario name in prefabs/scenarios (basename)")
	debug := flag.Bool("debug", false, "draw waypoint queues and steering targets")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	watch := flag.String("watch", "prefabs", "prefab directory to hot reload from (empty to disable)")
	flag.Parse()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("groundnpc - " + *scenario)
	ebiten.SetTPS(common.TPS)

	logger := log.New(os.Stderr, "viewer: ", log.LstdFlags)
	game, err := NewGame(*scenario, *debug, *watch, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
