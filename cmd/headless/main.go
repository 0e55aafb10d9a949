package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/milk9111/groundnpc/common"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/entity"
	"github.com/milk9111/groundnpc/ecs/system"
	"github.com/milk9111/groundnpc/eventlog"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
	"github.com/milk9111/groundnpc/transport/observer"
)

type options struct {
	scenario string
	ticks    int
	events   string
	observe  string
	watch    string
	realtime bool
}

func main() {
	var opts options
	flag.StringVar(&opts.scenario, "scenario", "skirmish", "scenario name")
	flag.IntVar(&opts.ticks, "ticks", 3600, "ticks to simulate")
	flag.StringVar(&opts.events, "events", "", "directory for the zstd event log (empty to disable)")
	flag.StringVar(&opts.observe, "observe", "", "observer listen address, e.g. 127.0.0.1:8089 (empty to disable)")
	flag.StringVar(&opts.watch, "watch", "", "prefab directory to hot reload from (empty to disable)")
	flag.BoolVar(&opts.realtime, "realtime", false, "pace ticks at the simulation rate")
	flag.Parse()

	logger := log.New(os.Stderr, "headless: ", log.LstdFlags)
	if opts.ticks <= 0 {
		logger.Fatalf("-ticks must be > 0")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(ctx context.Context, opts options, out io.Writer, logger *log.Logger) error {
	cfg, err := prefabs.LoadNPCConfig(prefabs.NPCConfigFile)
	if err != nil {
		return err
	}

	w := ecs.NewWorld()
	agents := npc.NewCollection(cfg, logger)
	sc, err := entity.LoadScenario(w, agents, opts.scenario)
	if err != nil {
		return fmt.Errorf("load scenario %s: %w", opts.scenario, err)
	}
	logger.Printf("loaded scenario %s: %d agents, %d squads", sc.Name, len(sc.Agents), len(sc.Squads))

	sum := newSummary()
	sinks := []system.EventSink{sum}

	var events *eventlog.Writer
	if opts.events != "" {
		events = eventlog.NewWriter(filepath.Join(opts.events, sc.Name+".jsonl.zst"), logger)
		defer func() {
			if err := events.Close(); err != nil {
				logger.Printf("close event log: %v", err)
			}
		}()
		sinks = append(sinks, events)
	}

	var obs *observer.Server
	if opts.observe != "" {
		obs = observer.NewServer(logger)
		defer obs.Close()
		sinks = append(sinks, obs)

		srv, err := serveObserver(ctx, opts.observe, obs, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pipeline := system.AddPipeline(w, agents, prefabs.LoadScript, sinks...)

	var changes <-chan prefabs.Change
	if opts.watch != "" {
		watcher, err := prefabs.WatchPrefabs(opts.watch)
		if err != nil {
			return fmt.Errorf("watch %s: %w", opts.watch, err)
		}
		defer watcher.Close()
		changes = watcher.Events
		logger.Printf("watching %s", opts.watch)
	}

	var pace <-chan time.Time
	if opts.realtime {
		ticker := time.NewTicker(time.Second / common.TPS)
		defer ticker.Stop()
		pace = ticker.C
	}

	ran := 0
loop:
	for ran < opts.ticks {
		select {
		case <-ctx.Done():
			logger.Printf("interrupted after %d ticks", ran)
			break loop
		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if err := pipeline.Reload(change); err != nil {
				logger.Printf("reload %s: %v", change.Path, err)
			} else {
				logger.Printf("reloaded %s", change.Path)
			}
			continue
		default:
		}

		if pace != nil {
			select {
			case <-ctx.Done():
				continue
			case <-pace:
			}
		}

		w.Update()
		ran++
		if obs != nil {
			if err := obs.PublishTick(w, agents); err != nil {
				logger.Printf("observer: %v", err)
			}
		}
	}

	sum.print(out, sc.Name, ran, agents)
	if events != nil {
		if err := events.Flush(); err != nil && !errors.Is(err, eventlog.ErrClosed) {
			return err
		}
		fmt.Fprintf(out, "events=%d -> %s\n", events.Written(), events.Path())
	}
	if obs != nil {
		fmt.Fprintf(out, "observer dropped frames=%d\n", obs.Dropped())
	}
	return nil
}

func serveObserver(ctx context.Context, addr string, obs *observer.Server, logger *log.Logger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/observe", obs.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("observer listen: %w", err)
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("observer: %v", err)
		}
	}()
	logger.Printf("observer listening on %s/observe", ln.Addr())
	return srv, nil
}
