// Command scanner is the bootstrap entrypoint: load configuration,
// attach the AF_XDP pipeline to a network interface, and run the
// responder and strategy-selection loops until interrupted.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/cilium/ebpf/rlimit"

	"github.com/cezamee/xdpscan/internal/bootstrap"
	"github.com/cezamee/xdpscan/internal/config"
	"github.com/cezamee/xdpscan/internal/protocol/slp"
	"github.com/cezamee/xdpscan/internal/rangealgebra"
	"github.com/cezamee/xdpscan/internal/sink"
	"github.com/cezamee/xdpscan/internal/strategy"
)

var statusStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#4FC1FF"))

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config.toml> [exclude.txt]\n", os.Args[0])
		os.Exit(1)
	}
	configPath := os.Args[1]

	if err := rlimit.RemoveMemlock(); err != nil {
		log.Fatalf("removing memlock rlimit: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var excludes []rangealgebra.IPRange
	if len(os.Args) >= 3 {
		excludes, err = config.LoadExcludes(os.Args[2])
		if err != nil {
			log.Fatalf("loading exclude file: %v", err)
		}
	}

	fmt.Println(statusStyle.Render(fmt.Sprintf(
		"scanning on %s, %d-%d source ports, %.0fs sessions",
		cfg.Controller.Interface, cfg.Controller.SourcePortRange[0],
		cfg.Controller.SourcePortRange[1], cfg.Session.Duration().Seconds(),
	)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collection, err := cfg.Mongo.CollectionFor(config.ParserKindSLP)
	if err != nil {
		log.Fatalf("resolving mongo collection: %v", err)
	}
	sk, err := sink.DialMongo[slp.Response](ctx, cfg.Mongo.URL, cfg.Mongo.Database, collection)
	if err != nil {
		log.Fatalf("connecting to mongo: %v", err)
	}

	controller, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("bootstrapping: %v", err)
	}
	defer controller.Close()

	payload, parser := bootstrap.DefaultParser(cfg.Ping.SLP)

	var wg sync.WaitGroup
	var done atomic.Bool
	bootstrap.RunResponders[slp.Response](controller, &wg, &done, payload, parser, cfg.Ping.Timeout(), sk)

	selector, err := strategy.NewSelector(cfg.Strategy.Epsilon)
	if err != nil {
		log.Fatalf("building strategy selector: %v", err)
	}

	sessionsStop := make(chan struct{})
	go bootstrap.RunSessions(controller, selector, excludes, sessionsStop)

	<-ctx.Done()
	log.Println("shutting down")
	close(sessionsStop)
	done.Store(true)
	wg.Wait()
}
