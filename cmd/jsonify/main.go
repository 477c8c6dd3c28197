// Command jsonify keeps the JSON feed of a WordPress site in sync.
//
// Usage:
//
//	jsonify serve
//	jsonify handle -kind saved -id 42 [-autosave]
//	jsonify emit -kind trashed -id 42
//	jsonify regenerate
//	jsonify sweep
//	jsonify journal [-limit 20] [-site news]
//
// Configuration is read from JSONIFY_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dailyyoga/jsonify/config"
	"github.com/dailyyoga/jsonify/logger"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"serve", "consume mutation events and run the sweep and rebuild schedules", runServe},
	{"handle", "process one mutation event synchronously", runHandle},
	{"emit", "publish one mutation event to kafka", runEmit},
	{"regenerate", "delete the feed document and rebuild it", runRegenerate},
	{"sweep", "remove expired posts from the feed document", runSweep},
	{"journal", "print recent sync journal rows", runJournal},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: log, stdout: stdout}
	defer a.close()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: jsonify <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.usage)
	}
}
