// Command node runs a single simulated network process: one node
// participating in the file-channel network described in spec.md.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"meshnet/channelfs"
	"meshnet/node"
	"meshnet/wire"
)

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	lg := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	adapter := channelfs.NewAdapter(afero.NewOsFs(), "channels", "output")
	if err := adapter.EnsureDirs(); err != nil {
		log.Fatal(err)
	}

	n := node.New(cfg, adapter, lg)
	if err := n.Run(); err != nil {
		log.Fatal(err)
	}
	os.Exit(0)
}

// parseArgs implements the positional CLI grammar of spec.md §6:
//
//	source node:     <id> <duration> <dest_id> <message> <starting_time> <neighbor_digits...>
//	non-source node: <id> <duration> <dest_id> <neighbor_digits...>
//
// Disambiguation: a source node is indicated by args[3] (0-indexed within
// args, which excludes the program name: the argument right after
// id/duration/dest_id) being non-numeric, i.e. the message text rather than
// a neighbor digit.
func parseArgs(args []string) (node.Config, error) {
	if len(args) < 3 {
		return node.Config{}, fmt.Errorf("meshnet: need at least id, duration, dest_id")
	}

	id, errID := parseNodeIDArg(args[0])
	duration, errDur := strconv.Atoi(args[1])
	destID, errDest := parseNodeIDArg(args[2])

	isSource := len(args) >= 4 && !isAllDigits(args[3])

	var message string
	startingTime := -1
	neighborArgs := args[3:]
	var errStart error
	if isSource {
		if len(args) < 5 {
			return node.Config{}, fmt.Errorf("meshnet: source node requires message and starting_time")
		}
		message = args[3]
		startingTime, errStart = strconv.Atoi(args[4])
		neighborArgs = args[5:]
	}

	neighbors := make([]wire.NodeID, 0, len(neighborArgs))
	var neighborErrs error
	for _, a := range neighborArgs {
		nid, err := parseNodeIDArg(a)
		if err != nil {
			neighborErrs = multierr.Append(neighborErrs, fmt.Errorf("neighbor %q: %w", a, err))
			continue
		}
		if nid == id {
			neighborErrs = multierr.Append(neighborErrs, fmt.Errorf("neighbor %q: equals own id", a))
			continue
		}
		neighbors = append(neighbors, nid)
	}

	err := multierr.Combine(
		wrapErr("id", errID),
		wrapErr("duration", errDur),
		wrapErr("dest_id", errDest),
		wrapErr("starting_time", errStart),
		neighborErrs,
	)
	if err != nil {
		return node.Config{}, err
	}

	cfg := node.Config{
		ID:           id,
		Duration:     duration,
		DestID:       destID,
		Message:      message,
		StartingTime: startingTime,
		Neighbors:    neighbors,
	}
	if violations := validate(cfg); violations != nil {
		return node.Config{}, violations
	}
	return cfg, nil
}

// validate enforces spec.md §6's precondition constraints, aggregating
// every violation instead of stopping at the first.
func validate(cfg Config) error {
	var errs error
	if cfg.Duration < 5 || cfg.Duration > 180 {
		errs = multierr.Append(errs, fmt.Errorf("meshnet: duration %d out of range [5,180]", cfg.Duration))
	}
	for _, c := range cfg.Message {
		if c <= 31 || c >= 127 {
			errs = multierr.Append(errs, fmt.Errorf("meshnet: message contains out-of-range character %q", c))
			break
		}
	}
	hasMessage := cfg.Message != ""
	hasStart := cfg.StartingTime != -1
	if hasMessage != hasStart {
		errs = multierr.Append(errs, fmt.Errorf("meshnet: message empty iff starting_time == -1"))
	}
	if hasStart && (cfg.StartingTime < 0 || cfg.StartingTime > cfg.Duration) {
		errs = multierr.Append(errs, fmt.Errorf("meshnet: starting_time %d out of range [0,%d]", cfg.StartingTime, cfg.Duration))
	}
	return errs
}

type Config = node.Config

func wrapErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("meshnet: invalid %s: %w", name, err)
}

func parseNodeIDArg(s string) (wire.NodeID, error) {
	return wire.ParseNodeIDString(s)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
