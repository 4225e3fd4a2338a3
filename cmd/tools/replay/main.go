// Command replay publishes recorded store snapshots to the configured feed.
//
// Each input file holds one topic's content as exported from the store, an
// object keyed by record id:
//
//	replay -config config.yml -snapshot doData=do.json -snapshot phData=ph.json
//	replay -snapshot doData=do.json -interval 5s -count 10
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/feed"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/utils"
)

// snapshotFlags collects repeated topic=path arguments
type snapshotFlags []string

func (s *snapshotFlags) String() string { return strings.Join(*s, ",") }

func (s *snapshotFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected topic=path, got %q", v)
	}
	*s = append(*s, v)
	return nil
}

func main() {
	var snapshots snapshotFlags
	configPath := flag.String("config", "", "Path to configuration file")
	interval := flag.Duration("interval", 0, "Pause between rounds; 0 publishes once")
	count := flag.Int("count", 1, "Number of rounds when interval is set (0 = until interrupted)")
	flag.Var(&snapshots, "snapshot", "topic=path of a snapshot file (repeatable)")
	flag.Parse()

	if len(snapshots) == 0 {
		fmt.Fprintln(os.Stderr, "at least one -snapshot topic=path is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadOrDefault(*configPath)
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	loaded, err := loadSnapshots(snapshots)
	if err != nil {
		logger.Fatal("Failed to load snapshots", "error", err)
	}

	if feed.IsMemory(cfg.Feed) {
		logger.Warn("Feed type is memory; snapshots stay inside this process")
	}

	publisher, err := feed.NewPublisher(cfg.Feed)
	if err != nil {
		logger.Fatal("Failed to connect to feed", "type", cfg.Feed.Type, "error", err)
	}
	defer func() { _ = publisher.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for round := 1; ; round++ {
		for _, s := range loaded {
			pubCtx, cancel := context.WithTimeout(ctx, utils.DefaultRequestTimeout)
			err := publisher.Publish(pubCtx, s.Topic, s.Records)
			cancel()
			if err != nil {
				logger.Fatal("Publish failed", "topic", s.Topic, "error", err)
			}
			logger.Info("Snapshot published", "topic", s.Topic, "records", s.Len(), "round", round)
		}

		if *interval <= 0 || (*count > 0 && round >= *count) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(*interval):
		}
	}
}

// loadSnapshots reads every topic=path pair as an uncompressed store export
func loadSnapshots(args []string) ([]feed.Snapshot, error) {
	codec, err := feed.NewCodec(utils.CompressionNone)
	if err != nil {
		return nil, err
	}

	out := make([]feed.Snapshot, 0, len(args))
	for _, arg := range args {
		topic, path, _ := strings.Cut(arg, "=")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		snapshot, err := codec.Decode(topic, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, snapshot)
	}
	return out, nil
}
