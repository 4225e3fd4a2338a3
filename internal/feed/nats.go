package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/logging"
)

// NATSConfig represents NATS JetStream configuration
type NATSConfig struct {
	URL      string // NATS URL (e.g., nats://localhost:4222)
	Username string // Optional authentication
	Password string // Optional authentication
	Stream   string // JetStream stream name (default: "AQUASENSE")
}

func natsConfigFrom(cfg config.FeedConfig) NATSConfig {
	return NATSConfig{
		URL:      cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
		Stream:   cfg.NATSStream,
	}
}

func (c NATSConfig) withDefaults() NATSConfig {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Stream == "" {
		c.Stream = "AQUASENSE"
	}
	return c
}

// subjectPrefix is the lower-cased stream name; every topic lives under it
func (c NATSConfig) subjectPrefix() string {
	return strings.ToLower(c.Stream)
}

// natsSubject converts a topic such as "energy/live" to "aquasense.energy.live"
func natsSubject(prefix, topic string) string {
	sanitized := strings.Trim(topic, "/")
	sanitized = strings.ReplaceAll(sanitized, "/", ".")
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "*", "all")
	sanitized = strings.ReplaceAll(sanitized, ">", "all")
	return prefix + "." + sanitized
}

// connectNATS opens a connection and a JetStream context, and makes sure the
// snapshot stream exists. The stream keeps only the latest message per subject.
func connectNATS(cfg NATSConfig, logger *logging.Logger) (*nats.Conn, nats.JetStreamContext, error) {
	opts := []nats.Option{
		nats.Name("aquasense-feed"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(js, cfg); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, js, nil
}

// ensureStream creates the snapshot stream when it does not exist yet
func ensureStream(js nats.JetStreamContext, cfg NATSConfig) error {
	if _, err := js.StreamInfo(cfg.Stream); err == nil {
		return nil
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:              cfg.Stream,
		Subjects:          []string{cfg.subjectPrefix() + ".>"},
		Retention:         nats.LimitsPolicy,
		MaxMsgsPerSubject: 1,
		Storage:           nats.FileStorage,
		Replicas:          1,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create stream %s: %w", cfg.Stream, err)
	}
	return nil
}

// NATSSource implements Source for NATS JetStream
type NATSSource struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	codec   *Codec
	config  NATSConfig
	watches map[string]*nats.Subscription
	logger  *logging.Logger
	mu      sync.Mutex
}

// NewNATSSource creates a new NATS source
func NewNATSSource(cfg NATSConfig, codec *Codec) (*NATSSource, error) {
	cfg = cfg.withDefaults()
	logger := logging.Component("feed.nats")

	conn, js, err := connectNATS(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &NATSSource{
		conn:    conn,
		js:      js,
		codec:   codec,
		config:  cfg,
		watches: make(map[string]*nats.Subscription),
		logger:  logger,
	}, nil
}

// Watch delivers the retained snapshot of topic, then every new one
func (s *NATSSource) Watch(ctx context.Context, topic string, handler SnapshotHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.watches[topic]; exists {
		return fmt.Errorf("already watching topic: %s", topic)
	}

	subject := natsSubject(s.config.subjectPrefix(), topic)
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			_ = msg.Nak()
			return
		}

		if err := s.codec.dispatch(ctx, topic, msg.Data, handler); err != nil {
			s.logger.Error("Failed to handle snapshot",
				"subject", msg.Subject,
				"error", err,
				"data_preview", string(msg.Data[:min(100, len(msg.Data))]))
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverLast(),
		nats.ManualAck(),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.watches[topic] = sub
	s.logger.Info("Watching subject", "topic", topic, "subject", subject)
	return nil
}

// Unwatch stops delivering snapshots of topic
func (s *NATSSource) Unwatch(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.watches[topic]
	if !exists {
		return fmt.Errorf("not watching topic: %s", topic)
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", topic, err)
	}

	delete(s.watches, topic)
	s.logger.Info("Stopped watching subject", "topic", topic)
	return nil
}

// Close closes all subscriptions and the connection
func (s *NATSSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for topic, sub := range s.watches {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("Failed to unsubscribe", "topic", topic, "error", err)
		}
	}
	s.watches = make(map[string]*nats.Subscription)

	s.conn.Close()
	s.logger.Info("NATS source closed")
	return nil
}

// NATSPublisher implements Publisher for NATS JetStream
type NATSPublisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	codec  *Codec
	config NATSConfig
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(cfg NATSConfig, codec *Codec) (*NATSPublisher, error) {
	cfg = cfg.withDefaults()
	conn, js, err := connectNATS(cfg, logging.Component("feed.nats"))
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn, js: js, codec: codec, config: cfg}, nil
}

// Publish stores records as the latest snapshot of topic
func (p *NATSPublisher) Publish(ctx context.Context, topic string, records []Record) error {
	data, err := p.codec.Encode(records)
	if err != nil {
		return err
	}

	subject := natsSubject(p.config.subjectPrefix(), topic)
	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the connection
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
