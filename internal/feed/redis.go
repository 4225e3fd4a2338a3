package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/utils"
)

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379) or host:port
	Username string // Optional username
	Password string // Optional password
	DB       int    // Database number (default: 0)
	Stream   string // Stream prefix (default: "aquasense")
	Group    string // Consumer group name (default: "aquasense-dashboard")
	Consumer string // Consumer name (default: hostname)
}

// redisConfigFrom maps the feed section onto RedisConfig
func redisConfigFrom(cfg config.FeedConfig) RedisConfig {
	return RedisConfig{
		URL:      cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.RedisDB,
		Stream:   cfg.RedisStream,
		Group:    cfg.RedisGroup,
		Consumer: cfg.RedisConsumer,
	}
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.URL == "" {
		c.URL = "localhost:6379"
	}
	if c.Stream == "" {
		c.Stream = "aquasense"
	}
	if c.Group == "" {
		c.Group = "aquasense-dashboard"
	}
	if c.Consumer == "" {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "consumer-1"
		}
		c.Consumer = hostname
	}
	return c
}

// newRedisClient connects and pings the server
func newRedisClient(cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		// Fallback to a plain address
		opts = &redis.Options{Addr: cfg.URL, DB: cfg.DB}
	}
	if cfg.Username != "" {
		opts.Username = cfg.Username
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), utils.FeedConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// redisStreamName converts a topic to a Redis stream name: {prefix}:{topic}
func redisStreamName(prefix, topic string) string {
	return fmt.Sprintf("%s:%s", prefix, topic)
}

// RedisSource implements Source for Redis Streams.
// Each entry carries one full snapshot in its "data" field.
type RedisSource struct {
	client  *redis.Client
	codec   *Codec
	config  RedisConfig
	watches map[string]context.CancelFunc
	logger  *logging.Logger
	mu      sync.Mutex
}

// NewRedisSource creates a new Redis Streams source
func NewRedisSource(cfg RedisConfig, codec *Codec) (*RedisSource, error) {
	cfg = cfg.withDefaults()
	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &RedisSource{
		client:  client,
		codec:   codec,
		config:  cfg,
		watches: make(map[string]context.CancelFunc),
		logger:  logging.Component("feed.redis"),
	}, nil
}

// Watch delivers the newest retained snapshot of topic, then every new one
func (s *RedisSource) Watch(ctx context.Context, topic string, handler SnapshotHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := redisStreamName(s.config.Stream, topic)
	if _, exists := s.watches[stream]; exists {
		return fmt.Errorf("already watching stream: %s", stream)
	}

	// New entries only: the current content is read separately below
	err := s.client.XGroupCreateMkStream(ctx, stream, s.config.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.watches[stream] = cancel

	go s.consume(watchCtx, stream, topic, handler)

	s.logger.Info("Watching Redis stream", "stream", stream, "group", s.config.Group, "consumer", s.config.Consumer)
	return nil
}

// consume replays the latest entry and then reads new ones from the group
func (s *RedisSource) consume(ctx context.Context, stream, topic string, handler SnapshotHandler) {
	latest, err := s.client.XRevRangeN(ctx, stream, "+", "-", 1).Result()
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("Failed to read latest snapshot", "stream", stream, "error", err)
	}
	for _, message := range latest {
		s.handle(ctx, stream, topic, message, handler)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.config.Group,
			Consumer: s.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    utils.FeedPollInterval,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			s.logger.Error("Failed to read from stream", "stream", stream, "error", err)
			time.Sleep(utils.FeedRetryBackoff)
			continue
		}

		for _, st := range streams {
			// Only the newest snapshot of a batch matters
			messages := st.Messages
			if len(messages) == 0 {
				continue
			}
			newest := messages[len(messages)-1]
			s.handle(ctx, stream, topic, newest, handler)
			for _, m := range messages {
				s.ack(ctx, stream, m.ID)
			}
		}
	}
}

// handle decodes one entry. A failed entry is logged and still acked:
// it is never redelivered and the next snapshot replaces it.
func (s *RedisSource) handle(ctx context.Context, stream, topic string, message redis.XMessage, handler SnapshotHandler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		s.logger.Warn("Invalid message format", "stream", stream, "id", message.ID)
		return
	}

	if err := s.codec.dispatch(ctx, topic, []byte(data), handler); err != nil {
		s.logger.Error("Failed to handle snapshot", "stream", stream, "id", message.ID, "error", err)
	}
}

func (s *RedisSource) ack(ctx context.Context, stream, id string) {
	if err := s.client.XAck(ctx, stream, s.config.Group, id).Err(); err != nil && ctx.Err() == nil {
		s.logger.Error("Failed to ACK message", "stream", stream, "id", id, "error", err)
	}
}

// Unwatch stops delivering snapshots of topic
func (s *RedisSource) Unwatch(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := redisStreamName(s.config.Stream, topic)
	cancel, exists := s.watches[stream]
	if !exists {
		return fmt.Errorf("not watching stream: %s", stream)
	}

	cancel()
	delete(s.watches, stream)
	s.logger.Info("Stopped watching Redis stream", "stream", stream)
	return nil
}

// Close stops all watches and closes the connection
func (s *RedisSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for stream, cancel := range s.watches {
		cancel()
		s.logger.Debug("Cancelled watch", "stream", stream)
	}
	s.watches = make(map[string]context.CancelFunc)

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	s.logger.Info("Redis source closed")
	return nil
}

// RedisPublisher implements Publisher for Redis Streams
type RedisPublisher struct {
	client *redis.Client
	codec  *Codec
	config RedisConfig
}

// NewRedisPublisher creates a new Redis Streams publisher
func NewRedisPublisher(cfg RedisConfig, codec *Codec) (*RedisPublisher, error) {
	cfg = cfg.withDefaults()
	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RedisPublisher{client: client, codec: codec, config: cfg}, nil
}

// Publish appends a snapshot to the topic's stream, trimming old entries
func (p *RedisPublisher) Publish(ctx context.Context, topic string, records []Record) error {
	data, err := p.codec.Encode(records)
	if err != nil {
		return err
	}

	stream := redisStreamName(p.config.Stream, topic)
	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: utils.FeedStreamMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"data": data,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", stream, err)
	}
	return nil
}

// Close closes the connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
