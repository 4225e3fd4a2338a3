package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/utils"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers []string // Kafka broker addresses
}

func kafkaConfigFrom(cfg config.FeedConfig) KafkaConfig {
	brokers := cfg.KafkaBrokers
	if len(brokers) == 0 && cfg.URL != "" {
		brokers = strings.Split(cfg.URL, ",")
	}
	return KafkaConfig{Brokers: brokers}
}

// kafkaTopicName converts a topic to a valid Kafka topic name ("energy/live" -> "energy.live")
func kafkaTopicName(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

// replayOffset is the offset of the newest message in a partition holding
// offsets [first, last). An empty partition starts at first.
func replayOffset(first, last int64) int64 {
	if last > first {
		return last - 1
	}
	return first
}

// KafkaSource implements Source for Kafka.
// Snapshots are keyed by topic so a compacted Kafka topic retains the latest one.
// Readers are not part of a consumer group: every Watch starts at the newest
// message of each partition, so a restarted dashboard gets the current snapshot.
type KafkaSource struct {
	config  KafkaConfig
	codec   *Codec
	dialer  *kafka.Dialer
	cancels map[string]context.CancelFunc
	logger  *logging.Logger
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// NewKafkaSource creates a new Kafka source
func NewKafkaSource(cfg KafkaConfig, codec *Codec) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	return &KafkaSource{
		config:  cfg,
		codec:   codec,
		dialer:  &kafka.Dialer{Timeout: utils.FeedConnectTimeout},
		cancels: make(map[string]context.CancelFunc),
		logger:  logging.Component("feed.kafka"),
	}, nil
}

// Watch starts delivering snapshots of topic to handler
func (s *KafkaSource) Watch(ctx context.Context, topic string, handler SnapshotHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := kafkaTopicName(topic)
	if _, exists := s.cancels[name]; exists {
		return fmt.Errorf("already watching topic: %s", name)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.cancels[name] = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchTopic(watchCtx, name, topic, handler)
	}()

	s.logger.Info("Watching Kafka topic", "topic", name)
	return nil
}

// watchTopic starts one reader per partition of the topic
func (s *KafkaSource) watchTopic(ctx context.Context, name, topic string, handler SnapshotHandler) {
	var partitions []kafka.Partition
	err := s.retry(ctx, "lookup partitions", name, func() error {
		var err error
		partitions, err = s.lookupPartitions(ctx, name)
		return err
	})
	if err != nil {
		return
	}

	var wg sync.WaitGroup
	for _, p := range partitions {
		wg.Add(1)
		go func(partition int) {
			defer wg.Done()
			s.consume(ctx, name, topic, partition, handler)
		}(p.ID)
	}
	wg.Wait()
}

func (s *KafkaSource) lookupPartitions(ctx context.Context, name string) ([]kafka.Partition, error) {
	var lastErr error
	for _, broker := range s.config.Brokers {
		partitions, err := s.dialer.LookupPartitions(ctx, "tcp", broker, name)
		if err != nil {
			lastErr = err
			continue
		}
		if len(partitions) == 0 {
			lastErr = fmt.Errorf("topic %s has no partitions", name)
			continue
		}
		return partitions, nil
	}
	return nil, lastErr
}

// newestOffset asks the partition leader for the offset of its newest message
func (s *KafkaSource) newestOffset(ctx context.Context, name string, partition int) (int64, error) {
	var lastErr error
	for _, broker := range s.config.Brokers {
		conn, err := s.dialer.DialLeader(ctx, "tcp", broker, name, partition)
		if err != nil {
			lastErr = err
			continue
		}
		first, last, err := conn.ReadOffsets()
		_ = conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return replayOffset(first, last), nil
	}
	return 0, lastErr
}

// consume replays the newest message of a partition, then follows new ones
func (s *KafkaSource) consume(ctx context.Context, name, topic string, partition int, handler SnapshotHandler) {
	var offset int64
	err := s.retry(ctx, "read offsets", name, func() error {
		var err error
		offset, err = s.newestOffset(ctx, name, partition)
		return err
	})
	if err != nil {
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   s.config.Brokers,
		Topic:     name,
		Partition: partition,
		Dialer:    s.dialer,
		MinBytes:  1,
		MaxBytes:  10e6, // 10MB
		MaxWait:   3 * time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			s.logger.Debug(fmt.Sprintf(msg, args...))
		}),
	})
	defer func() {
		if err := reader.Close(); err != nil {
			s.logger.Warn("Failed to close reader", "topic", name, "partition", partition, "error", err)
		}
	}()

	if err := reader.SetOffset(offset); err != nil {
		s.logger.Error("Failed to set offset", "topic", name, "partition", partition, "offset", offset, "error", err)
		return
	}
	s.logger.Debug("Kafka partition reader started", "topic", name, "partition", partition, "offset", offset)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("Failed to read message", "topic", name, "partition", partition, "error", err)
			if !sleepCtx(ctx, utils.FeedRetryBackoff) {
				return
			}
			continue
		}

		if err := s.codec.dispatch(ctx, topic, msg.Value, handler); err != nil {
			// Offsets are not committed; the snapshot is skipped and the next one replaces it
			s.logger.Error("Failed to handle snapshot", "topic", name, "offset", msg.Offset, "error", err)
		}
	}
}

// retry runs op until it succeeds or ctx is done
func (s *KafkaSource) retry(ctx context.Context, what, name string, op func() error) error {
	for {
		err := op()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("Kafka request failed, retrying", "op", what, "topic", name, "error", err)
		if !sleepCtx(ctx, utils.FeedRetryBackoff) {
			return ctx.Err()
		}
	}
}

// sleepCtx waits for d; it returns false when ctx is done first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Unwatch stops delivering snapshots of topic
func (s *KafkaSource) Unwatch(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := kafkaTopicName(topic)
	cancel, exists := s.cancels[name]
	if !exists {
		return fmt.Errorf("not watching topic: %s", name)
	}

	cancel()
	delete(s.cancels, name)

	s.logger.Info("Stopped watching Kafka topic", "topic", name)
	return nil
}

// Close stops all readers and waits for them to exit
func (s *KafkaSource) Close() error {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Kafka source closed")
	return nil
}

// KafkaPublisher implements Publisher for Kafka
type KafkaPublisher struct {
	codec  *Codec
	writer *kafka.Writer
}

// NewKafkaPublisher creates a new Kafka publisher
func NewKafkaPublisher(cfg KafkaConfig, codec *Codec) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{codec: codec, writer: writer}, nil
}

// Publish writes a snapshot keyed by topic
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, records []Record) error {
	data, err := p.codec.Encode(records)
	if err != nil {
		return err
	}

	name := kafkaTopicName(topic)
	msg := kafka.Message{
		Topic: name,
		Key:   []byte(topic),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", name, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
