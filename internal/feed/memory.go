package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/utils"
)

// memoryWatch represents an active watch
type memoryWatch struct {
	handler SnapshotHandler
	ctx     context.Context
	cancel  context.CancelFunc
	ch      chan []byte
}

// MemoryBroker is an in-process broker that retains the latest payload per topic,
// so a new watcher immediately receives the current content
type MemoryBroker struct {
	watchers map[string][]*memoryWatch
	retained map[string][]byte
	mu       sync.RWMutex
}

var (
	defaultBroker     *MemoryBroker
	defaultBrokerOnce sync.Once
)

// NewMemoryBroker creates an empty broker
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		watchers: make(map[string][]*memoryWatch),
		retained: make(map[string][]byte),
	}
}

// DefaultMemoryBroker returns the process-wide broker used by the factory
func DefaultMemoryBroker() *MemoryBroker {
	defaultBrokerOnce.Do(func() {
		defaultBroker = NewMemoryBroker()
	})
	return defaultBroker
}

// publish retains data and fans it out to every watcher of topic
func (b *MemoryBroker) publish(topic string, data []byte) {
	b.mu.Lock()
	b.retained[topic] = data
	watchers := append([]*memoryWatch(nil), b.watchers[topic]...)
	b.mu.Unlock()

	for _, w := range watchers {
		offer(w, topic, data)
	}
}

func (b *MemoryBroker) register(topic string, w *memoryWatch) {
	b.mu.Lock()
	b.watchers[topic] = append(b.watchers[topic], w)
	data, ok := b.retained[topic]
	b.mu.Unlock()

	if ok {
		offer(w, topic, data)
	}
}

func (b *MemoryBroker) unregister(topic string, w *memoryWatch) {
	b.mu.Lock()
	defer b.mu.Unlock()

	watchers := b.watchers[topic]
	for i, bw := range watchers {
		if bw == w {
			b.watchers[topic] = append(watchers[:i], watchers[i+1:]...)
			break
		}
	}
}

// offer hands data to a watcher. Snapshots supersede each other, so when the
// watcher lags behind the oldest pending one is dropped.
func offer(w *memoryWatch, topic string, data []byte) {
	for {
		select {
		case w.ch <- data:
			return
		default:
		}
		select {
		case <-w.ch:
			logging.Component("feed.memory").Debug("Watcher lagging, superseding pending snapshot", "topic", topic)
		default:
		}
	}
}

// MemorySource implements Source on top of a MemoryBroker
type MemorySource struct {
	broker  *MemoryBroker
	codec   *Codec
	watches map[string]*memoryWatch
	logger  *logging.Logger
	mu      sync.Mutex
}

// NewMemorySource creates a source reading from broker
func NewMemorySource(broker *MemoryBroker, codec *Codec) *MemorySource {
	return &MemorySource{
		broker:  broker,
		codec:   codec,
		watches: make(map[string]*memoryWatch),
		logger:  logging.Component("feed.memory"),
	}
}

// Watch starts delivering snapshots of topic to handler
func (s *MemorySource) Watch(ctx context.Context, topic string, handler SnapshotHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.watches[topic]; exists {
		return fmt.Errorf("already watching topic: %s", topic)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &memoryWatch{
		handler: handler,
		ctx:     watchCtx,
		cancel:  cancel,
		ch:      make(chan []byte, utils.DefaultBufferSize),
	}
	s.watches[topic] = w

	go s.consume(w, topic)
	s.broker.register(topic, w)

	s.logger.Info("Watching in-memory topic", "topic", topic)
	return nil
}

// consume decodes payloads and processes them
func (s *MemorySource) consume(w *memoryWatch, topic string) {
	for {
		select {
		case <-w.ctx.Done():
			return
		case data := <-w.ch:
			if err := s.codec.dispatch(w.ctx, topic, data, w.handler); err != nil {
				s.logger.Error("Failed to handle snapshot", "topic", topic, "error", err)
			}
		}
	}
}

// Unwatch stops delivering snapshots of topic
func (s *MemorySource) Unwatch(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.watches[topic]
	if !exists {
		return fmt.Errorf("not watching topic: %s", topic)
	}

	w.cancel()
	s.broker.unregister(topic, w)
	delete(s.watches, topic)

	s.logger.Info("Stopped watching in-memory topic", "topic", topic)
	return nil
}

// Close stops all watches
func (s *MemorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for topic, w := range s.watches {
		w.cancel()
		s.broker.unregister(topic, w)
	}
	s.watches = make(map[string]*memoryWatch)

	s.logger.Info("Memory source closed")
	return nil
}

// MemoryPublisher implements Publisher on top of a MemoryBroker
type MemoryPublisher struct {
	broker *MemoryBroker
	codec  *Codec
}

// NewMemoryPublisher creates a publisher writing to broker
func NewMemoryPublisher(broker *MemoryBroker, codec *Codec) *MemoryPublisher {
	return &MemoryPublisher{broker: broker, codec: codec}
}

// Publish encodes records and replaces the content of topic
func (p *MemoryPublisher) Publish(ctx context.Context, topic string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := p.codec.Encode(records)
	if err != nil {
		return err
	}
	p.broker.publish(topic, data)
	return nil
}

// Close is a no-op: the broker outlives its publishers
func (p *MemoryPublisher) Close() error {
	return nil
}
