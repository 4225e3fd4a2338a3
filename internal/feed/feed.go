// Package feed delivers store snapshots of the sensor topics.
//
// A snapshot is the full current content of one topic: a JSON object mapping
// record ids to records. Sources push a fresh snapshot every time the topic
// changes; the consumer replaces what it held before.
package feed

import (
	"context"
	"time"

	"github.com/aquasense/aquasense/internal/analytics"
)

// Record is one raw entry of a snapshot
type Record = analytics.Record

// Snapshot is the decoded content of a topic at one point in time.
// Records keep the document order of the payload.
type Snapshot struct {
	Topic      string    `json:"topic"`
	Records    []Record  `json:"records"`
	ReceivedAt time.Time `json:"received_at"`
}

// Len returns the number of records in the snapshot
func (s Snapshot) Len() int {
	return len(s.Records)
}

// SnapshotHandler processes a decoded snapshot
type SnapshotHandler func(ctx context.Context, snapshot Snapshot) error

// Source watches topics and delivers their snapshots
type Source interface {
	// Watch starts delivering snapshots of topic to handler
	Watch(ctx context.Context, topic string, handler SnapshotHandler) error

	// Unwatch stops delivering snapshots of topic
	Unwatch(topic string) error

	// Close stops all watches and releases resources
	Close() error
}

// Publisher pushes snapshots to a feed
type Publisher interface {
	// Publish encodes records and publishes them as the new content of topic
	Publish(ctx context.Context, topic string, records []Record) error

	// Close closes the connection
	Close() error
}
