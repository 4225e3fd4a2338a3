package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// PredictionTimeout bounds a prediction call when none is configured
	PredictionTimeout = 10 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server
	ShutdownTimeout = 10 * time.Second
)

// Feed Timeouts
const (
	// FeedConnectTimeout is the timeout for the initial broker handshake
	FeedConnectTimeout = 5 * time.Second

	// FeedRetryBackoff is the pause after a failed broker read
	FeedRetryBackoff = time.Second

	// FeedPollInterval is the blocking read interval of stream consumers
	FeedPollInterval = time.Second
)

// =============================================================================
// Buffer Constants
// =============================================================================

const (
	// DefaultBufferSize is the default buffer size for channels
	DefaultBufferSize = 100

	// FeedStreamMaxLen caps retained snapshots per Redis stream
	FeedStreamMaxLen = 100
)

// =============================================================================
// Feed Type Constants
// =============================================================================
// FeedType represents the transport that delivers snapshots
type FeedType string

const (
	// FeedTypeMemory represents the in-process broker (default)
	FeedTypeMemory FeedType = "memory"

	// FeedTypeNATS represents NATS JetStream
	FeedTypeNATS FeedType = "nats"

	// FeedTypeRedis represents Redis Streams
	FeedTypeRedis FeedType = "redis"

	// FeedTypeKafka represents Apache Kafka
	FeedTypeKafka FeedType = "kafka"
)

// Compression names accepted by feed.compression
const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
)
