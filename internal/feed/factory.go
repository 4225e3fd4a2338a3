package feed

import (
	"fmt"
	"strings"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/utils"
)

func feedType(cfg config.FeedConfig) utils.FeedType {
	t := utils.FeedType(strings.ToLower(cfg.Type))
	// Default to the in-process broker if not specified
	if t == "" {
		t = utils.FeedTypeMemory
	}
	return t
}

// NewSource creates a Source based on the feed configuration
func NewSource(cfg config.FeedConfig) (Source, error) {
	codec, err := NewCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	switch t := feedType(cfg); t {
	case utils.FeedTypeMemory:
		return NewMemorySource(DefaultMemoryBroker(), codec), nil
	case utils.FeedTypeNATS:
		return NewNATSSource(natsConfigFrom(cfg), codec)
	case utils.FeedTypeRedis:
		return NewRedisSource(redisConfigFrom(cfg), codec)
	case utils.FeedTypeKafka:
		return NewKafkaSource(kafkaConfigFrom(cfg), codec)
	default:
		return nil, fmt.Errorf("unsupported feed type: %s (supported: memory, nats, redis, kafka)", t)
	}
}

// NewPublisher creates a Publisher based on the feed configuration
func NewPublisher(cfg config.FeedConfig) (Publisher, error) {
	codec, err := NewCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	switch t := feedType(cfg); t {
	case utils.FeedTypeMemory:
		return NewMemoryPublisher(DefaultMemoryBroker(), codec), nil
	case utils.FeedTypeNATS:
		return NewNATSPublisher(natsConfigFrom(cfg), codec)
	case utils.FeedTypeRedis:
		return NewRedisPublisher(redisConfigFrom(cfg), codec)
	case utils.FeedTypeKafka:
		return NewKafkaPublisher(kafkaConfigFrom(cfg), codec)
	default:
		return nil, fmt.Errorf("unsupported feed type: %s (supported: memory, nats, redis, kafka)", t)
	}
}

// IsMemory reports whether cfg selects the in-process broker
func IsMemory(cfg config.FeedConfig) bool {
	return feedType(cfg) == utils.FeedTypeMemory
}
