package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/snappy"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/utils"
)

// Codec turns record lists into wire payloads and back
type Codec struct {
	compression string
}

// NewCodec creates a codec for the given compression ("", "none" or "snappy")
func NewCodec(compression string) (*Codec, error) {
	switch c := strings.ToLower(compression); c {
	case "", utils.CompressionNone:
		return &Codec{compression: utils.CompressionNone}, nil
	case utils.CompressionSnappy:
		return &Codec{compression: c}, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", compression)
	}
}

// Compression returns the codec's compression name
func (c *Codec) Compression() string {
	return c.compression
}

// Encode writes records as a JSON object keyed by record id, in slice order
func (c *Codec) Encode(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record id %q: %w", r.ID, err)
		}
		fields := r.Fields
		if fields == nil {
			fields = map[string]interface{}{}
		}
		value, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record %q: %w", r.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	if c.compression == utils.CompressionSnappy {
		return snappy.Encode(nil, buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// Decode parses a payload into a snapshot of topic.
// A JSON null or an empty payload is an empty snapshot. Numbers are kept as
// json.Number so large epoch values survive unchanged.
func (c *Codec) Decode(topic string, data []byte) (Snapshot, error) {
	snapshot := Snapshot{Topic: topic, Records: []Record{}, ReceivedAt: time.Now()}

	if c.compression == utils.CompressionSnappy && len(data) > 0 {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return snapshot, fmt.Errorf("failed to decompress snapshot: %w", err)
		}
		data = decoded
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return snapshot, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return snapshot, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if tok == nil {
		return snapshot, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return snapshot, fmt.Errorf("snapshot must be a JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return snapshot, fmt.Errorf("failed to decode record id: %w", err)
		}
		id, ok := keyTok.(string)
		if !ok {
			return snapshot, fmt.Errorf("unexpected record id token %v", keyTok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return snapshot, fmt.Errorf("failed to decode record %q: %w", id, err)
		}
		snapshot.Records = append(snapshot.Records, analytics.NewRecord(id, value))
	}

	if _, err := dec.Token(); err != nil {
		return snapshot, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return snapshot, fmt.Errorf("unexpected data after snapshot object")
	}
	return snapshot, nil
}

// dispatch decodes one payload and hands it to handler
func (c *Codec) dispatch(ctx context.Context, topic string, data []byte, handler SnapshotHandler) error {
	snapshot, err := c.Decode(topic, data)
	if err != nil {
		return err
	}
	return handler(logging.WithTopic(ctx, topic), snapshot)
}
