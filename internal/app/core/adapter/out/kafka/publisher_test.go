package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs   []kafka.Message
	closed bool
	err    error
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesJSONWithKey(t *testing.T) {
	w := &captureWriter{}
	p := NewPublisherWithWriter(w)

	err := p.Publish(context.Background(), "ledger.entry_recorded", "7", map[string]any{"invoice_no": "WIT-0000abcd"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "ledger.entry_recorded", msg.Topic)
	assert.Equal(t, []byte("7"), msg.Key)
	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "WIT-0000abcd", body["invoice_no"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishErrors(t *testing.T) {
	p := NewPublisherWithWriter(&captureWriter{err: assert.AnError})
	assert.ErrorIs(t, p.Publish(context.Background(), "t", "k", struct{}{}), assert.AnError)

	assert.Error(t, p.Publish(context.Background(), "t", "k", make(chan int)))
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Brokers: []string{"localhost:9092"}}.Enabled())
	assert.NotNil(t, NewPublisher(Config{Brokers: []string{"localhost:9092"}}))
}

func TestNewWriterDefaults(t *testing.T) {
	w := newWriter(Config{Brokers: []string{"localhost:9092"}})
	assert.Equal(t, DefaultBatchTimeout, w.BatchTimeout)
	assert.Equal(t, 5*time.Second, w.WriteTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)

	w = newWriter(Config{Brokers: []string{"localhost:9092"}, BatchTimeout: 50 * time.Millisecond})
	assert.Equal(t, 50*time.Millisecond, w.BatchTimeout)
}
