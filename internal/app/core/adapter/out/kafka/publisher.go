package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
)

// DefaultBatchTimeout 同步寫入時湊批次的等待上限 (kafka.Writer 預設為 1s)
const DefaultBatchTimeout = 10 * time.Millisecond

// Config Kafka 連線設定，Brokers 為空時不發布事件
type Config struct {
	Brokers      []string      `yaml:"brokers"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// Enabled 有設定 broker 才啟用
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// MessageWriter kafka.Writer 的最小介面
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 以 JSON 發布領域事件，key 相同的訊息進同一個 partition
type Publisher struct {
	writer MessageWriter
}

func NewPublisher(cfg Config) *Publisher {
	return NewPublisherWithWriter(newWriter(cfg))
}

func newWriter(cfg Config) *kafka.Writer {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewPublisherWithWriter(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ usecase.EventPublisher = (*Publisher)(nil)
