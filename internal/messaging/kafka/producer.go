package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const defaultClientID = "quotation-service"

// Message: одно сообщение для отправки: Payload кодируется в JSON.
type Message struct {
	Topic   string
	Key     string
	Payload any
	Headers map[string]string
}

// Delivery: куда брокер записал сообщение.
type Delivery struct {
	Partition int32
	Offset    int64
}

// ProducerOption настраивает sarama.Config перед подключением.
type ProducerOption func(*sarama.Config)

// WithClientID задаёт client.id, под которым producer виден брокеру.
func WithClientID(id string) ProducerOption {
	return func(cfg *sarama.Config) {
		if id != "" {
			cfg.ClientID = id
		}
	}
}

// WithSendTimeout ограничивает ожидание подтверждения от брокера.
func WithSendTimeout(timeout time.Duration) ProducerOption {
	return func(cfg *sarama.Config) {
		if timeout > 0 {
			cfg.Producer.Timeout = timeout
		}
	}
}

// Producer: синхронный producer событий смет.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewProducer подключается к брокерам с идемпотентной отправкой и acks=all.
func NewProducer(brokers []string, opts ...ProducerOption) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = defaultClientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	for _, opt := range opts {
		opt(cfg)
	}

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return NewProducerFromSync(producer, nil), nil
}

// NewProducerFromSync оборачивает готовый SyncProducer, в тестах это mocks.SyncProducer.
func NewProducerFromSync(producer sarama.SyncProducer, logger *log.Entry) *Producer {
	if logger == nil {
		logger = log.WithField("component", "kafka-producer")
	}
	return &Producer{producer: producer, logger: logger}
}

// Send кодирует и отправляет сообщение. Отменённый ctx не доходит до брокера.
func (p *Producer) Send(ctx context.Context, msg Message) (Delivery, error) {
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}

	value, err := json.Marshal(msg.Payload)
	if err != nil {
		return Delivery{}, fmt.Errorf("marshal kafka payload: %w", err)
	}

	out := &sarama.ProducerMessage{
		Topic:     msg.Topic,
		Key:       sarama.StringEncoder(msg.Key),
		Value:     sarama.ByteEncoder(value),
		Headers:   recordHeaders(msg.Headers),
		Timestamp: time.Now(),
	}

	fields := log.Fields{"topic": msg.Topic, "key": msg.Key}
	partition, offset, err := p.producer.SendMessage(out)
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Error("kafka send failed")
		return Delivery{}, fmt.Errorf("send kafka message: %w", err)
	}

	p.logger.WithFields(fields).WithFields(log.Fields{
		"partition": partition,
		"offset":    offset,
	}).Debug("kafka message sent")

	return Delivery{Partition: partition, Offset: offset}, nil
}

// Close закрывает соединение с брокерами.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

// recordHeaders сортирует заголовки по имени, чтобы порядок не зависел от map.
func recordHeaders(headers map[string]string) []sarama.RecordHeader {
	if len(headers) == 0 {
		return nil
	}
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]sarama.RecordHeader, 0, len(names))
	for _, name := range names {
		out = append(out, sarama.RecordHeader{Key: []byte(name), Value: []byte(headers[name])})
	}
	return out
}
