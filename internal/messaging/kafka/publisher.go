package kafka

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/resilience"
)

// Publisher публикует события смет в Kafka, ключ сообщения: ID сметы,
// поэтому события одной сметы попадают в одну партицию по порядку.
type Publisher struct {
	producer *Producer
	topic    string
	retry    resilience.RetryConfig
	logger   *log.Entry
}

// NewPublisher создаёт publisher поверх producer. Пустой topic заменяется на TopicQuotationEvents.
func NewPublisher(producer *Producer, topic string, logger *log.Entry) *Publisher {
	if topic == "" {
		topic = TopicQuotationEvents
	}
	if logger == nil {
		logger = log.WithField("component", "quotation-events")
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
		retry:    resilience.DefaultRetryConfig(),
		logger:   logger,
	}
}

// WithRetry задаёт политику повторов отправки.
func (p *Publisher) WithRetry(cfg resilience.RetryConfig) *Publisher {
	p.retry = cfg
	return p
}

// Publish реализует domain.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event domain.QuotationEvent) error {
	msg := NewQuotationEvent(event)
	key := strconv.FormatInt(event.QuotationID, 10)
	headers := map[string]string{
		HeaderEventType: string(msg.EventType),
		HeaderEventID:   msg.ID,
	}

	return resilience.Retry(ctx, p.retry, p.logger, "publish "+string(msg.EventType), func(ctx context.Context) error {
		_, err := p.producer.Send(ctx, Message{Topic: p.topic, Key: key, Payload: msg, Headers: headers})
		return err
	})
}

var _ domain.EventPublisher = (*Publisher)(nil)
