package kafka

import (
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// Topics для Kafka.
const (
	TopicQuotationEvents = "qms.quotation.events"
)

// Kafka headers.
const (
	HeaderEventType = "x-event-type"
	HeaderEventID   = "x-event-id"
)

// QuotationEvent: сообщение о жизненном цикле сметы в топике.
type QuotationEvent struct {
	ID          string                 `json:"id"`
	EventType   domain.EventType       `json:"event_type"`
	QuotationID int64                  `json:"quotation_id"`
	ClientID    int64                  `json:"client_id"`
	Status      string                 `json:"status"`
	TotalPrice  int64                  `json:"total_price"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewQuotationEvent строит сообщение из доменного события и присваивает ему ID.
func NewQuotationEvent(event domain.QuotationEvent) *QuotationEvent {
	ts := event.Occurred
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &QuotationEvent{
		ID:          uuid.NewString(),
		EventType:   event.Type,
		QuotationID: event.QuotationID,
		ClientID:    event.ClientID,
		Status:      string(event.Status),
		TotalPrice:  event.TotalPrice,
		Timestamp:   ts,
		Metadata:    event.Metadata,
	}
}
