package domain

import "time"

// Типы событий истории сметы.
const (
	TimelineQuotationCreated   = "QuotationCreated"
	TimelineQuotationUpdated   = "QuotationUpdated"
	TimelineQuotationCompleted = "QuotationCompleted"
	TimelineLineItemsAdded     = "LineItemsAdded"
	TimelineTotalRecomputed    = "TotalRecomputed"
)

// TimelineEvent описывает событие в жизненном цикле сметы.
type TimelineEvent struct {
	QuotationID int64
	Type        string
	Reason      string
	Occurred    time.Time
}

// EventType: тип публикуемого события сметы.
type EventType string

const (
	EventQuotationCreated        EventType = "quotation.created"
	EventQuotationLineItemsAdded EventType = "quotation.line_items_added"
	EventQuotationUpdated        EventType = "quotation.updated"
	EventQuotationFinalized      EventType = "quotation.finalized"
	EventQuotationDeleted        EventType = "quotation.deleted"
)

// QuotationEvent: событие, которое уходит во внешний брокер.
type QuotationEvent struct {
	Type        EventType
	QuotationID int64
	ClientID    int64
	Status      QuotationStatus
	TotalPrice  int64
	Occurred    time.Time
	Metadata    map[string]any
}
