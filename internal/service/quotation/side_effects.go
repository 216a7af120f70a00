package quotation

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// Побочные эффекты (история, счётчики покупок, события) не должны ломать основную операцию:
// ошибки логируются и учитываются в метриках.

func (s *Service) appendTimeline(ctx context.Context, quotationID int64, eventType, reason string) {
	if s.timeline == nil {
		return
	}
	err := s.timeline.Append(ctx, domain.TimelineEvent{
		QuotationID: quotationID,
		Type:        eventType,
		Reason:      reason,
		Occurred:    s.now().UTC(),
	})
	if err != nil {
		s.metrics.RecordSideEffectFailure("timeline")
		s.logger.WithError(err).WithFields(log.Fields{
			"quotation_id": quotationID,
			"type":         eventType,
		}).Warn("failed to append timeline event")
		return
	}
	s.metrics.RecordTimelineEvent()
}

func (s *Service) recordPurchase(ctx context.Context, clientID, productID int64) {
	if s.purchases == nil {
		return
	}
	if err := s.purchases.RecordPurchase(ctx, clientID, productID); err != nil {
		s.metrics.RecordSideEffectFailure("purchase_counter")
		s.logger.WithError(err).WithFields(log.Fields{
			"client_id":  clientID,
			"product_id": productID,
		}).Warn("failed to record purchase")
	}
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, q domain.Quotation, metadata map[string]any) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, domain.QuotationEvent{
		Type:        eventType,
		QuotationID: q.ID,
		ClientID:    q.ClientID,
		Status:      q.Status,
		TotalPrice:  q.TotalPrice,
		Occurred:    s.now().UTC(),
		Metadata:    metadata,
	})
	if err != nil {
		s.metrics.RecordSideEffectFailure("events")
		s.logger.WithError(err).WithFields(log.Fields{
			"quotation_id": q.ID,
			"event_type":   eventType,
		}).Warn("failed to publish quotation event")
	}
}
