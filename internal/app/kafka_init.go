package app

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/qms/internal/resilience"
	"github.com/vladislavdragonenkov/qms/internal/version"
)

const kafkaSendTimeout = 5 * time.Second

// initEventPublisher создаёт публикатор событий смет, если заданы брокеры.
// Ошибка подключения не останавливает запуск: события просто не публикуются.
// Публикатор закрыт breaker'ом с теми же настройками, что и хранилища.
func initEventPublisher(cfg Config, logger *log.Entry) (domain.EventPublisher, *kafka.Producer) {
	brokers, topic := cfg.KafkaBrokers, cfg.KafkaTopic
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers,
		kafka.WithClientID(version.ServiceName),
		kafka.WithSendTimeout(kafkaSendTimeout),
	)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without quotation events")
		return nil, nil
	}

	logger.WithFields(log.Fields{"brokers": brokers, "topic": topic}).Info("kafka producer initialized")
	publisher := kafka.NewPublisher(producer, topic, logger.WithField("component", "quotation-events"))
	breaker := resilience.NewCircuitBreaker("events", cfg.BreakerMaxFailures, cfg.BreakerResetTimeout,
		logger.WithField("component", "circuit-breaker"))
	return resilience.GuardEventPublisher(publisher, breaker), producer
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
