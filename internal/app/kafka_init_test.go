package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitEventPublisher_EmptyBrokers(t *testing.T) {
	publisher, producer := initEventPublisher(DefaultConfig(), log.WithField("test", "kafka"))

	if publisher != nil {
		t.Error("expected nil publisher for empty brokers")
	}
	if producer != nil {
		t.Error("expected nil producer for empty brokers")
	}
}

func TestInitEventPublisher_UnreachableBrokers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"127.0.0.1:1"}
	publisher, producer := initEventPublisher(cfg, log.WithField("test", "kafka"))

	if publisher != nil {
		t.Error("expected nil publisher when kafka is unreachable")
	}
	if producer != nil {
		t.Error("expected nil producer on error")
	}
}

func TestCloseKafka_NilProducer(t *testing.T) {
	// Не должно паниковать
	closeKafka(nil, log.WithField("test", "kafka"))
}
