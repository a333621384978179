package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"eventdesk/config"

	"github.com/segmentio/kafka-go"
)

// AuditService streams admission, reconciliation, deletion and purge events
// to Kafka for downstream analytics and support tooling. It is fire and
// forget: the ledger write has already happened, an audit miss is a log
// line, never a request failure.
type AuditService struct {
	writer *kafka.Writer
}

func NewAuditService() *AuditService {
	s := &AuditService{}
	if config.Env().KafkaBroker == "" {
		return s
	}
	writer, err := config.GetAuditWriter()
	if err != nil {
		log.Printf("audit stream disabled: %v", err)
		return s
	}
	s.writer = writer
	return s
}

type auditEvent struct {
	Type           string    `json:"type"`
	EventId        int       `json:"event_id,omitempty"`
	RegistrationId string    `json:"registration_id,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	At             time.Time `json:"at"`
}

func (s *AuditService) Publish(eventType string, eventId int, registrationId string, detail string) {
	if s.writer == nil {
		return
	}
	message := auditEvent{
		Type:           eventType,
		EventId:        eventId,
		RegistrationId: registrationId,
		Detail:         detail,
		At:             time.Now().UTC(),
	}
	value, err := json.Marshal(message)
	if err != nil {
		log.Printf("failed to marshal audit event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(registrationId),
		Value: value,
	}); err != nil {
		log.Printf("failed to publish audit event %s: %v", eventType, err)
	}
}
