package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"caterrides-core/internal/models"
)

const (
	TypeApplicationSubmitted = "application_submitted"
	TypeApplicationAccepted  = "application_accepted"
	TypeApplicationRejected  = "application_rejected"
	TypeApplicationWithdrawn = "application_withdrawn"
)

// applicationMessage is the wire shape for lifecycle events. Keyed by event
// id so all messages for one event land in the same partition, in order.
type applicationMessage struct {
	Type        string             `json:"type"`
	Application models.Application `json:"application"`
	EmittedAt   time.Time          `json:"emittedAt"`
}

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

func (p *Producer) publish(msgType string, app models.Application) error {
	msgBytes, err := json.Marshal(applicationMessage{
		Type:        msgType,
		Application: app,
		EmittedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(app.EventID),
			Value: msgBytes,
		},
	)
}

// PublishApplicationSubmitted streams a new pending application.
func (p *Producer) PublishApplicationSubmitted(app models.Application) error {
	return p.publish(TypeApplicationSubmitted, app)
}

// PublishApplicationDecided streams a terminal accept/reject decision.
func (p *Producer) PublishApplicationDecided(app models.Application) error {
	msgType := TypeApplicationAccepted
	if app.Status == models.StatusRejected {
		msgType = TypeApplicationRejected
	}
	return p.publish(msgType, app)
}

// PublishApplicationWithdrawn streams a rider withdrawal.
func (p *Producer) PublishApplicationWithdrawn(app models.Application) error {
	return p.publish(TypeApplicationWithdrawn, app)
}

func (p *Producer) Close() error {
	if p.Writer != nil {
		return p.Writer.Close()
	}
	return nil
}
