package quota

import (
	"context"
	"encoding/json"
	"fmt"

	"nodeagent/internal/common/mq"
	appErr "nodeagent/pkg/errors"
)

// EventPublisher announces quota events to whoever enforces them.
type EventPublisher interface {
	PublishExceeded(ctx context.Context, event Event) error
}

// MQEventPublisher publishes quota events to a message queue keyed by handle.
type MQEventPublisher struct {
	producer mq.Producer
	topic    string
}

func NewMQEventPublisher(producer mq.Producer, topic string) *MQEventPublisher {
	return &MQEventPublisher{producer: producer, topic: topic}
}

func (p *MQEventPublisher) PublishExceeded(ctx context.Context, event Event) error {
	if p == nil || p.producer == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("quota publisher is not configured")
	}
	if p.topic == "" {
		return appErr.New(appErr.InvalidParams).WithMessage("quota topic is required")
	}
	if event.Handle == "" {
		return appErr.ValidationError("handle", "required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal quota event failed: %w", err)
	}
	message := mq.NewMessage(event.Handle, payload)
	message.SetHeader("event", event.Type)
	if err := p.producer.Publish(ctx, p.topic, message); err != nil {
		return appErr.Wrapf(err, appErr.ServiceUnavailable, "publish quota event failed")
	}
	return nil
}
