package service

import (
	"context"
	"fmt"

	"workspace-context-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

// Publish puts the event on the in-process topic; the consumer relays it onward
func (ps *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(events.New(event.EventType(), event.Payload(), event.Timestamp()))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.EventType())

	return ps.publisher.Publish(ps.topicName, msg)
}
