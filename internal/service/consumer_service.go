package service

import (
	"context"

	"workspace-context-be/internal/pkg/logger"
	"workspace-context-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// EventRelay forwards events off the process, e.g. to NATS JetStream
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	relay      EventRelay // nil when no broker is configured
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	relay EventRelay,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		relay:      relay,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: a broker outage must not turn into an endless redelivery loop
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var evt events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		msg.Ack()
		return
	}

	if cs.relay == nil {
		cs.logger.Debug("ConsumerService", "Event consumed", map[string]interface{}{"type": evt.Type})
		msg.Ack()
		return
	}

	if err := cs.relay.Publish(ctx, evt); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to relay event", map[string]interface{}{
			"type":  evt.Type,
			"error": err.Error(),
		})
	}
	msg.Ack()
}
