package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher puts a JSON message on a queue.
type Publisher interface {
	Publish(ctx context.Context, queueName, messageID string, message any) error
}

// ChannelPublisher publishes on one amqp channel. Channels must not be
// used by several goroutines at once, so publishes are serialized.
type ChannelPublisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

var _ Publisher = (*ChannelPublisher)(nil)

func NewChannelPublisher(conn *amqp.Connection) (*ChannelPublisher, error) {
	ch, err := NewChannel(conn)
	if err != nil {
		return nil, err
	}
	return &ChannelPublisher{ch: ch}, nil
}

func (p *ChannelPublisher) Publish(ctx context.Context, queueName, messageID string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return SendImmediateMessage(ctx, p.ch, queueName, messageID, message)
}

func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}

func SendImmediateMessage(ctx context.Context, ch *amqp.Channel, queueName, messageID string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to queue %s: %w", queueName, err)
	}

	return nil
}
