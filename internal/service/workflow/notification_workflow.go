package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qs-lzh/spotlight/internal/metrics"
	"github.com/qs-lzh/spotlight/internal/mq"
	"github.com/qs-lzh/spotlight/internal/notify"
)

// MaxDeliveryAttempts bounds how often one notification is tried.
const MaxDeliveryAttempts = 3

// Deliverer sends a rendered notification on its channel.
type Deliverer interface {
	Deliver(ctx context.Context, n notify.Notification) error
}

// NotificationWorkflow queues notifications on RabbitMQ and delivers them
// from the consumer side. Delivery is at least once: a worker crash after
// sending but before the ack sends again.
type NotificationWorkflow struct {
	publisher mq.Publisher
	deliverer Deliverer
	logger    *zap.Logger
}

var _ notify.Dispatcher = (*NotificationWorkflow)(nil)

func NewNotificationWorkflow(publisher mq.Publisher, deliverer Deliverer, logger *zap.Logger) *NotificationWorkflow {
	return &NotificationWorkflow{
		publisher: publisher,
		deliverer: deliverer,
		logger:    logger,
	}
}

// Dispatch publishes n to the queue of its kind.
func (w *NotificationWorkflow) Dispatch(ctx context.Context, n notify.Notification) error {
	queueName, err := queueForKind(n.Kind)
	if err != nil {
		return err
	}
	return w.publisher.Publish(ctx, queueName, n.ID, n)
}

func queueForKind(kind notify.Kind) (string, error) {
	switch kind {
	case notify.KindEmail:
		return mq.NotificationEmailQueue, nil
	case notify.KindChat:
		return mq.NotificationChatQueue, nil
	default:
		return "", fmt.Errorf("unknown notification kind %q", kind)
	}
}

// Run consumes the immediate and retry queues until ctx is done.
func (w *NotificationWorkflow) Run(ctx context.Context, conn *amqp.Connection) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, queueName := range []string{mq.NotificationEmailQueue, mq.NotificationChatQueue, mq.NotificationRetryQueue} {
		ch, err := mq.NewChannel(conn)
		if err != nil {
			return err
		}
		msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
		if err != nil {
			ch.Close()
			return err
		}
		g.Go(func() error {
			defer ch.Close()
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-msgs:
					if !ok {
						return fmt.Errorf("consumer channel for %s closed", queueName)
					}
					w.handleDelivery(ctx, msg)
				}
			}
		})
	}
	return g.Wait()
}

func (w *NotificationWorkflow) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	var n notify.Notification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		w.logger.Error("dropping undecodable notification", zap.String("message_id", msg.MessageId), zap.Error(err))
		msg.Nack(false, false)
		return
	}
	if err := w.process(ctx, n); err != nil {
		// A message that already came back once is not requeued again, so a
		// dead publish channel cannot spin on redeliveries.
		if msg.Redelivered {
			metrics.RecordNotificationDelivery(string(n.Kind), "dropped")
			w.logger.Error("notification dropped, retry could not be scheduled",
				zap.String("notification_id", n.ID), zap.Int("attempt", n.Attempt), zap.Error(err))
			msg.Nack(false, false)
			return
		}
		w.logger.Warn("notification requeued", zap.String("notification_id", n.ID), zap.Error(err))
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

// process delivers n once. A failed delivery is scheduled on the retry
// delay queue until MaxDeliveryAttempts is reached, then dropped. Only a
// failure to schedule the retry is returned.
func (w *NotificationWorkflow) process(ctx context.Context, n notify.Notification) error {
	err := w.deliverer.Deliver(ctx, n)
	if err == nil {
		metrics.RecordNotificationDelivery(string(n.Kind), "delivered")
		return nil
	}

	n.Attempt++
	if n.Attempt >= MaxDeliveryAttempts {
		metrics.RecordNotificationDelivery(string(n.Kind), "dropped")
		w.logger.Error("notification dropped after final attempt",
			zap.String("notification_id", n.ID), zap.String("template", n.Template),
			zap.Int("attempts", n.Attempt), zap.Error(err))
		return nil
	}

	metrics.RecordNotificationDelivery(string(n.Kind), "retried")
	w.logger.Warn("notification delivery failed, retrying later",
		zap.String("notification_id", n.ID), zap.Int("attempt", n.Attempt), zap.Error(err))
	return w.publisher.Publish(ctx, mq.NotificationRetryDelayQueue, n.ID, n)
}
