package mq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DelayQueue describes a dead-letter hop: messages published to Queue sit
// for Delay and are then routed through Exchange into Target.
type DelayQueue struct {
	Queue      string
	Exchange   string
	Target     string
	RoutingKey string
	Delay      time.Duration
}

// Topology is the set of queues the notification workflow needs.
var Topology = struct {
	Immediate []string
	Delayed   []DelayQueue
}{
	Immediate: []string{NotificationEmailQueue, NotificationChatQueue},
	Delayed: []DelayQueue{{
		Queue:      NotificationRetryDelayQueue,
		Exchange:   NotificationRetryExchange,
		Target:     NotificationRetryQueue,
		RoutingKey: NotificationRetryRoutingKey,
		Delay:      NotificationRetryDelay,
	}},
}

// InitQueues declares the topology. Queues are durable and are never purged:
// pending notifications outlive a restart.
func InitQueues(mqConn *amqp.Connection) error {
	ch, err := NewChannel(mqConn)
	if err != nil {
		return err
	}
	defer ch.Close()

	for _, name := range Topology.Immediate {
		if err := SetupImmediateQueue(ch, name); err != nil {
			return fmt.Errorf("declare %s: %w", name, err)
		}
	}
	for _, dq := range Topology.Delayed {
		if err := SetupDelayQueue(ch, dq); err != nil {
			return fmt.Errorf("declare %s: %w", dq.Queue, err)
		}
	}
	return nil
}

func NewMQConn(url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": "spotlight",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dial message broker: %w", err)
	}
	return conn, nil
}

func NewChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

func SetupImmediateQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(name, true, false, false, false, nil)
	return err
}

// SetupDelayQueue declares the holding queue, the dead-letter exchange and
// the target queue. Producers publish to dq.Queue; consumers read dq.Target.
func SetupDelayQueue(ch *amqp.Channel, dq DelayQueue) error {
	holdArgs := amqp.Table{
		"x-message-ttl":             dq.Delay.Milliseconds(),
		"x-dead-letter-exchange":    dq.Exchange,
		"x-dead-letter-routing-key": dq.RoutingKey,
	}
	if _, err := ch.QueueDeclare(dq.Queue, true, false, false, false, holdArgs); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(dq.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(dq.Target, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.QueueBind(dq.Target, dq.RoutingKey, dq.Exchange, false, nil)
}
