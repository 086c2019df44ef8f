package mq

import "time"

// Queue names and message definitions

// immediate queues from the services to the notification workers
// one queue per delivery channel so a slow mail provider does not hold up chat
const (
	NotificationEmailQueue = "notification.email.immediate"
	NotificationChatQueue  = "notification.chat.immediate"
)

// delay queue for failed notifications
// a failed delivery is published to the delay queue, dead-lettered to the
// retry exchange once NotificationRetryDelay passes, and consumed from the
// retry queue
const (
	NotificationRetryDelayQueue = "notification.retry.delay"
	NotificationRetryQueue      = "notification.retry.immediate"
	NotificationRetryExchange   = "notification.retry.exchange"
	NotificationRetryRoutingKey = "notification.retry"

	NotificationRetryDelay = time.Minute
)
