package notify

import (
	"context"
	"time"
)

// Kind selects the delivery channel of a notification.
type Kind string

const (
	KindEmail Kind = "email"
	KindChat  Kind = "chat"
)

// template names
const (
	TemplateSubmissionReceived        = "submission_received"
	TemplateFileRequestClaimed        = "file_request_claimed"
	TemplateFileRequestUnclaimed      = "file_request_unclaimed"
	TemplateFileRequestNotInDirectory = "file_request_not_in_directory"
)

const FileRequestSubject = "Your Film Has Been Selected! [Action Required]"

// Notification is the unit handed to the dispatcher and carried on the
// queue. Rendering happens at delivery time from Template and Data.
type Notification struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Recipient string            `json:"recipient,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Template  string            `json:"template"`
	Data      map[string]string `json:"data"`
	Attempt   int               `json:"attempt"`
	CreatedAt time.Time         `json:"created_at"`
}

// Dispatcher hands a notification off for delivery. A nil error means the
// hand-off succeeded, not that the recipient got it.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}
