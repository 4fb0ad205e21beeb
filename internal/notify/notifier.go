package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Event is a booking notification delivered to the client contact.
type Event struct {
	BookingID string
	EventType string
	Payload   map[string]any
}

// Notifier delivers booking events to clients.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes notifications to the log. It stands in for the email
// provider in local and test environments; production wires a real sender
// behind the same interface.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	subject, ok := subjects[event.EventType]
	if !ok {
		subject = fmt.Sprintf("Update on your booking (%s)", event.EventType)
	}

	email, _ := event.Payload["client_email"].(string)
	reference, _ := event.Payload["reference"].(string)

	n.logger.Info().
		Str("booking_id", event.BookingID).
		Str("event_type", event.EventType).
		Str("reference", reference).
		Str("to", email).
		Str("subject", subject).
		Msg("notification sent")
	return nil
}

var subjects = map[string]string{
	"booking.payment_confirmed": "Payment received - your booking is confirmed",
	"booking.scheduled":         "Your consultation has been scheduled",
	"booking.cancelled":         "Your booking has been cancelled",
}
