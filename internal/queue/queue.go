package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/models"
)

// ErrEventNotFound is returned when a ticket event is not found
var ErrEventNotFound = errors.New("ticket event not found")

// Queue transports ticket events from the API to the dispatcher.
// The database row is the source of truth; the queue only moves ids.
type Queue interface {
	// Enqueue adds a ticket event to the queue
	Enqueue(ctx context.Context, event *models.TicketEvent) error

	// Dequeue retrieves the next ticket event from the queue
	Dequeue(ctx context.Context) (*models.TicketEvent, error)

	// Complete marks an event as dispatched
	Complete(ctx context.Context, eventID uuid.UUID) error

	// Fail marks an event as failed with an error message
	Fail(ctx context.Context, eventID uuid.UUID, errorMsg string) error

	// Close closes the queue and releases resources
	Close() error
}
