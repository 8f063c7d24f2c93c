package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/models"
)

// MemoryQueue implements an in-memory ticket-event queue
type MemoryQueue struct {
	events    map[uuid.UUID]*models.TicketEvent
	eventChan chan *models.TicketEvent
	mu        sync.RWMutex
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	q := &MemoryQueue{
		events:    make(map[uuid.UUID]*models.TicketEvent),
		eventChan: make(chan *models.TicketEvent, bufferSize),
	}

	slog.Info("Initialized in-memory ticket event queue", "buffer_size", bufferSize)
	return q
}

// Enqueue adds a ticket event to the queue
func (q *MemoryQueue) Enqueue(ctx context.Context, event *models.TicketEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if event.ID == uuid.Nil {
		return fmt.Errorf("ticket event must have an ID")
	}

	q.events[event.ID] = event

	select {
	case q.eventChan <- event:
		slog.Debug("Ticket event enqueued", "event_id", event.ID, "ticket_id", event.TicketID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("queue is full, could not enqueue event %s", event.ID)
	}
}

// Dequeue retrieves the next ticket event from the queue
func (q *MemoryQueue) Dequeue(ctx context.Context) (*models.TicketEvent, error) {
	select {
	case event := <-q.eventChan:
		slog.Debug("Ticket event dequeued", "event_id", event.ID)
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Complete marks an event as dispatched
func (q *MemoryQueue) Complete(ctx context.Context, eventID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	event, exists := q.events[eventID]
	if !exists {
		return ErrEventNotFound
	}

	event.Status = models.TicketEventDispatched
	now := time.Now()
	event.DispatchedAt = &now

	slog.Debug("Ticket event completed", "event_id", eventID)
	return nil
}

// Fail marks an event as failed
func (q *MemoryQueue) Fail(ctx context.Context, eventID uuid.UUID, errorMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	event, exists := q.events[eventID]
	if !exists {
		return ErrEventNotFound
	}

	event.Status = models.TicketEventFailed
	event.Error = errorMsg

	slog.Warn("Ticket event failed", "event_id", eventID, "error", errorMsg)
	return nil
}

// Close closes the queue and releases resources
func (q *MemoryQueue) Close() error {
	close(q.eventChan)
	slog.Info("Memory queue closed")
	return nil
}
