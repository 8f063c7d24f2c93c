package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

// ValkeyQueue implements a distributed ticket-event queue using Valkey.
// Valkey is used for transport (event ids only), DB is source of truth.
type ValkeyQueue struct {
	client valkey.Client
	db     *gorm.DB
	key    string // Queue key: "quartermaster:ticket-events"
}

// NewValkeyQueue creates a new Valkey-backed queue
func NewValkeyQueue(addr string, db *gorm.DB) (*ValkeyQueue, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is required for Valkey queue")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pingCmd := client.B().Ping().Build()
	if err := client.Do(ctx, pingCmd).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	q := &ValkeyQueue{
		client: client,
		db:     db,
		key:    "quartermaster:ticket-events",
	}

	slog.Info("Initialized Valkey ticket event queue",
		"address", addr,
		"queue_key", q.key)
	return q, nil
}

// Enqueue adds a ticket event to the queue
// 1. Save event to DB (source of truth)
// 2. Push event ID to Valkey list
func (q *ValkeyQueue) Enqueue(ctx context.Context, event *models.TicketEvent) error {
	if event.ID == uuid.Nil {
		return fmt.Errorf("ticket event must have an ID")
	}

	if err := q.db.WithContext(ctx).Save(event).Error; err != nil {
		return fmt.Errorf("failed to save ticket event to database: %w", err)
	}

	eventData, err := json.Marshal(map[string]string{
		"id":        event.ID.String(),
		"ticket_id": event.TicketID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	// Push to Valkey list (RPUSH for FIFO)
	cmd := q.client.B().Rpush().Key(q.key).Element(string(eventData)).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to push event to Valkey: %w", err)
	}

	slog.Debug("Ticket event enqueued",
		"event_id", event.ID,
		"ticket_id", event.TicketID,
		"queue_key", q.key)
	return nil
}

// Dequeue retrieves the next ticket event from the queue (blocking)
// 1. BLPOP from Valkey (blocking pop with timeout)
// 2. Parse event ID
// 3. Fetch full event from DB
func (q *ValkeyQueue) Dequeue(ctx context.Context) (*models.TicketEvent, error) {
	// BLPOP with 5 second timeout
	cmd := q.client.B().Blpop().Key(q.key).Timeout(5).Build()
	result := q.client.Do(ctx, cmd)

	values, err := result.AsStrSlice()
	if err != nil {
		// BLPOP timeout or no events available - treat as normal timeout
		return nil, context.DeadlineExceeded
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("invalid BLPOP result: expected 2 values, got %d", len(values))
	}

	var eventData map[string]string
	if err := json.Unmarshal([]byte(values[1]), &eventData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	eventID, err := uuid.Parse(eventData["id"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse event ID: %w", err)
	}

	var event models.TicketEvent
	if err := q.db.WithContext(ctx).First(&event, "id = ?", eventID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch ticket event from database: %w", err)
	}

	slog.Debug("Ticket event dequeued", "event_id", event.ID)
	return &event, nil
}

// Complete marks an event as dispatched in the database
func (q *ValkeyQueue) Complete(ctx context.Context, eventID uuid.UUID) error {
	now := time.Now()
	result := q.db.WithContext(ctx).Model(&models.TicketEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":        models.TicketEventDispatched,
			"dispatched_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete ticket event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	slog.Debug("Ticket event dispatched", "event_id", eventID)
	return nil
}

// Fail marks an event as failed in the database
func (q *ValkeyQueue) Fail(ctx context.Context, eventID uuid.UUID, errorMsg string) error {
	result := q.db.WithContext(ctx).Model(&models.TicketEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status": models.TicketEventFailed,
			"error":  errorMsg,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark ticket event as failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	slog.Warn("Ticket event failed", "event_id", eventID, "error", errorMsg)
	return nil
}

// Close closes the Valkey connection
func (q *ValkeyQueue) Close() error {
	q.client.Close()
	slog.Info("Valkey queue closed")
	return nil
}
