// Package notify dispatches ticket events to the external ticketing system.
// Each event is attempted exactly once; the activity log row, not the
// dispatch, is the durable record.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"github.com/quartermaster-dev/quartermaster/internal/queue"
	"gorm.io/gorm"
)

const maxConcurrentDispatches = 4

// Notifier processes ticket events from the queue
type Notifier struct {
	db         *gorm.DB
	queue      queue.Queue
	client     *http.Client
	webhookURL string
	source     string
	logger     *slog.Logger
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

// New creates a new notifier instance. An empty webhookURL puts the
// notifier in log-only mode: events are marked dispatched without an
// outbound call.
func New(db *gorm.DB, q queue.Queue, webhookURL, source string, logger *slog.Logger) *Notifier {
	return &Notifier{
		db:         db,
		queue:      q,
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
		source:     source,
		logger:     logger,
		semaphore:  make(chan struct{}, maxConcurrentDispatches),
	}
}

// Start begins processing ticket events from the queue
func (n *Notifier) Start(ctx context.Context) error {
	n.logger.Info("Ticket notifier started", "webhook_configured", n.webhookURL != "")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Notifier shutting down, waiting for dispatches to complete")
			n.wg.Wait()
			n.logger.Info("Notifier stopped")
			return ctx.Err()
		default:
			event, err := n.queue.Dequeue(ctx)
			if err != nil {
				// DeadlineExceeded means no events available (normal timeout)
				if err == context.DeadlineExceeded {
					continue
				}
				if ctx.Err() != nil {
					continue
				}
				n.logger.Error("Failed to dequeue ticket event", "error", err)
				time.Sleep(time.Second)
				continue
			}

			if event == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			select {
			case n.semaphore <- struct{}{}:
				n.wg.Add(1)
				go func(ev *models.TicketEvent) {
					defer n.wg.Done()
					defer func() { <-n.semaphore }()

					n.dispatch(ctx, ev)
				}(event)
			case <-ctx.Done():
				n.logger.Info("Context cancelled while waiting for dispatch slot")
				return ctx.Err()
			}
		}
	}
}

// ticketPayload is the body posted to the ticketing webhook.
type ticketPayload struct {
	Source     string          `json:"source"`
	TicketID   string          `json:"ticket_id"`
	ActionType string          `json:"action_type"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Details    json.RawMessage `json:"details"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// dispatch attempts delivery once and records the outcome. No retry: a
// failed event stays failed with its error message.
func (n *Notifier) dispatch(ctx context.Context, event *models.TicketEvent) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Panic recovered in dispatch", "event_id", event.ID, "panic", r)
			n.fail(ctx, event, fmt.Sprintf("dispatch panicked: %v", r))
		}
	}()

	var entry models.ActivityLog
	if err := n.db.WithContext(ctx).First(&entry, event.ActivityLogID).Error; err != nil {
		n.fail(ctx, event, fmt.Sprintf("load activity entry: %v", err))
		return
	}

	if n.webhookURL == "" {
		// Log-only mode
		n.logger.Info("Ticket event (log-only mode)",
			"ticket_id", event.TicketID,
			"action_type", entry.ActionType,
			"target", fmt.Sprintf("%s:%s", entry.TargetType, entry.TargetID))
		n.complete(ctx, event)
		return
	}

	payload := ticketPayload{
		Source:     n.source,
		TicketID:   event.TicketID,
		ActionType: entry.ActionType,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID.String(),
		Details:    json.RawMessage(entry.DetailsJSON),
		OccurredAt: entry.CreatedAt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.fail(ctx, event, fmt.Sprintf("marshal payload: %v", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.fail(ctx, event, fmt.Sprintf("build request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.fail(ctx, event, fmt.Sprintf("post webhook: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.fail(ctx, event, fmt.Sprintf("webhook returned status %d", resp.StatusCode))
		return
	}

	n.complete(ctx, event)
}

func (n *Notifier) complete(ctx context.Context, event *models.TicketEvent) {
	if err := n.queue.Complete(ctx, event.ID); err != nil {
		n.logger.Error("Failed to mark ticket event dispatched", "event_id", event.ID, "error", err)
		return
	}
	n.markEvent(ctx, event.ID, models.TicketEventDispatched, "")
}

func (n *Notifier) fail(ctx context.Context, event *models.TicketEvent, errorMsg string) {
	if err := n.queue.Fail(ctx, event.ID, errorMsg); err != nil {
		n.logger.Error("Failed to mark ticket event failed", "event_id", event.ID, "error", err)
	}
	n.markEvent(ctx, event.ID, models.TicketEventFailed, errorMsg)
}

// markEvent persists the dispatch outcome on the database row so queue
// implementations without DB backing (memory) stay consistent with it.
func (n *Notifier) markEvent(ctx context.Context, eventID uuid.UUID, st models.TicketEventStatus, errorMsg string) {
	updates := map[string]interface{}{"status": st}
	if st == models.TicketEventDispatched {
		updates["dispatched_at"] = time.Now()
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	if err := n.db.WithContext(ctx).Model(&models.TicketEvent{}).Where("id = ?", eventID).Updates(updates).Error; err != nil {
		n.logger.Error("Failed to persist ticket event status", "event_id", eventID, "error", err)
	}
}
