package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/barbridge/barbridge/backend/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultReminderLead = 15 * time.Minute

var errMissingDatabase = errors.New("notifications: database handle is required")

// QueueConfig wires the notification queue.
type QueueConfig struct {
	Database     *gorm.DB
	Clock        func() time.Time
	ReminderLead time.Duration
	Logger       *zap.Logger
}

// Queue enqueues push and email notification rows as a side effect of
// appointment lifecycle transitions. Delivery is the external dispatcher's
// responsibility.
type Queue struct {
	db     *gorm.DB
	clock  func() time.Time
	lead   time.Duration
	logger *zap.Logger
}

// NewQueue constructs the notification queue.
func NewQueue(cfg QueueConfig) (*Queue, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	lead := cfg.ReminderLead
	if lead <= 0 {
		lead = defaultReminderLead
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{db: cfg.Database, clock: clock, lead: lead, logger: logger}, nil
}

// QueueStatus inserts one push and one email row for a status transition.
// The payload carries a decision field only when the status is the
// confirmed state.
func (q *Queue) QueueStatus(_ context.Context, candidateID, appointmentID, eventType, status string) error {
	payload := map[string]string{
		"appointment_id": appointmentID,
		"status":         status,
	}
	if status == "scheduled" || status == "accepted" {
		payload["decision"] = "accepted"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	now := q.clock().UTC()
	rows := []Delivery{
		q.newDelivery(candidateID, ChannelPush, eventType, body, nil, now),
		q.newDelivery(candidateID, ChannelEmail, eventType, body, nil, now),
	}
	if err := q.db.Create(&rows).Error; err != nil {
		return err
	}
	metrics.NotificationsQueued.WithLabelValues(string(ChannelPush)).Inc()
	metrics.NotificationsQueued.WithLabelValues(string(ChannelEmail)).Inc()
	return nil
}

// QueueReminder inserts one push reminder per de-duplicated participant,
// firing at start minus the configured lead. A reminder whose fire time has
// already elapsed is pointless and is not queued.
func (q *Queue) QueueReminder(_ context.Context, appointmentID string, startAt time.Time, participantIDs []string) error {
	sendAfter := startAt.UTC().Add(-q.lead)
	if !sendAfter.After(q.clock().UTC()) {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"appointment_id": appointmentID,
		"starts_at":      startAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	now := q.clock().UTC()
	rows := make([]Delivery, 0, len(participantIDs))
	for _, userID := range dedupe(participantIDs) {
		rows = append(rows, q.newDelivery(userID, ChannelPush, EventTypeReminder, body, &sendAfter, now))
	}
	if len(rows) == 0 {
		return nil
	}
	if err := q.db.Create(&rows).Error; err != nil {
		return err
	}
	metrics.NotificationsQueued.WithLabelValues(string(ChannelPush)).Add(float64(len(rows)))
	return nil
}

// QueueCancelled inserts push and email cancellation rows for each
// recipient. The caller selects the recipient set.
func (q *Queue) QueueCancelled(_ context.Context, appointmentID string, recipientIDs []string) error {
	body, err := json.Marshal(map[string]string{
		"appointment_id": appointmentID,
		"status":         "cancelled",
	})
	if err != nil {
		return err
	}

	now := q.clock().UTC()
	var rows []Delivery
	for _, userID := range dedupe(recipientIDs) {
		rows = append(rows,
			q.newDelivery(userID, ChannelPush, EventTypeCancelled, body, nil, now),
			q.newDelivery(userID, ChannelEmail, EventTypeCancelled, body, nil, now),
		)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := q.db.Create(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		metrics.NotificationsQueued.WithLabelValues(string(row.Channel)).Inc()
	}
	return nil
}

func (q *Queue) newDelivery(userID string, channel Channel, eventType string, payload []byte, sendAfter *time.Time, now time.Time) Delivery {
	return Delivery{
		ID:        uuid.NewString(),
		UserID:    userID,
		Channel:   channel,
		EventType: eventType,
		Payload:   payload,
		SendAfter: sendAfter,
		Status:    StatusQueued,
		CreatedAt: now,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
