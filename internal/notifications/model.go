package notifications

import (
	"time"

	"gorm.io/datatypes"
)

// Channel is the delivery medium for one queued notification.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Event types attached to queued deliveries.
const (
	EventTypeReminder  = "appointment.reminder"
	EventTypeCancelled = "appointment.cancelled"
)

// StatusQueued is the only status this service writes. The external
// dispatcher owns the rest of the delivery lifecycle.
const StatusQueued = "queued"

// Delivery is one queued unit of outbound notification work. Rows are
// insert-only here; the dispatcher reads queued rows respecting send_after
// and per-user channel preferences.
type Delivery struct {
	ID        string         `gorm:"column:id;primaryKey;size:190;not null"`
	UserID    string         `gorm:"column:user_id;size:190;not null;index:idx_deliveries_user"`
	Channel   Channel        `gorm:"column:channel;size:16;not null"`
	EventType string         `gorm:"column:event_type;size:64;not null"`
	Payload   datatypes.JSON `gorm:"column:payload;not null"`
	SendAfter *time.Time     `gorm:"column:send_after"`
	Status    string         `gorm:"column:status;size:32;not null;index:idx_deliveries_status"`
	CreatedAt time.Time      `gorm:"column:created_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Delivery) TableName() string {
	return "notification_deliveries"
}
