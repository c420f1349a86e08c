package calendarsync

import "time"

// Provider identifies an external calendar provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

// Sync states recorded per connection after each sync attempt.
const (
	StateSynced       = "synced"
	StateSyncFailed   = "sync_failed"
	StateMissingToken = "connected_missing_access_token"
)

// Connection represents one user's link to one external calendar provider.
// The access token is an opaque blob issued by the OAuth connect flow, which
// is outside this service.
type Connection struct {
	ID           string     `gorm:"column:id;primaryKey;size:190;not null"`
	UserID       string     `gorm:"column:user_id;size:190;not null;uniqueIndex:idx_connections_user_provider,priority:1"`
	Provider     Provider   `gorm:"column:provider;size:32;not null;uniqueIndex:idx_connections_user_provider,priority:2"`
	AccessToken  string     `gorm:"column:access_token;type:text;not null;default:''"`
	SyncState    string     `gorm:"column:sync_state;size:64;not null;default:''"`
	SyncError    string     `gorm:"column:sync_error;size:1000;not null;default:''"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Connection) TableName() string {
	return "calendar_connections"
}

// EventLink ties one appointment to one mirrored event on one provider for
// one participant. The content hash records the last-synced appointment
// snapshot so unchanged appointments can be detected.
type EventLink struct {
	ID              string    `gorm:"column:id;primaryKey;size:190;not null"`
	AppointmentID   string    `gorm:"column:appointment_id;size:190;not null;uniqueIndex:idx_links_appointment_provider_user,priority:1"`
	Provider        Provider  `gorm:"column:provider;size:32;not null;uniqueIndex:idx_links_appointment_provider_user,priority:2"`
	UserID          string    `gorm:"column:user_id;size:190;not null;uniqueIndex:idx_links_appointment_provider_user,priority:3"`
	ProviderEventID string    `gorm:"column:provider_event_id;type:text;not null;default:''"`
	EventURL        string    `gorm:"column:event_url;type:text;not null;default:''"`
	ContentHash     string    `gorm:"column:content_hash;size:64;not null;default:''"`
	SyncedAt        time.Time `gorm:"column:synced_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (EventLink) TableName() string {
	return "calendar_event_links"
}
