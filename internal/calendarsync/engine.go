package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barbridge/barbridge/backend/internal/metrics"
	"github.com/barbridge/barbridge/backend/internal/scheduling"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errMissingEngineDatabase = errors.New("calendarsync: database handle is required")

var syncedProviders = []Provider{ProviderGoogle, ProviderApple}

// EngineConfig wires the sync engine.
type EngineConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Google   *GoogleClient
	Logger   *zap.Logger
}

// Engine mirrors appointments onto participants' connected external
// calendars. It is idempotent and fire-and-forget safe: per-connection
// failures are recorded in the connection's sync state and never surfaced
// to the lifecycle transition that triggered the sync.
type Engine struct {
	db     *gorm.DB
	clock  func() time.Time
	google *GoogleClient
	logger *zap.Logger
}

// NewEngine constructs the sync engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Database == nil {
		return nil, errMissingEngineDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	google := cfg.Google
	if google == nil {
		google = NewGoogleClient("https://www.googleapis.com/calendar/v3", nil)
	}
	return &Engine{db: cfg.Database, clock: clock, google: google, logger: logger}, nil
}

// SyncForParticipants creates, updates, or removes mirrored events for every
// connected provider of the given participants. A non-confirmed appointment
// status means the mirrors are being torn down.
func (e *Engine) SyncForParticipants(ctx context.Context, appointment scheduling.Appointment, participantIDs []string) error {
	if len(participantIDs) == 0 {
		return nil
	}

	var connections []Connection
	err := e.db.
		Where("user_id IN ? AND provider IN ?", participantIDs, syncedProviders).
		Find(&connections).Error
	if err != nil {
		return err
	}
	if len(connections) == 0 {
		return nil
	}

	var links []EventLink
	err = e.db.
		Where("appointment_id = ? AND user_id IN ? AND provider IN ?",
			appointment.ID, participantIDs, syncedProviders).
		Find(&links).Error
	if err != nil {
		return err
	}

	if !appointment.Status.Confirmed() {
		return e.removeMirrors(ctx, appointment, participantIDs, connections, links)
	}

	hash := Fingerprint(appointment)
	payload := buildPayload(appointment)

	for _, connection := range connections {
		existing := linkFor(links, connection.Provider, connection.UserID)
		e.syncConnection(ctx, appointment, connection, existing, payload, hash)
	}
	return nil
}

// removeMirrors tears down mirrored events for a cancelled appointment.
// Google events are deleted remotely best-effort; Apple's ICS data URLs have
// no server-side event and need no remote call.
func (e *Engine) removeMirrors(ctx context.Context, appointment scheduling.Appointment, participantIDs []string, connections []Connection, links []EventLink) error {
	for _, link := range links {
		if link.Provider != ProviderGoogle {
			continue
		}
		token := accessTokenFor(connections, ProviderGoogle, link.UserID)
		if token == "" || !isRemoteEventID(link.ProviderEventID) {
			continue
		}
		if err := e.google.DeleteEvent(ctx, token, link.ProviderEventID); err != nil {
			metrics.CalendarSyncs.WithLabelValues(string(ProviderGoogle), "delete_failed").Inc()
			e.logger.Warn("remote calendar event delete failed",
				zap.String("appointment_id", appointment.ID),
				zap.String("user_id", link.UserID),
				zap.Error(err))
			continue
		}
		metrics.CalendarSyncs.WithLabelValues(string(ProviderGoogle), "deleted").Inc()
	}

	return e.db.
		Where("appointment_id = ? AND user_id IN ? AND provider IN ?",
			appointment.ID, participantIDs, syncedProviders).
		Delete(&EventLink{}).Error
}

func (e *Engine) syncConnection(ctx context.Context, appointment scheduling.Appointment, connection Connection, existing *EventLink, payload EventPayload, hash string) {
	var (
		eventID   string
		eventURL  string
		syncState string
		syncError string
	)

	switch connection.Provider {
	case ProviderGoogle:
		eventID, eventURL, syncState, syncError = e.syncGoogle(ctx, connection, existing, payload)
	case ProviderApple:
		dataURL := BuildICSDataURL(appointment.ID, payload, e.clock())
		eventID, eventURL, syncState = dataURL, dataURL, StateSynced
	default:
		return
	}

	metrics.CalendarSyncs.WithLabelValues(string(connection.Provider), syncState).Inc()

	now := e.clock().UTC()
	link := EventLink{
		ID:              uuid.NewString(),
		AppointmentID:   appointment.ID,
		Provider:        connection.Provider,
		UserID:          connection.UserID,
		ProviderEventID: eventID,
		EventURL:        eventURL,
		ContentHash:     hash,
		SyncedAt:        now,
	}
	err := e.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "appointment_id"}, {Name: "provider"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_event_id", "event_url", "content_hash", "synced_at",
		}),
	}).Create(&link).Error
	if err != nil {
		e.logger.Error("event link upsert failed",
			zap.String("appointment_id", appointment.ID),
			zap.String("provider", string(connection.Provider)),
			zap.String("user_id", connection.UserID),
			zap.Error(err))
	}

	err = e.db.Model(&Connection{}).
		Where("id = ?", connection.ID).
		Updates(map[string]interface{}{
			"sync_state":     syncState,
			"sync_error":     syncError,
			"last_synced_at": now,
			"updated_at":     now,
		}).Error
	if err != nil {
		e.logger.Error("connection sync state update failed",
			zap.String("connection_id", connection.ID),
			zap.Error(err))
	}
}

// syncGoogle patches the existing remote event when the stored id is a real
// Google event id, creates a new one otherwise. A missing access token or
// an HTTP failure degrades to the browser-openable template URL rather than
// failing the sync.
func (e *Engine) syncGoogle(ctx context.Context, connection Connection, existing *EventLink, payload EventPayload) (eventID, eventURL, syncState, syncError string) {
	template := TemplateURL(payload)

	if connection.AccessToken == "" {
		return template, template, StateMissingToken, ""
	}

	var (
		event GoogleEvent
		err   error
	)
	if existing != nil && isRemoteEventID(existing.ProviderEventID) {
		event, err = e.google.PatchEvent(ctx, connection.AccessToken, existing.ProviderEventID, payload)
	} else {
		event, err = e.google.CreateEvent(ctx, connection.AccessToken, payload)
	}
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			syncError = fmt.Sprintf("http %d: %s", httpErr.StatusCode, httpErr.Body)
		} else {
			syncError = err.Error()
		}
		eventID = template
		if existing != nil && isRemoteEventID(existing.ProviderEventID) {
			eventID = existing.ProviderEventID
		}
		return eventID, template, StateSyncFailed, syncError
	}

	return event.ID, event.HTMLLink, StateSynced, ""
}

// buildPayload converts an appointment into the provider-neutral event body.
// Virtual meetings carry the video link as the location; the description
// always repeats the link so it survives providers that drop locations.
func buildPayload(a scheduling.Appointment) EventPayload {
	description := a.Description
	if a.VideoURL != "" {
		if description != "" {
			description += "\n\n"
		}
		description += "Join: " + a.VideoURL
	}

	location := a.Location
	if a.Modality == scheduling.ModalityVirtual {
		location = a.VideoURL
		if location == "" {
			location = a.Location
		}
	}

	return EventPayload{
		Summary:     a.Title,
		Description: description,
		Location:    location,
		Start:       a.StartsAt,
		End:         a.EndsAt,
		Timezone:    a.Timezone,
	}
}

func linkFor(links []EventLink, provider Provider, userID string) *EventLink {
	for i := range links {
		if links[i].Provider == provider && links[i].UserID == userID {
			return &links[i]
		}
	}
	return nil
}

func accessTokenFor(connections []Connection, provider Provider, userID string) string {
	for _, connection := range connections {
		if connection.Provider == provider && connection.UserID == userID {
			return connection.AccessToken
		}
	}
	return ""
}
