package devicemirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/barbridge/barbridge/backend/internal/scheduling"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sync result status codes.
const (
	StatusSynced           = "synced"
	StatusSkipped          = "skipped"
	StatusPermissionDenied = "permission_denied"
	StatusNoCalendar       = "no_calendar"
)

const alarmLead = 15 * time.Minute

var errMissingMirrorDeps = errors.New("devicemirror: database and device calendar are required")

// DeviceEvent is the event shape written into the device calendar.
type DeviceEvent struct {
	Title     string
	Notes     string
	Location  string
	Start     time.Time
	End       time.Time
	AlarmLead time.Duration
}

// DeviceCalendar abstracts the OS calendar provider: permission prompts,
// writable-calendar discovery, and event CRUD. The mobile shell supplies the
// platform implementation.
type DeviceCalendar interface {
	RequestPermission(ctx context.Context) (bool, error)
	WritableCalendarID(ctx context.Context) (string, error)
	CreateEvent(ctx context.Context, calendarID string, event DeviceEvent) (string, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event DeviceEvent) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// EventLink persists the per-user {appointment id -> device event id} map
// that update and delete reconciliation depends on.
type EventLink struct {
	UserID        string `gorm:"column:user_id;primaryKey;size:190;not null"`
	AppointmentID string `gorm:"column:appointment_id;primaryKey;size:190;not null"`
	DeviceEventID string `gorm:"column:device_event_id;size:500;not null"`
}

// TableName provides the explicit table binding for GORM.
func (EventLink) TableName() string {
	return "device_event_links"
}

// Entry pairs an appointment with the display name shown in the device
// event title.
type Entry struct {
	Appointment     scheduling.Appointment
	ParticipantName string
}

// Result summarizes one mirror pass.
type Result struct {
	Status       string
	SyncedCount  int
	RemovedCount int
}

// MirrorConfig wires the device mirror.
type MirrorConfig struct {
	Database *gorm.DB
	Device   DeviceCalendar
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Mirror keeps a user's visible appointments reflected in their device
// calendar app. Sync runs are skipped when the visible set has not changed
// since the last pass.
type Mirror struct {
	db           *gorm.DB
	device       DeviceCalendar
	clock        func() time.Time
	logger       *zap.Logger
	fingerprints sync.Map
}

// NewMirror constructs the device mirror.
func NewMirror(cfg MirrorConfig) (*Mirror, error) {
	if cfg.Database == nil || cfg.Device == nil {
		return nil, errMissingMirrorDeps
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{db: cfg.Database, device: cfg.Device, clock: clock, logger: logger}, nil
}

// Sync reconciles the user's device calendar against their visible
// appointments: confirmed appointments are created or updated, everything
// else with a recorded device event is deleted.
func (m *Mirror) Sync(ctx context.Context, userID string, entries []Entry) (Result, error) {
	fingerprint := fingerprintEntries(entries)
	if previous, ok := m.fingerprints.Load(userID); ok && previous == fingerprint {
		return Result{Status: StatusSkipped}, nil
	}

	granted, err := m.device.RequestPermission(ctx)
	if err != nil {
		return Result{}, err
	}
	if !granted {
		return Result{Status: StatusPermissionDenied}, nil
	}

	calendarID, err := m.device.WritableCalendarID(ctx)
	if err != nil {
		return Result{}, err
	}
	if calendarID == "" {
		return Result{Status: StatusNoCalendar}, nil
	}

	links, err := m.loadLinks(userID)
	if err != nil {
		return Result{}, err
	}

	result := Result{Status: StatusSynced}
	for _, entry := range entries {
		appointment := entry.Appointment
		existingID := links[appointment.ID]

		if appointment.Status.Confirmed() {
			deviceEventID, err := m.writeEvent(ctx, calendarID, existingID, buildDeviceEvent(entry))
			if err != nil {
				m.logger.Warn("device event write failed",
					zap.String("appointment_id", appointment.ID),
					zap.Error(err))
				continue
			}
			if err := m.saveLink(userID, appointment.ID, deviceEventID); err != nil {
				return result, err
			}
			result.SyncedCount++
			continue
		}

		if existingID == "" {
			continue
		}
		// The event may already be gone if the user removed it by hand.
		if err := m.device.DeleteEvent(ctx, calendarID, existingID); err != nil {
			m.logger.Debug("device event delete failed",
				zap.String("appointment_id", appointment.ID),
				zap.Error(err))
		}
		if err := m.deleteLink(userID, appointment.ID); err != nil {
			return result, err
		}
		result.RemovedCount++
	}

	m.fingerprints.Store(userID, fingerprint)
	return result, nil
}

// writeEvent updates the recorded device event, recreating it when the
// update fails, or creates a fresh one when nothing is on record.
func (m *Mirror) writeEvent(ctx context.Context, calendarID, existingID string, event DeviceEvent) (string, error) {
	if existingID != "" {
		if err := m.device.UpdateEvent(ctx, calendarID, existingID, event); err == nil {
			return existingID, nil
		}
	}
	return m.device.CreateEvent(ctx, calendarID, event)
}

func (m *Mirror) loadLinks(userID string) (map[string]string, error) {
	var rows []EventLink
	if err := m.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	links := make(map[string]string, len(rows))
	for _, row := range rows {
		links[row.AppointmentID] = row.DeviceEventID
	}
	return links, nil
}

func (m *Mirror) saveLink(userID, appointmentID, deviceEventID string) error {
	link := EventLink{UserID: userID, AppointmentID: appointmentID, DeviceEventID: deviceEventID}
	return m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "appointment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_event_id"}),
	}).Create(&link).Error
}

func (m *Mirror) deleteLink(userID, appointmentID string) error {
	return m.db.
		Where("user_id = ? AND appointment_id = ?", userID, appointmentID).
		Delete(&EventLink{}).Error
}

// buildDeviceEvent renders an appointment as a device calendar event,
// embedding a machine-readable marker so the appointment can be traced back
// from the device event.
func buildDeviceEvent(entry Entry) DeviceEvent {
	appointment := entry.Appointment

	title := appointment.Title
	if entry.ParticipantName != "" {
		title = fmt.Sprintf("%s with %s", title, entry.ParticipantName)
	}

	var notes []string
	if appointment.Description != "" {
		notes = append(notes, appointment.Description)
	}
	if appointment.VideoURL != "" {
		notes = append(notes, "Join: "+appointment.VideoURL)
	}
	notes = append(notes, fmt.Sprintf("[barbridge-appointment:%s]", appointment.ID))

	location := appointment.Location
	if appointment.Modality == scheduling.ModalityVirtual {
		location = appointment.VideoURL
		if location == "" {
			location = appointment.Location
		}
	}

	return DeviceEvent{
		Title:     title,
		Notes:     strings.Join(notes, "\n"),
		Location:  location,
		Start:     appointment.StartsAt,
		End:       appointment.EndsAt,
		AlarmLead: alarmLead,
	}
}

func fingerprintEntries(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		appointment := entry.Appointment
		parts = append(parts, strings.Join([]string{
			appointment.ID,
			string(appointment.Status),
			appointment.StartsAt.UTC().Format(time.RFC3339),
			appointment.EndsAt.UTC().Format(time.RFC3339),
			appointment.Title,
			entry.ParticipantName,
		}, "|"))
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
