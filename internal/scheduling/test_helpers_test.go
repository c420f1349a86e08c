package scheduling

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/barbridge/barbridge/backend/internal/auth"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

type sequenceIDGenerator struct {
	next int
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("id-%d", g.next), nil
}

type recordingCalendar struct {
	calls []calendarCall
}

type calendarCall struct {
	appointment  Appointment
	participants []string
}

func (c *recordingCalendar) SyncForParticipants(_ context.Context, appointment Appointment, participants []string) error {
	c.calls = append(c.calls, calendarCall{appointment: appointment, participants: participants})
	return nil
}

type recordingNotifier struct {
	statuses  []statusCall
	reminders []reminderCall
	cancels   []cancelCall
}

type statusCall struct {
	candidateID   string
	appointmentID string
	eventType     string
	status        string
}

type reminderCall struct {
	appointmentID string
	startAt       time.Time
	participants  []string
}

type cancelCall struct {
	appointmentID string
	recipients    []string
}

func (n *recordingNotifier) QueueStatus(_ context.Context, candidateID, appointmentID, eventType, status string) error {
	n.statuses = append(n.statuses, statusCall{candidateID, appointmentID, eventType, status})
	return nil
}

func (n *recordingNotifier) QueueReminder(_ context.Context, appointmentID string, startAt time.Time, participants []string) error {
	n.reminders = append(n.reminders, reminderCall{appointmentID, startAt, participants})
	return nil
}

func (n *recordingNotifier) QueueCancelled(_ context.Context, appointmentID string, recipients []string) error {
	n.cancels = append(n.cancels, cancelCall{appointmentID, recipients})
	return nil
}

type recordingMessenger struct {
	messages []string
	fail     bool
}

func (m *recordingMessenger) SendMessage(_ context.Context, _, _, text string) error {
	if m.fail {
		return errors.New("chat provider unavailable")
	}
	m.messages = append(m.messages, text)
	return nil
}

type staticNames struct {
	names map[string]string
}

func (n staticNames) DisplayName(userID string) (string, error) {
	if name, ok := n.names[userID]; ok {
		return name, nil
	}
	return userID, nil
}

type serviceFixture struct {
	service   *Service
	db        *gorm.DB
	calendar  *recordingCalendar
	notifier  *recordingNotifier
	messenger *recordingMessenger
	now       time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:barbridge_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Appointment{}, &Participant{}, &AuditEvent{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	calendar := &recordingCalendar{}
	notifier := &recordingNotifier{}
	messenger := &recordingMessenger{}

	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return now },
		IDProvider: &sequenceIDGenerator{},
		Calendar:   calendar,
		Notifier:   notifier,
		Messenger:  messenger,
		Names:      staticNames{names: map[string]string{"cand-1": "Dana Whitfield"}},
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}

	return &serviceFixture{
		service:   service,
		db:        db,
		calendar:  calendar,
		notifier:  notifier,
		messenger: messenger,
		now:       now,
	}
}

func candidateActor(userID string) auth.Actor {
	return auth.Actor{UserID: userID, Role: auth.RoleCandidate}
}

func staffActor(userID string) auth.Actor {
	return auth.Actor{UserID: userID, Role: auth.RoleStaff}
}

func virtualRequest(start, end time.Time) CreateRequest {
	return CreateRequest{
		Title:    "Partner interview",
		Modality: ModalityVirtual,
		VideoURL: "https://meet.example.com/abc",
		StartsAt: start,
		EndsAt:   end,
		Timezone: "America/New_York",
	}
}

func mustCode(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", want)
	}
	if got := CodeOf(err); got != want {
		t.Fatalf("expected code %s, got %s (%v)", want, got, err)
	}
}
