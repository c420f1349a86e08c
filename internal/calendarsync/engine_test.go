package calendarsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/barbridge/barbridge/backend/internal/scheduling"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordedRequest struct {
	method string
	path   string
}

type engineFixture struct {
	engine   *Engine
	db       *gorm.DB
	server   *httptest.Server
	requests *[]recordedRequest
	now      time.Time
}

func newEngineFixture(t *testing.T, handler http.HandlerFunc) *engineFixture {
	t.Helper()

	requests := &[]recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, recordedRequest{method: r.Method, path: r.URL.Path})
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	dsn := fmt.Sprintf("file:calendarsync_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Connection{}, &EventLink{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine, err := NewEngine(EngineConfig{
		Database: db,
		Clock:    func() time.Time { return now },
		Google:   NewGoogleClient(server.URL, server.Client()),
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}

	return &engineFixture{engine: engine, db: db, server: server, requests: requests, now: now}
}

func respondEvent(id, link string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(GoogleEvent{ID: id, HTMLLink: link})
	}
}

func confirmedAppointment(now time.Time) scheduling.Appointment {
	start := now.Add(24 * time.Hour)
	return scheduling.Appointment{
		ID:              "appt-1",
		Title:           "Partner interview",
		Modality:        scheduling.ModalityVirtual,
		VideoURL:        "https://meet.example.com/abc",
		StartsAt:        start,
		EndsAt:          start.Add(time.Hour),
		Timezone:        "America/New_York",
		Status:          scheduling.StatusScheduled,
		CandidateUserID: "cand-1",
	}
}

func seedConnection(t *testing.T, db *gorm.DB, userID string, provider Provider, token string) {
	t.Helper()
	connection := Connection{
		ID:          fmt.Sprintf("conn-%s-%s", userID, provider),
		UserID:      userID,
		Provider:    provider,
		AccessToken: token,
	}
	if err := db.Create(&connection).Error; err != nil {
		t.Fatalf("failed to seed connection: %v", err)
	}
}

func loadLink(t *testing.T, db *gorm.DB, appointmentID string, provider Provider, userID string) EventLink {
	t.Helper()
	var link EventLink
	err := db.Where("appointment_id = ? AND provider = ? AND user_id = ?", appointmentID, provider, userID).
		First(&link).Error
	if err != nil {
		t.Fatalf("failed to load event link: %v", err)
	}
	return link
}

func loadConnection(t *testing.T, db *gorm.DB, userID string, provider Provider) Connection {
	t.Helper()
	var connection Connection
	err := db.Where("user_id = ? AND provider = ?", userID, provider).First(&connection).Error
	if err != nil {
		t.Fatalf("failed to load connection: %v", err)
	}
	return connection
}

func TestGoogleSyncCreatesRemoteEvent(t *testing.T) {
	fx := newEngineFixture(t, respondEvent("gevt-1", "https://calendar.google.com/event?eid=abc"))
	seedConnection(t, fx.db, "cand-1", ProviderGoogle, "token-1")
	appointment := confirmedAppointment(fx.now)

	if err := fx.engine.SyncForParticipants(context.Background(), appointment, []string{"cand-1"}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(*fx.requests) != 1 {
		t.Fatalf("expected one provider call, got %d", len(*fx.requests))
	}
	request := (*fx.requests)[0]
	if request.method != http.MethodPost || request.path != "/calendars/primary/events" {
		t.Fatalf("unexpected provider call: %+v", request)
	}

	link := loadLink(t, fx.db, appointment.ID, ProviderGoogle, "cand-1")
	if link.ProviderEventID != "gevt-1" {
		t.Fatalf("unexpected event id: %s", link.ProviderEventID)
	}
	if link.EventURL != "https://calendar.google.com/event?eid=abc" {
		t.Fatalf("unexpected event url: %s", link.EventURL)
	}
	if link.ContentHash != Fingerprint(appointment) {
		t.Fatalf("content hash must record the synced snapshot")
	}

	connection := loadConnection(t, fx.db, "cand-1", ProviderGoogle)
	if connection.SyncState != StateSynced || connection.SyncError != "" {
		t.Fatalf("unexpected sync state: %s / %q", connection.SyncState, connection.SyncError)
	}
	if connection.LastSyncedAt == nil {
		t.Fatalf("last_synced_at must be stamped")
	}
}

func TestGoogleSyncPatchesExistingRemoteEvent(t *testing.T) {
	fx := newEngineFixture(t, respondEvent("gevt-1", "https://calendar.google.com/event?eid=abc"))
	seedConnection(t, fx.db, "cand-1", ProviderGoogle, "token-1")
	appointment := confirmedAppointment(fx.now)

	existing := EventLink{
		ID:              "link-1",
		AppointmentID:   appointment.ID,
		Provider:        ProviderGoogle,
		UserID:          "cand-1",
		ProviderEventID: "gevt-1",
		SyncedAt:        fx.now.Add(-time.Hour),
	}
	if err := fx.db.Create(&existing).Error; err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}

	if err := fx.engine.SyncForParticipants(context.Background(), appointment, []string{"cand-1"}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(*fx.requests) != 1 {
		t.Fatalf("expected one provider call, got %d", len(*fx.requests))
	}
	request := (*fx.requests)[0]
	if request.method != http.MethodPatch || request.path != "/calendars/primary/events/gevt-1" {
		t.Fatalf("expected in-place patch, got %+v", request)
	}

	var count int64
	if err := fx.db.Model(&EventLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("re-sync must not duplicate link rows, found %d", count)
	}
}

func TestGoogleSyncFailureFallsBackToTemplateURL(t *testing.T) {
	fx := newEngineFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend unavailable", http.StatusInternalServerError)
	})
	seedConnection(t, fx.db, "cand-1", ProviderGoogle, "token-1")
	appointment := confirmedAppointment(fx.now)

	if err := fx.engine.SyncForParticipants(context.Background(), appointment, []string{"cand-1"}); err != nil {
		t.Fatalf("provider failure must not surface: %v", err)
	}

	connection := loadConnection(t, fx.db, "cand-1", ProviderGoogle)
	if connection.SyncState != StateSyncFailed {
		t.Fatalf("expected %s, got %s", StateSyncFailed, connection.SyncState)
	}
	if !strings.Contains(connection.SyncError, "http 500") {
		t.Fatalf("sync error must carry the provider status: %q", connection.SyncError)
	}

	link := loadLink(t, fx.db, appointment.ID, ProviderGoogle, "cand-1")
	if !strings.HasPrefix(link.EventURL, "https://calendar.google.com/calendar/render?") {
		t.Fatalf("failed sync must record the template url, got %s", link.EventURL)
	}
	if isRemoteEventID(link.ProviderEventID) {
		t.Fatalf("failed first sync must not record a remote event id: %s", link.ProviderEventID)
	}
}

func TestGoogleSyncWithoutTokenRecordsMissingTokenState(t *testing.T) {
	fx := newEngineFixture(t, respondEvent("gevt-1", ""))
	seedConnection(t, fx.db, "cand-1", ProviderGoogle, "")
	appointment := confirmedAppointment(fx.now)

	if err := fx.engine.SyncForParticipants(context.Background(), appointment, []string{"cand-1"}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(*fx.requests) != 0 {
		t.Fatalf("tokenless connection must not call the provider")
	}

	connection := loadConnection(t, fx.db, "cand-1", ProviderGoogle)
	if connection.SyncState != StateMissingToken {
		t.Fatalf("expected %s, got %s", StateMissingToken, connection.SyncState)
	}

	link := loadLink(t, fx.db, appointment.ID, ProviderGoogle, "cand-1")
	if !strings.HasPrefix(link.EventURL, "https://calendar.google.com/calendar/render?") {
		t.Fatalf("tokenless sync must record the template url, got %s", link.EventURL)
	}
}

func TestAppleSyncAlwaysSucceedsWithDataURL(t *testing.T) {
	fx := newEngineFixture(t, respondEvent("", ""))
	seedConnection(t, fx.db, "cand-1", ProviderApple, "")
	appointment := confirmedAppointment(fx.now)

	if err := fx.engine.SyncForParticipants(context.Background(), appointment, []string{"cand-1"}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(*fx.requests) != 0 {
		t.Fatalf("apple sync must not make provider calls")
	}

	link := loadLink(t, fx.db, appointment.ID, ProviderApple, "cand-1")
	if !strings.HasPrefix(link.EventURL, "data:text/calendar;base64,") {
		t.Fatalf("apple link must be an ics data url, got %s", link.EventURL)
	}

	connection := loadConnection(t, fx.db, "cand-1", ProviderApple)
	if connection.SyncState != StateSynced {
		t.Fatalf("apple sync is always %s, got %s", StateSynced, connection.SyncState)
	}
}

func TestCancelledAppointmentTearsDownMirrors(t *testing.T) {
	fx := newEngineFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	seedConnection(t, fx.db, "cand-1", ProviderGoogle, "token-1")
	seedConnection(t, fx.db, "cand-1", ProviderApple, "")
	appointment := confirmedAppointment(fx.now)

	links := []EventLink{
		{
			ID: "link-g", AppointmentID: appointment.ID, Provider: ProviderGoogle,
			UserID: "cand-1", ProviderEventID: "gevt-1", SyncedAt: fx.now,
		},
		{
			ID: "link-a", AppointmentID: appointment.ID, Provider: ProviderApple,
			UserID: "cand-1", ProviderEventID: "data:text/calendar;base64,QQ==", SyncedAt: fx.now,
		},
	}
	if err := fx.db.Create(&links).Error; err != nil {
		t.Fatalf("failed to seed links: %v", err)
	}

	appointment.Status = scheduling.StatusCancelled
	if err := fx.engine.SyncForParticipants(context.Background(), appointment, []string{"cand-1"}); err != nil {
		t.Fatalf("teardown failed: %v", err)
	}

	if len(*fx.requests) != 1 {
		t.Fatalf("expected one remote delete, got %d", len(*fx.requests))
	}
	request := (*fx.requests)[0]
	if request.method != http.MethodDelete || request.path != "/calendars/primary/events/gevt-1" {
		t.Fatalf("unexpected delete call: %+v", request)
	}

	var count int64
	if err := fx.db.Model(&EventLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("teardown must remove all link rows, found %d", count)
	}
}

func TestTeardownSkipsPlaceholderEventIDs(t *testing.T) {
	fx := newEngineFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	seedConnection(t, fx.db, "cand-1", ProviderGoogle, "token-1")
	appointment := confirmedAppointment(fx.now)

	link := EventLink{
		ID: "link-g", AppointmentID: appointment.ID, Provider: ProviderGoogle,
		UserID: "cand-1", SyncedAt: fx.now,
		ProviderEventID: "https://calendar.google.com/calendar/render?action=TEMPLATE",
	}
	if err := fx.db.Create(&link).Error; err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}

	appointment.Status = scheduling.StatusCancelled
	if err := fx.engine.SyncForParticipants(context.Background(), appointment, []string{"cand-1"}); err != nil {
		t.Fatalf("teardown failed: %v", err)
	}

	if len(*fx.requests) != 0 {
		t.Fatalf("placeholder event ids must not trigger remote deletes")
	}

	var count int64
	if err := fx.db.Model(&EventLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("teardown must still remove the link row, found %d", count)
	}
}

func TestSyncWithoutConnectionsIsANoOp(t *testing.T) {
	fx := newEngineFixture(t, respondEvent("gevt-1", ""))
	appointment := confirmedAppointment(fx.now)

	if err := fx.engine.SyncForParticipants(context.Background(), appointment, []string{"cand-1"}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(*fx.requests) != 0 {
		t.Fatalf("no connections must mean no provider calls")
	}

	var count int64
	if err := fx.db.Model(&EventLink{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no connections must mean no link rows, found %d", count)
	}
}
