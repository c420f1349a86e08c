package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/barbridge/barbridge/backend/internal/auth"
	"github.com/barbridge/barbridge/backend/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// EventTypeStatus labels the outbound notification emitted on status
// transitions.
const EventTypeStatus = "appointment.status"

// IDProvider issues new appointment and audit identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// CalendarSyncer mirrors confirmed appointments onto participants' external
// calendars. Implementations must be fire-and-forget safe: provider failures
// are recorded as sync state, never returned.
type CalendarSyncer interface {
	SyncForParticipants(ctx context.Context, appointment Appointment, participantIDs []string) error
}

// Notifier enqueues outbound notification work for the external dispatcher.
type Notifier interface {
	QueueStatus(ctx context.Context, candidateID, appointmentID, eventType, status string) error
	QueueReminder(ctx context.Context, appointmentID string, startAt time.Time, participantIDs []string) error
	QueueCancelled(ctx context.Context, appointmentID string, recipientIDs []string) error
}

// Messenger posts a message into the candidate's chat thread. Best-effort on
// decline/cancel paths; its failure never corrupts appointment state.
type Messenger interface {
	SendMessage(ctx context.Context, candidateID, actorID, text string) error
}

// NameResolver resolves a user id to a display name for outbound copy.
type NameResolver interface {
	DisplayName(userID string) (string, error)
}

// ServiceConfig wires the lifecycle service and its collaborators.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
	Calendar   CalendarSyncer
	Notifier   Notifier
	Messenger  Messenger
	Names      NameResolver
}

// Service governs the appointment lifecycle: creation, staff review,
// cancellation, overdue cleanup, and the side effects each transition fans
// out to.
type Service struct {
	db        *gorm.DB
	clock     func() time.Time
	ids       IDProvider
	logger    *zap.Logger
	calendar  CalendarSyncer
	notifier  Notifier
	messenger Messenger
	names     NameResolver
}

// NewService constructs the lifecycle service. Collaborators left nil are
// replaced with no-ops so callers only wire what they use.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(CodeInternal, errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(CodeInternal, errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	calendar := cfg.Calendar
	if calendar == nil {
		calendar = nopCalendar{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	messenger := cfg.Messenger
	if messenger == nil {
		messenger = nopMessenger{}
	}
	names := cfg.Names
	if names == nil {
		names = identityNames{}
	}

	return &Service{
		db:        cfg.Database,
		clock:     clock,
		ids:       cfg.IDProvider,
		logger:    logger,
		calendar:  calendar,
		notifier:  notifier,
		messenger: messenger,
		names:     names,
	}, nil
}

// CreateRequest carries the fields a client supplies when booking.
type CreateRequest struct {
	Title           string
	Description     string
	Modality        Modality
	Location        string
	VideoURL        string
	StartsAt        time.Time
	EndsAt          time.Time
	Timezone        string
	CandidateUserID string
}

// Create books a new appointment. Candidates create self-serve requests that
// land in pending; staff create directly in the confirmed state. Both paths
// run the conflict detector against confirmed appointments inside the same
// transaction as the insert.
func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (Appointment, error) {
	candidateID := req.CandidateUserID
	if !actor.IsStaff() {
		candidateID = actor.UserID
	}
	if candidateID == "" {
		return Appointment{}, newServiceError(CodeForbidden, errors.New("candidate user id required"))
	}

	if err := validateDetails(req.Title, req.Modality, req.Location, req.VideoURL, req.StartsAt, req.EndsAt); err != nil {
		return Appointment{}, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return Appointment{}, newServiceError(CodeInternal, err)
	}

	status := StatusPending
	if actor.IsStaff() {
		status = StatusScheduled
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	now := s.clock().UTC()
	appointment := Appointment{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		Modality:        req.Modality,
		Location:        req.Location,
		VideoURL:        req.VideoURL,
		StartsAt:        req.StartsAt.UTC(),
		EndsAt:          req.EndsAt.UTC(),
		Timezone:        timezone,
		Status:          status,
		CandidateUserID: candidateID,
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		conflict, err := hasConflict(tx, candidateID, appointment.StartsAt, appointment.EndsAt, "")
		if err != nil {
			return newServiceError(CodeInternal, err)
		}
		if conflict {
			return newServiceError(CodeAppointmentConflict, nil)
		}
		if err := tx.Create(&appointment).Error; err != nil {
			return newServiceError(CodeInternal, err)
		}
		return s.upsertParticipants(tx, appointment, actor)
	})
	if err != nil {
		return Appointment{}, err
	}

	metrics.AppointmentsCreated.Inc()

	if appointment.Status.Confirmed() {
		metrics.AppointmentsConfirmed.Inc()
		participants, loadErr := s.participantIDs(appointment.ID)
		if loadErr != nil {
			s.logger.Error("participant lookup failed after create", zap.String("appointment_id", appointment.ID), zap.Error(loadErr))
			return appointment, nil
		}
		s.runEffects(ctx, appointment.ID,
			s.calendarEffect(appointment, participants),
			s.statusNotificationEffect(appointment),
			s.reminderEffect(appointment, participants),
		)
	}

	return appointment, nil
}

// ReviewDecision is a staff member's verdict on a pending request.
type ReviewDecision string

const (
	DecisionAccept  ReviewDecision = "accept"
	DecisionDecline ReviewDecision = "decline"
)

// Review lets staff accept or decline a pending candidate request. Accepting
// re-runs the conflict detector and confirms the appointment; declining
// moves it to its terminal state. Both fan out notifications; only accept
// mirrors calendars.
func (s *Service) Review(ctx context.Context, actor auth.Actor, appointmentID string, decision ReviewDecision) (Appointment, error) {
	if !actor.IsStaff() {
		return Appointment{}, newServiceError(CodeForbidden, nil)
	}
	if decision != DecisionAccept && decision != DecisionDecline {
		return Appointment{}, newServiceError(CodeInvalidStatusTransition, fmt.Errorf("unknown decision %q", decision))
	}

	var appointment Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if loaded.Status != StatusPending {
			return newServiceError(CodeInvalidStatusTransition, fmt.Errorf("review requires pending, found %s", loaded.Status))
		}

		if decision == DecisionAccept {
			conflict, err := hasConflict(tx, loaded.CandidateUserID, loaded.StartsAt, loaded.EndsAt, loaded.ID)
			if err != nil {
				return newServiceError(CodeInternal, err)
			}
			if conflict {
				return newServiceError(CodeAppointmentConflict, nil)
			}
			loaded.Status = StatusScheduled
			loaded.UpdatedAt = s.clock().UTC()
			if err := tx.Save(&loaded).Error; err != nil {
				return newServiceError(CodeInternal, err)
			}
			if err := s.upsertParticipants(tx, loaded, actor); err != nil {
				return err
			}
			appointment = loaded
			return nil
		}

		snapshot := loaded
		loaded.Status = StatusDeclined
		loaded.UpdatedAt = s.clock().UTC()
		if err := tx.Save(&loaded).Error; err != nil {
			return newServiceError(CodeInternal, err)
		}
		if err := s.recordAudit(tx, snapshot, actor.UserID, "review_decline"); err != nil {
			return err
		}
		appointment = loaded
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}

	if decision == DecisionAccept {
		metrics.AppointmentsConfirmed.Inc()
		participants, loadErr := s.participantIDs(appointment.ID)
		if loadErr != nil {
			s.logger.Error("participant lookup failed after accept", zap.String("appointment_id", appointment.ID), zap.Error(loadErr))
			participants = []string{appointment.CandidateUserID, actor.UserID}
		}
		s.runEffects(ctx, appointment.ID,
			s.calendarEffect(appointment, participants),
			s.statusNotificationEffect(appointment),
			s.reminderEffect(appointment, participants),
			s.chatEffect(appointment.CandidateUserID, actor.UserID,
				fmt.Sprintf("Your appointment request %q was accepted.", appointment.Title)),
		)
		return appointment, nil
	}

	s.runEffects(ctx, appointment.ID,
		s.chatEffect(appointment.CandidateUserID, actor.UserID,
			fmt.Sprintf("Your appointment request %q was declined.", appointment.Title)),
		s.statusNotificationEffect(appointment),
	)
	return appointment, nil
}

// Cancel routes a cancellation to the matching lifecycle path: a pending
// self-serve request is withdrawn, a confirmed future appointment is
// cancelled with full fan-out.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, appointmentID string) (Appointment, error) {
	appointment, err := s.Get(ctx, actor, appointmentID)
	if err != nil {
		return Appointment{}, err
	}
	switch {
	case appointment.Status == StatusPending && appointment.CandidateRequested():
		return s.CancelOutgoing(ctx, actor, appointmentID)
	case appointment.Status.Confirmed():
		return s.CancelUpcoming(ctx, actor, appointmentID)
	default:
		return Appointment{}, newServiceError(CodeInvalidStatusTransition,
			fmt.Errorf("cannot cancel appointment in status %s", appointment.Status))
	}
}

// CancelOutgoing withdraws a still-pending candidate request. The request
// was never calendar-synced, so no mirror cleanup runs.
func (s *Service) CancelOutgoing(ctx context.Context, actor auth.Actor, appointmentID string) (Appointment, error) {
	var appointment Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, loaded); err != nil {
			return err
		}
		if loaded.Status != StatusPending || !loaded.CandidateRequested() {
			return newServiceError(CodeInvalidStatusTransition,
				fmt.Errorf("cancel-outgoing requires a pending candidate request"))
		}

		snapshot := loaded
		loaded.Status = StatusCancelled
		loaded.UpdatedAt = s.clock().UTC()
		if err := tx.Save(&loaded).Error; err != nil {
			return newServiceError(CodeInternal, err)
		}
		if err := s.recordAudit(tx, snapshot, actor.UserID, "cancel_outgoing"); err != nil {
			return err
		}
		appointment = loaded
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	metrics.AppointmentsCancelled.Inc()
	return appointment, nil
}

// CancelUpcoming cancels a confirmed, not-yet-started appointment. The other
// party is notified: staff cancelling notifies the candidate, a candidate
// cancelling notifies every staff participant except themselves. Calendar
// mirrors are removed; the chat notice is best-effort.
func (s *Service) CancelUpcoming(ctx context.Context, actor auth.Actor, appointmentID string) (Appointment, error) {
	var appointment Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, loaded); err != nil {
			return err
		}
		if !loaded.Status.Confirmed() {
			return newServiceError(CodeInvalidStatusTransition,
				fmt.Errorf("cancel-upcoming requires a confirmed appointment, found %s", loaded.Status))
		}
		if loaded.StartsAt.Before(s.clock().UTC()) {
			return newServiceError(CodeInvalidStatusTransition,
				errors.New("appointment already started; use ignore-overdue"))
		}

		snapshot := loaded
		loaded.Status = StatusCancelled
		loaded.UpdatedAt = s.clock().UTC()
		if err := tx.Save(&loaded).Error; err != nil {
			return newServiceError(CodeInternal, err)
		}
		if err := s.recordAudit(tx, snapshot, actor.UserID, "cancel_upcoming"); err != nil {
			return err
		}
		appointment = loaded
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}

	metrics.AppointmentsCancelled.Inc()

	participants, loadErr := s.participantIDs(appointment.ID)
	if loadErr != nil {
		s.logger.Error("participant lookup failed after cancel", zap.String("appointment_id", appointment.ID), zap.Error(loadErr))
		participants = []string{appointment.CandidateUserID}
	}

	candidateName, nameErr := s.names.DisplayName(appointment.CandidateUserID)
	if nameErr != nil {
		s.logger.Warn("candidate name lookup failed", zap.String("user_id", appointment.CandidateUserID), zap.Error(nameErr))
		candidateName = appointment.CandidateUserID
	}

	recipients := s.cancellationRecipients(actor, appointment)

	s.runEffects(ctx, appointment.ID,
		s.calendarEffect(appointment, participants),
		s.chatEffect(appointment.CandidateUserID, actor.UserID,
			fmt.Sprintf("The appointment %q with %s was cancelled.", appointment.Title, candidateName)),
		s.cancelledNotificationEffect(appointment, recipients),
	)
	return appointment, nil
}

// IgnoreOverdue lets the candidate clear a confirmed appointment whose start
// time has already passed. Calendar mirrors are removed; by design no
// notification is queued.
func (s *Service) IgnoreOverdue(ctx context.Context, actor auth.Actor, appointmentID string) (Appointment, error) {
	var appointment Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, loaded); err != nil {
			return err
		}
		if !loaded.Status.Confirmed() {
			return newServiceError(CodeInvalidStatusTransition,
				fmt.Errorf("ignore-overdue requires a confirmed appointment, found %s", loaded.Status))
		}
		if !loaded.StartsAt.Before(s.clock().UTC()) {
			return newServiceError(CodeInvalidStatusTransition,
				errors.New("appointment has not started yet"))
		}

		snapshot := loaded
		loaded.Status = StatusCancelled
		loaded.UpdatedAt = s.clock().UTC()
		if err := tx.Save(&loaded).Error; err != nil {
			return newServiceError(CodeInternal, err)
		}
		if err := s.recordAudit(tx, snapshot, actor.UserID, "ignore_overdue"); err != nil {
			return err
		}
		appointment = loaded
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}

	metrics.AppointmentsCancelled.Inc()

	participants, loadErr := s.participantIDs(appointment.ID)
	if loadErr != nil {
		s.logger.Error("participant lookup failed after ignore-overdue", zap.String("appointment_id", appointment.ID), zap.Error(loadErr))
		participants = []string{appointment.CandidateUserID}
	}
	s.runEffects(ctx, appointment.ID, s.calendarEffect(appointment, participants))
	return appointment, nil
}

// UpdateRequest carries the fields staff may edit on an existing appointment.
type UpdateRequest struct {
	Title       string
	Description string
	Modality    Modality
	Location    string
	VideoURL    string
	StartsAt    time.Time
	EndsAt      time.Time
	Timezone    string
}

// StaffUpdate lets staff edit or reschedule a pending or confirmed
// appointment. The conflict detector runs against confirmed appointments
// excluding the one being edited; confirmed appointments are re-mirrored.
func (s *Service) StaffUpdate(ctx context.Context, actor auth.Actor, appointmentID string, req UpdateRequest) (Appointment, error) {
	if !actor.IsStaff() {
		return Appointment{}, newServiceError(CodeForbidden, nil)
	}
	if err := validateDetails(req.Title, req.Modality, req.Location, req.VideoURL, req.StartsAt, req.EndsAt); err != nil {
		return Appointment{}, err
	}

	var appointment Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if loaded.Status.Terminal() {
			return newServiceError(CodeInvalidStatusTransition,
				fmt.Errorf("cannot edit appointment in status %s", loaded.Status))
		}

		conflict, err := hasConflict(tx, loaded.CandidateUserID, req.StartsAt.UTC(), req.EndsAt.UTC(), loaded.ID)
		if err != nil {
			return newServiceError(CodeInternal, err)
		}
		if conflict {
			return newServiceError(CodeAppointmentConflict, nil)
		}

		loaded.Title = req.Title
		loaded.Description = req.Description
		loaded.Modality = req.Modality
		loaded.Location = req.Location
		loaded.VideoURL = req.VideoURL
		loaded.StartsAt = req.StartsAt.UTC()
		loaded.EndsAt = req.EndsAt.UTC()
		if req.Timezone != "" {
			loaded.Timezone = req.Timezone
		}
		loaded.UpdatedAt = s.clock().UTC()
		if err := tx.Save(&loaded).Error; err != nil {
			return newServiceError(CodeInternal, err)
		}
		if err := s.upsertParticipants(tx, loaded, actor); err != nil {
			return err
		}
		appointment = loaded
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}

	if appointment.Status.Confirmed() {
		participants, loadErr := s.participantIDs(appointment.ID)
		if loadErr != nil {
			s.logger.Error("participant lookup failed after update", zap.String("appointment_id", appointment.ID), zap.Error(loadErr))
			return appointment, nil
		}
		s.runEffects(ctx, appointment.ID,
			s.calendarEffect(appointment, participants),
			s.reminderEffect(appointment, participants),
		)
	}
	return appointment, nil
}

// Get loads one appointment, enforcing that only the owning candidate or
// staff may see it.
func (s *Service) Get(_ context.Context, actor auth.Actor, appointmentID string) (Appointment, error) {
	appointment, err := s.loadAppointment(s.db, appointmentID)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.authorize(actor, appointment); err != nil {
		return Appointment{}, err
	}
	return appointment, nil
}

// View returns the role-specific buckets for the actor. Candidates see their
// own appointments; staff see every candidate's.
func (s *Service) View(_ context.Context, actor auth.Actor) (Buckets, error) {
	query := s.db.Model(&Appointment{}).
		Where("status IN ?", []Status{StatusPending, StatusScheduled}).
		Order("starts_at")
	if !actor.IsStaff() {
		query = query.Where("candidate_user_id = ?", actor.UserID)
	}

	var appointments []Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return Buckets{}, newServiceError(CodeInternal, err)
	}

	now := s.clock().UTC()
	if actor.IsStaff() {
		return BucketForStaff(appointments, now), nil
	}
	return BucketForCandidate(appointments, actor.UserID, now), nil
}

// Participants returns the participant user ids for an appointment.
func (s *Service) Participants(_ context.Context, appointmentID string) ([]string, error) {
	return s.participantIDs(appointmentID)
}

func (s *Service) loadAppointment(db *gorm.DB, appointmentID string) (Appointment, error) {
	var appointment Appointment
	err := db.Where("id = ?", appointmentID).First(&appointment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Appointment{}, newServiceError(CodeAppointmentNotFound, nil)
	}
	if err != nil {
		return Appointment{}, newServiceError(CodeInternal, err)
	}
	return appointment, nil
}

func (s *Service) authorize(actor auth.Actor, appointment Appointment) error {
	if actor.IsStaff() || actor.UserID == appointment.CandidateUserID {
		return nil
	}
	return newServiceError(CodeForbidden, nil)
}

func (s *Service) upsertParticipants(tx *gorm.DB, appointment Appointment, actor auth.Actor) error {
	now := s.clock().UTC()
	rows := []Participant{{
		AppointmentID: appointment.ID,
		UserID:        appointment.CandidateUserID,
		Type:          ParticipantCandidate,
		CreatedAt:     now,
	}}
	if actor.UserID != appointment.CandidateUserID {
		participantType := ParticipantCandidate
		if actor.IsStaff() {
			participantType = ParticipantStaff
		}
		rows = append(rows, Participant{
			AppointmentID: appointment.ID,
			UserID:        actor.UserID,
			Type:          participantType,
			CreatedAt:     now,
		})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appointment_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"participant_type"}),
	}).Create(&rows).Error
	if err != nil {
		return newServiceError(CodeInternal, err)
	}
	return nil
}

func (s *Service) participantIDs(appointmentID string) ([]string, error) {
	var rows []Participant
	if err := s.db.Where("appointment_id = ?", appointmentID).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	sort.Strings(ids)
	return ids, nil
}

// cancellationRecipients selects the other party: staff cancelling notifies
// the candidate, a candidate cancelling notifies all staff participants
// except themselves.
func (s *Service) cancellationRecipients(actor auth.Actor, appointment Appointment) []string {
	if actor.IsStaff() {
		return []string{appointment.CandidateUserID}
	}

	var rows []Participant
	if err := s.db.
		Where("appointment_id = ? AND participant_type = ?", appointment.ID, ParticipantStaff).
		Find(&rows).Error; err != nil {
		s.logger.Error("staff participant lookup failed", zap.String("appointment_id", appointment.ID), zap.Error(err))
		return nil
	}
	recipients := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.UserID == actor.UserID {
			continue
		}
		recipients = append(recipients, row.UserID)
	}
	sort.Strings(recipients)
	return recipients
}

func (s *Service) recordAudit(tx *gorm.DB, snapshot Appointment, actorID, action string) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return newServiceError(CodeInternal, err)
	}
	auditID, err := s.ids.NewID()
	if err != nil {
		return newServiceError(CodeInternal, err)
	}
	record := AuditEvent{
		ID:            auditID,
		AppointmentID: snapshot.ID,
		ActorID:       actorID,
		Action:        action,
		Snapshot:      payload,
		RecordedAt:    s.clock().UTC(),
	}
	if err := tx.Create(&record).Error; err != nil {
		return newServiceError(CodeInternal, err)
	}
	return nil
}

func validateDetails(title string, modality Modality, location, videoURL string, start, end time.Time) error {
	if title == "" {
		return newServiceError(CodeMissingTitle, nil)
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return newServiceError(CodeInvalidTimeRange, nil)
	}
	switch modality {
	case ModalityInPerson:
		if location == "" {
			return newServiceError(CodeMissingLocation, nil)
		}
	case ModalityVirtual:
		if videoURL == "" {
			return newServiceError(CodeMissingVideoURL, nil)
		}
	default:
		return newServiceError(CodeInvalidModality, fmt.Errorf("unknown modality %q", modality))
	}
	return nil
}

type nopCalendar struct{}

func (nopCalendar) SyncForParticipants(context.Context, Appointment, []string) error { return nil }

type nopNotifier struct{}

func (nopNotifier) QueueStatus(context.Context, string, string, string, string) error { return nil }
func (nopNotifier) QueueReminder(context.Context, string, time.Time, []string) error  { return nil }
func (nopNotifier) QueueCancelled(context.Context, string, []string) error            { return nil }

type nopMessenger struct{}

func (nopMessenger) SendMessage(context.Context, string, string, string) error { return nil }

type identityNames struct{}

func (identityNames) DisplayName(userID string) (string, error) { return userID, nil }
