package scheduling

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// effect is one post-commit side effect of a lifecycle transition. Effects
// run after the authoritative write and are never allowed to fail the
// transition; each result is tagged and logged instead.
type effect struct {
	name string
	run  func(ctx context.Context) error
}

func (s *Service) runEffects(ctx context.Context, appointmentID string, effects ...effect) {
	failed := 0
	for _, e := range effects {
		if err := e.run(ctx); err != nil {
			failed++
			s.logger.Warn("appointment side effect failed",
				zap.String("appointment_id", appointmentID),
				zap.String("effect", e.name),
				zap.Error(err))
		}
	}
	if failed > 0 {
		s.logger.Warn("appointment transition committed with degraded side effects",
			zap.String("appointment_id", appointmentID),
			zap.Int("failed", failed),
			zap.Int("total", len(effects)))
	}
}

func (s *Service) calendarEffect(appointment Appointment, participantIDs []string) effect {
	return effect{name: "calendar_sync", run: func(ctx context.Context) error {
		return s.calendar.SyncForParticipants(ctx, appointment, participantIDs)
	}}
}

func (s *Service) statusNotificationEffect(appointment Appointment) effect {
	return effect{name: "status_notification", run: func(ctx context.Context) error {
		return s.notifier.QueueStatus(ctx, appointment.CandidateUserID, appointment.ID,
			EventTypeStatus, string(appointment.Status))
	}}
}

func (s *Service) reminderEffect(appointment Appointment, participantIDs []string) effect {
	return effect{name: "reminder_notification", run: func(ctx context.Context) error {
		return s.notifier.QueueReminder(ctx, appointment.ID, appointment.StartsAt, participantIDs)
	}}
}

func (s *Service) cancelledNotificationEffect(appointment Appointment, recipientIDs []string) effect {
	return effect{name: "cancelled_notification", run: func(ctx context.Context) error {
		if len(recipientIDs) == 0 {
			return nil
		}
		return s.notifier.QueueCancelled(ctx, appointment.ID, recipientIDs)
	}}
}

func (s *Service) chatEffect(candidateID, actorID, text string) effect {
	return effect{name: "chat_message", run: func(ctx context.Context) error {
		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return s.messenger.SendMessage(sendCtx, candidateID, actorID, text)
	}}
}
