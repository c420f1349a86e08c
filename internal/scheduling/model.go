package scheduling

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Status tracks where an appointment sits in its lifecycle. Declined and
// cancelled are terminal; rows are retained for the audit trail rather than
// hard-deleted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
)

// Confirmed reports whether the status represents a mutually agreed meeting.
func (s Status) Confirmed() bool {
	return s == StatusScheduled
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusCancelled
}

// NormalizeStatus maps raw status input onto the canonical set. Some client
// call paths say "accepted" where the store says "scheduled"; both mean the
// confirmed state.
func NormalizeStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusScheduled, Status("accepted"):
		return StatusScheduled, true
	case StatusDeclined:
		return StatusDeclined, true
	case StatusCancelled:
		return StatusCancelled, true
	default:
		return "", false
	}
}

// Modality distinguishes virtual meetings from in-person ones.
type Modality string

const (
	ModalityVirtual  Modality = "virtual"
	ModalityInPerson Modality = "in_person"
)

// ParticipantType tags which side of the platform a participant is on.
type ParticipantType string

const (
	ParticipantCandidate ParticipantType = "candidate"
	ParticipantStaff     ParticipantType = "staff"
)

// Appointment models one interview or meeting between a candidate and firm
// staff. Times are stored in UTC; Timezone keeps the IANA label the meeting
// was scheduled in for display and calendar mirroring.
type Appointment struct {
	ID              string    `gorm:"column:id;primaryKey;size:190;not null"`
	Title           string    `gorm:"column:title;size:500;not null"`
	Description     string    `gorm:"column:description;type:text;not null;default:''"`
	Modality        Modality  `gorm:"column:modality;size:32;not null"`
	Location        string    `gorm:"column:location;size:500;not null;default:''"`
	VideoURL        string    `gorm:"column:video_url;size:2000;not null;default:''"`
	StartsAt        time.Time `gorm:"column:starts_at;not null;index:idx_appointments_candidate_window,priority:2"`
	EndsAt          time.Time `gorm:"column:ends_at;not null"`
	Timezone        string    `gorm:"column:timezone;size:64;not null;default:'UTC'"`
	Status          Status    `gorm:"column:status;size:32;not null;index:idx_appointments_status"`
	CandidateUserID string    `gorm:"column:candidate_user_id;size:190;not null;index:idx_appointments_candidate_window,priority:1"`
	CreatedBy       string    `gorm:"column:created_by;size:190;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Appointment) TableName() string {
	return "appointments"
}

// CandidateRequested reports whether the appointment originated as a
// candidate self-serve request.
func (a Appointment) CandidateRequested() bool {
	return a.CreatedBy == a.CandidateUserID
}

// Participant ties one user to one appointment for calendar fan-out and
// reminder addressing.
type Participant struct {
	AppointmentID string          `gorm:"column:appointment_id;primaryKey;size:190;not null"`
	UserID        string          `gorm:"column:user_id;primaryKey;size:190;not null"`
	Type          ParticipantType `gorm:"column:participant_type;size:32;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Participant) TableName() string {
	return "appointment_participants"
}

// AuditEvent captures an append-only trail of lifecycle transitions. The
// snapshot holds the appointment as it was before the transition applied.
type AuditEvent struct {
	ID            string         `gorm:"column:id;primaryKey;size:190;not null"`
	AppointmentID string         `gorm:"column:appointment_id;size:190;not null;index:idx_audit_appointment_time,priority:1"`
	ActorID       string         `gorm:"column:actor_id;size:190;not null"`
	Action        string         `gorm:"column:action;size:64;not null"`
	Snapshot      datatypes.JSON `gorm:"column:snapshot;not null"`
	RecordedAt    time.Time      `gorm:"column:recorded_at;not null;index:idx_audit_appointment_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (AuditEvent) TableName() string {
	return "appointment_audit_events"
}
