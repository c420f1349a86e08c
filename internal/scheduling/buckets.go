package scheduling

import "time"

// Buckets is the role-specific classification of a user's visible
// appointments. Each appointment lands in at most one bucket; terminal
// appointments land in none.
type Buckets struct {
	Overdue  []Appointment
	Requests []Appointment
	Upcoming []Appointment
}

// NeedsAttention reports whether the client should show its attention
// indicator. It must be derived from the same bucketing pass that renders
// sections so the indicator cannot drift from the displayed content.
func (b Buckets) NeedsAttention() bool {
	return len(b.Overdue) > 0 || len(b.Upcoming) > 0
}

// IsOverdueConfirmed reports whether the appointment is confirmed with a
// usable start time that has already passed.
func IsOverdueConfirmed(a Appointment, now time.Time) bool {
	return a.Status.Confirmed() && !a.StartsAt.IsZero() && a.StartsAt.Before(now)
}

// IsUpcomingConfirmed reports whether the appointment is confirmed and not
// overdue. A zero start time counts as upcoming so a malformed row stays
// visible instead of silently disappearing.
func IsUpcomingConfirmed(a Appointment, now time.Time) bool {
	return a.Status.Confirmed() && (a.StartsAt.IsZero() || !a.StartsAt.Before(now))
}

// BucketForCandidate classifies appointments for the candidate's own view.
// Requests holds the candidate's still-pending outgoing self-serve requests.
// Evaluation order is overdue, then pending request, then upcoming; the
// first match wins.
func BucketForCandidate(appointments []Appointment, candidateID string, now time.Time) Buckets {
	return bucket(appointments, now, func(a Appointment) bool {
		return a.Status == StatusPending &&
			a.CreatedBy == candidateID &&
			a.CandidateUserID == candidateID
	})
}

// BucketForStaff classifies appointments for a staff view. Requests holds
// every pending appointment that originated from its candidate, regardless
// of which staff member is viewing.
func BucketForStaff(appointments []Appointment, now time.Time) Buckets {
	return bucket(appointments, now, func(a Appointment) bool {
		return a.Status == StatusPending && a.CandidateRequested()
	})
}

func bucket(appointments []Appointment, now time.Time, isRequest func(Appointment) bool) Buckets {
	var out Buckets
	for _, a := range appointments {
		switch {
		case IsOverdueConfirmed(a, now):
			out.Overdue = append(out.Overdue, a)
		case isRequest(a):
			out.Requests = append(out.Requests, a)
		case IsUpcomingConfirmed(a, now):
			out.Upcoming = append(out.Upcoming, a)
		}
	}
	return out
}
