package scheduling

import (
	"testing"
	"time"
)

var bucketNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func confirmedAt(id string, start time.Time) Appointment {
	return Appointment{
		ID:              id,
		Status:          StatusScheduled,
		StartsAt:        start,
		EndsAt:          start.Add(time.Hour),
		CandidateUserID: "cand-1",
		CreatedBy:       "staff-1",
	}
}

func pendingRequest(id, createdBy, candidateID string) Appointment {
	return Appointment{
		ID:              id,
		Status:          StatusPending,
		StartsAt:        bucketNow.Add(48 * time.Hour),
		EndsAt:          bucketNow.Add(49 * time.Hour),
		CandidateUserID: candidateID,
		CreatedBy:       createdBy,
	}
}

func TestOverdueAndUpcomingAreMutuallyExclusive(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
	}{
		{"two hours past", bucketNow.Add(-2 * time.Hour)},
		{"one second past", bucketNow.Add(-time.Second)},
		{"exactly now", bucketNow},
		{"one hour ahead", bucketNow.Add(time.Hour)},
		{"zero start", time.Time{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appointment := confirmedAt("a-1", tc.start)
			overdue := IsOverdueConfirmed(appointment, bucketNow)
			upcoming := IsUpcomingConfirmed(appointment, bucketNow)
			if overdue == upcoming {
				t.Fatalf("expected exactly one of overdue/upcoming, got overdue=%v upcoming=%v", overdue, upcoming)
			}
		})
	}
}

func TestOverdueRequiresConfirmedStatus(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusDeclined, StatusCancelled} {
		appointment := confirmedAt("a-1", bucketNow.Add(-time.Hour))
		appointment.Status = status
		if IsOverdueConfirmed(appointment, bucketNow) {
			t.Fatalf("status %s must not be overdue", status)
		}
		if IsUpcomingConfirmed(appointment, bucketNow) {
			t.Fatalf("status %s must not be upcoming", status)
		}
	}
}

func TestBucketForCandidatePlacesEachAppointmentOnce(t *testing.T) {
	appointments := []Appointment{
		confirmedAt("overdue-1", bucketNow.Add(-3*time.Hour)),
		confirmedAt("upcoming-1", bucketNow.Add(3*time.Hour)),
		pendingRequest("outgoing-1", "cand-1", "cand-1"),
		pendingRequest("staff-created", "staff-1", "cand-1"),
		{ID: "cancelled-1", Status: StatusCancelled, StartsAt: bucketNow.Add(time.Hour), CandidateUserID: "cand-1"},
	}

	buckets := BucketForCandidate(appointments, "cand-1", bucketNow)

	if len(buckets.Overdue) != 1 || buckets.Overdue[0].ID != "overdue-1" {
		t.Fatalf("unexpected overdue bucket: %#v", buckets.Overdue)
	}
	if len(buckets.Requests) != 1 || buckets.Requests[0].ID != "outgoing-1" {
		t.Fatalf("unexpected requests bucket: %#v", buckets.Requests)
	}
	if len(buckets.Upcoming) != 1 || buckets.Upcoming[0].ID != "upcoming-1" {
		t.Fatalf("unexpected upcoming bucket: %#v", buckets.Upcoming)
	}

	seen := map[string]int{}
	for _, a := range buckets.Overdue {
		seen[a.ID]++
	}
	for _, a := range buckets.Requests {
		seen[a.ID]++
	}
	for _, a := range buckets.Upcoming {
		seen[a.ID]++
	}
	for id, count := range seen {
		if count > 1 {
			t.Fatalf("appointment %s appeared in %d buckets", id, count)
		}
	}
}

func TestBucketForStaffAcceptsAnyCandidateRequest(t *testing.T) {
	appointments := []Appointment{
		pendingRequest("incoming-1", "cand-1", "cand-1"),
		pendingRequest("staff-created", "staff-2", "cand-1"),
	}

	buckets := BucketForStaff(appointments, bucketNow)

	if len(buckets.Requests) != 1 || buckets.Requests[0].ID != "incoming-1" {
		t.Fatalf("expected only the candidate-originated request, got %#v", buckets.Requests)
	}
}

func TestBucketingIsIdempotent(t *testing.T) {
	appointments := []Appointment{
		confirmedAt("overdue-1", bucketNow.Add(-time.Hour)),
		confirmedAt("upcoming-1", bucketNow.Add(time.Hour)),
		pendingRequest("outgoing-1", "cand-1", "cand-1"),
	}

	first := BucketForCandidate(appointments, "cand-1", bucketNow)
	second := BucketForCandidate(appointments, "cand-1", bucketNow)

	if len(first.Overdue) != len(second.Overdue) ||
		len(first.Requests) != len(second.Requests) ||
		len(first.Upcoming) != len(second.Upcoming) {
		t.Fatalf("bucketing not idempotent: %#v vs %#v", first, second)
	}
	for i := range first.Overdue {
		if first.Overdue[i].ID != second.Overdue[i].ID {
			t.Fatalf("overdue order changed between runs")
		}
	}
}

func TestNeedsAttention(t *testing.T) {
	empty := Buckets{}
	if empty.NeedsAttention() {
		t.Fatalf("empty buckets must not need attention")
	}

	withRequest := Buckets{Requests: []Appointment{pendingRequest("r", "cand-1", "cand-1")}}
	if withRequest.NeedsAttention() {
		t.Fatalf("pending requests alone must not trigger the indicator")
	}

	withUpcoming := Buckets{Upcoming: []Appointment{confirmedAt("u", bucketNow.Add(time.Hour))}}
	if !withUpcoming.NeedsAttention() {
		t.Fatalf("upcoming appointments must trigger the indicator")
	}

	withOverdue := Buckets{Overdue: []Appointment{confirmedAt("o", bucketNow.Add(-time.Hour))}}
	if !withOverdue.NeedsAttention() {
		t.Fatalf("overdue appointments must trigger the indicator")
	}
}
