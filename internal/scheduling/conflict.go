package scheduling

import (
	"time"

	"gorm.io/gorm"
)

// hasConflict reports whether a confirmed appointment for the candidate
// overlaps the proposed window. Overlap is half-open: starts_at < end AND
// ends_at > start, so ranges that merely touch at an endpoint do not
// conflict. The appointment being edited can be excluded.
//
// A query failure is surfaced to the caller; it is never treated as
// "no conflict".
func hasConflict(db *gorm.DB, candidateID string, start, end time.Time, excludeID string) (bool, error) {
	query := db.Model(&Appointment{}).
		Where("candidate_user_id = ?", candidateID).
		Where("status = ?", StatusScheduled).
		Where("starts_at < ? AND ends_at > ?", end, start)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasConflict exposes the conflict detector for callers outside a lifecycle
// transition, such as availability previews.
func (s *Service) HasConflict(candidateID string, start, end time.Time, excludeID string) (bool, error) {
	return hasConflict(s.db, candidateID, start, end, excludeID)
}
