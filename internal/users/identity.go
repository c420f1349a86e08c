package users

import "time"

// Identity stores one verified user known to the scheduling backend.
// Profile CRUD lives in the platform's profile services; this table only
// carries what scheduling needs: the canonical id, the role, and a
// display name for outbound messages.
type Identity struct {
	UserID      string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Role        string    `gorm:"column:role;size:32;not null;index:idx_identities_role"`
	Email       string    `gorm:"column:email;size:320;not null;default:''"`
	DisplayName string    `gorm:"column:display_name;size:190;not null;default:''"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Identity) TableName() string {
	return "identities"
}
