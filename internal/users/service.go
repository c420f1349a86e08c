package users

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// ErrUnknownUser indicates no identity row exists for the requested id.
var ErrUnknownUser = errors.New("users: unknown user")

// ServiceConfig describes the dependencies required for identity lookups.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages identity records and display-name resolution.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	names sync.Map
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, now: clock}, nil
}

// Upsert records or refreshes an identity seen at the auth boundary.
func (s *Service) Upsert(userID, role, email, displayName string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUnknownUser
	}

	var identity Identity
	err := s.db.Where("user_id = ?", userID).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = Identity{
			UserID:      userID,
			Role:        role,
			Email:       normalize(email),
			DisplayName: normalize(displayName),
			LastSeenAt:  s.now(),
		}
		if err := s.db.Create(&identity).Error; err != nil {
			return err
		}
		s.names.Store(userID, identity.DisplayName)
		return nil
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"last_seen_at": s.now()}
	if v := normalize(email); v != "" && v != identity.Email {
		updates["email"] = v
	}
	if v := normalize(displayName); v != "" && v != identity.DisplayName {
		updates["display_name"] = v
		s.names.Store(userID, v)
	}
	if role != "" && role != identity.Role {
		updates["role"] = role
	}
	return s.db.Model(&Identity{}).Where("user_id = ?", userID).Updates(updates).Error
}

// DisplayName resolves a user's display name, falling back to the raw id
// when no richer name is on record.
func (s *Service) DisplayName(userID string) (string, error) {
	if cached, ok := s.names.Load(userID); ok {
		if name, ok := cached.(string); ok && name != "" {
			return name, nil
		}
	}

	var identity Identity
	err := s.db.Where("user_id = ?", userID).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return userID, nil
	}
	if err != nil {
		return "", err
	}
	if identity.DisplayName == "" {
		return userID, nil
	}
	s.names.Store(userID, identity.DisplayName)
	return identity.DisplayName, nil
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
