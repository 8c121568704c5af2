package domain

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the identity a session is bound to. Carts and chat treat it
// as an opaque key and never look at credentials.
type Principal struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

// Key is the stable identifier used for cart ownership.
func (p Principal) Key() string {
	return p.UserID.String()
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type Session struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Email     string    `json:"email" gorm:"not null"`
	Role      Role      `json:"role" gorm:"not null;default:'user'"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Session) Principal() Principal {
	return Principal{UserID: s.UserID, Email: s.Email, Role: s.Role}
}

// Expired reports whether the session is past its TTL at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
