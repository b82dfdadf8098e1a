package domain

import "time"

// AccessToken is the persisted side of an opaque bearer token. Only the
// peppered hash of the token is stored.
type AccessToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Name       string     `gorm:"size:64;not null" json:"name"`
	TokenHash  string     `gorm:"uniqueIndex;size:128;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	User       User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
