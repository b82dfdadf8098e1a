package domain

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:1024;not null" json:"-"`
	Role         RoleTier  `gorm:"size:32;not null;index:idx_users_role" json:"role"`
	Blocked      bool      `gorm:"not null;default:false" json:"blocked"`
	Subdomain    *string   `gorm:"uniqueIndex;size:255" json:"subdomain"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsClient() bool {
	return u != nil && u.Role == RoleClient
}

func (u *User) IsAdministrator() bool {
	return u != nil && u.Role == RoleAdministrator
}

// TenantSubdomain returns the assigned subdomain or "" when none is set.
func (u *User) TenantSubdomain() string {
	if u == nil || u.Subdomain == nil {
		return ""
	}
	return *u.Subdomain
}
