package domain

import "time"

type Slider struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Image       string    `gorm:"size:1024;not null" json:"image"`
	Title       string    `gorm:"size:255" json:"title"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
