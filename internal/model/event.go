package model

import (
	"time"

	"gorm.io/gorm"
)

// Event represents a one-off calendar entry: seminars, competitions, closures
type Event struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       uint           `json:"gym_id" gorm:"index;not null"`
	Title       string         `json:"title" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Location    string         `json:"location" gorm:"type:varchar(255)"`
	StartsAt    time.Time      `json:"starts_at" gorm:"index;not null"`
	EndsAt      time.Time      `json:"ends_at"`
	CreatedBy   uint           `json:"created_by" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
