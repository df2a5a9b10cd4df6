package model

import (
	"time"

	"gorm.io/gorm"
)

// Exercise represents a movement in a gym's exercise library
type Exercise struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       uint           `json:"gym_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category" gorm:"type:varchar(50)"` // e.g. "weightlifting", "gymnastics", "cardio"
	VideoURL    string         `json:"video_url" gorm:"type:varchar(255)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
