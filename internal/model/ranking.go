package model

import (
	"time"

	"gorm.io/gorm"
)

// Ranking represents a leaderboard published for a gym, optionally tied to
// one workout of the day
type Ranking struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       uint           `json:"gym_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	WodID       *uint          `json:"wod_id,omitempty" gorm:"index"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedBy   uint           `json:"created_by" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
