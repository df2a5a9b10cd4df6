package model

import (
	"time"

	"gorm.io/gorm"
)

// Wod represents a workout of the day scheduled on a given date
type Wod struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       uint           `json:"gym_id" gorm:"index;not null"`
	Date        time.Time      `json:"date" gorm:"index;not null"`
	Title       string         `json:"title" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Format      string         `json:"format" gorm:"type:varchar(20)"` // "amrap", "emom", "for_time", "strength"
	CoachID     uint           `json:"coach_id" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
