package model

import (
	"time"

	"gorm.io/gorm"
)

// Class represents a recurring class slot on a gym's weekly schedule
type Class struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       uint           `json:"gym_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	CoachID     *uint          `json:"coach_id,omitempty" gorm:"index"`
	DayOfWeek   int            `json:"day_of_week" gorm:"not null"` // 0 = Sunday .. 6 = Saturday
	StartTime   string         `json:"start_time" gorm:"type:varchar(5)"`
	EndTime     string         `json:"end_time" gorm:"type:varchar(5)"`
	Capacity    int            `json:"capacity" gorm:"default:0"` // 0 means unlimited
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
