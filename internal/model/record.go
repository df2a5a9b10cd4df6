package model

import (
	"time"

	"gorm.io/gorm"
)

// PersonalRecord represents an athlete's PR for an exercise. Records are
// created by the athlete and validated by a coach.
type PersonalRecord struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       uint           `json:"gym_id" gorm:"index;not null"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	ExerciseID  uint           `json:"exercise_id" gorm:"index;not null"`
	Value       float64        `json:"value" gorm:"not null"`
	Unit        string         `json:"unit" gorm:"type:varchar(10)"` // "kg", "lb", "reps", "sec"
	AchievedAt  time.Time      `json:"achieved_at"`
	Validated   bool           `json:"validated" gorm:"default:false"`
	ValidatedBy *uint          `json:"validated_by,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
