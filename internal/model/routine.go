package model

import (
	"time"

	"gorm.io/gorm"
)

// Routine represents a reusable training plan built by a coach
type Routine struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       uint           `json:"gym_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Blocks      string         `json:"blocks" gorm:"type:text"` // structured plan content as JSON
	CoachID     uint           `json:"coach_id" gorm:"index"`
	AssigneeID  *uint          `json:"assignee_id,omitempty" gorm:"index"` // nil means available to the whole gym
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
