package model

import (
	"time"

	"gorm.io/gorm"
)

// News represents an announcement published on a gym's board
type News struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       uint           `json:"gym_id" gorm:"index;not null"`
	Title       string         `json:"title" gorm:"type:varchar(150);not null"`
	Body        string         `json:"body" gorm:"type:text"`
	Pinned      bool           `json:"pinned" gorm:"default:false"`
	AuthorID    uint           `json:"author_id" gorm:"index"`
	PublishedAt *time.Time     `json:"published_at,omitempty"` // nil while still a draft
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
