package model

import (
	"time"

	"gorm.io/gorm"
)

// Gym represents one gym organization, the unit of data isolation.
// Every tenant-scoped record carries a GymID foreign key.
type Gym struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	Address      string         `json:"address" gorm:"type:varchar(255)"`
	ContactEmail string         `json:"contact_email" gorm:"type:varchar(100)"`
	ContactPhone string         `json:"contact_phone" gorm:"type:varchar(30)"`
	Active       bool           `json:"active" gorm:"default:true"`
	Palette      string         `json:"palette" gorm:"type:varchar(30);default:'default'"`
	DarkMode     bool           `json:"dark_mode" gorm:"default:false"`
	LogoURL      string         `json:"logo_url" gorm:"type:varchar(255)"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
