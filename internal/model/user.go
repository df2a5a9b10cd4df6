package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database.
// Role is a single tag; the hierarchy lives in the rbac package.
// A sysadmin carries no gym binding, every other role is bound to exactly
// one gym at a time.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Phone     string         `json:"phone" gorm:"type:varchar(30)"`
	Role      string         `json:"role" gorm:"type:varchar(20);not null;default:'alumno'"`
	GymID     *uint          `json:"gym_id,omitempty" gorm:"index"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
