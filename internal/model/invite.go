package model

import (
	"time"

	"gorm.io/gorm"
)

// Invite is a bounded-use, optionally time-limited code that binds a new
// user to a gym at registration. Retirement is flipping IsActive or
// exhausting the use limit; deletion is an optional admin action.
type Invite struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Code      string         `json:"code" gorm:"type:varchar(64);uniqueIndex"`
	GymID     uint           `json:"gym_id" gorm:"index;not null"`
	Role      string         `json:"role" gorm:"type:varchar(20);not null;default:'alumno'"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	MaxUses   *int           `json:"max_uses,omitempty"`
	UsedCount int            `json:"used_count" gorm:"default:0"`
	CreatedBy uint           `json:"created_by" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Gym Gym `json:"gym,omitempty" gorm:"foreignKey:GymID"`
}

// Redeemable reports whether the invite can still be used at the given time:
// it must be active, not expired, and under its use limit.
func (i *Invite) Redeemable(now time.Time) bool {
	if !i.IsActive {
		return false
	}
	if i.ExpiresAt != nil && !now.Before(*i.ExpiresAt) {
		return false
	}
	if i.MaxUses != nil && i.UsedCount >= *i.MaxUses {
		return false
	}
	return true
}
