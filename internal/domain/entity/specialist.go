package entity

import "time"

// Specialist types double as the staff role that attends the visit.
const (
	SpecialistTypeDoctor  = "doctor"
	SpecialistTypeMedtech = "medtech"
	SpecialistTypeNurse   = "nurse"
)

// Specialist is a bookable clinician. UserID links the clinician to a login
// account when they have one.
type Specialist struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	SpecialistType string    `gorm:"type:varchar(20);not null;index" json:"specialist_type"`
	UserID         *uint     `gorm:"index" json:"user_id,omitempty"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Specialist) TableName() string {
	return "specialists"
}
