package entity

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Patient holds identity, contact and free-text medical history.
type Patient struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientNo          string         `gorm:"type:varchar(20);uniqueIndex" json:"patient_no"`
	UserID             *uint          `gorm:"index" json:"user_id,omitempty"`
	FirstName          string         `gorm:"type:varchar(100);not null;index:idx_patient_identity" json:"first_name"`
	MiddleName         string         `gorm:"type:varchar(100)" json:"middle_name,omitempty"`
	LastName           string         `gorm:"type:varchar(100);not null;index:idx_patient_identity" json:"last_name"`
	Birthdate          *time.Time     `gorm:"type:date;index:idx_patient_identity" json:"birthdate,omitempty"`
	Sex                string         `gorm:"type:varchar(10)" json:"sex,omitempty"`
	MobileNo           string         `gorm:"type:varchar(20);index" json:"mobile_no,omitempty"`
	Email              string         `gorm:"type:varchar(255)" json:"email,omitempty"`
	Address            string         `gorm:"type:text" json:"address,omitempty"`
	MedicalHistory     string         `gorm:"type:text" json:"medical_history,omitempty"`
	Allergies          string         `gorm:"type:text" json:"allergies,omitempty"`
	CurrentMedications string         `gorm:"type:text" json:"current_medications,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Patient) TableName() string {
	return "patients"
}

// FullName joins the name parts, skipping an empty middle name.
func (p *Patient) FullName() string {
	parts := []string{p.FirstName}
	if p.MiddleName != "" {
		parts = append(parts, p.MiddleName)
	}
	parts = append(parts, p.LastName)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Sex values
const (
	SexMale   = "Male"
	SexFemale = "Female"
)
