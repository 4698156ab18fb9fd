package entity

import "time"

type VisitStatus string

const (
	VisitStatusScheduled  VisitStatus = "scheduled"
	VisitStatusInProgress VisitStatus = "in_progress"
	VisitStatusCompleted  VisitStatus = "completed"
)

// Visit is the clinical encounter derived from a confirmed appointment.
// There is at most one visit per appointment.
type Visit struct {
	ID               uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	VisitCode        string      `gorm:"type:varchar(20);uniqueIndex" json:"visit_code"`
	AppointmentID    uint        `gorm:"not null;uniqueIndex" json:"appointment_id"`
	PatientID        uint        `gorm:"not null;index" json:"patient_id"`
	AttendingStaffID uint        `gorm:"not null;index" json:"attending_staff_id"`
	VisitDateTime    time.Time   `gorm:"not null;index" json:"visit_date_time"`
	Purpose          string      `gorm:"type:varchar(100)" json:"purpose,omitempty"`
	Status           VisitStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes            string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (Visit) TableName() string {
	return "visits"
}
