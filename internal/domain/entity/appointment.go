package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AppointmentStatus moves Pending -> Confirmed -> Completed, or Pending -> Cancelled.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "Pending"
	AppointmentStatusConfirmed AppointmentStatus = "Confirmed"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// AppointmentSource records how the appointment was booked.
type AppointmentSource string

const (
	AppointmentSourceOnline AppointmentSource = "Online"
	AppointmentSourceWalkIn AppointmentSource = "Walk-in"
)

// BillingStatus tracks where an appointment is in the billing pipeline.
type BillingStatus string

const (
	BillingStatusPending       BillingStatus = "pending"
	BillingStatusInTransaction BillingStatus = "in_transaction"
	BillingStatusPaid          BillingStatus = "paid"
)

// Appointment types with a fixed price, plus the manually priced one.
const (
	AppointmentTypeConsultation        = "consultation"
	AppointmentTypeGeneralConsultation = "general_consultation"
	AppointmentTypeFecalysis           = "fecalysis"
	AppointmentTypeCBC                 = "cbc"
	AppointmentTypeUrinalysis          = "urinalysis"
	AppointmentTypeXRay                = "x-ray"
	AppointmentTypeUltrasound          = "ultrasound"
	AppointmentTypeManualTransaction   = "manual_transaction"
)

// Appointment is a booking of a patient with a specialist. Price is the
// consultation price; FinalTotalAmount adds every attached lab test.
type Appointment struct {
	ID                 uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentCode    string            `gorm:"type:varchar(20);uniqueIndex" json:"appointment_code"`
	PatientID          uint              `gorm:"not null;index" json:"patient_id"`
	SpecialistID       *uint             `gorm:"index" json:"specialist_id,omitempty"`
	AppointmentType    string            `gorm:"type:varchar(50);not null" json:"appointment_type"`
	SpecialistType     string            `gorm:"type:varchar(20)" json:"specialist_type"`
	AppointmentDate    time.Time         `gorm:"type:date;not null;index" json:"appointment_date"`
	AppointmentTime    string            `gorm:"type:time;not null" json:"appointment_time"`
	Status             AppointmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Source             AppointmentSource `gorm:"type:varchar(20);not null" json:"source"`
	BillingStatus      BillingStatus     `gorm:"type:varchar(20);not null;index" json:"billing_status"`
	Price              decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"price"`
	TotalLabAmount     decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_lab_amount"`
	FinalTotalAmount   decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"final_total_amount"`
	Notes              string            `gorm:"type:text" json:"notes,omitempty"`
	AdminNotes         string            `gorm:"type:text" json:"admin_notes,omitempty"`
	CancellationReason string            `gorm:"type:text" json:"cancellation_reason,omitempty"`
	ConfirmedBy        *uint             `json:"confirmed_by,omitempty"`
	CreatedBy          *uint             `json:"created_by,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relationships
	Patient    *Patient    `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Specialist *Specialist `gorm:"foreignKey:SpecialistID" json:"specialist,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsPending checks if appointment still awaits an admin decision
func (a *Appointment) IsPending() bool {
	return a.Status == AppointmentStatusPending
}

// IsCancelled checks if appointment was rejected or cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// Confirm changes appointment status to confirmed
func (a *Appointment) Confirm() {
	a.Status = AppointmentStatusConfirmed
}

// Cancel changes appointment status to cancelled
func (a *Appointment) Cancel(reason string) {
	a.Status = AppointmentStatusCancelled
	a.CancellationReason = reason
}

// Complete changes appointment status to completed
func (a *Appointment) Complete() {
	a.Status = AppointmentStatusCompleted
}

// ApplyLabTotal sets the lab amount and recomputes the final total.
func (a *Appointment) ApplyLabTotal(labTotal decimal.Decimal) {
	a.TotalLabAmount = labTotal
	a.FinalTotalAmount = a.Price.Add(labTotal)
}
