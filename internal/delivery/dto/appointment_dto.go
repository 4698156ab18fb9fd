package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateAppointmentRequest struct {
	PatientID       *uint            `json:"patient_id" validate:"required_without=Patient,omitempty,min=1"`
	Patient         *PatientRequest  `json:"patient" validate:"required_without=PatientID,omitempty"`
	SpecialistID    *uint            `json:"specialist_id" validate:"omitempty,min=1"`
	AppointmentType string           `json:"appointment_type" validate:"required,oneof=consultation general_consultation fecalysis cbc urinalysis x-ray ultrasound manual_transaction"`
	SpecialistType  string           `json:"specialist_type" validate:"omitempty,oneof=doctor medtech nurse"`
	AppointmentDate string           `json:"appointment_date" validate:"required,clockdate"`
	AppointmentTime string           `json:"appointment_time" validate:"required,clocktime"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Notes           string           `json:"notes" validate:"omitempty,max=2000"`
}

type ApproveAppointmentRequest struct {
	SpecialistID *uint  `json:"specialist_id" validate:"omitempty,min=1"`
	AdminNotes   string `json:"admin_notes" validate:"omitempty,max=2000"`
}

type RejectAppointmentRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type ProcessPaymentRequest struct {
	PaymentMethod    string `json:"payment_method" validate:"required,oneof=cash card gcash hmo bank_transfer"`
	PaymentReference string `json:"payment_reference" validate:"omitempty,max=100"`
}

// Response DTOs

type AppointmentResponse struct {
	ID                 uint             `json:"id"`
	AppointmentCode    string           `json:"appointment_code"`
	PatientID          uint             `json:"patient_id"`
	Patient            *PatientResponse `json:"patient,omitempty"`
	SpecialistID       *uint            `json:"specialist_id,omitempty"`
	SpecialistName     string           `json:"specialist_name,omitempty"`
	AppointmentType    string           `json:"appointment_type"`
	SpecialistType     string           `json:"specialist_type,omitempty"`
	AppointmentDate    string           `json:"appointment_date"`
	AppointmentTime    string           `json:"appointment_time"`
	Status             string           `json:"status"`
	Source             string           `json:"source"`
	BillingStatus      string           `json:"billing_status"`
	Price              decimal.Decimal  `json:"price"`
	TotalLabAmount     decimal.Decimal  `json:"total_lab_amount"`
	FinalTotalAmount   decimal.Decimal  `json:"final_total_amount"`
	Notes              string           `json:"notes,omitempty"`
	AdminNotes         string           `json:"admin_notes,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type VisitResponse struct {
	ID               uint   `json:"id"`
	VisitCode        string `json:"visit_code"`
	AppointmentID    uint   `json:"appointment_id"`
	PatientID        uint   `json:"patient_id"`
	AttendingStaffID uint   `json:"attending_staff_id"`
	VisitDateTime    string `json:"visit_date_time"`
	Purpose          string `json:"purpose,omitempty"`
	Status           string `json:"status"`
}

// AppointmentResult is returned by every appointment workflow call.
type AppointmentResult struct {
	Appointment    *AppointmentResponse `json:"appointment"`
	PatientCreated bool                 `json:"patient_created,omitempty"`
	Visit          *VisitResponse       `json:"visit,omitempty"`
	Transaction    *TransactionResponse `json:"transaction,omitempty"`
}

type PaymentResult struct {
	Transaction  *TransactionResponse  `json:"transaction"`
	Appointments []AppointmentResponse `json:"appointments"`
}
