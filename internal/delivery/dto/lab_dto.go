package dto

import "github.com/shopspring/decimal"

// Request DTOs

// AttachLabTestsRequest targets a visit or an appointment.
type AttachLabTestsRequest struct {
	AppointmentID *uint  `json:"appointment_id" validate:"required_without=VisitID,omitempty,min=1"`
	VisitID       *uint  `json:"visit_id" validate:"required_without=AppointmentID,omitempty,min=1"`
	LabTestIDs    []uint `json:"lab_test_ids" validate:"required,min=1,dive,min=1"`
	Notes         string `json:"notes" validate:"omitempty,max=2000"`
}

// Response DTOs

type LabTestResponse struct {
	ID    uint            `json:"id"`
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type AttachLabTestsResponse struct {
	LabOrderID  uint                 `json:"lab_order_id"`
	AddedTests  []LabTestResponse    `json:"added_tests"`
	TotalAdded  decimal.Decimal      `json:"total_added"`
	Appointment *AppointmentResponse `json:"appointment"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

type RemoveLabTestResponse struct {
	Appointment *AppointmentResponse `json:"appointment"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}
