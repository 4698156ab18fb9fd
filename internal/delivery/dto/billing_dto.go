package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateTransactionRequest struct {
	AppointmentIDs []uint `json:"appointment_ids" validate:"dive,min=1"`
	PaymentMethod  string `json:"payment_method" validate:"omitempty,oneof=cash card gcash hmo bank_transfer"`
	Notes          string `json:"notes" validate:"omitempty,max=2000"`
}

// Response DTOs

type TransactionItemResponse struct {
	ID            uint            `json:"id"`
	AppointmentID *uint           `json:"appointment_id,omitempty"`
	LabTestID     *uint           `json:"lab_test_id,omitempty"`
	ItemType      string          `json:"item_type"`
	ItemName      string          `json:"item_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type TransactionResponse struct {
	ID               uint                      `json:"id"`
	TransactionCode  string                    `json:"transaction_code"`
	PatientID        uint                      `json:"patient_id"`
	SpecialistID     *uint                     `json:"specialist_id,omitempty"`
	Amount           decimal.Decimal           `json:"amount"`
	TotalAmount      decimal.Decimal           `json:"total_amount"`
	DiscountAmount   decimal.Decimal           `json:"discount_amount"`
	IsItemized       bool                      `json:"is_itemized"`
	Status           string                    `json:"status"`
	PaymentMethod    string                    `json:"payment_method,omitempty"`
	PaymentReference string                    `json:"payment_reference,omitempty"`
	TransactionDate  time.Time                 `json:"transaction_date"`
	PaidAt           *time.Time                `json:"paid_at,omitempty"`
	AppointmentIDs   []uint                    `json:"appointment_ids,omitempty"`
	Items            []TransactionItemResponse `json:"items,omitempty"`
}
