package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusPaid      TransactionStatus = "paid"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

const (
	ItemTypeConsultation = "consultation"
	ItemTypeLaboratory   = "laboratory"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodGCash        = "gcash"
	PaymentMethodHMO          = "hmo"
	PaymentMethodBankTransfer = "bank_transfer"
)

// BillingTransaction is an invoice for one or more appointments. Under
// itemized billing TotalAmount always equals the sum of its items.
type BillingTransaction struct {
	ID               uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionCode  string            `gorm:"type:varchar(20);uniqueIndex" json:"transaction_code"`
	PatientID        uint              `gorm:"not null;index" json:"patient_id"`
	SpecialistID     *uint             `gorm:"index" json:"specialist_id,omitempty"`
	Amount           decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	TotalAmount      decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DiscountAmount   decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	IsItemized       bool              `gorm:"not null" json:"is_itemized"`
	Status           TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod    string            `gorm:"type:varchar(30)" json:"payment_method,omitempty"`
	PaymentReference string            `gorm:"type:varchar(100)" json:"payment_reference,omitempty"`
	TransactionDate  time.Time         `gorm:"not null;index" json:"transaction_date"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	CreatedBy        *uint             `json:"created_by,omitempty"`
	Notes            string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	Patient *Patient                 `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Items   []BillingTransactionItem `gorm:"foreignKey:BillingTransactionID" json:"items,omitempty"`
	Links   []AppointmentBillingLink `gorm:"foreignKey:BillingTransactionID" json:"links,omitempty"`
}

func (BillingTransaction) TableName() string {
	return "billing_transactions"
}

// IsPending checks if the transaction can still be paid or changed.
// Legacy rows may carry "Pending", so casing is ignored.
func (t *BillingTransaction) IsPending() bool {
	return strings.EqualFold(string(t.Status), string(TransactionStatusPending))
}

// BillingTransactionItem is one consultation or lab test line.
type BillingTransactionItem struct {
	ID                   uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	BillingTransactionID uint            `gorm:"not null;index" json:"billing_transaction_id"`
	AppointmentID        *uint           `gorm:"index" json:"appointment_id,omitempty"`
	LabTestID            *uint           `gorm:"index" json:"lab_test_id,omitempty"`
	ItemType             string          `gorm:"type:varchar(20);not null" json:"item_type"`
	ItemName             string          `gorm:"type:varchar(255);not null" json:"item_name"`
	Quantity             int             `gorm:"not null" json:"quantity"`
	UnitPrice            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (BillingTransactionItem) TableName() string {
	return "billing_transaction_items"
}

type LinkStatus string

const (
	LinkStatusPending   LinkStatus = "pending"
	LinkStatusPaid      LinkStatus = "paid"
	LinkStatusCancelled LinkStatus = "cancelled"
)

// AppointmentBillingLink ties an appointment to the transaction billing it.
type AppointmentBillingLink struct {
	ID                   uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentID        uint            `gorm:"not null;index" json:"appointment_id"`
	BillingTransactionID uint            `gorm:"not null;index" json:"billing_transaction_id"`
	AppointmentType      string          `gorm:"type:varchar(50)" json:"appointment_type"`
	AppointmentPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"appointment_price"`
	Status               LinkStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AppointmentBillingLink) TableName() string {
	return "appointment_billing_links"
}
