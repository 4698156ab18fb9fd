package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyTransaction mirrors a BillingTransaction for daily reporting. It is
// re-derived from the source transaction, never edited on its own.
type DailyTransaction struct {
	ID                   uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	BillingTransactionID uint              `gorm:"not null;uniqueIndex" json:"billing_transaction_id"`
	TransactionCode      string            `gorm:"type:varchar(20)" json:"transaction_code"`
	TransactionDate      time.Time         `gorm:"type:date;not null;index" json:"transaction_date"`
	PatientID            uint              `gorm:"not null" json:"patient_id"`
	PatientName          string            `gorm:"type:varchar(255)" json:"patient_name"`
	SpecialistName       string            `gorm:"type:varchar(255)" json:"specialist_name"`
	Amount               decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	DiscountAmount       decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	TotalAmount          decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod        string            `gorm:"type:varchar(30)" json:"payment_method"`
	Status               TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ItemsCount           int               `gorm:"not null" json:"items_count"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyTransaction) TableName() string {
	return "daily_transactions"
}
