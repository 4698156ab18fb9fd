package repository

import (
	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type BillingRepository interface {
	// CreateTransaction inserts the transaction together with its items and links.
	CreateTransaction(db *gorm.DB, transaction *entity.BillingTransaction) error
	FindTransactionByID(db *gorm.DB, id uint) (*entity.BillingTransaction, error)
	// LockPendingTransaction selects the transaction FOR UPDATE only while it
	// is pending, in any casing. A nil result means missing or already processed.
	LockPendingTransaction(db *gorm.DB, id uint) (*entity.BillingTransaction, error)
	UpdateTransaction(db *gorm.DB, transaction *entity.BillingTransaction) error
	FindOpenTransactionForAppointment(db *gorm.DB, appointmentID uint) (*entity.BillingTransaction, error)
	FindActiveLinkByAppointment(db *gorm.DB, appointmentID uint) (*entity.AppointmentBillingLink, error)
	FindLinksByTransaction(db *gorm.DB, transactionID uint) ([]entity.AppointmentBillingLink, error)
	UpdateLinksStatus(db *gorm.DB, transactionID uint, status entity.LinkStatus) error
	FindItems(db *gorm.DB, transactionID uint) ([]entity.BillingTransactionItem, error)
	// ReplaceLabItems swaps the laboratory items of one appointment on a transaction.
	ReplaceLabItems(db *gorm.DB, transactionID, appointmentID uint, items []entity.BillingTransactionItem) error
}
