package repository

import (
	"errors"

	"go-clinic-management/internal/domain/entity"
	domainRepo "go-clinic-management/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type billingRepository struct{}

func NewBillingRepository() domainRepo.BillingRepository {
	return &billingRepository{}
}

func (r *billingRepository) CreateTransaction(db *gorm.DB, transaction *entity.BillingTransaction) error {
	return db.Omit("Patient").Create(transaction).Error
}

func (r *billingRepository) FindTransactionByID(db *gorm.DB, id uint) (*entity.BillingTransaction, error) {
	var transaction entity.BillingTransaction
	err := db.Preload("Patient").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Links").
		Where("id = ?", id).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *billingRepository) LockPendingTransaction(db *gorm.DB, id uint) (*entity.BillingTransaction, error) {
	var transaction entity.BillingTransaction
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND LOWER(status) = ?", id, entity.TransactionStatusPending).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *billingRepository) UpdateTransaction(db *gorm.DB, transaction *entity.BillingTransaction) error {
	return db.Omit(clause.Associations).Save(transaction).Error
}

// FindOpenTransactionForAppointment returns the pending transaction billing
// the appointment, if any.
func (r *billingRepository) FindOpenTransactionForAppointment(db *gorm.DB, appointmentID uint) (*entity.BillingTransaction, error) {
	var transaction entity.BillingTransaction
	err := db.Joins("JOIN appointment_billing_links abl ON abl.billing_transaction_id = billing_transactions.id").
		Where("abl.appointment_id = ? AND abl.status = ? AND billing_transactions.status = ?",
			appointmentID, entity.LinkStatusPending, entity.TransactionStatusPending).
		Order("billing_transactions.id DESC").
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *billingRepository) FindActiveLinkByAppointment(db *gorm.DB, appointmentID uint) (*entity.AppointmentBillingLink, error) {
	var link entity.AppointmentBillingLink
	err := db.Where("appointment_id = ? AND status <> ?", appointmentID, entity.LinkStatusCancelled).
		Order("id DESC").
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *billingRepository) FindLinksByTransaction(db *gorm.DB, transactionID uint) ([]entity.AppointmentBillingLink, error) {
	var links []entity.AppointmentBillingLink
	err := db.Where("billing_transaction_id = ?", transactionID).Order("id ASC").Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *billingRepository) UpdateLinksStatus(db *gorm.DB, transactionID uint, status entity.LinkStatus) error {
	return db.Model(&entity.AppointmentBillingLink{}).
		Where("billing_transaction_id = ?", transactionID).
		Update("status", status).Error
}

func (r *billingRepository) FindItems(db *gorm.DB, transactionID uint) ([]entity.BillingTransactionItem, error) {
	var items []entity.BillingTransactionItem
	err := db.Where("billing_transaction_id = ?", transactionID).Order("id ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *billingRepository) ReplaceLabItems(db *gorm.DB, transactionID, appointmentID uint, items []entity.BillingTransactionItem) error {
	err := db.Where("billing_transaction_id = ? AND appointment_id = ? AND item_type = ?",
		transactionID, appointmentID, entity.ItemTypeLaboratory).
		Delete(&entity.BillingTransactionItem{}).Error
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].BillingTransactionID = transactionID
	}
	return db.Create(&items).Error
}
