package repository

import (
	"errors"

	"go-clinic-management/internal/domain/entity"
	domainRepo "go-clinic-management/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type dailyTransactionRepository struct{}

func NewDailyTransactionRepository() domainRepo.DailyTransactionRepository {
	return &dailyTransactionRepository{}
}

func (r *dailyTransactionRepository) Upsert(db *gorm.DB, row *entity.DailyTransaction) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "billing_transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"transaction_code", "transaction_date", "patient_id", "patient_name", "specialist_name",
			"amount", "discount_amount", "total_amount", "payment_method", "status", "items_count", "updated_at",
		}),
	}).Create(row).Error
}

func (r *dailyTransactionRepository) FindByTransactionID(db *gorm.DB, transactionID uint) (*entity.DailyTransaction, error) {
	var row entity.DailyTransaction
	err := db.Where("billing_transaction_id = ?", transactionID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
