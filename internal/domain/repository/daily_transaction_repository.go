package repository

import (
	"go-clinic-management/internal/domain/entity"

	"gorm.io/gorm"
)

type DailyTransactionRepository interface {
	Upsert(db *gorm.DB, row *entity.DailyTransaction) error
	FindByTransactionID(db *gorm.DB, transactionID uint) (*entity.DailyTransaction, error)
}
