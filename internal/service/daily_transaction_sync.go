package service

import (
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/datetime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DailyTransactionSync keeps the daily_transactions mirror in step with a
// billing transaction.
type DailyTransactionSync interface {
	Sync(tx *gorm.DB, transactionID uint) (*entity.DailyTransaction, error)
}

type dailyTransactionSync struct {
	log            *logrus.Logger
	billingRepo    repository.BillingRepository
	specialistRepo repository.SpecialistRepository
	dailyRepo      repository.DailyTransactionRepository
}

func NewDailyTransactionSync(
	log *logrus.Logger,
	billingRepo repository.BillingRepository,
	specialistRepo repository.SpecialistRepository,
	dailyRepo repository.DailyTransactionRepository,
) DailyTransactionSync {
	return &dailyTransactionSync{
		log:            log,
		billingRepo:    billingRepo,
		specialistRepo: specialistRepo,
		dailyRepo:      dailyRepo,
	}
}

func (s *dailyTransactionSync) Sync(tx *gorm.DB, transactionID uint) (*entity.DailyTransaction, error) {
	transaction, err := s.billingRepo.FindTransactionByID(tx, transactionID)
	if err != nil {
		s.log.Warnf("Failed to load transaction %d for daily sync: %+v", transactionID, err)
		return nil, err
	}
	if transaction == nil {
		return nil, apperror.NotFoundOrAlreadyProcessed("transaction %d not found", transactionID)
	}

	row := &entity.DailyTransaction{
		BillingTransactionID: transaction.ID,
		TransactionCode:      transaction.TransactionCode,
		TransactionDate:      datetime.DateOnly(transaction.TransactionDate),
		PatientID:            transaction.PatientID,
		Amount:               transaction.Amount,
		DiscountAmount:       transaction.DiscountAmount,
		TotalAmount:          transaction.TotalAmount,
		PaymentMethod:        transaction.PaymentMethod,
		Status:               transaction.Status,
		ItemsCount:           len(transaction.Items),
	}
	if transaction.PaidAt != nil {
		row.TransactionDate = datetime.DateOnly(*transaction.PaidAt)
	}
	if transaction.Patient != nil {
		row.PatientName = transaction.Patient.FullName()
	}
	if transaction.SpecialistID != nil {
		specialist, err := s.specialistRepo.FindByID(tx, *transaction.SpecialistID)
		if err != nil {
			s.log.Warnf("Failed to load specialist %d for daily sync: %+v", *transaction.SpecialistID, err)
			return nil, err
		}
		if specialist != nil {
			row.SpecialistName = specialist.Name
		}
	}

	if err := s.dailyRepo.Upsert(tx, row); err != nil {
		s.log.Warnf("Failed to upsert daily transaction of %d: %+v", transactionID, err)
		return nil, err
	}
	return row, nil
}
