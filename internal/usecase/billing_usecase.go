package usecase

import (
	"context"
	"time"

	"go-clinic-management/internal/converter"
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/internal/service"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/monitoring"
	"go-clinic-management/pkg/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	OpCreateTransaction = "billing.create_transaction"
	OpCancelTransaction = "billing.cancel_transaction"
)

type BillingUsecase interface {
	CreateFromAppointments(ctx context.Context, req *dto.CreateTransactionRequest, actingUserID *uint) (*dto.TransactionResponse, error)
	CreateFromAppointment(ctx context.Context, appointmentID uint, req *dto.CreateTransactionRequest, actingUserID *uint) (*dto.TransactionResponse, error)
	CancelTransaction(ctx context.Context, transactionID uint, actingUserID *uint) (*dto.TransactionResponse, error)
	Get(ctx context.Context, transactionID uint) (*dto.TransactionResponse, error)
}

type billingUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	validate        *validator.CustomValidator
	metrics         *monitoring.MetricsCollector
	appointmentRepo repository.AppointmentRepository
	billingRepo     repository.BillingRepository
	composer        service.BillingComposer
	dailySync       service.DailyTransactionSync
	auditService    service.AuditService
	reportCache     service.ReportCache
}

func NewBillingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	validate *validator.CustomValidator,
	metrics *monitoring.MetricsCollector,
	appointmentRepo repository.AppointmentRepository,
	billingRepo repository.BillingRepository,
	composer service.BillingComposer,
	dailySync service.DailyTransactionSync,
	auditService service.AuditService,
	reportCache service.ReportCache,
) BillingUsecase {
	return &billingUsecase{
		db:              db,
		log:             log,
		validate:        validate,
		metrics:         metrics,
		appointmentRepo: appointmentRepo,
		billingRepo:     billingRepo,
		composer:        composer,
		dailySync:       dailySync,
		auditService:    auditService,
		reportCache:     reportCache,
	}
}

// CreateFromAppointments bills a set of confirmed appointments of one patient.
func (u *billingUsecase) CreateFromAppointments(ctx context.Context, req *dto.CreateTransactionRequest, actingUserID *uint) (result *dto.TransactionResponse, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpCreateTransaction, start, err) }(time.Now())

	if err := u.validate.Check(req); err != nil {
		return nil, fail(u.log, OpCreateTransaction, nil, err)
	}
	return u.compose(ctx, req.AppointmentIDs, req, actingUserID)
}

func (u *billingUsecase) CreateFromAppointment(ctx context.Context, appointmentID uint, req *dto.CreateTransactionRequest, actingUserID *uint) (result *dto.TransactionResponse, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpCreateTransaction, start, err) }(time.Now())

	if req == nil {
		req = &dto.CreateTransactionRequest{}
	}
	if err := u.validate.Check(req); err != nil {
		return nil, fail(u.log, OpCreateTransaction, nil, err)
	}
	return u.compose(ctx, []uint{appointmentID}, req, actingUserID)
}

func (u *billingUsecase) compose(ctx context.Context, appointmentIDs []uint, req *dto.CreateTransactionRequest, actingUserID *uint) (*dto.TransactionResponse, error) {
	fields := logrus.Fields{"appointments": appointmentIDs}
	if len(appointmentIDs) == 0 {
		return nil, fail(u.log, OpCreateTransaction, fields, apperror.Invariant("no appointments to bill"))
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointments, err := u.appointmentRepo.LockByIDs(tx, appointmentIDs)
	if err != nil {
		return nil, fail(u.log, OpCreateTransaction, fields, err)
	}
	if missing := missingIDs(appointmentIDs, appointments); len(missing) > 0 {
		return nil, fail(u.log, OpCreateTransaction, fields,
			apperror.NotFoundOrAlreadyProcessed("appointments %v not found", missing))
	}

	transaction, err := u.composer.ComposeFromAppointments(tx, appointments, service.ComposeOptions{
		CreatedBy:     actingUserID,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, fail(u.log, OpCreateTransaction, fields, err)
	}
	fields["transaction_id"] = transaction.ID

	if _, err := u.dailySync.Sync(tx, transaction.ID); err != nil {
		return nil, fail(u.log, OpCreateTransaction, fields, err)
	}

	err = u.auditService.LogCreate(ctx, tx, actingUserID, entity.AuditActionBillingCreate, "billing_transaction", transaction.ID, map[string]interface{}{
		"transaction_code": transaction.TransactionCode,
		"total_amount":     transaction.TotalAmount.StringFixed(2),
		"appointments":     appointmentIDs,
	})
	if err != nil {
		return nil, fail(u.log, OpCreateTransaction, fields, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fail(u.log, OpCreateTransaction, fields, err)
	}

	if err := u.reportCache.Invalidate(ctx); err != nil {
		u.log.Warnf("Failed to invalidate report cache: %+v", err)
	}

	u.log.WithFields(fields).Infof("Transaction %s created for %s", transaction.TransactionCode, transaction.TotalAmount.StringFixed(2))
	return converter.TransactionToResponse(transaction), nil
}

// CancelTransaction voids a pending transaction and releases its appointments
// for billing again.
func (u *billingUsecase) CancelTransaction(ctx context.Context, transactionID uint, actingUserID *uint) (result *dto.TransactionResponse, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpCancelTransaction, start, err) }(time.Now())
	fields := logrus.Fields{"transaction_id": transactionID}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	transaction, err := u.billingRepo.LockPendingTransaction(tx, transactionID)
	if err != nil {
		return nil, fail(u.log, OpCancelTransaction, fields, err)
	}
	if transaction == nil {
		return nil, fail(u.log, OpCancelTransaction, fields,
			apperror.NotFoundOrAlreadyProcessed("transaction %d not found or already processed", transactionID))
	}

	appointmentIDs, err := u.composer.Cancel(tx, transaction)
	if err != nil {
		return nil, fail(u.log, OpCancelTransaction, fields, err)
	}
	if _, err := u.dailySync.Sync(tx, transaction.ID); err != nil {
		return nil, fail(u.log, OpCancelTransaction, fields, err)
	}

	err = u.auditService.LogUpdate(ctx, tx, actingUserID, entity.AuditActionBillingCancel, "billing_transaction", transaction.ID,
		map[string]interface{}{"status": entity.TransactionStatusPending},
		map[string]interface{}{"status": transaction.Status, "appointments": appointmentIDs})
	if err != nil {
		return nil, fail(u.log, OpCancelTransaction, fields, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fail(u.log, OpCancelTransaction, fields, err)
	}

	if err := u.reportCache.Invalidate(ctx); err != nil {
		u.log.Warnf("Failed to invalidate report cache: %+v", err)
	}

	u.log.WithFields(fields).Infof("Transaction %s cancelled", transaction.TransactionCode)
	return converter.TransactionToResponse(transaction), nil
}

func (u *billingUsecase) Get(ctx context.Context, transactionID uint) (*dto.TransactionResponse, error) {
	transaction, err := u.billingRepo.FindTransactionByID(u.db.WithContext(ctx), transactionID)
	if err != nil {
		u.log.Warnf("Failed to find transaction %d: %+v", transactionID, err)
		return nil, err
	}
	if transaction == nil {
		return nil, apperror.NotFoundOrAlreadyProcessed("transaction %d not found", transactionID)
	}
	return converter.TransactionToResponse(transaction), nil
}
