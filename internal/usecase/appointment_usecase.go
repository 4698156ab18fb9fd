package usecase

import (
	"context"
	"fmt"
	"time"

	"go-clinic-management/config"
	"go-clinic-management/internal/converter"
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/internal/service"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/datetime"
	"go-clinic-management/pkg/monitoring"
	"go-clinic-management/pkg/validator"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	OpCreateOnline   = "appointment.create_online"
	OpCreateWalkIn   = "appointment.create_walk_in"
	OpApprove        = "appointment.approve"
	OpReject         = "appointment.reject"
	OpProcessPayment = "billing.process_payment"
)

type AppointmentUsecase interface {
	CreateOnline(ctx context.Context, req *dto.CreateAppointmentRequest, actingUserID *uint) (*dto.AppointmentResult, error)
	CreateWalkIn(ctx context.Context, req *dto.CreateAppointmentRequest, actingUserID *uint) (*dto.AppointmentResult, error)
	Approve(ctx context.Context, appointmentID uint, req *dto.ApproveAppointmentRequest, actingUserID *uint) (*dto.AppointmentResult, error)
	Reject(ctx context.Context, appointmentID uint, req *dto.RejectAppointmentRequest, actingUserID *uint) (*dto.AppointmentResult, error)
	ProcessPayment(ctx context.Context, transactionID uint, req *dto.ProcessPaymentRequest, actingUserID *uint) (*dto.PaymentResult, error)
	Get(ctx context.Context, appointmentID uint) (*dto.AppointmentResponse, error)
	ListByPatient(ctx context.Context, patientID uint) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	validate        *validator.CustomValidator
	workflow        config.WorkflowConfig
	metrics         *monitoring.MetricsCollector
	appointmentRepo repository.AppointmentRepository
	specialistRepo  repository.SpecialistRepository
	visitRepo       repository.VisitRepository
	billingRepo     repository.BillingRepository
	codes           service.CodeGenerator
	patients        service.PatientResolver
	visits          service.VisitMaterializer
	billing         service.BillingComposer
	notifier        service.NotificationDispatcher
	dailySync       service.DailyTransactionSync
	auditService    service.AuditService
	reportCache     service.ReportCache
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	validate *validator.CustomValidator,
	workflow config.WorkflowConfig,
	metrics *monitoring.MetricsCollector,
	appointmentRepo repository.AppointmentRepository,
	specialistRepo repository.SpecialistRepository,
	visitRepo repository.VisitRepository,
	billingRepo repository.BillingRepository,
	codes service.CodeGenerator,
	patients service.PatientResolver,
	visits service.VisitMaterializer,
	billing service.BillingComposer,
	notifier service.NotificationDispatcher,
	dailySync service.DailyTransactionSync,
	auditService service.AuditService,
	reportCache service.ReportCache,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		validate:        validate,
		workflow:        workflow,
		metrics:         metrics,
		appointmentRepo: appointmentRepo,
		specialistRepo:  specialistRepo,
		visitRepo:       visitRepo,
		billingRepo:     billingRepo,
		codes:           codes,
		patients:        patients,
		visits:          visits,
		billing:         billing,
		notifier:        notifier,
		dailySync:       dailySync,
		auditService:    auditService,
		reportCache:     reportCache,
	}
}

// CreateOnline books a Pending appointment and notifies every active admin.
func (u *appointmentUsecase) CreateOnline(ctx context.Context, req *dto.CreateAppointmentRequest, actingUserID *uint) (result *dto.AppointmentResult, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpCreateOnline, start, err) }(time.Now())
	return u.create(ctx, OpCreateOnline, req, actingUserID, false)
}

// CreateWalkIn books a Confirmed appointment and opens its visit right away.
// Billing stays with the admin unless auto billing is switched on.
func (u *appointmentUsecase) CreateWalkIn(ctx context.Context, req *dto.CreateAppointmentRequest, actingUserID *uint) (result *dto.AppointmentResult, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpCreateWalkIn, start, err) }(time.Now())
	return u.create(ctx, OpCreateWalkIn, req, actingUserID, true)
}

func (u *appointmentUsecase) create(ctx context.Context, op string, req *dto.CreateAppointmentRequest, actingUserID *uint, walkIn bool) (*dto.AppointmentResult, error) {
	if err := u.validate.Check(req); err != nil {
		return nil, fail(u.log, op, nil, err)
	}

	date, err := datetime.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, fail(u.log, op, nil, apperror.ValidationFields(map[string]string{"appointment_date": err.Error()}))
	}
	clock, err := datetime.ParseClock(req.AppointmentTime)
	if err != nil {
		return nil, fail(u.log, op, nil, apperror.ValidationFields(map[string]string{"appointment_time": err.Error()}))
	}
	requested := decimal.Zero
	if req.Price != nil {
		requested = *req.Price
	}
	price, err := service.AppointmentPrice(req.AppointmentType, requested)
	if err != nil {
		return nil, fail(u.log, op, nil, err)
	}
	identity, err := identityFromRequest(req.Patient)
	if err != nil {
		return nil, fail(u.log, op, nil, err)
	}
	// Online bookings come from the patient's own portal account
	if !walkIn {
		identity.UserID = actingUserID
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	var (
		patient *entity.Patient
		created bool
	)
	if req.PatientID != nil {
		patient, err = u.patients.FindByID(tx, *req.PatientID)
	} else {
		patient, created, err = u.patients.FindOrCreate(tx, identity)
	}
	if err != nil {
		return nil, fail(u.log, op, nil, err)
	}
	fields := logrus.Fields{"patient_id": patient.ID}

	specialistType := req.SpecialistType
	var specialist *entity.Specialist
	if req.SpecialistID != nil {
		specialist, err = u.findSpecialist(tx, *req.SpecialistID)
		if err != nil {
			return nil, fail(u.log, op, fields, err)
		}
		if specialistType == "" {
			specialistType = specialist.SpecialistType
		}
	}

	if u.workflow.DuplicateCheck {
		duplicate, err := u.appointmentRepo.FindDuplicate(tx, patient.ID, req.SpecialistID, date, clock)
		if err != nil {
			return nil, fail(u.log, op, fields, err)
		}
		if duplicate != nil {
			return nil, fail(u.log, op, fields, apperror.Validation(
				"patient already has appointment %s with this specialist on %s at %s",
				duplicate.AppointmentCode, date.Format(datetime.DateLayout), clock))
		}
	}

	code, err := service.NextCode(u.codes, tx, service.AppointmentCode)
	if err != nil {
		return nil, fail(u.log, op, fields, err)
	}

	appointment := &entity.Appointment{
		AppointmentCode:  code,
		PatientID:        patient.ID,
		SpecialistID:     req.SpecialistID,
		AppointmentType:  req.AppointmentType,
		SpecialistType:   specialistType,
		AppointmentDate:  date,
		AppointmentTime:  clock,
		Status:           entity.AppointmentStatusPending,
		Source:           entity.AppointmentSourceOnline,
		BillingStatus:    entity.BillingStatusPending,
		Price:            price,
		TotalLabAmount:   decimal.Zero,
		FinalTotalAmount: price,
		Notes:            req.Notes,
		CreatedBy:        actingUserID,
	}
	if walkIn {
		appointment.Status = entity.AppointmentStatusConfirmed
		appointment.Source = entity.AppointmentSourceWalkIn
		appointment.ConfirmedBy = actingUserID
	}
	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		return nil, fail(u.log, op, fields, err)
	}
	fields["appointment_id"] = appointment.ID

	result := &dto.AppointmentResult{PatientCreated: created}
	var notifications []entity.Notification

	if walkIn {
		visit, _, err := u.visits.Materialize(tx, appointment, actingUserID)
		if err != nil {
			return nil, fail(u.log, op, fields, err)
		}
		result.Visit = converter.VisitToResponse(visit)

		if u.workflow.AutoBillWalkIn {
			transaction, err := u.billing.ComposeFromAppointment(tx, appointment, service.ComposeOptions{CreatedBy: actingUserID})
			if err != nil {
				return nil, fail(u.log, op, fields, err)
			}
			if _, err := u.dailySync.Sync(tx, transaction.ID); err != nil {
				return nil, fail(u.log, op, fields, err)
			}
			result.Transaction = converter.TransactionToResponse(transaction)
		}
	} else {
		notifications, err = u.notifier.NotifyAdmins(tx, entity.NotificationAppointmentRequest,
			"New appointment request",
			fmt.Sprintf("%s requested a %s appointment on %s at %s",
				patient.FullName(), appointment.AppointmentType, date.Format(datetime.DateLayout), clock),
			map[string]interface{}{
				"appointment_id":   appointment.ID,
				"appointment_code": appointment.AppointmentCode,
				"patient_id":       patient.ID,
			})
		if err != nil {
			return nil, fail(u.log, op, fields, err)
		}
	}

	err = u.auditService.LogCreate(ctx, tx, actingUserID, entity.AuditActionAppointmentCreate, "appointment", appointment.ID, map[string]interface{}{
		"appointment_code": appointment.AppointmentCode,
		"status":           appointment.Status,
		"source":           appointment.Source,
		"price":            appointment.Price.StringFixed(2),
	})
	if err != nil {
		return nil, fail(u.log, op, fields, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fail(u.log, op, fields, err)
	}

	u.notifier.Broadcast(ctx, notifications)

	appointment.Patient = patient
	appointment.Specialist = specialist
	result.Appointment = converter.AppointmentToResponse(appointment)

	u.log.WithFields(fields).Infof("Appointment %s created: status=%s source=%s", appointment.AppointmentCode, appointment.Status, appointment.Source)
	return result, nil
}

// Approve confirms a Pending appointment and opens its visit. The row lock
// makes a concurrent second approval see the appointment as processed.
func (u *appointmentUsecase) Approve(ctx context.Context, appointmentID uint, req *dto.ApproveAppointmentRequest, actingUserID *uint) (result *dto.AppointmentResult, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpApprove, start, err) }(time.Now())
	fields := logrus.Fields{"appointment_id": appointmentID}

	if err := u.validate.Check(req); err != nil {
		return nil, fail(u.log, OpApprove, fields, err)
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.LockPendingByID(tx, appointmentID)
	if err != nil {
		return nil, fail(u.log, OpApprove, fields, err)
	}
	if appointment == nil {
		return nil, fail(u.log, OpApprove, fields,
			apperror.NotFoundOrAlreadyProcessed("appointment %d not found or already processed", appointmentID))
	}

	var specialist *entity.Specialist
	if req.SpecialistID != nil {
		specialist, err = u.findSpecialist(tx, *req.SpecialistID)
		if err != nil {
			return nil, fail(u.log, OpApprove, fields, err)
		}
		appointment.SpecialistID = req.SpecialistID
		if appointment.SpecialistType == "" {
			appointment.SpecialistType = specialist.SpecialistType
		}
	}

	appointment.Confirm()
	appointment.AdminNotes = req.AdminNotes
	appointment.ConfirmedBy = actingUserID
	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		return nil, fail(u.log, OpApprove, fields, err)
	}

	visit, _, err := u.visits.Materialize(tx, appointment, actingUserID)
	if err != nil {
		return nil, fail(u.log, OpApprove, fields, err)
	}

	patient, err := u.patients.FindByID(tx, appointment.PatientID)
	if err != nil {
		return nil, fail(u.log, OpApprove, fields, err)
	}

	notifications, err := u.notifyPatient(tx, patient, entity.NotificationAppointmentApproved,
		"Appointment approved",
		fmt.Sprintf("Your %s appointment on %s at %s has been approved.",
			appointment.AppointmentType, appointment.AppointmentDate.Format(datetime.DateLayout), appointment.AppointmentTime),
		map[string]interface{}{
			"appointment_id":   appointment.ID,
			"appointment_code": appointment.AppointmentCode,
			"visit_id":         visit.ID,
			"visit_code":       visit.VisitCode,
		})
	if err != nil {
		return nil, fail(u.log, OpApprove, fields, err)
	}

	err = u.auditService.LogUpdate(ctx, tx, actingUserID, entity.AuditActionAppointmentApprove, "appointment", appointment.ID,
		map[string]interface{}{"status": entity.AppointmentStatusPending},
		map[string]interface{}{"status": appointment.Status, "visit_id": visit.ID, "specialist_id": appointment.SpecialistID})
	if err != nil {
		return nil, fail(u.log, OpApprove, fields, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fail(u.log, OpApprove, fields, err)
	}

	u.notifier.Broadcast(ctx, notifications)

	appointment.Patient = patient
	appointment.Specialist = specialist
	u.log.WithFields(fields).Infof("Appointment %s approved, visit %s", appointment.AppointmentCode, visit.VisitCode)
	return &dto.AppointmentResult{
		Appointment: converter.AppointmentToResponse(appointment),
		Visit:       converter.VisitToResponse(visit),
	}, nil
}

// Reject cancels a Pending appointment under the same lock discipline as Approve.
func (u *appointmentUsecase) Reject(ctx context.Context, appointmentID uint, req *dto.RejectAppointmentRequest, actingUserID *uint) (result *dto.AppointmentResult, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpReject, start, err) }(time.Now())
	fields := logrus.Fields{"appointment_id": appointmentID}

	if err := u.validate.Check(req); err != nil {
		return nil, fail(u.log, OpReject, fields, err)
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.LockPendingByID(tx, appointmentID)
	if err != nil {
		return nil, fail(u.log, OpReject, fields, err)
	}
	if appointment == nil {
		return nil, fail(u.log, OpReject, fields,
			apperror.NotFoundOrAlreadyProcessed("appointment %d not found or already processed", appointmentID))
	}

	appointment.Cancel(req.Reason)
	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		return nil, fail(u.log, OpReject, fields, err)
	}

	patient, err := u.patients.FindByID(tx, appointment.PatientID)
	if err != nil {
		return nil, fail(u.log, OpReject, fields, err)
	}

	notifications, err := u.notifyPatient(tx, patient, entity.NotificationAppointmentRejected,
		"Appointment rejected",
		fmt.Sprintf("Your %s appointment on %s was rejected: %s",
			appointment.AppointmentType, appointment.AppointmentDate.Format(datetime.DateLayout), req.Reason),
		map[string]interface{}{
			"appointment_id":   appointment.ID,
			"appointment_code": appointment.AppointmentCode,
			"reason":           req.Reason,
		})
	if err != nil {
		return nil, fail(u.log, OpReject, fields, err)
	}

	err = u.auditService.LogUpdate(ctx, tx, actingUserID, entity.AuditActionAppointmentReject, "appointment", appointment.ID,
		map[string]interface{}{"status": entity.AppointmentStatusPending},
		map[string]interface{}{"status": appointment.Status, "reason": req.Reason})
	if err != nil {
		return nil, fail(u.log, OpReject, fields, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fail(u.log, OpReject, fields, err)
	}

	u.notifier.Broadcast(ctx, notifications)

	appointment.Patient = patient
	u.log.WithFields(fields).Infof("Appointment %s rejected", appointment.AppointmentCode)
	return &dto.AppointmentResult{Appointment: converter.AppointmentToResponse(appointment)}, nil
}

// ProcessPayment settles a pending transaction and completes every
// appointment and visit it bills.
func (u *appointmentUsecase) ProcessPayment(ctx context.Context, transactionID uint, req *dto.ProcessPaymentRequest, actingUserID *uint) (result *dto.PaymentResult, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpProcessPayment, start, err) }(time.Now())
	fields := logrus.Fields{"transaction_id": transactionID}

	if err := u.validate.Check(req); err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	transaction, err := u.billingRepo.LockPendingTransaction(tx, transactionID)
	if err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}
	if transaction == nil {
		return nil, fail(u.log, OpProcessPayment, fields,
			apperror.NotFoundOrAlreadyProcessed("transaction %d not found or already processed", transactionID))
	}
	oldStatus := transaction.Status

	appointmentIDs, err := u.billing.MarkPaid(tx, transaction, service.PaymentOptions{
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}
	fields["appointments"] = appointmentIDs

	if err := u.appointmentRepo.UpdateStatusByIDs(tx, appointmentIDs, entity.AppointmentStatusCompleted); err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}
	if err := u.visitRepo.UpdateStatusByAppointmentIDs(tx, appointmentIDs, entity.VisitStatusCompleted); err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}
	if _, err := u.dailySync.Sync(tx, transaction.ID); err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}

	patient, err := u.patients.FindByID(tx, transaction.PatientID)
	if err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}
	notifications, err := u.notifyPatient(tx, patient, entity.NotificationPaymentReceived,
		"Payment received",
		fmt.Sprintf("We received your payment of %s for %s.", transaction.TotalAmount.StringFixed(2), transaction.TransactionCode),
		map[string]interface{}{
			"transaction_id":   transaction.ID,
			"transaction_code": transaction.TransactionCode,
			"amount":           transaction.TotalAmount.StringFixed(2),
			"payment_method":   transaction.PaymentMethod,
		})
	if err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}

	err = u.auditService.LogUpdate(ctx, tx, actingUserID, entity.AuditActionBillingPay, "billing_transaction", transaction.ID,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{
			"status":            transaction.Status,
			"payment_method":    transaction.PaymentMethod,
			"payment_reference": transaction.PaymentReference,
			"appointments":      appointmentIDs,
		})
	if err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fail(u.log, OpProcessPayment, fields, err)
	}

	u.notifier.Broadcast(ctx, notifications)
	if err := u.reportCache.Invalidate(ctx); err != nil {
		u.log.Warnf("Failed to invalidate report cache: %+v", err)
	}

	full, err := u.billingRepo.FindTransactionByID(u.db.WithContext(ctx), transaction.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload transaction %d: %+v", transaction.ID, err)
		full = transaction
	}
	appointments, err := u.appointmentRepo.FindByIDs(u.db.WithContext(ctx), appointmentIDs)
	if err != nil {
		u.log.Warnf("Failed to reload appointments %v: %+v", appointmentIDs, err)
	}

	u.log.WithFields(fields).Infof("Transaction %s paid via %s", transaction.TransactionCode, transaction.PaymentMethod)
	return &dto.PaymentResult{
		Transaction:  converter.TransactionToResponse(full),
		Appointments: converter.AppointmentsToResponses(appointments),
	}, nil
}

func (u *appointmentUsecase) Get(ctx context.Context, appointmentID uint) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %d: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, apperror.NotFoundOrAlreadyProcessed("appointment %d not found", appointmentID)
	}
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) ListByPatient(ctx context.Context, patientID uint) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByPatientID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for patient %d: %+v", patientID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) findSpecialist(tx *gorm.DB, specialistID uint) (*entity.Specialist, error) {
	specialist, err := u.specialistRepo.FindByID(tx, specialistID)
	if err != nil {
		return nil, err
	}
	if specialist == nil || !specialist.IsActive {
		return nil, apperror.ValidationFields(map[string]string{"specialist_id": "specialist_id does not name an active specialist"})
	}
	return specialist, nil
}

// notifyPatient notifies the patient's portal account. Walk-in patients
// without one get nothing.
func (u *appointmentUsecase) notifyPatient(tx *gorm.DB, patient *entity.Patient, kind, title, message string, data map[string]interface{}) ([]entity.Notification, error) {
	if patient == nil || patient.UserID == nil {
		return nil, nil
	}
	n, err := u.notifier.NotifyUser(tx, *patient.UserID, kind, title, message, data)
	if err != nil {
		return nil, err
	}
	return []entity.Notification{*n}, nil
}

func identityFromRequest(req *dto.PatientRequest) (service.PatientIdentity, error) {
	if req == nil {
		return service.PatientIdentity{}, nil
	}
	identity := service.PatientIdentity{
		FirstName:          req.FirstName,
		MiddleName:         req.MiddleName,
		LastName:           req.LastName,
		Sex:                req.Sex,
		MobileNo:           req.MobileNo,
		Email:              req.Email,
		Address:            req.Address,
		MedicalHistory:     req.MedicalHistory,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
	}
	if req.Birthdate != "" {
		birthdate, err := datetime.ParseDate(req.Birthdate)
		if err != nil {
			return identity, apperror.ValidationFields(map[string]string{"birthdate": err.Error()})
		}
		identity.Birthdate = &birthdate
	}
	return identity, nil
}
