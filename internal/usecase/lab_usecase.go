package usecase

import (
	"context"
	"fmt"
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
	OpAttachLabTests = "lab.attach_tests"
	OpRemoveLabTest  = "lab.remove_test"
)

type LabUsecase interface {
	AttachTests(ctx context.Context, req *dto.AttachLabTestsRequest, actingUserID *uint) (*dto.AttachLabTestsResponse, error)
	RemoveTest(ctx context.Context, appointmentID, labTestID uint, actingUserID *uint) (*dto.RemoveLabTestResponse, error)
}

type labUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	validate        *validator.CustomValidator
	metrics         *monitoring.MetricsCollector
	appointmentRepo repository.AppointmentRepository
	visitRepo       repository.VisitRepository
	labOrders       service.LabOrderService
	notifier        service.NotificationDispatcher
	auditService    service.AuditService
}

func NewLabUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	validate *validator.CustomValidator,
	metrics *monitoring.MetricsCollector,
	appointmentRepo repository.AppointmentRepository,
	visitRepo repository.VisitRepository,
	labOrders service.LabOrderService,
	notifier service.NotificationDispatcher,
	auditService service.AuditService,
) LabUsecase {
	return &labUsecase{
		db:              db,
		log:             log,
		validate:        validate,
		metrics:         metrics,
		appointmentRepo: appointmentRepo,
		visitRepo:       visitRepo,
		labOrders:       labOrders,
		notifier:        notifier,
		auditService:    auditService,
	}
}

// AttachTests orders lab tests against a visit or an appointment and folds
// their prices into the appointment and any pending transaction billing it.
func (u *labUsecase) AttachTests(ctx context.Context, req *dto.AttachLabTestsRequest, actingUserID *uint) (result *dto.AttachLabTestsResponse, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpAttachLabTests, start, err) }(time.Now())
	fields := logrus.Fields{"appointment_id": req.AppointmentID, "visit_id": req.VisitID}

	if err := u.validate.Check(req); err != nil {
		return nil, fail(u.log, OpAttachLabTests, fields, err)
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	target, err := u.resolveTarget(tx, req)
	if err != nil {
		return nil, fail(u.log, OpAttachLabTests, fields, err)
	}
	fields["appointment_id"] = target.Appointment.ID

	attached, err := u.labOrders.AttachTests(tx, target, req.LabTestIDs, actingUserID, req.Notes)
	if err != nil {
		return nil, fail(u.log, OpAttachLabTests, fields, err)
	}

	added := make([]uint, 0, len(attached.Added))
	names := make([]string, 0, len(attached.Added))
	for _, t := range attached.Added {
		added = append(added, t.ID)
		names = append(names, t.Name)
	}

	var notifications []entity.Notification
	if target.Visit != nil {
		n, err := u.notifier.NotifyUser(tx, target.Visit.AttendingStaffID, entity.NotificationLabTestsOrdered,
			"Lab tests ordered",
			fmt.Sprintf("%d lab test(s) ordered for visit %s: %v", len(names), target.Visit.VisitCode, names),
			map[string]interface{}{
				"lab_order_id":   attached.Order.ID,
				"visit_id":       target.Visit.ID,
				"appointment_id": target.Appointment.ID,
				"lab_test_ids":   added,
			})
		if err != nil {
			return nil, fail(u.log, OpAttachLabTests, fields, err)
		}
		notifications = append(notifications, *n)
	}

	err = u.auditService.LogCreate(ctx, tx, actingUserID, entity.AuditActionLabAttach, "lab_order", attached.Order.ID, map[string]interface{}{
		"appointment_id": target.Appointment.ID,
		"lab_test_ids":   added,
		"total_added":    attached.TotalAdded.StringFixed(2),
		"final_total":    attached.Appointment.FinalTotalAmount.StringFixed(2),
	})
	if err != nil {
		return nil, fail(u.log, OpAttachLabTests, fields, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fail(u.log, OpAttachLabTests, fields, err)
	}

	u.notifier.Broadcast(ctx, notifications)

	response := &dto.AttachLabTestsResponse{
		LabOrderID:  attached.Order.ID,
		AddedTests:  converter.LabTestsToResponses(attached.Added),
		TotalAdded:  attached.TotalAdded,
		Appointment: converter.AppointmentToResponse(attached.Appointment),
	}
	if attached.Transaction != nil {
		response.Transaction = converter.TransactionToResponse(attached.Transaction)
	}
	return response, nil
}

// resolveTarget locks the appointment the request points at, directly or
// through its visit.
func (u *labUsecase) resolveTarget(tx *gorm.DB, req *dto.AttachLabTestsRequest) (service.LabTarget, error) {
	var target service.LabTarget

	var appointmentID uint
	if req.VisitID != nil {
		visit, err := u.visitRepo.FindByID(tx, *req.VisitID)
		if err != nil {
			return target, err
		}
		if visit == nil {
			return target, apperror.NotFoundOrAlreadyProcessed("visit %d not found", *req.VisitID)
		}
		target.Visit = visit
		appointmentID = visit.AppointmentID
	} else {
		appointmentID = *req.AppointmentID
	}

	appointment, err := u.appointmentRepo.LockByID(tx, appointmentID)
	if err != nil {
		return target, err
	}
	if appointment == nil {
		return target, apperror.NotFoundOrAlreadyProcessed("appointment %d not found", appointmentID)
	}
	target.Appointment = appointment

	if target.Visit == nil {
		visit, err := u.visitRepo.FindByAppointmentID(tx, appointment.ID)
		if err != nil {
			return target, err
		}
		target.Visit = visit
	}
	return target, nil
}

// RemoveTest detaches one lab test from an appointment and re-derives totals.
func (u *labUsecase) RemoveTest(ctx context.Context, appointmentID, labTestID uint, actingUserID *uint) (result *dto.RemoveLabTestResponse, err error) {
	defer func(start time.Time) { u.metrics.RecordWorkflow(OpRemoveLabTest, start, err) }(time.Now())
	fields := logrus.Fields{"appointment_id": appointmentID, "lab_test_id": labTestID}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.LockByID(tx, appointmentID)
	if err != nil {
		return nil, fail(u.log, OpRemoveLabTest, fields, err)
	}
	if appointment == nil {
		return nil, fail(u.log, OpRemoveLabTest, fields,
			apperror.NotFoundOrAlreadyProcessed("appointment %d not found", appointmentID))
	}
	oldTotal := appointment.FinalTotalAmount

	removed, err := u.labOrders.RemoveTest(tx, appointment, labTestID)
	if err != nil {
		return nil, fail(u.log, OpRemoveLabTest, fields, err)
	}

	err = u.auditService.LogDelete(ctx, tx, actingUserID, entity.AuditActionLabRemove, "appointment_lab_test", appointment.ID, map[string]interface{}{
		"lab_test_id": labTestID,
		"old_total":   oldTotal.StringFixed(2),
		"new_total":   appointment.FinalTotalAmount.StringFixed(2),
	})
	if err != nil {
		return nil, fail(u.log, OpRemoveLabTest, fields, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fail(u.log, OpRemoveLabTest, fields, err)
	}

	response := &dto.RemoveLabTestResponse{Appointment: converter.AppointmentToResponse(removed.Appointment)}
	if removed.Transaction != nil {
		response.Transaction = converter.TransactionToResponse(removed.Transaction)
	}
	return response, nil
}
