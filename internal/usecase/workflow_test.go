package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/service"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/datetime"

	"github.com/sirupsen/logrus"
)

func (s *workflowSuite) TestCreateWalkIn_ConfirmsAndOpensVisit() {
	result := s.createWalkIn()

	s.Require().NotNil(result.Appointment)
	s.Equal(string(entity.AppointmentStatusConfirmed), result.Appointment.Status)
	s.Equal(string(entity.AppointmentSourceWalkIn), result.Appointment.Source)
	s.Equal(string(entity.BillingStatusPending), result.Appointment.BillingStatus)
	s.Regexp(`^A\d{4}$`, result.Appointment.AppointmentCode)
	s.assertMoney(300, result.Appointment.Price)
	s.assertMoney(300, result.Appointment.FinalTotalAmount)
	s.True(result.PatientCreated)

	s.Require().NotNil(result.Visit)
	s.Equal(string(entity.VisitStatusInProgress), result.Visit.Status)
	s.Regexp(`^V\d{4}$`, result.Visit.VisitCode)
	s.Equal("2024-01-15 09:00:00", result.Visit.VisitDateTime)
	s.Equal(s.fx.Admin.ID, result.Visit.AttendingStaffID)
	s.Nil(result.Transaction)

	s.Equal(int64(1), s.count(&entity.Visit{}, "appointment_id = ?", result.Appointment.ID))
}

func (s *workflowSuite) TestCreateWalkIn_AutoBillComposesTransaction() {
	s.workflow.AutoBillWalkIn = true
	s.build()

	result := s.createWalkIn()

	s.Require().NotNil(result.Transaction)
	s.Equal(string(entity.TransactionStatusPending), result.Transaction.Status)
	s.Regexp(`^TXN-\d{6}$`, result.Transaction.TransactionCode)
	s.assertMoney(300, result.Transaction.TotalAmount)
	s.Equal(string(entity.BillingStatusInTransaction), string(s.reloadAppointment(result.Appointment.ID).BillingStatus))
	s.Equal(int64(1), s.count(&entity.DailyTransaction{}, "billing_transaction_id = ?", result.Transaction.ID))
}

func (s *workflowSuite) TestCreateWalkIn_DuplicateSlotRejected() {
	s.createWalkIn()

	_, err := s.appointments.CreateWalkIn(s.ctx, walkInRequest("Juan", "Dela Cruz"), s.adminID())
	s.Require().Error(err)
	s.True(errors.Is(err, apperror.ErrValidationFailure))
	s.Equal(int64(1), s.count(&entity.Appointment{}, ""))
}

func (s *workflowSuite) TestCreateWalkIn_ReusesPatientByNameAndBirthdate() {
	first := s.createWalkIn()

	req := walkInRequest("Juan", "Dela Cruz")
	req.AppointmentTime = "10:30"
	second, err := s.appointments.CreateWalkIn(s.ctx, req, s.adminID())
	s.Require().NoError(err)

	s.False(second.PatientCreated)
	s.Equal(first.Appointment.PatientID, second.Appointment.PatientID)

	other := walkInRequest("Juan", "Dela Cruz")
	other.Patient.Birthdate = "1991-05-20"
	third, err := s.appointments.CreateWalkIn(s.ctx, other, s.adminID())
	s.Require().NoError(err)
	s.True(third.PatientCreated)
	s.NotEqual(first.Appointment.PatientID, third.Appointment.PatientID)
}

func (s *workflowSuite) TestCreate_InvalidRequest() {
	req := walkInRequest("Juan", "Dela Cruz")
	req.AppointmentTime = "quarter past nine"

	_, err := s.appointments.CreateWalkIn(s.ctx, req, s.adminID())
	s.True(errors.Is(err, apperror.ErrValidationFailure))
	s.Equal(int64(0), s.count(&entity.Patient{}, ""))
}

func (s *workflowSuite) TestCreateOnline_PendingAndNotifiesAdmins() {
	result := s.createOnline()

	s.Equal(string(entity.AppointmentStatusPending), result.Appointment.Status)
	s.Equal(string(entity.AppointmentSourceOnline), result.Appointment.Source)
	s.Equal("14:30:00", result.Appointment.AppointmentTime)
	s.Equal(entity.SpecialistTypeDoctor, result.Appointment.SpecialistType)
	s.assertMoney(500, result.Appointment.Price)
	s.Nil(result.Visit)

	s.Equal(int64(0), s.count(&entity.Visit{}, ""))
	s.Equal(int64(1), s.count(&entity.Notification{}, "user_id = ? AND type = ?",
		s.fx.Admin.ID, entity.NotificationAppointmentRequest))

	var patient entity.Patient
	s.Require().NoError(s.db.First(&patient, result.Appointment.PatientID).Error)
	s.Require().NotNil(patient.UserID)
	s.Equal(s.fx.PatientUser.ID, *patient.UserID)
}

func (s *workflowSuite) TestApprove_ConfirmsAndNotifiesPatient() {
	created := s.createOnline()

	result, err := s.appointments.Approve(s.ctx, created.Appointment.ID, &dto.ApproveAppointmentRequest{AdminNotes: "ok"}, s.adminID())
	s.Require().NoError(err)

	s.Equal(string(entity.AppointmentStatusConfirmed), result.Appointment.Status)
	s.Equal("ok", result.Appointment.AdminNotes)
	s.Require().NotNil(result.Visit)
	s.Equal(s.fx.Doctor.ID, result.Visit.AttendingStaffID)
	s.Equal(int64(1), s.count(&entity.Visit{}, "appointment_id = ?", created.Appointment.ID))
	s.Equal(int64(1), s.count(&entity.Notification{}, "user_id = ? AND type = ?",
		s.fx.PatientUser.ID, entity.NotificationAppointmentApproved))

	stored := s.reloadAppointment(created.Appointment.ID)
	s.Equal(entity.AppointmentStatusConfirmed, stored.Status)
	s.Require().NotNil(stored.ConfirmedBy)
	s.Equal(s.fx.Admin.ID, *stored.ConfirmedBy)
}

func (s *workflowSuite) TestApprove_NotifiesReturningWalkInPatient() {
	walkIn := walkInRequest("Maria", "Santos")
	walkIn.Patient.Birthdate = "1988-02-11"
	first, err := s.appointments.CreateWalkIn(s.ctx, walkIn, s.adminID())
	s.Require().NoError(err)

	online := s.createOnline()
	s.Equal(first.Appointment.PatientID, online.Appointment.PatientID)
	s.False(online.PatientCreated)

	_, err = s.appointments.Approve(s.ctx, online.Appointment.ID, &dto.ApproveAppointmentRequest{AdminNotes: "ok"}, s.adminID())
	s.Require().NoError(err)
	s.Equal(int64(1), s.count(&entity.Notification{}, "user_id = ? AND type = ?", s.fx.PatientUser.ID, entity.NotificationAppointmentApproved))
}

func (s *workflowSuite) TestCreateOnline_SucceedsWhenBroadcastFails() {
	broadcaster := &rejectingBroadcaster{}
	s.broadcaster = broadcaster
	s.build()

	created := s.createOnline()
	s.Equal(string(entity.AppointmentStatusPending), created.Appointment.Status)
	s.Equal(1, broadcaster.calls)
	s.Equal(int64(1), s.count(&entity.Notification{}, "user_id = ?", s.fx.Admin.ID))

	warnings := 0
	for _, entry := range s.hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.HasPrefix(entry.Message, "Failed to broadcast notification") {
			warnings++
		}
	}
	s.Equal(1, warnings)
}

func (s *workflowSuite) TestApprove_SecondCallAlreadyProcessed() {
	created := s.createOnline()

	_, err := s.appointments.Approve(s.ctx, created.Appointment.ID, &dto.ApproveAppointmentRequest{}, s.adminID())
	s.Require().NoError(err)

	_, err = s.appointments.Approve(s.ctx, created.Appointment.ID, &dto.ApproveAppointmentRequest{}, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))
	s.Equal(int64(1), s.count(&entity.Visit{}, ""))

	_, err = s.appointments.Approve(s.ctx, 9999, &dto.ApproveAppointmentRequest{}, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))
}

func (s *workflowSuite) TestApprove_ConcurrentCallsConfirmOnce() {
	created := s.createOnline()

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.appointments.Approve(context.Background(), created.Appointment.ID, &dto.ApproveAppointmentRequest{}, s.adminID())
		}(i)
	}
	wg.Wait()

	succeeded, processed := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed):
			processed++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, processed)
	s.Equal(int64(1), s.count(&entity.Visit{}, "appointment_id = ?", created.Appointment.ID))
	s.Equal(int64(1), s.count(&entity.Appointment{}, "status = ?", entity.AppointmentStatusConfirmed))
}

func (s *workflowSuite) TestReject_CancelsPendingOnly() {
	created := s.createOnline()

	result, err := s.appointments.Reject(s.ctx, created.Appointment.ID, &dto.RejectAppointmentRequest{Reason: "Doctor unavailable"}, s.adminID())
	s.Require().NoError(err)
	s.Equal(string(entity.AppointmentStatusCancelled), result.Appointment.Status)
	s.Equal("Doctor unavailable", result.Appointment.CancellationReason)
	s.Equal(int64(1), s.count(&entity.Notification{}, "user_id = ? AND type = ?",
		s.fx.PatientUser.ID, entity.NotificationAppointmentRejected))

	_, err = s.appointments.Reject(s.ctx, created.Appointment.ID, &dto.RejectAppointmentRequest{Reason: "again"}, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))

	_, err = s.appointments.Approve(s.ctx, created.Appointment.ID, &dto.ApproveAppointmentRequest{}, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))
	s.Equal(int64(0), s.count(&entity.Visit{}, ""))
}

func (s *workflowSuite) TestReject_RequiresReason() {
	created := s.createOnline()

	_, err := s.appointments.Reject(s.ctx, created.Appointment.ID, &dto.RejectAppointmentRequest{}, s.adminID())
	s.True(errors.Is(err, apperror.ErrValidationFailure))
	s.Equal(entity.AppointmentStatusPending, s.reloadAppointment(created.Appointment.ID).Status)
}

func (s *workflowSuite) TestLabTests_TotalsFollowAttachAndRemove() {
	walkIn := s.createWalkIn()
	appointmentID := walkIn.Appointment.ID

	billed, err := s.billing.CreateFromAppointment(s.ctx, appointmentID, nil, s.adminID())
	s.Require().NoError(err)
	s.assertMoney(300, billed.TotalAmount)

	attached, err := s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{
		AppointmentID: &appointmentID,
		LabTestIDs:    []uint{s.fx.CBC.ID, s.fx.Urinalysis.ID},
	}, s.adminID())
	s.Require().NoError(err)
	s.Len(attached.AddedTests, 2)
	s.assertMoney(1000, attached.TotalAdded)
	s.assertMoney(1300, attached.Appointment.FinalTotalAmount)
	s.Require().NotNil(attached.Transaction)
	s.assertMoney(1300, attached.Transaction.TotalAmount)

	transaction := s.reloadTransaction(billed.ID)
	s.assertMoney(1300, transaction.TotalAmount)
	s.assertMoney(1300, service.SumItems(transaction.Items))
	s.Len(transaction.Items, 3)

	removed, err := s.labs.RemoveTest(s.ctx, appointmentID, s.fx.CBC.ID, s.adminID())
	s.Require().NoError(err)
	s.assertMoney(800, removed.Appointment.FinalTotalAmount)
	s.assertMoney(500, removed.Appointment.TotalLabAmount)

	transaction = s.reloadTransaction(billed.ID)
	s.assertMoney(800, transaction.TotalAmount)
	s.assertMoney(800, service.SumItems(transaction.Items))

	stored := s.reloadAppointment(appointmentID)
	s.assertMoney(800, stored.FinalTotalAmount)
	s.True(stored.FinalTotalAmount.Equal(stored.Price.Add(stored.TotalLabAmount)))

	_, err = s.labs.RemoveTest(s.ctx, appointmentID, s.fx.CBC.ID, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))
}

func (s *workflowSuite) TestLabTests_DuplicateOnVisitRejected() {
	walkIn := s.createWalkIn()
	visitID := walkIn.Visit.ID

	_, err := s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{VisitID: &visitID, LabTestIDs: []uint{s.fx.CBC.ID}}, s.adminID())
	s.Require().NoError(err)
	s.Equal(int64(1), s.count(&entity.Notification{}, "user_id = ? AND type = ?",
		walkIn.Visit.AttendingStaffID, entity.NotificationLabTestsOrdered))

	orders := s.count(&entity.LabOrder{}, "")
	results := s.count(&entity.LabResult{}, "")

	_, err = s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{VisitID: &visitID, LabTestIDs: []uint{s.fx.CBC.ID}}, s.adminID())
	s.Require().Error(err)
	s.True(errors.Is(err, apperror.ErrValidationFailure))
	s.Contains(err.Error(), s.fx.CBC.Name)

	s.Equal(orders, s.count(&entity.LabOrder{}, ""))
	s.Equal(results, s.count(&entity.LabResult{}, ""))
	s.assertMoney(800, s.reloadAppointment(walkIn.Appointment.ID).FinalTotalAmount)
}

func (s *workflowSuite) TestLabTests_InactiveOrUnknownTests() {
	walkIn := s.createWalkIn()
	appointmentID := walkIn.Appointment.ID

	_, err := s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{
		AppointmentID: &appointmentID,
		LabTestIDs:    []uint{s.fx.InactiveTest.ID, 9999},
	}, s.adminID())
	s.True(errors.Is(err, apperror.ErrInvariantViolation))
	s.Equal(int64(0), s.count(&entity.LabOrder{}, ""))

	missing := uint(9999)
	_, err = s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{
		AppointmentID: &missing,
		LabTestIDs:    []uint{s.fx.CBC.ID},
	}, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))
}

func (s *workflowSuite) TestProcessPayment_CompletesOnceOnly() {
	walkIn := s.createWalkIn()
	billed, err := s.billing.CreateFromAppointment(s.ctx, walkIn.Appointment.ID, nil, s.adminID())
	s.Require().NoError(err)

	paid, err := s.appointments.ProcessPayment(s.ctx, billed.ID, &dto.ProcessPaymentRequest{
		PaymentMethod:    entity.PaymentMethodCash,
		PaymentReference: "OR-1001",
	}, s.adminID())
	s.Require().NoError(err)
	s.Equal(string(entity.TransactionStatusPaid), paid.Transaction.Status)
	s.NotNil(paid.Transaction.PaidAt)
	s.Require().Len(paid.Appointments, 1)
	s.Equal(string(entity.AppointmentStatusCompleted), paid.Appointments[0].Status)
	s.Equal(string(entity.BillingStatusPaid), paid.Appointments[0].BillingStatus)

	_, err = s.appointments.ProcessPayment(s.ctx, billed.ID, &dto.ProcessPaymentRequest{PaymentMethod: entity.PaymentMethodCard}, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))

	transaction := s.reloadTransaction(billed.ID)
	s.Equal(entity.TransactionStatusPaid, transaction.Status)
	s.Equal(entity.PaymentMethodCash, transaction.PaymentMethod)

	appointment := s.reloadAppointment(walkIn.Appointment.ID)
	s.Equal(entity.AppointmentStatusCompleted, appointment.Status)
	s.Equal(entity.BillingStatusPaid, appointment.BillingStatus)

	s.Equal(int64(1), s.count(&entity.Visit{}, "appointment_id = ? AND status = ?", walkIn.Appointment.ID, entity.VisitStatusCompleted))
	s.Equal(int64(1), s.count(&entity.AppointmentBillingLink{}, "billing_transaction_id = ? AND status = ?", billed.ID, entity.LinkStatusPaid))
	s.Equal(int64(1), s.count(&entity.DailyTransaction{}, "billing_transaction_id = ? AND status = ?", billed.ID, entity.TransactionStatusPaid))

	// the paid appointment no longer accepts lab tests
	appointmentID := walkIn.Appointment.ID
	_, err = s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{AppointmentID: &appointmentID, LabTestIDs: []uint{s.fx.CBC.ID}}, s.adminID())
	s.True(errors.Is(err, apperror.ErrValidationFailure))
}

func (s *workflowSuite) TestProcessPayment_ChargesLabTestsAddedAfterBilling() {
	walkIn := s.createWalkIn()
	appointmentID := walkIn.Appointment.ID
	billed, err := s.billing.CreateFromAppointment(s.ctx, appointmentID, nil, s.adminID())
	s.Require().NoError(err)

	_, err = s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{
		AppointmentID: &appointmentID,
		LabTestIDs:    []uint{s.fx.CBC.ID, s.fx.Urinalysis.ID},
	}, s.adminID())
	s.Require().NoError(err)
	s.Equal(int64(0), s.count(&entity.BillingTransactionItem{}, "billing_transaction_id = 0"))
	s.Equal(int64(3), s.count(&entity.BillingTransactionItem{}, "billing_transaction_id = ?", billed.ID))

	paid, err := s.appointments.ProcessPayment(s.ctx, billed.ID, &dto.ProcessPaymentRequest{PaymentMethod: entity.PaymentMethodCash}, s.adminID())
	s.Require().NoError(err)
	s.assertMoney(1300, paid.Transaction.TotalAmount)
	s.assertMoney(1300, s.reloadAppointment(appointmentID).FinalTotalAmount)
}

func (s *workflowSuite) TestProcessPayment_NotifiesPortalPatient() {
	created := s.createOnline()
	_, err := s.appointments.Approve(s.ctx, created.Appointment.ID, &dto.ApproveAppointmentRequest{}, s.adminID())
	s.Require().NoError(err)
	billed, err := s.billing.CreateFromAppointment(s.ctx, created.Appointment.ID, nil, s.adminID())
	s.Require().NoError(err)

	_, err = s.appointments.ProcessPayment(s.ctx, billed.ID, &dto.ProcessPaymentRequest{PaymentMethod: entity.PaymentMethodGCash}, s.adminID())
	s.Require().NoError(err)

	s.Equal(int64(1), s.count(&entity.Notification{}, "user_id = ? AND type = ?",
		s.fx.PatientUser.ID, entity.NotificationPaymentReceived))
}

func (s *workflowSuite) TestBilling_Rules() {
	online := s.createOnline()

	_, err := s.billing.CreateFromAppointment(s.ctx, online.Appointment.ID, nil, s.adminID())
	s.True(errors.Is(err, apperror.ErrValidationFailure), "pending appointments are not billable")

	_, err = s.billing.CreateFromAppointment(s.ctx, 9999, nil, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))

	_, err = s.billing.CreateFromAppointments(s.ctx, &dto.CreateTransactionRequest{}, s.adminID())
	s.True(errors.Is(err, apperror.ErrInvariantViolation))

	walkIn := s.createWalkIn()
	_, err = s.billing.CreateFromAppointments(s.ctx, &dto.CreateTransactionRequest{
		AppointmentIDs: []uint{walkIn.Appointment.ID},
		PaymentMethod:  "barter",
	}, s.adminID())
	s.True(errors.Is(err, apperror.ErrValidationFailure))

	_, err = s.billing.CreateFromAppointment(s.ctx, walkIn.Appointment.ID, nil, s.adminID())
	s.Require().NoError(err)
	_, err = s.billing.CreateFromAppointment(s.ctx, walkIn.Appointment.ID, nil, s.adminID())
	s.True(errors.Is(err, apperror.ErrValidationFailure), "an appointment is billed once")

	s.Equal(int64(1), s.count(&entity.BillingTransaction{}, ""))
}

func (s *workflowSuite) TestBilling_SeveralAppointmentsOnOneTransaction() {
	first := s.createWalkIn()
	req := walkInRequest("Juan", "Dela Cruz")
	req.AppointmentType = entity.AppointmentTypeXRay
	req.AppointmentTime = "11:00"
	second, err := s.appointments.CreateWalkIn(s.ctx, req, s.adminID())
	s.Require().NoError(err)

	transaction, err := s.billing.CreateFromAppointments(s.ctx, &dto.CreateTransactionRequest{
		AppointmentIDs: []uint{first.Appointment.ID, second.Appointment.ID},
	}, s.adminID())
	s.Require().NoError(err)

	s.assertMoney(1000, transaction.TotalAmount)
	s.Len(transaction.Items, 2)
	s.Equal(int64(2), s.count(&entity.AppointmentBillingLink{}, "billing_transaction_id = ?", transaction.ID))
}

func (s *workflowSuite) TestCancelTransaction_ReleasesAppointments() {
	walkIn := s.createWalkIn()
	billed, err := s.billing.CreateFromAppointment(s.ctx, walkIn.Appointment.ID, nil, s.adminID())
	s.Require().NoError(err)
	s.Equal(entity.BillingStatusInTransaction, s.reloadAppointment(walkIn.Appointment.ID).BillingStatus)

	cancelled, err := s.billing.CancelTransaction(s.ctx, billed.ID, s.adminID())
	s.Require().NoError(err)
	s.Equal(string(entity.TransactionStatusCancelled), cancelled.Status)
	s.Equal(entity.BillingStatusPending, s.reloadAppointment(walkIn.Appointment.ID).BillingStatus)
	s.Equal(int64(1), s.count(&entity.DailyTransaction{}, "billing_transaction_id = ? AND status = ?", billed.ID, entity.TransactionStatusCancelled))

	_, err = s.billing.CancelTransaction(s.ctx, billed.ID, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))
	_, err = s.appointments.ProcessPayment(s.ctx, billed.ID, &dto.ProcessPaymentRequest{PaymentMethod: entity.PaymentMethodCash}, s.adminID())
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))

	rebilled, err := s.billing.CreateFromAppointment(s.ctx, walkIn.Appointment.ID, nil, s.adminID())
	s.Require().NoError(err)
	s.NotEqual(billed.TransactionCode, rebilled.TransactionCode)
}

func (s *workflowSuite) TestIntegrityRepair_FixesDriftAndIsIdempotent() {
	walkIn := s.createWalkIn()
	billed, err := s.billing.CreateFromAppointment(s.ctx, walkIn.Appointment.ID, nil, s.adminID())
	s.Require().NoError(err)

	s.Require().NoError(s.db.Exec("UPDATE billing_transactions SET status = 'Pending', total_amount = 1, amount = 1 WHERE id = ?", billed.ID).Error)
	s.Require().NoError(s.db.Exec("DELETE FROM visits").Error)

	first, err := s.integrity.Repair(s.ctx, "")
	s.Require().NoError(err)
	repaired := map[string]int{}
	for _, step := range first.Steps {
		s.Empty(step.Error, step.Step)
		repaired[step.Step] = step.Repaired
	}
	s.Len(first.Steps, len(s.integrity.Steps()))
	s.Equal(1, repaired[service.StepTransactionStatus])
	s.Equal(1, repaired[service.StepMissingVisits])
	s.Equal(1, repaired[service.StepTransactionTotals])

	s.Equal(int64(1), s.count(&entity.Visit{}, "appointment_id = ?", walkIn.Appointment.ID))
	transaction := s.reloadTransaction(billed.ID)
	s.Equal(entity.TransactionStatusPending, transaction.Status)
	s.assertMoney(300, transaction.TotalAmount)
	s.Equal(int64(1), s.count(&entity.AuditLog{}, "action = ?", entity.AuditActionIntegrityRepair))

	second, err := s.integrity.Repair(s.ctx, "")
	s.Require().NoError(err)
	s.Equal(0, second.TotalRepaired)
}

func (s *workflowSuite) TestIntegrityRepair_RebuildsOrphanedLabItems() {
	walkIn := s.createWalkIn()
	appointmentID := walkIn.Appointment.ID
	billed, err := s.billing.CreateFromAppointment(s.ctx, appointmentID, nil, s.adminID())
	s.Require().NoError(err)
	_, err = s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{
		AppointmentID: &appointmentID,
		LabTestIDs:    []uint{s.fx.CBC.ID, s.fx.Urinalysis.ID},
	}, s.adminID())
	s.Require().NoError(err)

	s.Require().NoError(s.db.Exec("UPDATE billing_transaction_items SET billing_transaction_id = 0 WHERE item_type = ?", entity.ItemTypeLaboratory).Error)
	s.Require().NoError(s.db.Exec("UPDATE billing_transactions SET total_amount = 300, amount = 300 WHERE id = ?", billed.ID).Error)

	result, err := s.integrity.Repair(s.ctx, service.StepOrphanItems)
	s.Require().NoError(err)
	s.Equal(2, result.TotalRepaired)
	s.Equal(int64(0), s.count(&entity.BillingTransactionItem{}, "billing_transaction_id = 0"))
	s.Equal(int64(2), s.count(&entity.BillingTransactionItem{}, "billing_transaction_id = ? AND item_type = ?", billed.ID, entity.ItemTypeLaboratory))

	result, err = s.integrity.Repair(s.ctx, service.StepTransactionTotals)
	s.Require().NoError(err)
	s.Equal(1, result.TotalRepaired)
	s.assertMoney(1300, s.reloadTransaction(billed.ID).TotalAmount)

	result, err = s.integrity.Repair(s.ctx, service.StepOrphanItems)
	s.Require().NoError(err)
	s.Equal(0, result.TotalRepaired)
}

func (s *workflowSuite) TestIntegrityRepair_SingleStep() {
	walkIn := s.createWalkIn()
	s.Require().NoError(s.db.Exec("UPDATE appointments SET appointment_code = '' WHERE id = ?", walkIn.Appointment.ID).Error)

	result, err := s.integrity.Repair(s.ctx, service.StepAppointmentCodes)
	s.Require().NoError(err)
	s.Require().Len(result.Steps, 1)
	s.Equal(1, result.TotalRepaired)
	s.Equal(service.FormatCode("A", 4, int64(walkIn.Appointment.ID)), s.reloadAppointment(walkIn.Appointment.ID).AppointmentCode)

	_, err = s.integrity.Repair(s.ctx, "reindex_everything")
	s.True(errors.Is(err, apperror.ErrValidationFailure))
}

func (s *workflowSuite) TestNotifications_ListAndMarkRead() {
	created := s.createOnline()
	_, err := s.appointments.Approve(s.ctx, created.Appointment.ID, &dto.ApproveAppointmentRequest{}, s.adminID())
	s.Require().NoError(err)

	list, err := s.notifications.ListForUser(s.ctx, s.fx.PatientUser.ID, true)
	s.Require().NoError(err)
	s.Require().Equal(1, list.Total)
	s.Equal(1, list.Unread)
	s.Equal(entity.NotificationAppointmentApproved, list.Notifications[0].Type)

	notificationID := list.Notifications[0].ID
	s.Require().NoError(s.notifications.MarkRead(s.ctx, notificationID, s.fx.PatientUser.ID))

	list, err = s.notifications.ListForUser(s.ctx, s.fx.PatientUser.ID, true)
	s.Require().NoError(err)
	s.Equal(0, list.Total)

	err = s.notifications.MarkRead(s.ctx, notificationID, s.fx.PatientUser.ID)
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed))

	adminList, err := s.notifications.ListForUser(s.ctx, s.fx.Admin.ID, false)
	s.Require().NoError(err)
	s.Equal(1, adminList.Total)
	err = s.notifications.MarkRead(s.ctx, adminList.Notifications[0].ID, s.fx.PatientUser.ID)
	s.True(errors.Is(err, apperror.ErrNotFoundOrAlreadyProcessed), "users only mark their own notifications")
}

func (s *workflowSuite) TestReports_StatisticsAndLabUsage() {
	walkIn := s.createWalkIn()
	appointmentID := walkIn.Appointment.ID
	_, err := s.labs.AttachTests(s.ctx, &dto.AttachLabTestsRequest{AppointmentID: &appointmentID, LabTestIDs: []uint{s.fx.CBC.ID}}, s.adminID())
	s.Require().NoError(err)
	billed, err := s.billing.CreateFromAppointment(s.ctx, appointmentID, nil, s.adminID())
	s.Require().NoError(err)

	stats, err := s.reports.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), stats.TotalPatients)
	s.Equal(int64(1), stats.TotalVisits)
	s.assertMoney(800, stats.PendingRevenue)
	s.assertMoney(0, stats.PaidRevenue)

	_, err = s.appointments.ProcessPayment(s.ctx, billed.ID, &dto.ProcessPaymentRequest{PaymentMethod: entity.PaymentMethodCash}, s.adminID())
	s.Require().NoError(err)

	stats, err = s.reports.Statistics(s.ctx)
	s.Require().NoError(err)
	s.assertMoney(800, stats.PaidRevenue)
	s.Equal(int64(1), stats.TotalAppointments)
	s.Equal(int64(1), stats.AppointmentsByStatus[string(entity.AppointmentStatusCompleted)])

	today := time.Now().UTC().Format(datetime.DateLayout)
	usage, err := s.reports.LabTestUsage(s.ctx, &dto.ReportRangeRequest{From: today, To: today})
	s.Require().NoError(err)
	s.Require().Len(usage, 1)
	s.Equal(s.fx.CBC.Code, usage[0].Code)
	s.Equal(int64(1), usage[0].Requests)
	s.assertMoney(500, usage[0].Revenue)
}

func (s *workflowSuite) TestReports_RangeValidation() {
	_, err := s.reports.AppointmentTrends(s.ctx, &dto.ReportRangeRequest{From: "2024-02-01", To: "2024-01-01"})
	s.True(errors.Is(err, apperror.ErrValidationFailure))

	_, err = s.reports.RevenueTrends(s.ctx, &dto.ReportRangeRequest{From: "yesterday", To: "2024-01-01"})
	s.True(errors.Is(err, apperror.ErrValidationFailure))
}

func (s *workflowSuite) TestReports_ServedFromCacheUntilInvalidated() {
	cache := newMemoryReportCache()
	s.cache = cache
	s.build()

	walkIn := s.createWalkIn()
	stats, err := s.reports.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), stats.TotalPatients)
	s.Equal(1, cache.sets)

	// a second patient is not visible until something invalidates the cache
	_, err = s.appointments.CreateWalkIn(s.ctx, walkInRequest("Ana", "Lim"), s.adminID())
	s.Require().NoError(err)
	stats, err = s.reports.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), stats.TotalPatients)

	billed, err := s.billing.CreateFromAppointment(s.ctx, walkIn.Appointment.ID, nil, s.adminID())
	s.Require().NoError(err)

	stats, err = s.reports.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), stats.TotalPatients)
	s.assertMoney(300, stats.PendingRevenue)
	s.Equal(2, cache.sets)

	_, err = s.appointments.ProcessPayment(s.ctx, billed.ID, &dto.ProcessPaymentRequest{PaymentMethod: entity.PaymentMethodCash}, s.adminID())
	s.Require().NoError(err)

	stats, err = s.reports.Statistics(s.ctx)
	s.Require().NoError(err)
	s.assertMoney(0, stats.PendingRevenue)
	s.assertMoney(300, stats.PaidRevenue)
	s.Equal(3, cache.sets)
}

func (s *workflowSuite) TestAuditLogs_RecordWorkflowSteps() {
	walkIn := s.createWalkIn()
	_, err := s.billing.CreateFromAppointment(s.ctx, walkIn.Appointment.ID, nil, s.adminID())
	s.Require().NoError(err)

	logs, err := s.auditLogs.ListAuditLogs(s.ctx, nil)
	s.Require().NoError(err)
	actions := make([]string, 0, len(logs.Logs))
	for _, l := range logs.Logs {
		actions = append(actions, l.Action)
	}
	s.Contains(actions, entity.AuditActionAppointmentCreate)
	s.Contains(actions, entity.AuditActionBillingCreate)
	s.Equal(int64(len(logs.Logs)), logs.Total)

	one, err := s.auditLogs.GetAuditLog(s.ctx, logs.Logs[0].ID)
	s.Require().NoError(err)
	s.Equal(logs.Logs[0].Action, one.Action)
}

func (s *workflowSuite) TestAuditLogs_FilterByActionAndEntity() {
	walkIn := s.createWalkIn()
	appointmentID := walkIn.Appointment.ID
	billed, err := s.billing.CreateFromAppointment(s.ctx, appointmentID, nil, s.adminID())
	s.Require().NoError(err)
	_, err = s.appointments.ProcessPayment(s.ctx, billed.ID, &dto.ProcessPaymentRequest{PaymentMethod: entity.PaymentMethodCash}, s.adminID())
	s.Require().NoError(err)

	created, err := s.auditLogs.ListAuditLogs(s.ctx, &dto.AuditLogQuery{Action: entity.AuditActionBillingCreate})
	s.Require().NoError(err)
	s.Require().Len(created.Logs, 1)
	s.Equal("billing_transaction", created.Logs[0].Entity)
	s.Require().NotNil(created.Logs[0].EntityID)
	s.Equal(billed.ID, *created.Logs[0].EntityID)

	transactionTrail, err := s.auditLogs.ListAuditLogs(s.ctx, &dto.AuditLogQuery{Entity: "billing_transaction", EntityID: &billed.ID})
	s.Require().NoError(err)
	s.Require().Len(transactionTrail.Logs, 2)
	s.Equal(entity.AuditActionBillingPay, transactionTrail.Logs[0].Action, "newest first")
	s.Equal(entity.AuditActionBillingCreate, transactionTrail.Logs[1].Action)

	appointmentTrail, err := s.auditLogs.ListAuditLogs(s.ctx, &dto.AuditLogQuery{Entity: "appointment", EntityID: &appointmentID})
	s.Require().NoError(err)
	s.Require().Len(appointmentTrail.Logs, 1)
	s.Equal(entity.AuditActionAppointmentCreate, appointmentTrail.Logs[0].Action)

	limited, err := s.auditLogs.ListAuditLogs(s.ctx, &dto.AuditLogQuery{UserID: s.adminID(), Limit: 1})
	s.Require().NoError(err)
	s.Len(limited.Logs, 1)
	s.Equal(int64(3), limited.Total)
}

func (s *workflowSuite) TestAuditLogs_InvalidQuery() {
	_, err := s.auditLogs.ListAuditLogs(s.ctx, &dto.AuditLogQuery{Entity: "patients"})
	s.True(errors.Is(err, apperror.ErrValidationFailure))

	_, err = s.auditLogs.ListAuditLogs(s.ctx, &dto.AuditLogQuery{From: "2024-02-01", To: "2024-01-01"})
	s.True(errors.Is(err, apperror.ErrValidationFailure))

	_, err = s.auditLogs.ListAuditLogs(s.ctx, &dto.AuditLogQuery{Limit: 501})
	s.True(errors.Is(err, apperror.ErrValidationFailure))
}

// memoryReportCache is a ReportCache over a map, round-tripping values
// through JSON like the redis cache does.
type memoryReportCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryReportCache() *memoryReportCache {
	return &memoryReportCache{entries: map[string][]byte{}}
}

func (c *memoryReportCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryReportCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memoryReportCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
	return nil
}

type rejectingBroadcaster struct {
	mu    sync.Mutex
	calls int
}

func (b *rejectingBroadcaster) Publish(context.Context, entity.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return errors.New("publish: connection refused")
}
