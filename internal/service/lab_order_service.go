package service

import (
	"sort"
	"strings"

	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LabTarget is what lab tests are attached to. Appointment is required;
// Visit is set when the request came in against a visit.
type LabTarget struct {
	Appointment *entity.Appointment
	Visit       *entity.Visit
}

type AttachResult struct {
	Order       *entity.LabOrder
	Added       []entity.LabTest
	TotalAdded  decimal.Decimal
	Appointment *entity.Appointment
	Transaction *entity.BillingTransaction
}

type RemoveResult struct {
	Appointment *entity.Appointment
	Transaction *entity.BillingTransaction
}

type LabOrderService interface {
	AttachTests(tx *gorm.DB, target LabTarget, testIDs []uint, requestedBy *uint, notes string) (*AttachResult, error)
	RemoveTest(tx *gorm.DB, appointment *entity.Appointment, testID uint) (*RemoveResult, error)
}

type labOrderService struct {
	log      *logrus.Logger
	labRepo  repository.LabRepository
	composer BillingComposer
}

func NewLabOrderService(log *logrus.Logger, labRepo repository.LabRepository, composer BillingComposer) LabOrderService {
	return &labOrderService{
		log:      log,
		labRepo:  labRepo,
		composer: composer,
	}
}

func checkLabEditable(appointment *entity.Appointment) error {
	if appointment.IsCancelled() {
		return apperror.Validation("appointment %s is cancelled", appointment.AppointmentCode)
	}
	if appointment.BillingStatus == entity.BillingStatusPaid {
		return apperror.Validation("appointment %s is already paid", appointment.AppointmentCode)
	}
	return nil
}

func (s *labOrderService) AttachTests(tx *gorm.DB, target LabTarget, testIDs []uint, requestedBy *uint, notes string) (*AttachResult, error) {
	appointment := target.Appointment
	if appointment == nil {
		return nil, apperror.Invariant("lab tests need an appointment or visit")
	}
	if err := checkLabEditable(appointment); err != nil {
		return nil, err
	}

	tests, err := s.labRepo.FindActiveTestsByIDs(tx, uniqueIDs(testIDs))
	if err != nil {
		s.log.Warnf("Failed to load lab tests %v: %+v", testIDs, err)
		return nil, err
	}
	if len(tests) == 0 {
		return nil, apperror.Invariant("no valid lab tests found for ids %v", testIDs)
	}

	present, err := s.presentTestIDs(tx, target)
	if err != nil {
		return nil, err
	}

	var (
		added      []entity.LabTest
		duplicates []string
	)
	for _, t := range tests {
		if present[t.ID] {
			duplicates = append(duplicates, t.Name)
			continue
		}
		added = append(added, t)
	}
	if len(added) == 0 {
		sort.Strings(duplicates)
		return nil, apperror.Validation("lab tests already requested: %s", strings.Join(duplicates, ", "))
	}

	appointmentID := appointment.ID
	order := &entity.LabOrder{
		PatientID:     appointment.PatientID,
		AppointmentID: &appointmentID,
		OrderedBy:     requestedBy,
		Status:        entity.LabOrderStatusOrdered,
		Notes:         notes,
	}
	if target.Visit != nil {
		visitID := target.Visit.ID
		order.VisitID = &visitID
	}

	totalAdded := decimal.Zero
	rows := make([]entity.AppointmentLabTest, 0, len(added))
	for _, t := range added {
		order.Results = append(order.Results, entity.LabResult{
			LabTestID: t.ID,
			Status:    entity.LabResultStatusPending,
			Results:   datatypes.JSONMap{},
		})
		rows = append(rows, entity.AppointmentLabTest{
			AppointmentID: appointment.ID,
			LabTestID:     t.ID,
			Price:         t.Price,
			AddedBy:       requestedBy,
			Notes:         notes,
		})
		totalAdded = totalAdded.Add(t.Price)
	}

	if err := s.labRepo.CreateOrder(tx, order); err != nil {
		s.log.Warnf("Failed to create lab order for appointment %d: %+v", appointment.ID, err)
		return nil, err
	}
	if err := s.labRepo.CreateAppointmentLabTests(tx, rows); err != nil {
		s.log.Warnf("Failed to attach lab tests to appointment %d: %+v", appointment.ID, err)
		return nil, err
	}

	transaction, err := s.composer.Reconcile(tx, appointment)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"lab_order_id":   order.ID,
		"tests":          len(added),
		"skipped":        duplicates,
		"total_added":    totalAdded.StringFixed(2),
	}).Info("Lab tests attached")

	return &AttachResult{
		Order:       order,
		Added:       added,
		TotalAdded:  totalAdded,
		Appointment: appointment,
		Transaction: transaction,
	}, nil
}

// presentTestIDs collects tests already on an outstanding order of the
// visit or appointment, plus tests billed on the appointment.
func (s *labOrderService) presentTestIDs(tx *gorm.DB, target LabTarget) (map[uint]bool, error) {
	appointmentID := target.Appointment.ID
	var visitID *uint
	if target.Visit != nil {
		id := target.Visit.ID
		visitID = &id
	}

	present := make(map[uint]bool)
	ordered, err := s.labRepo.FindOutstandingTestIDs(tx, visitID, &appointmentID)
	if err != nil {
		s.log.Warnf("Failed to load outstanding lab orders of appointment %d: %+v", appointmentID, err)
		return nil, err
	}
	for _, id := range ordered {
		present[id] = true
	}

	billed, err := s.labRepo.FindAppointmentLabTests(tx, appointmentID)
	if err != nil {
		s.log.Warnf("Failed to load lab tests of appointment %d: %+v", appointmentID, err)
		return nil, err
	}
	for _, lt := range billed {
		present[lt.LabTestID] = true
	}
	return present, nil
}

func (s *labOrderService) RemoveTest(tx *gorm.DB, appointment *entity.Appointment, testID uint) (*RemoveResult, error) {
	if err := checkLabEditable(appointment); err != nil {
		return nil, err
	}

	deleted, err := s.labRepo.DeleteAppointmentLabTest(tx, appointment.ID, testID)
	if err != nil {
		s.log.Warnf("Failed to remove lab test %d from appointment %d: %+v", testID, appointment.ID, err)
		return nil, err
	}
	if deleted == 0 {
		return nil, apperror.NotFoundOrAlreadyProcessed("lab test %d is not attached to appointment %s", testID, appointment.AppointmentCode)
	}

	if _, err := s.labRepo.DeletePendingResults(tx, appointment.ID, testID); err != nil {
		s.log.Warnf("Failed to drop pending result of lab test %d: %+v", testID, err)
		return nil, err
	}
	if _, err := s.labRepo.CancelEmptyOrders(tx, appointment.ID); err != nil {
		s.log.Warnf("Failed to cancel empty lab orders of appointment %d: %+v", appointment.ID, err)
		return nil, err
	}

	transaction, err := s.composer.Reconcile(tx, appointment)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"lab_test_id":    testID,
		"final_total":    appointment.FinalTotalAmount.StringFixed(2),
	}).Info("Lab test removed")

	return &RemoveResult{Appointment: appointment, Transaction: transaction}, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
