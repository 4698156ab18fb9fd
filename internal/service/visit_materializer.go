package service

import (
	"time"

	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/datetime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type VisitMaterializer interface {
	// Materialize returns the appointment's visit, creating it on first call.
	Materialize(tx *gorm.DB, appointment *entity.Appointment, actingUserID *uint) (visit *entity.Visit, created bool, err error)
}

type visitMaterializer struct {
	log            *logrus.Logger
	visitRepo      repository.VisitRepository
	userRepo       repository.UserRepository
	specialistRepo repository.SpecialistRepository
	codes          CodeGenerator
	defaultStaffID uint
}

func NewVisitMaterializer(
	log *logrus.Logger,
	visitRepo repository.VisitRepository,
	userRepo repository.UserRepository,
	specialistRepo repository.SpecialistRepository,
	codes CodeGenerator,
	defaultStaffID uint,
) VisitMaterializer {
	return &visitMaterializer{
		log:            log,
		visitRepo:      visitRepo,
		userRepo:       userRepo,
		specialistRepo: specialistRepo,
		codes:          codes,
		defaultStaffID: defaultStaffID,
	}
}

// NormalizeVisitDateTime merges the appointment day and its loosely
// formatted time into one timestamp and its "YYYY-MM-DD HH:MM:SS" form.
func NormalizeVisitDateTime(date time.Time, clock string) (time.Time, string, error) {
	t, canonical, err := datetime.Combine(date, clock)
	if err != nil {
		return time.Time{}, "", apperror.Validation("appointment time %q: %v", clock, err)
	}
	return t, canonical, nil
}

func (m *visitMaterializer) Materialize(tx *gorm.DB, appointment *entity.Appointment, actingUserID *uint) (*entity.Visit, bool, error) {
	existing, err := m.visitRepo.FindByAppointmentID(tx, appointment.ID)
	if err != nil {
		m.log.Warnf("Failed to look up visit of appointment %d: %+v", appointment.ID, err)
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	visitAt, _, err := NormalizeVisitDateTime(appointment.AppointmentDate, appointment.AppointmentTime)
	if err != nil {
		return nil, false, err
	}

	lookup := NewStaffLookup(tx, m.userRepo, m.specialistRepo)
	staffID, err := ResolveAttendingStaff(lookup, appointment.SpecialistID, appointment.SpecialistType, actingUserID, m.defaultStaffID)
	if err != nil {
		m.log.Warnf("Failed to resolve attending staff for appointment %d: %+v", appointment.ID, err)
		return nil, false, err
	}

	code, err := NextCode(m.codes, tx, VisitCode)
	if err != nil {
		m.log.Warnf("Failed to generate visit code: %+v", err)
		return nil, false, err
	}

	visit := &entity.Visit{
		VisitCode:        code,
		AppointmentID:    appointment.ID,
		PatientID:        appointment.PatientID,
		AttendingStaffID: staffID,
		VisitDateTime:    visitAt,
		Purpose:          appointment.AppointmentType,
		Status:           entity.VisitStatusInProgress,
		Notes:            appointment.Notes,
	}
	if err := m.visitRepo.Create(tx, visit); err != nil {
		m.log.Warnf("Failed to create visit for appointment %d: %+v", appointment.ID, err)
		return nil, false, err
	}

	m.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"visit_id":       visit.ID,
		"visit_code":     visit.VisitCode,
		"staff_id":       staffID,
	}).Info("Visit created")
	return visit, true, nil
}
