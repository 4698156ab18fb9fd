package service

import (
	"strings"
	"time"

	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/datetime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PatientIdentity is the loose identity data a booking form carries.
type PatientIdentity struct {
	FirstName          string
	MiddleName         string
	LastName           string
	Birthdate          *time.Time
	Sex                string
	MobileNo           string
	Email              string
	Address            string
	MedicalHistory     string
	Allergies          string
	CurrentMedications string
	UserID             *uint
}

func (p PatientIdentity) normalized() PatientIdentity {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.MiddleName = strings.TrimSpace(p.MiddleName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.MobileNo = strings.TrimSpace(p.MobileNo)
	p.Email = strings.TrimSpace(p.Email)
	p.Sex = strings.TrimSpace(p.Sex)
	if p.Birthdate != nil {
		d := datetime.DateOnly(*p.Birthdate)
		p.Birthdate = &d
	}
	return p
}

type PatientResolver interface {
	// FindOrCreate returns the patient matching identity exactly, creating one
	// when nothing matches. created reports whether a row was inserted.
	FindOrCreate(tx *gorm.DB, identity PatientIdentity) (patient *entity.Patient, created bool, err error)
	FindByID(tx *gorm.DB, id uint) (*entity.Patient, error)
}

type patientResolver struct {
	log         *logrus.Logger
	patientRepo repository.PatientRepository
	codes       CodeGenerator
}

func NewPatientResolver(log *logrus.Logger, patientRepo repository.PatientRepository, codes CodeGenerator) PatientResolver {
	return &patientResolver{
		log:         log,
		patientRepo: patientRepo,
		codes:       codes,
	}
}

func (r *patientResolver) FindOrCreate(tx *gorm.DB, identity PatientIdentity) (*entity.Patient, bool, error) {
	id := identity.normalized()
	if id.FirstName == "" || id.LastName == "" {
		fields := map[string]string{}
		if id.FirstName == "" {
			fields["first_name"] = "first_name is required"
		}
		if id.LastName == "" {
			fields["last_name"] = "last_name is required"
		}
		return nil, false, apperror.ValidationFields(fields)
	}

	if id.Birthdate != nil {
		patient, err := r.patientRepo.FindByNameAndBirthdate(tx, id.FirstName, id.LastName, *id.Birthdate)
		if err != nil {
			r.log.Warnf("Failed to match patient by name and birthdate: %+v", err)
			return nil, false, err
		}
		if patient != nil {
			return r.matched(tx, patient, id)
		}
	}

	if id.MobileNo != "" {
		patient, err := r.patientRepo.FindByMobileAndName(tx, id.MobileNo, id.FirstName, id.LastName)
		if err != nil {
			r.log.Warnf("Failed to match patient by mobile number: %+v", err)
			return nil, false, err
		}
		if patient != nil {
			return r.matched(tx, patient, id)
		}
	}

	code, err := NextCode(r.codes, tx, PatientCode)
	if err != nil {
		r.log.Warnf("Failed to generate patient code: %+v", err)
		return nil, false, err
	}

	patient := &entity.Patient{
		PatientNo:          code,
		UserID:             id.UserID,
		FirstName:          id.FirstName,
		MiddleName:         id.MiddleName,
		LastName:           id.LastName,
		Birthdate:          id.Birthdate,
		Sex:                id.Sex,
		MobileNo:           id.MobileNo,
		Email:              id.Email,
		Address:            id.Address,
		MedicalHistory:     id.MedicalHistory,
		Allergies:          id.Allergies,
		CurrentMedications: id.CurrentMedications,
	}
	if err := r.patientRepo.Create(tx, patient); err != nil {
		r.log.Warnf("Failed to create patient: %+v", err)
		return nil, false, err
	}

	r.log.WithFields(logrus.Fields{"patient_id": patient.ID, "patient_no": patient.PatientNo}).Info("Patient registered")
	return patient, true, nil
}

// matched links a portal account to a patient first registered at the front
// desk, so later notifications reach that account.
func (r *patientResolver) matched(tx *gorm.DB, patient *entity.Patient, id PatientIdentity) (*entity.Patient, bool, error) {
	if patient.UserID != nil || id.UserID == nil {
		return patient, false, nil
	}
	linked, err := r.patientRepo.LinkUser(tx, patient.ID, *id.UserID)
	if err != nil {
		r.log.Warnf("Failed to link user %d to patient %d: %+v", *id.UserID, patient.ID, err)
		return nil, false, err
	}
	if linked {
		userID := *id.UserID
		patient.UserID = &userID
		r.log.WithFields(logrus.Fields{"patient_id": patient.ID, "user_id": userID}).Info("Portal account linked to patient")
	}
	return patient, false, nil
}

func (r *patientResolver) FindByID(tx *gorm.DB, id uint) (*entity.Patient, error) {
	patient, err := r.patientRepo.FindByID(tx, id)
	if err != nil {
		r.log.Warnf("Failed to find patient %d: %+v", id, err)
		return nil, err
	}
	if patient == nil {
		return nil, apperror.NotFoundOrAlreadyProcessed("patient %d not found", id)
	}
	return patient, nil
}
