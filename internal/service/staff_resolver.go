package service

import (
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"

	"gorm.io/gorm"
)

// StaffLookup answers the role questions the attending staff policy needs.
type StaffLookup interface {
	SpecialistUserID(specialistID uint) (*uint, error)
	FirstActiveUserID(role string) (*uint, error)
}

// ResolveAttendingStaff picks the staff member attending a visit, first hit wins:
// the assigned specialist's account, the first active user with the
// specialist type's role, the acting user, any active admin, defaultID.
func ResolveAttendingStaff(lookup StaffLookup, specialistID *uint, specialistType string, actingUserID *uint, defaultID uint) (uint, error) {
	if specialistID != nil {
		userID, err := lookup.SpecialistUserID(*specialistID)
		if err != nil {
			return 0, err
		}
		if userID != nil {
			return *userID, nil
		}
	}

	if role := staffRoleFor(specialistType); role != "" {
		userID, err := lookup.FirstActiveUserID(role)
		if err != nil {
			return 0, err
		}
		if userID != nil {
			return *userID, nil
		}
	}

	if actingUserID != nil {
		return *actingUserID, nil
	}

	adminID, err := lookup.FirstActiveUserID(entity.RoleAdmin)
	if err != nil {
		return 0, err
	}
	if adminID != nil {
		return *adminID, nil
	}

	return defaultID, nil
}

func staffRoleFor(specialistType string) string {
	switch specialistType {
	case entity.SpecialistTypeDoctor:
		return entity.RoleDoctor
	case entity.SpecialistTypeMedtech:
		return entity.RoleMedtech
	case entity.SpecialistTypeNurse:
		return entity.RoleNurse
	}
	return ""
}

// repoStaffLookup answers StaffLookup from the database inside tx.
type repoStaffLookup struct {
	tx             *gorm.DB
	userRepo       repository.UserRepository
	specialistRepo repository.SpecialistRepository
}

func NewStaffLookup(tx *gorm.DB, userRepo repository.UserRepository, specialistRepo repository.SpecialistRepository) StaffLookup {
	return &repoStaffLookup{tx: tx, userRepo: userRepo, specialistRepo: specialistRepo}
}

func (l *repoStaffLookup) SpecialistUserID(specialistID uint) (*uint, error) {
	specialist, err := l.specialistRepo.FindByID(l.tx, specialistID)
	if err != nil {
		return nil, err
	}
	if specialist == nil || specialist.UserID == nil {
		return nil, nil
	}
	if specialist.User != nil && !specialist.User.IsActive {
		return nil, nil
	}
	return specialist.UserID, nil
}

func (l *repoStaffLookup) FirstActiveUserID(role string) (*uint, error) {
	user, err := l.userRepo.FindFirstActiveByRole(l.tx, role)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &user.ID, nil
}
