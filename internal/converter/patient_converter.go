package converter

import (
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/pkg/datetime"
)

// PatientToResponse converts a Patient entity to PatientResponse DTO
func PatientToResponse(patient *entity.Patient) *dto.PatientResponse {
	if patient == nil {
		return nil
	}

	response := &dto.PatientResponse{
		ID:        patient.ID,
		PatientNo: patient.PatientNo,
		FullName:  patient.FullName(),
		FirstName: patient.FirstName,
		LastName:  patient.LastName,
		Sex:       patient.Sex,
		MobileNo:  patient.MobileNo,
		Email:     patient.Email,
	}
	if patient.Birthdate != nil {
		birthdate := patient.Birthdate.Format(datetime.DateLayout)
		response.Birthdate = &birthdate
	}
	if !patient.CreatedAt.IsZero() {
		createdAt := patient.CreatedAt
		response.CreatedAt = &createdAt
	}
	return response
}
