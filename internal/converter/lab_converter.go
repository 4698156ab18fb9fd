package converter

import (
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
)

// LabTestsToResponses converts catalog entries to LabTestResponse DTOs
func LabTestsToResponses(tests []entity.LabTest) []dto.LabTestResponse {
	responses := make([]dto.LabTestResponse, len(tests))
	for i, t := range tests {
		responses[i] = dto.LabTestResponse{
			ID:    t.ID,
			Code:  t.Code,
			Name:  t.Name,
			Price: t.Price,
		}
	}
	return responses
}
