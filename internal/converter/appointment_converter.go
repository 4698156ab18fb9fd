package converter

import (
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/pkg/datetime"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:                 appointment.ID,
		AppointmentCode:    appointment.AppointmentCode,
		PatientID:          appointment.PatientID,
		SpecialistID:       appointment.SpecialistID,
		AppointmentType:    appointment.AppointmentType,
		SpecialistType:     appointment.SpecialistType,
		AppointmentDate:    appointment.AppointmentDate.Format(datetime.DateLayout),
		AppointmentTime:    appointment.AppointmentTime,
		Status:             string(appointment.Status),
		Source:             string(appointment.Source),
		BillingStatus:      string(appointment.BillingStatus),
		Price:              appointment.Price,
		TotalLabAmount:     appointment.TotalLabAmount,
		FinalTotalAmount:   appointment.FinalTotalAmount,
		Notes:              appointment.Notes,
		AdminNotes:         appointment.AdminNotes,
		CancellationReason: appointment.CancellationReason,
		CreatedAt:          appointment.CreatedAt,
	}

	// Include related records if loaded
	if appointment.Patient != nil {
		response.Patient = PatientToResponse(appointment.Patient)
	}
	if appointment.Specialist != nil {
		response.SpecialistName = appointment.Specialist.Name
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

// VisitToResponse converts a Visit entity to VisitResponse DTO
func VisitToResponse(visit *entity.Visit) *dto.VisitResponse {
	if visit == nil {
		return nil
	}

	return &dto.VisitResponse{
		ID:               visit.ID,
		VisitCode:        visit.VisitCode,
		AppointmentID:    visit.AppointmentID,
		PatientID:        visit.PatientID,
		AttendingStaffID: visit.AttendingStaffID,
		VisitDateTime:    visit.VisitDateTime.UTC().Format(datetime.DateTimeLayout),
		Purpose:          visit.Purpose,
		Status:           string(visit.Status),
	}
}
