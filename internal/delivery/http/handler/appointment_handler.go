package handler

import (
	"net/http"

	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/delivery/http/middleware"
	"go-clinic-management/internal/usecase"
	"go-clinic-management/pkg/response"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
	}
}

func (h *AppointmentHandler) CreateOnline(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	result, err := h.appointmentUsecase.CreateOnline(r.Context(), &req, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment requested successfully", result)
}

func (h *AppointmentHandler) CreateWalkIn(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	result, err := h.appointmentUsecase.CreateWalkIn(r.Context(), &req, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to register walk-in")
		return
	}

	response.Success(w, http.StatusCreated, "Walk-in registered successfully", result)
}

func (h *AppointmentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.ApproveAppointmentRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	result, err := h.appointmentUsecase.Approve(r.Context(), appointmentID, &req, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to approve appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment approved successfully", result)
}

func (h *AppointmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.RejectAppointmentRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	result, err := h.appointmentUsecase.Reject(r.Context(), appointmentID, &req, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to reject appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment rejected successfully", result)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.Get(r.Context(), appointmentID)
	if err != nil {
		response.FromError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

func (h *AppointmentHandler) GetPatientAppointments(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(w, r, "id", "patient")
	if !ok {
		return
	}

	appointments, err := h.appointmentUsecase.ListByPatient(r.Context(), patientID)
	if err != nil {
		response.FromError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}
