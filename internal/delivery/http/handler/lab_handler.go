package handler

import (
	"net/http"

	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/delivery/http/middleware"
	"go-clinic-management/internal/usecase"
	"go-clinic-management/pkg/response"
)

type LabHandler struct {
	labUsecase usecase.LabUsecase
}

func NewLabHandler(labUsecase usecase.LabUsecase) *LabHandler {
	return &LabHandler{
		labUsecase: labUsecase,
	}
}

func (h *LabHandler) AttachTests(w http.ResponseWriter, r *http.Request) {
	var req dto.AttachLabTestsRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	result, err := h.labUsecase.AttachTests(r.Context(), &req, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to order lab tests")
		return
	}

	response.Success(w, http.StatusCreated, "Lab tests ordered successfully", result)
}

func (h *LabHandler) RemoveTest(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(w, r, "id", "appointment")
	if !ok {
		return
	}
	labTestID, ok := pathID(w, r, "testId", "lab test")
	if !ok {
		return
	}

	result, err := h.labUsecase.RemoveTest(r.Context(), appointmentID, labTestID, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to remove lab test")
		return
	}

	response.Success(w, http.StatusOK, "Lab test removed successfully", result)
}
