package handler

import (
	"net/http"
	"strconv"

	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/usecase"
	"go-clinic-management/pkg/response"
)

type ReportHandler struct {
	reportUsecase    usecase.ReportUsecase
	integrityUsecase usecase.IntegrityUsecase
}

func NewReportHandler(reportUsecase usecase.ReportUsecase, integrityUsecase usecase.IntegrityUsecase) *ReportHandler {
	return &ReportHandler{
		reportUsecase:    reportUsecase,
		integrityUsecase: integrityUsecase,
	}
}

// rangeFromQuery reads ?from=&to=&limit=
func rangeFromQuery(w http.ResponseWriter, r *http.Request) (*dto.ReportRangeRequest, bool) {
	q := r.URL.Query()
	req := &dto.ReportRangeRequest{From: q.Get("from"), To: q.Get("to")}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid limit", nil)
			return nil, false
		}
		req.Limit = limit
	}
	return req, true
}

func (h *ReportHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportUsecase.Statistics(r.Context())
	if err != nil {
		response.FromError(w, err, "Failed to get statistics")
		return
	}

	response.Success(w, http.StatusOK, "Statistics retrieved successfully", stats)
}

func (h *ReportHandler) AppointmentTrends(w http.ResponseWriter, r *http.Request) {
	req, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}

	trends, err := h.reportUsecase.AppointmentTrends(r.Context(), req)
	if err != nil {
		response.FromError(w, err, "Failed to get appointment trends")
		return
	}

	response.Success(w, http.StatusOK, "Appointment trends retrieved successfully", trends)
}

func (h *ReportHandler) LabTestUsage(w http.ResponseWriter, r *http.Request) {
	req, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}

	usage, err := h.reportUsecase.LabTestUsage(r.Context(), req)
	if err != nil {
		response.FromError(w, err, "Failed to get lab test usage")
		return
	}

	response.Success(w, http.StatusOK, "Lab test usage retrieved successfully", usage)
}

func (h *ReportHandler) RevenueTrends(w http.ResponseWriter, r *http.Request) {
	req, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}

	trends, err := h.reportUsecase.RevenueTrends(r.Context(), req)
	if err != nil {
		response.FromError(w, err, "Failed to get revenue trends")
		return
	}

	response.Success(w, http.StatusOK, "Revenue trends retrieved successfully", trends)
}

func (h *ReportHandler) Repair(w http.ResponseWriter, r *http.Request) {
	result, err := h.integrityUsecase.Repair(r.Context(), r.URL.Query().Get("step"))
	if err != nil {
		if result != nil && len(result.Steps) > 1 {
			// Partial run: report what happened per step
			response.Error(w, http.StatusInternalServerError, "Some repair steps failed", result)
			return
		}
		response.FromError(w, err, "Failed to run repair")
		return
	}

	response.Success(w, http.StatusOK, "Repair finished", result)
}
