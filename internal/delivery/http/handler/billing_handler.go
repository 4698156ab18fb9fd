package handler

import (
	"net/http"

	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/delivery/http/middleware"
	"go-clinic-management/internal/usecase"
	"go-clinic-management/pkg/response"
)

type BillingHandler struct {
	billingUsecase     usecase.BillingUsecase
	appointmentUsecase usecase.AppointmentUsecase
}

func NewBillingHandler(billingUsecase usecase.BillingUsecase, appointmentUsecase usecase.AppointmentUsecase) *BillingHandler {
	return &BillingHandler{
		billingUsecase:     billingUsecase,
		appointmentUsecase: appointmentUsecase,
	}
}

func (h *BillingHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	transaction, err := h.billingUsecase.CreateFromAppointments(r.Context(), &req, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to create transaction")
		return
	}

	response.Success(w, http.StatusCreated, "Transaction created successfully", transaction)
}

func (h *BillingHandler) BillAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	transaction, err := h.billingUsecase.CreateFromAppointment(r.Context(), appointmentID, &req, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to bill appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Transaction created successfully", transaction)
}

func (h *BillingHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := pathID(w, r, "id", "transaction")
	if !ok {
		return
	}

	var req dto.ProcessPaymentRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	result, err := h.appointmentUsecase.ProcessPayment(r.Context(), transactionID, &req, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to process payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment processed successfully", result)
}

func (h *BillingHandler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := pathID(w, r, "id", "transaction")
	if !ok {
		return
	}

	transaction, err := h.billingUsecase.CancelTransaction(r.Context(), transactionID, middleware.ActingUserID(r.Context()))
	if err != nil {
		response.FromError(w, err, "Failed to cancel transaction")
		return
	}

	response.Success(w, http.StatusOK, "Transaction cancelled successfully", transaction)
}

func (h *BillingHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := pathID(w, r, "id", "transaction")
	if !ok {
		return
	}

	transaction, err := h.billingUsecase.Get(r.Context(), transactionID)
	if err != nil {
		response.FromError(w, err, "Failed to get transaction")
		return
	}

	response.Success(w, http.StatusOK, "Transaction retrieved successfully", transaction)
}
