package converter

import (
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
)

// TransactionToResponse converts a BillingTransaction entity to TransactionResponse DTO
func TransactionToResponse(transaction *entity.BillingTransaction) *dto.TransactionResponse {
	if transaction == nil {
		return nil
	}

	response := &dto.TransactionResponse{
		ID:               transaction.ID,
		TransactionCode:  transaction.TransactionCode,
		PatientID:        transaction.PatientID,
		SpecialistID:     transaction.SpecialistID,
		Amount:           transaction.Amount,
		TotalAmount:      transaction.TotalAmount,
		DiscountAmount:   transaction.DiscountAmount,
		IsItemized:       transaction.IsItemized,
		Status:           string(transaction.Status),
		PaymentMethod:    transaction.PaymentMethod,
		PaymentReference: transaction.PaymentReference,
		TransactionDate:  transaction.TransactionDate,
		PaidAt:           transaction.PaidAt,
	}

	for _, link := range transaction.Links {
		response.AppointmentIDs = append(response.AppointmentIDs, link.AppointmentID)
	}
	for _, item := range transaction.Items {
		response.Items = append(response.Items, dto.TransactionItemResponse{
			ID:            item.ID,
			AppointmentID: item.AppointmentID,
			LabTestID:     item.LabTestID,
			ItemType:      item.ItemType,
			ItemName:      item.ItemName,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			TotalPrice:    item.TotalPrice,
		})
	}

	return response
}
