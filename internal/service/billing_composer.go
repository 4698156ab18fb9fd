package service

import (
	"fmt"
	"strings"
	"time"

	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/domain/repository"
	"go-clinic-management/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ComposeOptions struct {
	CreatedBy     *uint
	PaymentMethod string
	Notes         string
}

type PaymentOptions struct {
	PaymentMethod    string
	PaymentReference string
	PaidAt           time.Time
}

type BillingComposer interface {
	ComposeFromAppointment(tx *gorm.DB, appointment *entity.Appointment, opts ComposeOptions) (*entity.BillingTransaction, error)
	// ComposeFromAppointments bills several appointments of one patient on a
	// single transaction. The appointments must already be locked by the caller.
	ComposeFromAppointments(tx *gorm.DB, appointments []entity.Appointment, opts ComposeOptions) (*entity.BillingTransaction, error)
	// Reconcile re-derives the appointment's lab totals and, when a pending
	// transaction bills it, that transaction's lab items and total.
	Reconcile(tx *gorm.DB, appointment *entity.Appointment) (*entity.BillingTransaction, error)
	// MarkPaid settles a locked pending transaction and returns the ids of the
	// appointments it billed.
	MarkPaid(tx *gorm.DB, transaction *entity.BillingTransaction, opts PaymentOptions) ([]uint, error)
	Cancel(tx *gorm.DB, transaction *entity.BillingTransaction) ([]uint, error)
}

type billingComposer struct {
	log             *logrus.Logger
	billingRepo     repository.BillingRepository
	appointmentRepo repository.AppointmentRepository
	labRepo         repository.LabRepository
	codes           CodeGenerator
}

func NewBillingComposer(
	log *logrus.Logger,
	billingRepo repository.BillingRepository,
	appointmentRepo repository.AppointmentRepository,
	labRepo repository.LabRepository,
	codes CodeGenerator,
) BillingComposer {
	return &billingComposer{
		log:             log,
		billingRepo:     billingRepo,
		appointmentRepo: appointmentRepo,
		labRepo:         labRepo,
		codes:           codes,
	}
}

func (c *billingComposer) ComposeFromAppointment(tx *gorm.DB, appointment *entity.Appointment, opts ComposeOptions) (*entity.BillingTransaction, error) {
	if appointment == nil {
		return nil, apperror.Invariant("no appointment to bill")
	}
	return c.ComposeFromAppointments(tx, []entity.Appointment{*appointment}, opts)
}

func (c *billingComposer) ComposeFromAppointments(tx *gorm.DB, appointments []entity.Appointment, opts ComposeOptions) (*entity.BillingTransaction, error) {
	if len(appointments) == 0 {
		return nil, apperror.Invariant("no appointments to bill")
	}

	patientID := appointments[0].PatientID
	for i := range appointments {
		a := &appointments[i]
		if a.PatientID != patientID {
			return nil, apperror.Validation("appointments belong to different patients")
		}
		if a.IsCancelled() {
			return nil, apperror.Validation("appointment %s is cancelled", a.AppointmentCode)
		}
		if a.IsPending() {
			return nil, apperror.Validation("appointment %s must be confirmed before billing", a.AppointmentCode)
		}
		if a.BillingStatus != entity.BillingStatusPending {
			return nil, apperror.Validation("appointment %s is already billed", a.AppointmentCode)
		}
		link, err := c.billingRepo.FindActiveLinkByAppointment(tx, a.ID)
		if err != nil {
			c.log.Warnf("Failed to check billing link of appointment %d: %+v", a.ID, err)
			return nil, err
		}
		if link != nil {
			return nil, apperror.Validation("appointment %s is already billed", a.AppointmentCode)
		}
	}

	var (
		items []entity.BillingTransactionItem
		links []entity.AppointmentBillingLink
		ids   []uint
		total = decimal.Zero
	)
	for i := range appointments {
		a := &appointments[i]
		apptItems, err := c.itemsFor(tx, a)
		if err != nil {
			return nil, err
		}
		for _, item := range apptItems {
			total = total.Add(item.TotalPrice)
		}
		items = append(items, apptItems...)
		links = append(links, entity.AppointmentBillingLink{
			AppointmentID:    a.ID,
			AppointmentType:  a.AppointmentType,
			AppointmentPrice: ConsultationPrice(a),
			Status:           entity.LinkStatusPending,
		})
		ids = append(ids, a.ID)
	}

	code, err := NextCode(c.codes, tx, TransactionCode)
	if err != nil {
		c.log.Warnf("Failed to generate transaction code: %+v", err)
		return nil, err
	}

	transaction := &entity.BillingTransaction{
		TransactionCode: code,
		PatientID:       patientID,
		SpecialistID:    appointments[0].SpecialistID,
		Amount:          total,
		TotalAmount:     total,
		DiscountAmount:  decimal.Zero,
		IsItemized:      true,
		Status:          entity.TransactionStatusPending,
		PaymentMethod:   opts.PaymentMethod,
		TransactionDate: time.Now().UTC(),
		CreatedBy:       opts.CreatedBy,
		Notes:           opts.Notes,
		Items:           items,
		Links:           links,
	}
	if err := c.billingRepo.CreateTransaction(tx, transaction); err != nil {
		c.log.Warnf("Failed to create billing transaction: %+v", err)
		return nil, err
	}

	if err := c.appointmentRepo.UpdateBillingStatusByIDs(tx, ids, entity.BillingStatusInTransaction); err != nil {
		c.log.Warnf("Failed to mark appointments %v in transaction: %+v", ids, err)
		return nil, err
	}
	for i := range appointments {
		appointments[i].BillingStatus = entity.BillingStatusInTransaction
	}

	c.log.WithFields(logrus.Fields{
		"transaction_id":   transaction.ID,
		"transaction_code": transaction.TransactionCode,
		"appointments":     ids,
		"total":            total.StringFixed(2),
	}).Info("Billing transaction composed")
	return transaction, nil
}

// itemsFor builds one consultation item plus one laboratory item per lab test.
func (c *billingComposer) itemsFor(tx *gorm.DB, appointment *entity.Appointment) ([]entity.BillingTransactionItem, error) {
	apptID := appointment.ID
	price := ConsultationPrice(appointment)
	items := []entity.BillingTransactionItem{{
		AppointmentID: &apptID,
		ItemType:      entity.ItemTypeConsultation,
		ItemName:      consultationItemName(appointment),
		Quantity:      1,
		UnitPrice:     price,
		TotalPrice:    price,
	}}
	labItems, err := c.labItemsFor(tx, appointment.ID)
	if err != nil {
		return nil, err
	}
	return append(items, labItems...), nil
}

func (c *billingComposer) labItemsFor(tx *gorm.DB, appointmentID uint) ([]entity.BillingTransactionItem, error) {
	labTests, err := c.labRepo.FindAppointmentLabTests(tx, appointmentID)
	if err != nil {
		c.log.Warnf("Failed to load lab tests of appointment %d: %+v", appointmentID, err)
		return nil, err
	}
	return LabItems(appointmentID, labTests), nil
}

// LabItems turns the lab tests attached to an appointment into laboratory
// line items. The transaction id is left for the caller to set.
func LabItems(appointmentID uint, labTests []entity.AppointmentLabTest) []entity.BillingTransactionItem {
	items := make([]entity.BillingTransactionItem, 0, len(labTests))
	for _, lt := range labTests {
		apptID := appointmentID
		testID := lt.LabTestID
		name := fmt.Sprintf("Lab test #%d", lt.LabTestID)
		if lt.LabTest != nil {
			name = lt.LabTest.Name
		}
		items = append(items, entity.BillingTransactionItem{
			AppointmentID: &apptID,
			LabTestID:     &testID,
			ItemType:      entity.ItemTypeLaboratory,
			ItemName:      name,
			Quantity:      1,
			UnitPrice:     lt.Price,
			TotalPrice:    lt.Price,
		})
	}
	return items
}

func consultationItemName(appointment *entity.Appointment) string {
	label := strings.ReplaceAll(appointment.AppointmentType, "_", " ")
	if label == "" {
		label = "consultation"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func (c *billingComposer) Reconcile(tx *gorm.DB, appointment *entity.Appointment) (*entity.BillingTransaction, error) {
	labTests, err := c.labRepo.FindAppointmentLabTests(tx, appointment.ID)
	if err != nil {
		c.log.Warnf("Failed to load lab tests of appointment %d: %+v", appointment.ID, err)
		return nil, err
	}
	labTotal := decimal.Zero
	for _, lt := range labTests {
		labTotal = labTotal.Add(lt.Price)
	}
	appointment.ApplyLabTotal(labTotal)
	if err := c.appointmentRepo.Update(tx, appointment); err != nil {
		c.log.Warnf("Failed to update totals of appointment %d: %+v", appointment.ID, err)
		return nil, err
	}

	open, err := c.billingRepo.FindOpenTransactionForAppointment(tx, appointment.ID)
	if err != nil {
		c.log.Warnf("Failed to find open transaction of appointment %d: %+v", appointment.ID, err)
		return nil, err
	}
	if open == nil {
		return nil, nil
	}
	transaction, err := c.billingRepo.LockPendingTransaction(tx, open.ID)
	if err != nil {
		c.log.Warnf("Failed to lock transaction %d: %+v", open.ID, err)
		return nil, err
	}
	if transaction == nil {
		return nil, nil
	}

	labItems, err := c.labItemsFor(tx, appointment.ID)
	if err != nil {
		return nil, err
	}
	if err := c.billingRepo.ReplaceLabItems(tx, transaction.ID, appointment.ID, labItems); err != nil {
		c.log.Warnf("Failed to replace lab items of transaction %d: %+v", transaction.ID, err)
		return nil, err
	}
	if err := c.syncTotal(tx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// syncTotal persists Σ item.total_price as the transaction amount and total.
func (c *billingComposer) syncTotal(tx *gorm.DB, transaction *entity.BillingTransaction) error {
	items, err := c.billingRepo.FindItems(tx, transaction.ID)
	if err != nil {
		c.log.Warnf("Failed to load items of transaction %d: %+v", transaction.ID, err)
		return err
	}
	total := SumItems(items)
	transaction.Amount = total
	transaction.TotalAmount = total
	transaction.Items = items
	if err := c.billingRepo.UpdateTransaction(tx, transaction); err != nil {
		c.log.Warnf("Failed to update total of transaction %d: %+v", transaction.ID, err)
		return err
	}
	return nil
}

// SumItems adds up the line totals of a transaction.
func SumItems(items []entity.BillingTransactionItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

func (c *billingComposer) MarkPaid(tx *gorm.DB, transaction *entity.BillingTransaction, opts PaymentOptions) ([]uint, error) {
	if !transaction.IsPending() {
		return nil, apperror.NotFoundOrAlreadyProcessed("transaction %d is not pending", transaction.ID)
	}
	paidAt := opts.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	transaction.Status = entity.TransactionStatusPaid
	transaction.PaymentMethod = opts.PaymentMethod
	transaction.PaymentReference = opts.PaymentReference
	transaction.PaidAt = &paidAt
	if err := c.billingRepo.UpdateTransaction(tx, transaction); err != nil {
		c.log.Warnf("Failed to mark transaction %d paid: %+v", transaction.ID, err)
		return nil, err
	}

	ids, err := c.linkedAppointmentIDs(tx, transaction.ID)
	if err != nil {
		return nil, err
	}
	if err := c.billingRepo.UpdateLinksStatus(tx, transaction.ID, entity.LinkStatusPaid); err != nil {
		c.log.Warnf("Failed to mark links of transaction %d paid: %+v", transaction.ID, err)
		return nil, err
	}
	if err := c.appointmentRepo.UpdateBillingStatusByIDs(tx, ids, entity.BillingStatusPaid); err != nil {
		c.log.Warnf("Failed to mark appointments %v paid: %+v", ids, err)
		return nil, err
	}
	return ids, nil
}

func (c *billingComposer) Cancel(tx *gorm.DB, transaction *entity.BillingTransaction) ([]uint, error) {
	if !transaction.IsPending() {
		return nil, apperror.NotFoundOrAlreadyProcessed("transaction %d is not pending", transaction.ID)
	}
	transaction.Status = entity.TransactionStatusCancelled
	if err := c.billingRepo.UpdateTransaction(tx, transaction); err != nil {
		c.log.Warnf("Failed to cancel transaction %d: %+v", transaction.ID, err)
		return nil, err
	}

	ids, err := c.linkedAppointmentIDs(tx, transaction.ID)
	if err != nil {
		return nil, err
	}
	if err := c.billingRepo.UpdateLinksStatus(tx, transaction.ID, entity.LinkStatusCancelled); err != nil {
		c.log.Warnf("Failed to cancel links of transaction %d: %+v", transaction.ID, err)
		return nil, err
	}
	if err := c.appointmentRepo.UpdateBillingStatusByIDs(tx, ids, entity.BillingStatusPending); err != nil {
		c.log.Warnf("Failed to release appointments %v: %+v", ids, err)
		return nil, err
	}
	return ids, nil
}

func (c *billingComposer) linkedAppointmentIDs(tx *gorm.DB, transactionID uint) ([]uint, error) {
	links, err := c.billingRepo.FindLinksByTransaction(tx, transactionID)
	if err != nil {
		c.log.Warnf("Failed to load links of transaction %d: %+v", transactionID, err)
		return nil, err
	}
	ids := make([]uint, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.AppointmentID)
	}
	return ids, nil
}
