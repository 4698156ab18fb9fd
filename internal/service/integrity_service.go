package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/pkg/apperror"
	"go-clinic-management/pkg/monitoring"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repair step names, in run order.
const (
	StepPatientCodes        = "patient_codes"
	StepAppointmentCodes    = "appointment_codes"
	StepVisitCodes          = "visit_codes"
	StepAppointmentDefaults = "appointment_defaults"
	StepTransactionStatus   = "transaction_status"
	StepVisitPatients       = "visit_patients"
	StepMissingVisits       = "missing_visits"
	StepAppointmentTotals   = "appointment_totals"
	StepOrphanItems         = "orphan_items"
	StepTransactionTotals   = "transaction_totals"
	StepBillingStatus       = "billing_status"
	StepDailyTransactions   = "daily_transactions"
)

const (
	repairBatchSize          = 500
	integrityAuditEntityName = "integrity"
)

type RepairResult struct {
	Step     string `json:"step"`
	Repaired int    `json:"repaired"`
	Error    string `json:"error,omitempty"`
}

// IntegrityService is the idempotent self-healing pass. Each step fixes
// one kind of drift in its own transaction and leaves consistent rows alone,
// so running it twice in a row reports zero repairs the second time.
type IntegrityService interface {
	Steps() []string
	Run(ctx context.Context) ([]RepairResult, error)
	RunStep(ctx context.Context, step string) (RepairResult, error)
}

type repairStep struct {
	name string
	run  func(tx *gorm.DB) (int, error)
}

type integrityService struct {
	db           *gorm.DB
	log          *logrus.Logger
	codes        CodeGenerator
	materializer VisitMaterializer
	dailySync    DailyTransactionSync
	auditService AuditService
	metrics      *monitoring.MetricsCollector
	steps        []repairStep
}

func NewIntegrityService(
	db *gorm.DB,
	log *logrus.Logger,
	codes CodeGenerator,
	materializer VisitMaterializer,
	dailySync DailyTransactionSync,
	auditService AuditService,
	metrics *monitoring.MetricsCollector,
) IntegrityService {
	s := &integrityService{
		db:           db,
		log:          log,
		codes:        codes,
		materializer: materializer,
		dailySync:    dailySync,
		auditService: auditService,
		metrics:      metrics,
	}
	s.steps = []repairStep{
		{StepPatientCodes, func(tx *gorm.DB) (int, error) { return s.backfillCodes(tx, PatientCode, "patient_no") }},
		{StepAppointmentCodes, func(tx *gorm.DB) (int, error) { return s.backfillCodes(tx, AppointmentCode, "appointment_code") }},
		{StepVisitCodes, func(tx *gorm.DB) (int, error) { return s.backfillCodes(tx, VisitCode, "visit_code") }},
		{StepAppointmentDefaults, s.repairAppointmentDefaults},
		{StepTransactionStatus, s.repairTransactionStatus},
		{StepVisitPatients, s.repairVisitPatients},
		{StepMissingVisits, s.repairMissingVisits},
		{StepAppointmentTotals, s.repairAppointmentTotals},
		{StepOrphanItems, s.repairOrphanItems},
		{StepTransactionTotals, s.repairTransactionTotals},
		{StepBillingStatus, s.repairBillingStatus},
		{StepDailyTransactions, s.repairDailyTransactions},
	}
	return s
}

func (s *integrityService) Steps() []string {
	names := make([]string, 0, len(s.steps))
	for _, step := range s.steps {
		names = append(names, step.name)
	}
	return names
}

// Run executes every step. A failing step is rolled back and reported,
// the remaining steps still run.
func (s *integrityService) Run(ctx context.Context) ([]RepairResult, error) {
	results := make([]RepairResult, 0, len(s.steps))
	var errs []error
	for _, step := range s.steps {
		result, err := s.runStep(ctx, step)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
		results = append(results, result)
	}
	s.audit(ctx, results)
	return results, errors.Join(errs...)
}

func (s *integrityService) RunStep(ctx context.Context, name string) (RepairResult, error) {
	for _, step := range s.steps {
		if step.name == name {
			result, err := s.runStep(ctx, step)
			s.audit(ctx, []RepairResult{result})
			return result, err
		}
	}
	return RepairResult{Step: name}, apperror.Validation("unknown repair step %q", name)
}

func (s *integrityService) runStep(ctx context.Context, step repairStep) (RepairResult, error) {
	result := RepairResult{Step: step.name}
	start := time.Now()

	tx := s.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	repaired, err := step.run(tx)
	if err == nil {
		err = tx.Commit().Error
	}
	s.metrics.RecordWorkflow("integrity."+step.name, start, err)
	if err != nil {
		s.log.WithField("step", step.name).Errorf("Repair step failed: %+v", err)
		result.Error = err.Error()
		return result, err
	}

	result.Repaired = repaired
	s.metrics.RecordRepair(step.name, repaired)
	s.log.WithFields(logrus.Fields{"step": step.name, "repaired": repaired}).Info("Repair step finished")
	return result, nil
}

// audit records a summary row when anything was changed.
func (s *integrityService) audit(ctx context.Context, results []RepairResult) {
	total := 0
	summary := make(map[string]int, len(results))
	for _, r := range results {
		total += r.Repaired
		summary[r.Step] = r.Repaired
	}
	if total == 0 {
		return
	}
	if err := s.auditService.LogUpdate(ctx, s.db, nil, entity.AuditActionIntegrityRepair, integrityAuditEntityName, 0, nil, summary); err != nil {
		s.log.Warnf("Failed to audit integrity repair: %+v", err)
	}
}

// backfillCodes gives every row without a display code one derived from
// its own id, or the next free code when that one is taken.
func (s *integrityService) backfillCodes(tx *gorm.DB, cs CodeSpec, column string) (int, error) {
	var ids []uint
	err := tx.Table(cs.Table).
		Where(fmt.Sprintf("(%s IS NULL OR %s = '')", column, column)).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		code := FormatCode(cs.Prefix, cs.Width, int64(id))
		var taken int64
		if err := tx.Table(cs.Table).Where(column+" = ?", code).Count(&taken).Error; err != nil {
			return 0, err
		}
		if taken > 0 {
			if code, err = NextCode(s.codes, tx, cs); err != nil {
				return 0, err
			}
		}
		if err := tx.Table(cs.Table).Where("id = ?", id).Update(column, code).Error; err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func (s *integrityService) repairAppointmentDefaults(tx *gorm.DB) (int, error) {
	repaired := 0
	defaults := []struct {
		column string
		value  interface{}
	}{
		{"status", entity.AppointmentStatusPending},
		{"source", entity.AppointmentSourceOnline},
		{"billing_status", entity.BillingStatusPending},
	}
	for _, d := range defaults {
		res := tx.Model(&entity.Appointment{}).
			Where(fmt.Sprintf("(%s IS NULL OR %s = '')", d.column, d.column)).
			UpdateColumn(d.column, d.value)
		if res.Error != nil {
			return 0, res.Error
		}
		repaired += int(res.RowsAffected)
	}

	var unpriced []entity.Appointment
	err := tx.Where("(price IS NULL OR price = 0) AND appointment_type <> ?", entity.AppointmentTypeManualTransaction).
		Find(&unpriced).Error
	if err != nil {
		return 0, err
	}
	for i := range unpriced {
		a := &unpriced[i]
		price, err := AppointmentPrice(a.AppointmentType, decimal.Zero)
		if err != nil {
			// unknown type, nothing to derive a price from
			continue
		}
		a.Price = price
		a.ApplyLabTotal(a.TotalLabAmount)
		err = tx.Model(a).UpdateColumns(map[string]interface{}{
			"price":              a.Price,
			"final_total_amount": a.FinalTotalAmount,
		}).Error
		if err != nil {
			return 0, err
		}
		repaired++
	}
	return repaired, nil
}

// repairTransactionStatus folds legacy casings like "Pending" to lowercase.
func (s *integrityService) repairTransactionStatus(tx *gorm.DB) (int, error) {
	res := tx.Model(&entity.BillingTransaction{}).
		Where("status <> LOWER(status)").
		UpdateColumn("status", gorm.Expr("LOWER(status)"))
	return int(res.RowsAffected), res.Error
}

func (s *integrityService) repairVisitPatients(tx *gorm.DB) (int, error) {
	var drifted []struct {
		VisitID   uint
		PatientID uint
	}
	err := tx.Table("visits").
		Select("visits.id AS visit_id, appointments.patient_id AS patient_id").
		Joins("JOIN appointments ON appointments.id = visits.appointment_id").
		Where("visits.patient_id <> appointments.patient_id").
		Scan(&drifted).Error
	if err != nil {
		return 0, err
	}
	for _, d := range drifted {
		err := tx.Model(&entity.Visit{}).Where("id = ?", d.VisitID).UpdateColumn("patient_id", d.PatientID).Error
		if err != nil {
			return 0, err
		}
	}
	return len(drifted), nil
}

func (s *integrityService) repairMissingVisits(tx *gorm.DB) (int, error) {
	var appointments []entity.Appointment
	err := tx.Where("status IN ?", []entity.AppointmentStatus{entity.AppointmentStatusConfirmed, entity.AppointmentStatusCompleted}).
		Where("NOT EXISTS (SELECT 1 FROM visits WHERE visits.appointment_id = appointments.id)").
		Order("id ASC").
		Find(&appointments).Error
	if err != nil {
		return 0, err
	}

	for i := range appointments {
		a := &appointments[i]
		visit, _, err := s.materializer.Materialize(tx, a, a.ConfirmedBy)
		if err != nil {
			return 0, fmt.Errorf("appointment %d: %w", a.ID, err)
		}
		if a.Status == entity.AppointmentStatusCompleted {
			err := tx.Model(visit).UpdateColumn("status", entity.VisitStatusCompleted).Error
			if err != nil {
				return 0, err
			}
		}
	}
	return len(appointments), nil
}

func (s *integrityService) repairAppointmentTotals(tx *gorm.DB) (int, error) {
	repaired := 0
	var batch []entity.Appointment
	err := tx.Model(&entity.Appointment{}).FindInBatches(&batch, repairBatchSize, func(_ *gorm.DB, _ int) error {
		ids := make([]uint, 0, len(batch))
		for _, a := range batch {
			ids = append(ids, a.ID)
		}
		var sums []struct {
			AppointmentID uint
			Total         decimal.Decimal
		}
		err := tx.Model(&entity.AppointmentLabTest{}).
			Select("appointment_id, COALESCE(SUM(price), 0) AS total").
			Where("appointment_id IN ?", ids).
			Group("appointment_id").
			Scan(&sums).Error
		if err != nil {
			return err
		}
		labTotals := make(map[uint]decimal.Decimal, len(sums))
		for _, sum := range sums {
			labTotals[sum.AppointmentID] = sum.Total
		}

		for i := range batch {
			a := &batch[i]
			labTotal := labTotals[a.ID]
			if a.TotalLabAmount.Equal(labTotal) && a.FinalTotalAmount.Equal(a.Price.Add(labTotal)) {
				continue
			}
			a.ApplyLabTotal(labTotal)
			err := tx.Model(&entity.Appointment{}).Where("id = ?", a.ID).UpdateColumns(map[string]interface{}{
				"total_lab_amount":   a.TotalLabAmount,
				"final_total_amount": a.FinalTotalAmount,
			}).Error
			if err != nil {
				return err
			}
			repaired++
		}
		return nil
	}).Error
	return repaired, err
}

// repairOrphanItems drops line items that point at no transaction. When the
// appointment they belonged to sits on a pending transaction that has no
// laboratory lines for it, those lines are rebuilt from its lab tests.
func (s *integrityService) repairOrphanItems(tx *gorm.DB) (int, error) {
	orphaned := func() *gorm.DB {
		return tx.Model(&entity.BillingTransactionItem{}).
			Where("billing_transaction_id = 0 OR billing_transaction_id NOT IN (?)",
				tx.Model(&entity.BillingTransaction{}).Select("id"))
	}

	var appointmentIDs []uint
	if err := orphaned().Where("appointment_id IS NOT NULL").Distinct().Pluck("appointment_id", &appointmentIDs).Error; err != nil {
		return 0, err
	}
	res := orphaned().Delete(&entity.BillingTransactionItem{})
	if res.Error != nil {
		return 0, res.Error
	}

	for _, appointmentID := range appointmentIDs {
		var transactionIDs []uint
		err := tx.Model(&entity.AppointmentBillingLink{}).
			Joins("JOIN billing_transactions ON billing_transactions.id = appointment_billing_links.billing_transaction_id").
			Where("appointment_billing_links.appointment_id = ? AND appointment_billing_links.status = ? AND billing_transactions.status = ?",
				appointmentID, entity.LinkStatusPending, entity.TransactionStatusPending).
			Order("appointment_billing_links.billing_transaction_id DESC").
			Limit(1).
			Pluck("appointment_billing_links.billing_transaction_id", &transactionIDs).Error
		if err != nil {
			return 0, err
		}
		if len(transactionIDs) == 0 {
			continue
		}
		transactionID := transactionIDs[0]

		var present int64
		err = tx.Model(&entity.BillingTransactionItem{}).
			Where("billing_transaction_id = ? AND appointment_id = ? AND item_type = ?", transactionID, appointmentID, entity.ItemTypeLaboratory).
			Count(&present).Error
		if err != nil {
			return 0, err
		}
		if present > 0 {
			continue
		}

		var labTests []entity.AppointmentLabTest
		if err := tx.Preload("LabTest").Where("appointment_id = ?", appointmentID).Order("id ASC").Find(&labTests).Error; err != nil {
			return 0, err
		}
		items := LabItems(appointmentID, labTests)
		if len(items) == 0 {
			continue
		}
		for i := range items {
			items[i].BillingTransactionID = transactionID
		}
		if err := tx.Create(&items).Error; err != nil {
			return 0, err
		}
	}
	return int(res.RowsAffected), nil
}

func (s *integrityService) repairTransactionTotals(tx *gorm.DB) (int, error) {
	var rows []struct {
		ID          uint
		TotalAmount decimal.Decimal
		Amount      decimal.Decimal
		ItemsTotal  decimal.Decimal
	}
	err := tx.Table("billing_transactions").
		Select("billing_transactions.id, billing_transactions.total_amount, billing_transactions.amount, "+
			"SUM(billing_transaction_items.total_price) AS items_total").
		Joins("JOIN billing_transaction_items ON billing_transaction_items.billing_transaction_id = billing_transactions.id").
		Where("billing_transactions.is_itemized = ? AND billing_transactions.status <> ?", true, entity.TransactionStatusCancelled).
		Group("billing_transactions.id, billing_transactions.total_amount, billing_transactions.amount").
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, r := range rows {
		if r.TotalAmount.Equal(r.ItemsTotal) && r.Amount.Equal(r.ItemsTotal) {
			continue
		}
		err := tx.Model(&entity.BillingTransaction{}).Where("id = ?", r.ID).UpdateColumns(map[string]interface{}{
			"amount":       r.ItemsTotal,
			"total_amount": r.ItemsTotal,
		}).Error
		if err != nil {
			return 0, err
		}
		repaired++
	}
	return repaired, nil
}

// repairBillingStatus aligns appointments.billing_status with their links.
func (s *integrityService) repairBillingStatus(tx *gorm.DB) (int, error) {
	links := func(statuses ...entity.LinkStatus) *gorm.DB {
		return tx.Model(&entity.AppointmentBillingLink{}).Select("appointment_id").Where("status IN ?", statuses)
	}

	repaired := 0
	updates := []*gorm.DB{
		tx.Model(&entity.Appointment{}).
			Where("billing_status <> ? AND id IN (?)", entity.BillingStatusPaid, links(entity.LinkStatusPaid)).
			UpdateColumn("billing_status", entity.BillingStatusPaid),
		tx.Model(&entity.Appointment{}).
			Where("billing_status = ? AND id IN (?) AND id NOT IN (?)", entity.BillingStatusPending,
				links(entity.LinkStatusPending), links(entity.LinkStatusPaid)).
			UpdateColumn("billing_status", entity.BillingStatusInTransaction),
		tx.Model(&entity.Appointment{}).
			Where("billing_status = ? AND id NOT IN (?)", entity.BillingStatusInTransaction,
				links(entity.LinkStatusPending, entity.LinkStatusPaid)).
			UpdateColumn("billing_status", entity.BillingStatusPending),
	}
	for _, res := range updates {
		if res.Error != nil {
			return 0, res.Error
		}
		repaired += int(res.RowsAffected)
	}
	return repaired, nil
}

func (s *integrityService) repairDailyTransactions(tx *gorm.DB) (int, error) {
	var ids []uint
	err := tx.Table("billing_transactions").
		Joins("LEFT JOIN daily_transactions ON daily_transactions.billing_transaction_id = billing_transactions.id").
		Where("(daily_transactions.id IS NULL OR daily_transactions.status <> billing_transactions.status OR "+
			"daily_transactions.total_amount <> billing_transactions.total_amount)").
		Order("billing_transactions.id ASC").
		Pluck("billing_transactions.id", &ids).Error
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := s.dailySync.Sync(tx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
