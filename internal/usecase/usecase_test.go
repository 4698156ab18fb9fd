package usecase

import (
	"context"
	"testing"

	"go-clinic-management/config"
	"go-clinic-management/internal/delivery/dto"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/internal/repository"
	"go-clinic-management/internal/service"
	"go-clinic-management/internal/testutil"
	"go-clinic-management/pkg/monitoring"
	"go-clinic-management/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// workflowSuite wires the real repositories and services over an in-memory
// database, the same graph bootstrap builds for the server.
type workflowSuite struct {
	suite.Suite

	ctx         context.Context
	db          *gorm.DB
	log         *logrus.Logger
	hook        *test.Hook
	fx          *testutil.Fixtures
	workflow    config.WorkflowConfig
	cache       service.ReportCache
	broadcaster service.Broadcaster

	appointments  AppointmentUsecase
	billing       BillingUsecase
	labs          LabUsecase
	notifications NotificationUsecase
	reports       ReportUsecase
	integrity     IntegrityUsecase
	auditLogs     AuditLogUsecase
}

func (s *workflowSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewSQLiteDB(s.T())
	s.log, s.hook = testutil.NullLogger()
	s.fx = testutil.Seed(s.T(), s.db)
	s.workflow = config.WorkflowConfig{DuplicateCheck: true, DefaultStaffID: s.fx.Admin.ID}
	s.cache = service.NewNoopReportCache()
	s.broadcaster = service.NewNoopBroadcaster()
	s.build()
}

// build wires the graph from the current workflow config, cache and
// broadcaster; tests that change one of them call it again.
func (s *workflowSuite) build() {
	db, log := s.db, s.log
	metrics := monitoring.NewMetricsCollector(prometheus.NewRegistry())
	validate := validator.NewValidator()

	userRepo := repository.NewUserRepository()
	patientRepo := repository.NewPatientRepository()
	specialistRepo := repository.NewSpecialistRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	visitRepo := repository.NewVisitRepository()
	labRepo := repository.NewLabRepository()
	billingRepo := repository.NewBillingRepository()
	dailyRepo := repository.NewDailyTransactionRepository()
	notificationRepo := repository.NewNotificationRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	codes := service.NewCodeGenerator()
	auditService := service.NewAuditService(log, auditLogRepo)
	patients := service.NewPatientResolver(log, patientRepo, codes)
	visits := service.NewVisitMaterializer(log, visitRepo, userRepo, specialistRepo, codes, s.workflow.DefaultStaffID)
	composer := service.NewBillingComposer(log, billingRepo, appointmentRepo, labRepo, codes)
	labOrders := service.NewLabOrderService(log, labRepo, composer)
	notifier := service.NewNotificationDispatcher(log, notificationRepo, userRepo, s.broadcaster)
	dailySync := service.NewDailyTransactionSync(log, billingRepo, specialistRepo, dailyRepo)
	integrity := service.NewIntegrityService(db, log, codes, visits, dailySync, auditService, metrics)

	s.appointments = NewAppointmentUsecase(db, log, validate, s.workflow, metrics,
		appointmentRepo, specialistRepo, visitRepo, billingRepo,
		codes, patients, visits, composer, notifier, dailySync, auditService, s.cache)
	s.billing = NewBillingUsecase(db, log, validate, metrics,
		appointmentRepo, billingRepo, composer, dailySync, auditService, s.cache)
	s.labs = NewLabUsecase(db, log, validate, metrics, appointmentRepo, visitRepo, labOrders, notifier, auditService)
	s.notifications = NewNotificationUsecase(db, log, notificationRepo)
	s.reports = NewReportUsecase(db, log, validate, repository.NewReportRepository(), s.cache)
	s.integrity = NewIntegrityUsecase(log, integrity, s.cache)
	s.auditLogs = NewAuditLogUsecase(db, log, validate, auditLogRepo)
}

func (s *workflowSuite) adminID() *uint {
	id := s.fx.Admin.ID
	return &id
}

func (s *workflowSuite) patientUserID() *uint {
	id := s.fx.PatientUser.ID
	return &id
}

func walkInRequest(first, last string) *dto.CreateAppointmentRequest {
	return &dto.CreateAppointmentRequest{
		Patient:         &dto.PatientRequest{FirstName: first, LastName: last, Birthdate: "1990-05-20"},
		AppointmentType: entity.AppointmentTypeConsultation,
		AppointmentDate: "2024-01-15",
		AppointmentTime: "09:00:00",
	}
}

func (s *workflowSuite) createWalkIn() *dto.AppointmentResult {
	result, err := s.appointments.CreateWalkIn(s.ctx, walkInRequest("Juan", "Dela Cruz"), s.adminID())
	s.Require().NoError(err)
	return result
}

func (s *workflowSuite) createOnline() *dto.AppointmentResult {
	req := &dto.CreateAppointmentRequest{
		Patient:         &dto.PatientRequest{FirstName: "Maria", LastName: "Santos", Birthdate: "1988-02-11"},
		SpecialistID:    &s.fx.Specialist.ID,
		AppointmentType: entity.AppointmentTypeCBC,
		AppointmentDate: "2024-02-01",
		AppointmentTime: "2:30 PM",
	}
	result, err := s.appointments.CreateOnline(s.ctx, req, s.patientUserID())
	s.Require().NoError(err)
	return result
}

func (s *workflowSuite) count(model interface{}, query string, args ...interface{}) int64 {
	var n int64
	q := s.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	s.Require().NoError(q.Count(&n).Error)
	return n
}

func (s *workflowSuite) reloadAppointment(id uint) entity.Appointment {
	var a entity.Appointment
	s.Require().NoError(s.db.First(&a, id).Error)
	return a
}

func (s *workflowSuite) reloadTransaction(id uint) entity.BillingTransaction {
	var t entity.BillingTransaction
	s.Require().NoError(s.db.Preload("Items").First(&t, id).Error)
	return t
}

func (s *workflowSuite) assertMoney(expected int64, actual decimal.Decimal, msgAndArgs ...interface{}) {
	s.True(decimal.NewFromInt(expected).Equal(actual), append([]interface{}{"expected %d, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(workflowSuite))
}
