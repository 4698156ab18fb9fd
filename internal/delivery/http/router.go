package http

import (
	"net/http"

	"go-clinic-management/internal/delivery/http/handler"
	"go-clinic-management/internal/delivery/http/middleware"
	"go-clinic-management/pkg/monitoring"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	appointmentHandler  *handler.AppointmentHandler
	billingHandler      *handler.BillingHandler
	labHandler          *handler.LabHandler
	notificationHandler *handler.NotificationHandler
	reportHandler       *handler.ReportHandler
	userHandler         *handler.UserHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	requestMiddleware   *middleware.RequestMiddleware
	metrics             *monitoring.MetricsCollector
}

func NewRouter(
	appointmentHandler *handler.AppointmentHandler,
	billingHandler *handler.BillingHandler,
	labHandler *handler.LabHandler,
	notificationHandler *handler.NotificationHandler,
	reportHandler *handler.ReportHandler,
	userHandler *handler.UserHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	requestMiddleware *middleware.RequestMiddleware,
	metrics *monitoring.MetricsCollector,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		appointmentHandler:  appointmentHandler,
		billingHandler:      billingHandler,
		labHandler:          labHandler,
		notificationHandler: notificationHandler,
		reportHandler:       reportHandler,
		userHandler:         userHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		requestMiddleware:   requestMiddleware,
		metrics:             metrics,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.Use(r.requestMiddleware.Handle)
	r.router.Use(r.metrics.HTTPMiddleware)
	r.router.Use(r.corsMiddleware.Handle)

	r.router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Any authenticated user
	authed := api.NewRoute().Subrouter()
	authed.Use(r.authMiddleware.Authenticate)
	authed.HandleFunc("/me", r.userHandler.GetCurrentUser).Methods(http.MethodGet)
	authed.HandleFunc("/notifications", r.notificationHandler.GetMyNotifications).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/{id}/read", r.notificationHandler.MarkRead).Methods(http.MethodPost)
	authed.HandleFunc("/appointments", r.appointmentHandler.CreateOnline).Methods(http.MethodPost)
	authed.HandleFunc("/appointments/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)

	// Front desk and clinical staff
	staff := api.PathPrefix("/clinic").Subrouter()
	staff.Use(r.authMiddleware.Authenticate)
	staff.Use(middleware.RequireStaff)
	staff.HandleFunc("/walk-ins", r.appointmentHandler.CreateWalkIn).Methods(http.MethodPost)
	staff.HandleFunc("/patients/{id}/appointments", r.appointmentHandler.GetPatientAppointments).Methods(http.MethodGet)
	staff.HandleFunc("/lab-orders", r.labHandler.AttachTests).Methods(http.MethodPost)
	staff.HandleFunc("/appointments/{id}/lab-tests/{testId}", r.labHandler.RemoveTest).Methods(http.MethodDelete)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)

	// Appointment review
	admin.HandleFunc("/appointments/{id}/approve", r.appointmentHandler.Approve).Methods(http.MethodPost)
	admin.HandleFunc("/appointments/{id}/reject", r.appointmentHandler.Reject).Methods(http.MethodPost)

	// Billing
	admin.HandleFunc("/transactions", r.billingHandler.CreateTransaction).Methods(http.MethodPost)
	admin.HandleFunc("/appointments/{id}/transactions", r.billingHandler.BillAppointment).Methods(http.MethodPost)
	admin.HandleFunc("/transactions/{id}", r.billingHandler.GetTransaction).Methods(http.MethodGet)
	admin.HandleFunc("/transactions/{id}/pay", r.billingHandler.ProcessPayment).Methods(http.MethodPost)
	admin.HandleFunc("/transactions/{id}/cancel", r.billingHandler.CancelTransaction).Methods(http.MethodPost)

	// Reports
	admin.HandleFunc("/reports/statistics", r.reportHandler.Statistics).Methods(http.MethodGet)
	admin.HandleFunc("/reports/appointments", r.reportHandler.AppointmentTrends).Methods(http.MethodGet)
	admin.HandleFunc("/reports/lab-tests", r.reportHandler.LabTestUsage).Methods(http.MethodGet)
	admin.HandleFunc("/reports/revenue", r.reportHandler.RevenueTrends).Methods(http.MethodGet)
	admin.HandleFunc("/integrity/repair", r.reportHandler.Repair).Methods(http.MethodPost)

	// Audit logs
	admin.HandleFunc("/audit-logs", r.auditLogHandler.ListAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
