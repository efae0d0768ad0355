package http

import (
	"net/http"

	"fnh-backend/internal/handlers"
	"fnh-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	totpHandler *handlers.TOTPHandler,
	admissionHandler *handlers.AdmissionHandler,
	pathologyHandler *handlers.PathologyHandler,
	pharmacyHandler *handlers.PharmacyHandler,
	shiftHandler *handlers.ShiftHandler,
	accountHandler *handlers.AccountHandler,
	reportHandler *handlers.ReportHandler,
	auditLogHandler *handlers.AuditLogHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/auth/verify-2fa", authHandler.Verify2FA).Methods("POST")

	// Protected API routes - Users (admin only)
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate)
	usersAPI.HandleFunc("", authMiddleware.RequireAdmin(http.HandlerFunc(userHandler.ListUsers)).ServeHTTP).Methods("GET")
	usersAPI.HandleFunc("", authMiddleware.RequireAdmin(http.HandlerFunc(userHandler.CreateUser)).ServeHTTP).Methods("POST")
	usersAPI.HandleFunc("/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(userHandler.GetUser)).ServeHTTP).Methods("GET")
	usersAPI.HandleFunc("/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(userHandler.UpdateUser)).ServeHTTP).Methods("PUT")
	usersAPI.HandleFunc("/{id}/active", authMiddleware.RequireAdmin(http.HandlerFunc(userHandler.SetActive)).ServeHTTP).Methods("PATCH")

	// Protected API routes - 2FA for the logged-in user
	totpAPI := r.PathPrefix("/api/2fa").Subrouter()
	totpAPI.Use(authMiddleware.Authenticate)
	totpAPI.HandleFunc("/setup", totpHandler.SetupTOTP).Methods("POST")
	totpAPI.HandleFunc("/enable", totpHandler.EnableTOTP).Methods("POST")
	totpAPI.HandleFunc("/disable", totpHandler.DisableTOTP).Methods("POST")
	totpAPI.HandleFunc("/status", totpHandler.GetStatus).Methods("GET")

	// Protected API routes - Admissions (front desk and admins mutate)
	admissionsAPI := r.PathPrefix("/api/admissions").Subrouter()
	admissionsAPI.Use(authMiddleware.Authenticate)
	admissionsAPI.HandleFunc("", admissionHandler.List).Methods("GET")
	admissionsAPI.HandleFunc("", authMiddleware.RequireRole("frontdesk", "admin")(http.HandlerFunc(admissionHandler.Create)).ServeHTTP).Methods("POST")
	admissionsAPI.HandleFunc("/{id}", admissionHandler.Get).Methods("GET")
	admissionsAPI.HandleFunc("/{id}", authMiddleware.RequireRole("frontdesk", "admin")(http.HandlerFunc(admissionHandler.Edit)).ServeHTTP).Methods("PUT")
	admissionsAPI.HandleFunc("/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(admissionHandler.Delete)).ServeHTTP).Methods("DELETE")

	// Protected API routes - Pathology orders
	pathologyAPI := r.PathPrefix("/api/pathology-orders").Subrouter()
	pathologyAPI.Use(authMiddleware.Authenticate)
	pathologyAPI.HandleFunc("", pathologyHandler.List).Methods("GET")
	pathologyAPI.HandleFunc("", authMiddleware.RequireRole("frontdesk", "admin")(http.HandlerFunc(pathologyHandler.Create)).ServeHTTP).Methods("POST")
	pathologyAPI.HandleFunc("/{id}", pathologyHandler.Get).Methods("GET")
	pathologyAPI.HandleFunc("/{id}", authMiddleware.RequireRole("frontdesk", "admin")(http.HandlerFunc(pathologyHandler.Edit)).ServeHTTP).Methods("PUT")
	pathologyAPI.HandleFunc("/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(pathologyHandler.Delete)).ServeHTTP).Methods("DELETE")

	// Protected API routes - Pharmacy sales and stock
	pharmacyAPI := r.PathPrefix("/api/pharmacy").Subrouter()
	pharmacyAPI.Use(authMiddleware.Authenticate)
	pharmacyAPI.HandleFunc("/sales", pharmacyHandler.ListSales).Methods("GET")
	pharmacyAPI.HandleFunc("/sales", authMiddleware.RequireRole("frontdesk", "admin")(http.HandlerFunc(pharmacyHandler.Sell)).ServeHTTP).Methods("POST")
	pharmacyAPI.HandleFunc("/sales/{id}", pharmacyHandler.GetSale).Methods("GET")
	pharmacyAPI.HandleFunc("/sales/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(pharmacyHandler.DeleteSale)).ServeHTTP).Methods("DELETE")
	pharmacyAPI.HandleFunc("/items", pharmacyHandler.ListItems).Methods("GET")
	pharmacyAPI.HandleFunc("/items", authMiddleware.RequireRole("frontdesk", "admin")(http.HandlerFunc(pharmacyHandler.CreateItem)).ServeHTTP).Methods("POST")
	pharmacyAPI.HandleFunc("/items/{id}/batches", pharmacyHandler.ListBatches).Methods("GET")
	pharmacyAPI.HandleFunc("/items/{id}/verify-stock", pharmacyHandler.VerifyStock).Methods("GET")
	pharmacyAPI.HandleFunc("/stock", authMiddleware.RequireRole("frontdesk", "admin")(http.HandlerFunc(pharmacyHandler.ReceiveStock)).ServeHTTP).Methods("POST")

	// Protected API routes - Shifts and the cash drawer
	shiftsAPI := r.PathPrefix("/api/shifts").Subrouter()
	shiftsAPI.Use(authMiddleware.Authenticate)
	shiftsAPI.HandleFunc("/active", shiftHandler.Active).Methods("GET")
	shiftsAPI.HandleFunc("/daily-report", authMiddleware.RequireRole("accountant", "admin")(http.HandlerFunc(shiftHandler.DailyReport)).ServeHTTP).Methods("GET")
	shiftsAPI.HandleFunc("/{id}/summary", shiftHandler.Summary).Methods("GET")
	shiftsAPI.HandleFunc("/{id}/close", shiftHandler.Close).Methods("POST")

	// Protected API routes - Patient accounts
	accountsAPI := r.PathPrefix("/api/accounts").Subrouter()
	accountsAPI.Use(authMiddleware.Authenticate)
	accountsAPI.HandleFunc("/search", accountHandler.Search).Methods("GET")
	accountsAPI.HandleFunc("/reconcile", authMiddleware.RequireRole("accountant", "admin")(http.HandlerFunc(accountHandler.Reconcile)).ServeHTTP).Methods("GET")
	accountsAPI.HandleFunc("/receipts/{number}", accountHandler.VerifyReceipt).Methods("GET")
	accountsAPI.HandleFunc("/{id}/summary", accountHandler.Summary).Methods("GET")
	accountsAPI.HandleFunc("/{id}/statement", accountHandler.Statement).Methods("GET")

	// Protected API routes - Reports and PDFs
	reportsAPI := r.PathPrefix("/api/reports").Subrouter()
	reportsAPI.Use(authMiddleware.Authenticate)
	reportsAPI.HandleFunc("/dashboard", reportHandler.Dashboard).Methods("GET")
	reportsAPI.HandleFunc("/receipts/{number}/pdf", reportHandler.ReceiptPDF).Methods("GET")
	reportsAPI.HandleFunc("/daily-cash/pdf", authMiddleware.RequireRole("accountant", "admin")(http.HandlerFunc(reportHandler.DailyCashPDF)).ServeHTTP).Methods("GET")
	reportsAPI.HandleFunc("/statements/{id}/pdf", reportHandler.StatementPDF).Methods("GET")
	reportsAPI.HandleFunc("/export", authMiddleware.RequireRole("accountant", "admin")(http.HandlerFunc(reportHandler.Export)).ServeHTTP).Methods("POST")

	// Protected API routes - Audit trail (admin only)
	auditAPI := r.PathPrefix("/api/audit-logs").Subrouter()
	auditAPI.Use(authMiddleware.Authenticate)
	auditAPI.HandleFunc("", authMiddleware.RequireAdmin(http.HandlerFunc(auditLogHandler.List)).ServeHTTP).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
