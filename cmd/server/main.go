package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metabridge/internal/config"
	"metabridge/internal/database"
	"metabridge/internal/handlers"
	"metabridge/internal/models"
	"metabridge/internal/repository"
	"metabridge/internal/security"
	"metabridge/internal/service"
	"metabridge/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Report file storage
	reportStore, err := storage.NewReportStore(cfg.UploadDir, cfg.UploadMaxSize)
	if err != nil {
		log.Fatalf("Failed to initialize report store: %v", err)
	}

	// Session tokens
	signer, err := security.NewTokenSigner(cfg.JWTSecret, cfg.TokenLifetime)
	if err != nil {
		log.Fatalf("Failed to initialize token signer: %v", err)
	}

	// OTP delivery (email via SES, SMS via SNS); runs disabled when
	// unconfigured so local development works without AWS credentials
	notifyService, err := service.NewNotifyService(context.Background(),
		cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.SMSSenderID)
	if err != nil {
		log.Printf("Warning: notification service unavailable, OTP delivery disabled: %v", err)
		notifyService = nil
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reportRepo := repository.NewReportRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	// Initialize services
	var notifier service.OTPNotifier
	if notifyService != nil {
		notifier = notifyService
	}
	authService := service.NewAuthService(accountRepo, otpRepo, notifier, signer, cfg.OTPLifetime, cfg.OTPMaxAttempts)
	careService := service.NewCareService(accountRepo, messageRepo)
	reportService := service.NewReportService(accountRepo, reportRepo, reportStore)
	appointmentService := service.NewAppointmentService(accountRepo, appointmentRepo)

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	middleware := handlers.NewMiddleware(signer, limiter)
	authHandler := handlers.NewAuthHandler(authService)
	doctorHandler := handlers.NewDoctorHandler(careService, reportService, appointmentService, cfg.UploadMaxSize)
	patientHandler := handlers.NewPatientHandler(careService, reportService, appointmentService)

	// Setup routes
	mux := http.NewServeMux()

	// Uploaded reports are served from disk under /uploads/reports/
	mux.Handle("GET /uploads/reports/", http.StripPrefix("/uploads/reports/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Doctor routes
	mux.HandleFunc("POST /api/doctor/signup", middleware.RateLimit(authHandler.DoctorSignup))
	mux.HandleFunc("POST /api/doctor/login", middleware.RateLimit(authHandler.DoctorLogin))
	mux.HandleFunc("POST /api/doctor/verify-otp", middleware.RateLimit(authHandler.DoctorVerifyOTP))
	mux.HandleFunc("GET /api/doctor/patients", middleware.RequireRole(models.RoleDoctor, doctorHandler.ListPatients))
	mux.HandleFunc("POST /api/doctor/send-message", middleware.RequireRole(models.RoleDoctor, doctorHandler.SendMessage))
	mux.HandleFunc("POST /api/doctor/send-report", middleware.RequireRole(models.RoleDoctor, doctorHandler.SendReport))
	mux.HandleFunc("POST /api/doctor/appointment", middleware.RequireRole(models.RoleDoctor, doctorHandler.ScheduleAppointment))

	// Patient routes
	mux.HandleFunc("POST /api/patient/register", middleware.RateLimit(authHandler.PatientRegister))
	mux.HandleFunc("POST /api/patient/login", middleware.RateLimit(authHandler.PatientLogin))
	mux.HandleFunc("POST /api/patient/verify-otp", middleware.RateLimit(authHandler.PatientVerifyOTP))
	mux.HandleFunc("GET /api/patient/messages", middleware.RequireRole(models.RolePatient, patientHandler.Messages))
	mux.HandleFunc("GET /api/patient/reports", middleware.RequireRole(models.RolePatient, patientHandler.Reports))
	mux.HandleFunc("GET /api/patient/appointments", middleware.RequireRole(models.RolePatient, patientHandler.Appointments))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background cleanup of stale one-time codes
	go cleanupExpiredCodes(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredCodes periodically removes long-expired one-time codes
func cleanupExpiredCodes(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredCodes(); err != nil {
			log.Printf("Error cleaning up expired codes: %v", err)
		} else {
			log.Println("Expired one-time codes cleaned up")
		}
	}
}
