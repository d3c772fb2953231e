package handlers

import (
	"net/http"

	"metabridge/internal/models"
	"metabridge/internal/service"
)

// PatientHandler serves the patient-facing read endpoints. All of them
// require a patient bearer token and only return the caller's own records.
type PatientHandler struct {
	careService        *service.CareService
	reportService      *service.ReportService
	appointmentService *service.AppointmentService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(careService *service.CareService, reportService *service.ReportService,
	appointmentService *service.AppointmentService) *PatientHandler {
	return &PatientHandler{
		careService:        careService,
		reportService:      reportService,
		appointmentService: appointmentService,
	}
}

// Messages handles GET /api/patient/messages
func (h *PatientHandler) Messages(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	messages, err := h.careService.MessagesForPatient(claims.AccountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error", "Failed to fetch messages", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]models.PatientMessage{"messages": messages})
}

// Reports handles GET /api/patient/reports
func (h *PatientHandler) Reports(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	reports, err := h.reportService.ReportsForPatient(claims.AccountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error", "Failed to fetch reports", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]models.Report{"reports": reports})
}

// Appointments handles GET /api/patient/appointments
func (h *PatientHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	appointments, err := h.appointmentService.AppointmentsForPatient(claims.AccountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error", "Failed to fetch appointments", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]models.PatientAppointment{"appointments": appointments})
}
