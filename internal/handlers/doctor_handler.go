package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"metabridge/internal/models"
	"metabridge/internal/service"
	"metabridge/internal/storage"
)

// DoctorHandler serves the doctor-facing endpoints. All of them require a
// doctor bearer token; the doctor's identity comes from the token claims.
type DoctorHandler struct {
	careService        *service.CareService
	reportService      *service.ReportService
	appointmentService *service.AppointmentService
	uploadMaxSize      int64
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(careService *service.CareService, reportService *service.ReportService,
	appointmentService *service.AppointmentService, uploadMaxSize int64) *DoctorHandler {
	return &DoctorHandler{
		careService:        careService,
		reportService:      reportService,
		appointmentService: appointmentService,
		uploadMaxSize:      uploadMaxSize,
	}
}

// maxMultipartOverhead is the slack allowed beyond the file size cap for
// multipart framing and the non-file form fields
const maxMultipartOverhead = 64 * 1024

type sendMessageRequest struct {
	PatientID int64  `json:"patient_id"`
	Message   string `json:"message"`
}

type scheduleAppointmentRequest struct {
	PatientID int64  `json:"patient_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// ListPatients handles GET /api/doctor/patients
func (h *DoctorHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.careService.ListPatients()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error", "Failed to list patients", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]models.Account{"patients": patients})
}

// SendMessage handles POST /api/doctor/send-message
func (h *DoctorHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	message, err := h.careService.SendMessage(claims.AccountID, req.PatientID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			respondError(w, http.StatusBadRequest, "Message is required", "", nil)
		case errors.Is(err, service.ErrPatientNotFound):
			respondError(w, http.StatusNotFound, "Patient not found", "", nil)
		default:
			respondError(w, http.StatusInternalServerError, "Server error", "Failed to send message", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, message)
}

// SendReport handles POST /api/doctor/send-report (multipart/form-data with
// a "report" file part and a "patient_id" field)
func (h *DoctorHandler) SendReport(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	// Cap the whole request body so an oversized upload is refused before
	// it spools to temp disk; the slack covers multipart framing and the
	// patient_id field
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize+maxMultipartOverhead)

	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusBadRequest, "File exceeds the maximum allowed size", "", nil)
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form", "", err)
		return
	}

	patientID, err := strconv.ParseInt(r.FormValue("patient_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid patient_id", "", nil)
		return
	}

	file, header, err := r.FormFile("report")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Report file is required", "", err)
		return
	}
	defer file.Close()

	report, err := h.reportService.SendReport(claims.AccountID, patientID, file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPatientNotFound):
			respondError(w, http.StatusNotFound, "Patient not found", "", nil)
		case errors.Is(err, storage.ErrFileTooLarge):
			respondError(w, http.StatusBadRequest, "File exceeds the maximum allowed size", "", nil)
		case errors.Is(err, storage.ErrUnsupportedType):
			respondError(w, http.StatusBadRequest, "Only PDF, PNG and JPG files are allowed", "", nil)
		default:
			respondError(w, http.StatusInternalServerError, "Server error", "Failed to store report", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// ScheduleAppointment handles POST /api/doctor/appointment
func (h *DoctorHandler) ScheduleAppointment(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	var req scheduleAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	appointment, err := h.appointmentService.Schedule(claims.AccountID, req.PatientID, req.Date, req.Time)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSchedule):
			respondError(w, http.StatusBadRequest, "Invalid appointment date or time", "", nil)
		case errors.Is(err, service.ErrPatientNotFound):
			respondError(w, http.StatusNotFound, "Patient not found", "", nil)
		default:
			respondError(w, http.StatusInternalServerError, "Server error", "Failed to schedule appointment", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, appointment)
}
