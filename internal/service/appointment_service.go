package service

import (
	"errors"
	"fmt"
	"time"

	"metabridge/internal/models"
	"metabridge/internal/repository"
)

var ErrInvalidSchedule = errors.New("invalid appointment date or time")

// appointmentLayouts are the accepted date+time formats for scheduling
var appointmentLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
}

// AppointmentService handles appointment scheduling and retrieval
type AppointmentService struct {
	accounts     *repository.AccountRepository
	appointments *repository.AppointmentRepository
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(accounts *repository.AccountRepository, appointments *repository.AppointmentRepository) *AppointmentService {
	return &AppointmentService{accounts: accounts, appointments: appointments}
}

// Schedule creates an appointment from separate date ("2006-01-02") and
// time ("15:04") fields
func (s *AppointmentService) Schedule(doctorID, patientID int64, date, timeOfDay string) (*models.Appointment, error) {
	scheduledAt, err := parseSchedule(date, timeOfDay)
	if err != nil {
		return nil, err
	}

	patient, err := s.accounts.GetByID(patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient == nil || patient.Role != models.RolePatient {
		return nil, ErrPatientNotFound
	}

	appointment, err := s.appointments.Create(doctorID, patientID, scheduledAt)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule appointment: %w", err)
	}
	return appointment, nil
}

// AppointmentsForPatient returns a patient's appointments, newest first
func (s *AppointmentService) AppointmentsForPatient(patientID int64) ([]models.PatientAppointment, error) {
	appointments, err := s.appointments.ListForPatient(patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}
	return appointments, nil
}

func parseSchedule(date, timeOfDay string) (time.Time, error) {
	if date == "" || timeOfDay == "" {
		return time.Time{}, ErrInvalidSchedule
	}
	combined := date + " " + timeOfDay
	for _, layout := range appointmentLayouts {
		if t, err := time.ParseInLocation(layout, combined, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidSchedule
}
