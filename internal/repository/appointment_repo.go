package repository

import (
	"fmt"
	"time"

	"metabridge/internal/database"
	"metabridge/internal/models"
)

// AppointmentRepository handles database operations for appointments
type AppointmentRepository struct {
	db database.DBTX
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db database.DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create schedules an appointment between a doctor and a patient
func (r *AppointmentRepository) Create(doctorID, patientID int64, scheduledAt time.Time) (*models.Appointment, error) {
	query := `
		INSERT INTO appointments (doctor_id, patient_id, scheduled_at)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, doctorID, patientID, scheduledAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	return &models.Appointment{
		ID:          id,
		DoctorID:    doctorID,
		PatientID:   patientID,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now(),
	}, nil
}

// ListForPatient retrieves a patient's appointments with the doctor's name,
// newest first
func (r *AppointmentRepository) ListForPatient(patientID int64) ([]models.PatientAppointment, error) {
	query := `
		SELECT a.id, d.name, a.scheduled_at
		FROM appointments a
		JOIN accounts d ON d.id = a.doctor_id
		WHERE a.patient_id = ?
		ORDER BY a.scheduled_at DESC
	`
	rows, err := r.db.Query(query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []models.PatientAppointment
	for rows.Next() {
		var a models.PatientAppointment
		if err := rows.Scan(&a.ID, &a.DoctorName, &a.ScheduledAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}
