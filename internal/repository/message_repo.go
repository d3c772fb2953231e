package repository

import (
	"fmt"
	"time"

	"metabridge/internal/database"
	"metabridge/internal/models"
)

// MessageRepository handles database operations for doctor-to-patient messages
type MessageRepository struct {
	db database.DBTX
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db database.DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(doctorID, patientID int64, body string) (*models.Message, error) {
	query := `
		INSERT INTO messages (doctor_id, patient_id, body)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, doctorID, patientID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &models.Message{
		ID:        id,
		DoctorID:  doctorID,
		PatientID: patientID,
		Body:      body,
		CreatedAt: time.Now(),
	}, nil
}

// ListForPatient retrieves a patient's messages with the sending doctor's
// name, newest first
func (r *MessageRepository) ListForPatient(patientID int64) ([]models.PatientMessage, error) {
	query := `
		SELECT m.id, m.body, d.name, m.created_at
		FROM messages m
		JOIN accounts d ON d.id = m.doctor_id
		WHERE m.patient_id = ?
		ORDER BY m.created_at DESC
	`
	rows, err := r.db.Query(query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.PatientMessage
	for rows.Next() {
		var m models.PatientMessage
		if err := rows.Scan(&m.ID, &m.Body, &m.DoctorName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
