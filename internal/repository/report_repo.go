package repository

import (
	"fmt"
	"time"

	"metabridge/internal/database"
	"metabridge/internal/models"
)

// ReportRepository handles database operations for uploaded reports
type ReportRepository struct {
	db database.DBTX
}

// NewReportRepository creates a new report repository
func NewReportRepository(db database.DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create records an uploaded report file
func (r *ReportRepository) Create(doctorID, patientID int64, filePath, fileName string) (*models.Report, error) {
	query := `
		INSERT INTO reports (doctor_id, patient_id, file_path, file_name)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, doctorID, patientID, filePath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return &models.Report{
		ID:        id,
		DoctorID:  doctorID,
		PatientID: patientID,
		FilePath:  filePath,
		FileName:  fileName,
		CreatedAt: time.Now(),
	}, nil
}

// ListForPatient retrieves a patient's reports, newest first
func (r *ReportRepository) ListForPatient(patientID int64) ([]models.Report, error) {
	query := `
		SELECT id, doctor_id, patient_id, file_path, file_name, created_at
		FROM reports
		WHERE patient_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.DoctorID, &rep.PatientID, &rep.FilePath, &rep.FileName, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
