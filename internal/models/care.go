package models

import "time"

// Message is a note sent from a doctor to a patient
type Message struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	PatientID int64     `json:"patient_id"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// PatientMessage is a message as the patient sees it, with the sending
// doctor's name joined in
type PatientMessage struct {
	ID         int64     `json:"id"`
	Body       string    `json:"message"`
	DoctorName string    `json:"doctor_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Report is an uploaded medical report shared with a patient
type Report struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	PatientID int64     `json:"patient_id"`
	FilePath  string    `json:"file_url"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Appointment is a scheduled visit between a doctor and a patient
type Appointment struct {
	ID          int64     `json:"id"`
	DoctorID    int64     `json:"doctor_id"`
	PatientID   int64     `json:"patient_id"`
	ScheduledAt time.Time `json:"appointment_time"`
	CreatedAt   time.Time `json:"created_at"`
}

// PatientAppointment is an appointment as the patient sees it, with the
// doctor's name joined in
type PatientAppointment struct {
	ID          int64     `json:"id"`
	DoctorName  string    `json:"doctor"`
	ScheduledAt time.Time `json:"appointment_time"`
}
