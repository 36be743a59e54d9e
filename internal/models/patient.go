package models

import "time"

type Patient struct {
	ID                 string    `json:"id"`
	GuardianID         string    `json:"guardian_id"`
	Name               string    `json:"name"`
	Birthdate          string    `json:"birthdate"`
	Gender             string    `json:"gender"`
	DeviceSerialNumber string    `json:"device_serial_number"`
	Notes              *string   `json:"notes"`
	Relationship       string    `json:"relationship"`
	CreatedAt          time.Time `json:"created_at"`
}

type CreatePatientRequest struct {
	Name               string  `json:"name" validate:"required,min=1,max=50"`
	Birthdate          string  `json:"birthdate" validate:"required,birthdate"`
	Gender             string  `json:"gender" validate:"required,oneof=male female"`
	DeviceSerialNumber string  `json:"device_serial_number" validate:"required,min=4,max=64"`
	Notes              *string `json:"notes" validate:"omitempty,max=500"`
	Relationship       string  `json:"relationship" validate:"required,max=30"`
}

type PatientResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Patient Patient `json:"patient"`
}

type PatientListResponse struct {
	Success  bool      `json:"success"`
	Patients []Patient `json:"patients"`
}
