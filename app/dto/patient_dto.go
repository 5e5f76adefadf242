package dto

// CreatePatientRequest represents the payload to register a patient
type CreatePatientRequest struct {
	FirstName    string   `json:"first_name" validate:"required,min=1,max=255"`
	LastName     string   `json:"last_name" validate:"required,min=1,max=255"`
	Mobile       string   `json:"mobile" validate:"required,mobile_format"`
	Email        *string  `json:"email,omitempty" validate:"omitempty,email,max=255"`
	DateOfBirth  *string  `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender       *string  `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Address      *string  `json:"address,omitempty" validate:"omitempty,max=1000"`
	MedicalNotes *string  `json:"medical_notes,omitempty" validate:"omitempty,max=5000"`
	Allergies    []string `json:"allergies,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
}

// UpdatePatientRequest replaces the editable fields of a patient
type UpdatePatientRequest = CreatePatientRequest

type PatientDTO struct {
	ID           uint     `json:"id" example:"1"`
	UUID         string   `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	FirstName    string   `json:"first_name" example:"Sara"`
	LastName     string   `json:"last_name" example:"Karimi"`
	Mobile       string   `json:"mobile" example:"+989121234567"`
	Email        *string  `json:"email,omitempty"`
	DateOfBirth  *string  `json:"date_of_birth,omitempty" example:"1990-04-12"`
	Gender       *string  `json:"gender,omitempty" example:"female"`
	Address      *string  `json:"address,omitempty"`
	MedicalNotes *string  `json:"medical_notes,omitempty"`
	Allergies    []string `json:"allergies"`
	CreatedAt    string   `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt    string   `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type ListPatientsRequest struct {
	Page   int     `query:"page"`
	Limit  int     `query:"limit"`
	Search *string `query:"q"`
}

type ListPatientsResponse struct {
	Items      []PatientDTO   `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
