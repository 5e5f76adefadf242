package dto

import "io"

// UploadRadiographRequest contains upload details passed from handler to flow.
type UploadRadiographRequest struct {
	PatientUUID      string    `json:"-"`
	Kind             string    `json:"-"`
	TakenAt          *string   `json:"-"`
	OriginalFilename string    `json:"-"`
	FileSize         int64     `json:"-"`
	File             io.Reader `json:"-"`
}

type RadiographDTO struct {
	UUID             string  `json:"uuid"`
	PatientUUID      string  `json:"patient_uuid"`
	Kind             string  `json:"kind" example:"bitewing"`
	OriginalFilename string  `json:"original_filename"`
	MimeType         string  `json:"mime_type" example:"image/jpeg"`
	SizeBytes        int64   `json:"size_bytes"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	TakenAt          *string `json:"taken_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// RadiographFile is a binary payload returned by download and preview
type RadiographFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
