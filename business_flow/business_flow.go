// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
)

const RequestIDKey = "X-Request-ID"

const dateLayout = "2006-01-02"

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
	StaffID   uint   `json:"staff_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetStaffID records the authenticated staff member
func (cm *ClientMetadata) SetStaffID(staffID uint) {
	cm.StaffID = staffID
}

// logFields returns the metadata as logrus fields; nil metadata yields an empty map
func (cm *ClientMetadata) logFields() logrus.Fields {
	fields := logrus.Fields{}
	if cm == nil {
		return fields
	}
	fields["ip"] = cm.IPAddress
	if cm.RequestID != "" {
		fields["request_id"] = cm.RequestID
	}
	if cm.StaffID != 0 {
		fields["staff_id"] = cm.StaffID
	}
	return fields
}

// normalizePagination clamps page/limit and returns the SQL offset
func normalizePagination(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = utils.DefaultPageSize
	}
	if limit > utils.MaxPageSize {
		limit = utils.MaxPageSize
	}
	return page, limit, (page - 1) * limit
}

func newPaginationInfo(total int64, page, limit int) dto.PaginationInfo {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return dto.PaginationInfo{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, *value, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func ToInventoryItemDTO(item models.InventoryItem) dto.InventoryItemDTO {
	return dto.InventoryItemDTO{
		ID:           item.ID,
		UUID:         item.UUID.String(),
		Code:         item.Code,
		Name:         item.Name,
		Category:     item.Category,
		Quantity:     item.Quantity,
		Unit:         item.Unit,
		ReorderLevel: item.ReorderLevel,
		LowStock:     item.IsLowStock(),
		UnitPrice:    item.UnitPrice,
		Supplier:     item.Supplier,
		ExpiryDate:   formatDate(item.ExpiryDate),
		Notes:        item.Notes,
		CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToInventoryRequestDTO(req models.InventoryRequest) dto.InventoryRequestDTO {
	return dto.InventoryRequestDTO{
		ID:          req.ID,
		UUID:        req.UUID.String(),
		Code:        req.Code,
		ItemID:      req.ItemID,
		ItemName:    req.ItemName,
		Quantity:    req.Quantity,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
		Status:      req.Status,
		DecidedAt:   formatTime(req.DecidedAt),
		CreatedAt:   req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   req.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToPatientDTO(p models.Patient) dto.PatientDTO {
	allergies := []string(p.Allergies)
	if allergies == nil {
		allergies = []string{}
	}
	return dto.PatientDTO{
		ID:           p.ID,
		UUID:         p.UUID.String(),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Mobile:       p.Mobile,
		Email:        p.Email,
		DateOfBirth:  formatDate(p.DateOfBirth),
		Gender:       p.Gender,
		Address:      p.Address,
		MedicalNotes: p.MedicalNotes,
		Allergies:    allergies,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToAppointmentDTO(a models.Appointment) dto.AppointmentDTO {
	out := dto.AppointmentDTO{
		ID:              a.ID,
		UUID:            a.UUID.String(),
		PatientID:       a.PatientID,
		DentistName:     a.DentistName,
		Treatment:       a.Treatment,
		ScheduledAt:     a.ScheduledAt.UTC().Format(time.RFC3339),
		EndsAt:          a.EndsAt().UTC().Format(time.RFC3339),
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status,
		Notes:           a.Notes,
		ReminderSentAt:  formatTime(a.ReminderSentAt),
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.Patient != nil {
		out.PatientName = a.Patient.FullName()
	}
	return out
}

func ToFeedbackDTO(f models.Feedback) dto.FeedbackDTO {
	return dto.FeedbackDTO{
		ID:        f.ID,
		UUID:      f.UUID.String(),
		Name:      f.Name,
		Email:     f.Email,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToInquiryDTO(i models.Inquiry) dto.InquiryDTO {
	return dto.InquiryDTO{
		ID:         i.ID,
		UUID:       i.UUID.String(),
		Name:       i.Name,
		Email:      i.Email,
		Phone:      i.Phone,
		Subject:    i.Subject,
		Message:    i.Message,
		Status:     i.Status,
		Response:   i.Response,
		AnsweredAt: formatTime(i.AnsweredAt),
		CreatedAt:  i.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToRadiographDTO(r models.Radiograph, patientUUID string) dto.RadiographDTO {
	return dto.RadiographDTO{
		UUID:             r.UUID.String(),
		PatientUUID:      patientUUID,
		Kind:             r.Kind,
		OriginalFilename: r.OriginalFilename,
		MimeType:         r.MimeType,
		SizeBytes:        r.SizeBytes,
		Width:            r.Width,
		Height:           r.Height,
		TakenAt:          formatDate(r.TakenAt),
		CreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToStaffDTO(s models.Staff) dto.StaffDTO {
	return dto.StaffDTO{
		ID:          s.ID,
		UUID:        s.UUID.String(),
		Username:    s.Username,
		FullName:    s.FullName,
		Role:        s.Role,
		IsActive:    s.IsActive,
		LastLoginAt: formatTime(s.LastLoginAt),
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToStaffSessionDTO(accessToken, refreshToken string, accessTTL time.Duration) dto.StaffSessionDTO {
	return dto.StaffSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(accessTTL.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    utils.UTCNow().Format(time.RFC3339),
	}
}
