package dto

// CreateFeedbackRequest is submitted by patients from the public site
type CreateFeedbackRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Rating  int     `json:"rating" validate:"required,gte=1,lte=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=5000"`
}

type FeedbackDTO struct {
	ID        uint    `json:"id"`
	UUID      string  `json:"uuid"`
	Name      string  `json:"name"`
	Email     *string `json:"email,omitempty"`
	Rating    int     `json:"rating" example:"5"`
	Comment   *string `json:"comment,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type ListFeedbackRequest struct {
	Page      int  `query:"page"`
	Limit     int  `query:"limit"`
	MinRating *int `query:"min_rating" validate:"omitempty,gte=1,lte=5"`
}

type ListFeedbackResponse struct {
	Items         []FeedbackDTO  `json:"items"`
	AverageRating float64        `json:"average_rating"`
	Pagination    PaginationInfo `json:"pagination"`
}

// CreateInquiryRequest is a contact-form message from the public site
type CreateInquiryRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   string  `json:"email" validate:"required,email,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Subject string  `json:"subject" validate:"required,max=255"`
	Message string  `json:"message" validate:"required,max=5000"`
}

type AnswerInquiryRequest struct {
	Response string `json:"response" validate:"required,max=5000"`
}

type InquiryDTO struct {
	ID         uint    `json:"id"`
	UUID       string  `json:"uuid"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      *string `json:"phone,omitempty"`
	Subject    string  `json:"subject"`
	Message    string  `json:"message"`
	Status     string  `json:"status" example:"open"`
	Response   *string `json:"response,omitempty"`
	AnsweredAt *string `json:"answered_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type ListInquiriesRequest struct {
	Page   int     `query:"page"`
	Limit  int     `query:"limit"`
	Status *string `query:"status" validate:"omitempty,oneof=open answered"`
}

type ListInquiriesResponse struct {
	Items      []InquiryDTO   `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
