package handlers

import (
	"github.com/amirphl/dentalcare/app/dto"
	businessflow "github.com/amirphl/dentalcare/business_flow"
	"github.com/gofiber/fiber/v3"
)

// ClinicHandlerInterface covers the public-facing feedback and inquiry forms plus counter introspection
type ClinicHandlerInterface interface {
	SubmitFeedback(c fiber.Ctx) error
	ListFeedback(c fiber.Ctx) error
	DeleteFeedback(c fiber.Ctx) error

	SubmitInquiry(c fiber.Ctx) error
	ListInquiries(c fiber.Ctx) error
	AnswerInquiry(c fiber.Ctx) error
	DeleteInquiry(c fiber.Ctx) error

	ListCounters(c fiber.Ctx) error
}

type ClinicHandler struct {
	baseHandler
	feedback  businessflow.FeedbackFlow
	inquiries businessflow.InquiryFlow
	counters  businessflow.CounterAdminFlow
}

func NewClinicHandler(feedback businessflow.FeedbackFlow, inquiries businessflow.InquiryFlow, counters businessflow.CounterAdminFlow) *ClinicHandler {
	return &ClinicHandler{
		baseHandler: newBaseHandler(),
		feedback:    feedback,
		inquiries:   inquiries,
		counters:    counters,
	}
}

// SubmitFeedback
// @Summary Submit Feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Param request body dto.CreateFeedbackRequest true "Feedback"
// @Success 201 {object} dto.APIResponse{data=dto.FeedbackDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/public/feedback [post]
func (h *ClinicHandler) SubmitFeedback(c fiber.Ctx) error {
	var req dto.CreateFeedbackRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/public/feedback")
	defer cancel()

	fb, err := h.feedback.Create(ctx, &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to submit feedback", "CREATE_FEEDBACK_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Thank you for your feedback", fb)
}

// ListFeedback
// @Summary List Feedback
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param min_rating query int false "Minimum rating"
// @Success 200 {object} dto.APIResponse{data=dto.ListFeedbackResponse}
// @Router /api/v1/feedback [get]
func (h *ClinicHandler) ListFeedback(c fiber.Ctx) error {
	var req dto.ListFeedbackRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/feedback")
	defer cancel()

	resp, err := h.feedback.List(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list feedback", "LIST_FEEDBACK_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Feedback retrieved", resp)
}

// DeleteFeedback
// @Summary Delete Feedback
// @Tags Feedback
// @Security BearerAuth
// @Param uuid path string true "Feedback UUID"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/feedback/{uuid} [delete]
func (h *ClinicHandler) DeleteFeedback(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/feedback/:uuid")
	defer cancel()

	if err := h.feedback.Delete(ctx, c.Params("uuid"), h.metadata(c)); err != nil {
		return h.handleFlowError(c, err, "Failed to delete feedback", "DELETE_FEEDBACK_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Feedback deleted", nil)
}

// SubmitInquiry
// @Summary Submit Inquiry
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param request body dto.CreateInquiryRequest true "Inquiry"
// @Success 201 {object} dto.APIResponse{data=dto.InquiryDTO}
// @Router /api/v1/public/inquiries [post]
func (h *ClinicHandler) SubmitInquiry(c fiber.Ctx) error {
	var req dto.CreateInquiryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/public/inquiries")
	defer cancel()

	inq, err := h.inquiries.Create(ctx, &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to submit inquiry", "CREATE_INQUIRY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Inquiry received", inq)
}

// ListInquiries
// @Summary List Inquiries
// @Tags Inquiries
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "open|answered"
// @Success 200 {object} dto.APIResponse{data=dto.ListInquiriesResponse}
// @Router /api/v1/inquiries [get]
func (h *ClinicHandler) ListInquiries(c fiber.Ctx) error {
	var req dto.ListInquiriesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inquiries")
	defer cancel()

	resp, err := h.inquiries.List(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list inquiries", "LIST_INQUIRIES_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inquiries retrieved", resp)
}

// AnswerInquiry records the clinic's reply; an inquiry can only be answered once
// @Summary Answer Inquiry
// @Tags Inquiries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Inquiry UUID"
// @Param request body dto.AnswerInquiryRequest true "Answer"
// @Success 200 {object} dto.APIResponse{data=dto.InquiryDTO}
// @Failure 409 {object} dto.APIResponse "Already answered"
// @Router /api/v1/inquiries/{uuid}/answer [post]
func (h *ClinicHandler) AnswerInquiry(c fiber.Ctx) error {
	var req dto.AnswerInquiryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inquiries/:uuid/answer")
	defer cancel()

	inq, err := h.inquiries.Answer(ctx, c.Params("uuid"), &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to answer inquiry", "ANSWER_INQUIRY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inquiry answered", inq)
}

// DeleteInquiry
// @Summary Delete Inquiry
// @Tags Inquiries
// @Security BearerAuth
// @Param uuid path string true "Inquiry UUID"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/inquiries/{uuid} [delete]
func (h *ClinicHandler) DeleteInquiry(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/inquiries/:uuid")
	defer cancel()

	if err := h.inquiries.Delete(ctx, c.Params("uuid"), h.metadata(c)); err != nil {
		return h.handleFlowError(c, err, "Failed to delete inquiry", "DELETE_INQUIRY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inquiry deleted", nil)
}

// ListCounters reports the current value and next code of every sequence
// @Summary List Code Counters
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListCountersResponse}
// @Router /api/v1/admin/counters [get]
func (h *ClinicHandler) ListCounters(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/admin/counters")
	defer cancel()

	resp, err := h.counters.List(ctx)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to read counters", "COUNTER_READ_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Counters retrieved", resp)
}
