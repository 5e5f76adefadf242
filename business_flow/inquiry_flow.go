package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
)

// InquiryFlow handles contact-form messages and staff answers
type InquiryFlow interface {
	Create(ctx context.Context, req *dto.CreateInquiryRequest, metadata *ClientMetadata) (*dto.InquiryDTO, error)
	List(ctx context.Context, req *dto.ListInquiriesRequest) (*dto.ListInquiriesResponse, error)
	Answer(ctx context.Context, inquiryUUID string, req *dto.AnswerInquiryRequest, metadata *ClientMetadata) (*dto.InquiryDTO, error)
	Delete(ctx context.Context, inquiryUUID string, metadata *ClientMetadata) error
}

type InquiryFlowImpl struct {
	inquiryRepo repository.InquiryRepository
}

func NewInquiryFlow(inquiryRepo repository.InquiryRepository) InquiryFlow {
	return &InquiryFlowImpl{inquiryRepo: inquiryRepo}
}

func (f *InquiryFlowImpl) Create(ctx context.Context, req *dto.CreateInquiryRequest, metadata *ClientMetadata) (*dto.InquiryDTO, error) {
	if req == nil {
		return nil, NewBusinessError("INQUIRY_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	inq := models.Inquiry{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   utils.TrimPtr(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
		Status:  models.InquiryStatusOpen,
	}
	if inq.Subject == "" || inq.Message == "" {
		return nil, NewBusinessError("INQUIRY_VALIDATION_FAILED", "subject and message are required", ErrValidationFailed)
	}
	if err := f.inquiryRepo.Save(ctx, &inq); err != nil {
		return nil, NewBusinessError("INQUIRY_CREATE_FAILED", "Failed to save inquiry", err)
	}

	utils.Logger.WithFields(metadata.logFields()).WithField("inquiry_uuid", inq.UUID.String()).Info("inquiry received")

	resp := ToInquiryDTO(inq)
	return &resp, nil
}

func (f *InquiryFlowImpl) List(ctx context.Context, req *dto.ListInquiriesRequest) (*dto.ListInquiriesResponse, error) {
	if req == nil {
		req = &dto.ListInquiriesRequest{}
	}
	page, limit, offset := normalizePagination(req.Page, req.Limit)
	filter := models.InquiryFilter{Status: utils.TrimPtr(req.Status)}

	rows, err := f.inquiryRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("INQUIRY_LIST_FAILED", "Failed to list inquiries", err)
	}
	total, err := f.inquiryRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("INQUIRY_LIST_FAILED", "Failed to count inquiries", err)
	}

	out := make([]dto.InquiryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToInquiryDTO(*r))
	}
	return &dto.ListInquiriesResponse{
		Items:      out,
		Pagination: newPaginationInfo(total, page, limit),
	}, nil
}

// Answer records the staff reply. An inquiry is answered at most once.
func (f *InquiryFlowImpl) Answer(ctx context.Context, inquiryUUID string, req *dto.AnswerInquiryRequest, metadata *ClientMetadata) (*dto.InquiryDTO, error) {
	if req == nil || strings.TrimSpace(req.Response) == "" {
		return nil, NewBusinessError("INQUIRY_VALIDATION_FAILED", "response is required", ErrValidationFailed)
	}
	inq, err := f.getInquiry(ctx, inquiryUUID)
	if err != nil {
		return nil, err
	}
	if inq.Status == models.InquiryStatusAnswered {
		return nil, NewBusinessError("INQUIRY_ALREADY_ANSWERED", "Inquiry already answered", ErrInquiryAlreadyAnswered)
	}

	response := strings.TrimSpace(req.Response)
	now := utils.UTCNow()
	if err := f.inquiryRepo.Answer(ctx, inq.ID, response, now); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, NewBusinessError("INQUIRY_ALREADY_ANSWERED", "Inquiry already answered", fmt.Errorf("%w: %w", ErrInquiryAlreadyAnswered, err))
		}
		return nil, NewBusinessError("INQUIRY_ANSWER_FAILED", "Failed to answer inquiry", err)
	}
	inq.Status = models.InquiryStatusAnswered
	inq.Response = &response
	inq.AnsweredAt = &now
	inq.UpdatedAt = now

	utils.Logger.WithFields(metadata.logFields()).WithField("inquiry_uuid", inq.UUID.String()).Info("inquiry answered")

	resp := ToInquiryDTO(*inq)
	return &resp, nil
}

func (f *InquiryFlowImpl) Delete(ctx context.Context, inquiryUUID string, metadata *ClientMetadata) error {
	inq, err := f.getInquiry(ctx, inquiryUUID)
	if err != nil {
		return err
	}
	if err := f.inquiryRepo.DeleteByID(ctx, inq.ID); err != nil {
		return NewBusinessError("INQUIRY_DELETE_FAILED", "Failed to delete inquiry", err)
	}
	utils.Logger.WithFields(metadata.logFields()).WithField("inquiry_uuid", inq.UUID.String()).Info("inquiry deleted")
	return nil
}

func (f *InquiryFlowImpl) getInquiry(ctx context.Context, inquiryUUID string) (*models.Inquiry, error) {
	if _, err := utils.ParseUUID(inquiryUUID); err != nil {
		return nil, NewBusinessError("INVALID_UUID", "Invalid inquiry UUID", fmt.Errorf("%w: %w", ErrInvalidUUID, err))
	}
	inq, err := f.inquiryRepo.ByUUID(ctx, inquiryUUID)
	if err != nil {
		return nil, NewBusinessError("INQUIRY_LOOKUP_FAILED", "Failed to lookup inquiry", err)
	}
	if inq == nil {
		return nil, NewBusinessError("INQUIRY_NOT_FOUND", "Inquiry not found", ErrInquiryNotFound)
	}
	return inq, nil
}
