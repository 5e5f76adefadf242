package businessflow

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
)

// FeedbackFlow handles patient ratings left on the public site
type FeedbackFlow interface {
	Create(ctx context.Context, req *dto.CreateFeedbackRequest, metadata *ClientMetadata) (*dto.FeedbackDTO, error)
	List(ctx context.Context, req *dto.ListFeedbackRequest) (*dto.ListFeedbackResponse, error)
	Delete(ctx context.Context, feedbackUUID string, metadata *ClientMetadata) error
}

type FeedbackFlowImpl struct {
	feedbackRepo repository.FeedbackRepository
}

func NewFeedbackFlow(feedbackRepo repository.FeedbackRepository) FeedbackFlow {
	return &FeedbackFlowImpl{feedbackRepo: feedbackRepo}
}

func (f *FeedbackFlowImpl) Create(ctx context.Context, req *dto.CreateFeedbackRequest, metadata *ClientMetadata) (*dto.FeedbackDTO, error) {
	if req == nil {
		return nil, NewBusinessError("FEEDBACK_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, NewBusinessError("FEEDBACK_VALIDATION_FAILED", "rating must be between 1 and 5", ErrValidationFailed)
	}

	fb := models.Feedback{
		Name:    strings.TrimSpace(req.Name),
		Email:   utils.TrimPtr(req.Email),
		Rating:  req.Rating,
		Comment: utils.TrimPtr(req.Comment),
	}
	if err := f.feedbackRepo.Save(ctx, &fb); err != nil {
		return nil, NewBusinessError("FEEDBACK_CREATE_FAILED", "Failed to save feedback", err)
	}

	utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
		"feedback_uuid": fb.UUID.String(),
		"rating":        fb.Rating,
	}).Info("feedback received")

	resp := ToFeedbackDTO(fb)
	return &resp, nil
}

func (f *FeedbackFlowImpl) List(ctx context.Context, req *dto.ListFeedbackRequest) (*dto.ListFeedbackResponse, error) {
	if req == nil {
		req = &dto.ListFeedbackRequest{}
	}
	page, limit, offset := normalizePagination(req.Page, req.Limit)
	filter := models.FeedbackFilter{MinRating: req.MinRating}

	rows, err := f.feedbackRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("FEEDBACK_LIST_FAILED", "Failed to list feedback", err)
	}
	total, err := f.feedbackRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("FEEDBACK_LIST_FAILED", "Failed to count feedback", err)
	}
	avg, err := f.feedbackRepo.AverageRating(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("FEEDBACK_LIST_FAILED", "Failed to compute average rating", err)
	}

	out := make([]dto.FeedbackDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToFeedbackDTO(*r))
	}
	return &dto.ListFeedbackResponse{
		Items:         out,
		AverageRating: math.Round(avg*100) / 100,
		Pagination:    newPaginationInfo(total, page, limit),
	}, nil
}

func (f *FeedbackFlowImpl) Delete(ctx context.Context, feedbackUUID string, metadata *ClientMetadata) error {
	if _, err := utils.ParseUUID(feedbackUUID); err != nil {
		return NewBusinessError("INVALID_UUID", "Invalid feedback UUID", fmt.Errorf("%w: %w", ErrInvalidUUID, err))
	}
	fb, err := f.feedbackRepo.ByUUID(ctx, feedbackUUID)
	if err != nil {
		return NewBusinessError("FEEDBACK_LOOKUP_FAILED", "Failed to lookup feedback", err)
	}
	if fb == nil {
		return NewBusinessError("FEEDBACK_NOT_FOUND", "Feedback not found", ErrFeedbackNotFound)
	}
	if err := f.feedbackRepo.DeleteByID(ctx, fb.ID); err != nil {
		return NewBusinessError("FEEDBACK_DELETE_FAILED", "Failed to delete feedback", err)
	}
	utils.Logger.WithFields(metadata.logFields()).WithField("feedback_uuid", fb.UUID.String()).Info("feedback deleted")
	return nil
}
