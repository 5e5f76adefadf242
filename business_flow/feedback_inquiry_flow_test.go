package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackFlow(t *testing.T) {
	ctx := context.Background()
	meta := NewClientMetadata("127.0.0.1", "test")

	t.Run("RatingBounds", func(t *testing.T) {
		flow := NewFeedbackFlow(newFakeFeedbackRepo())
		for _, rating := range []int{0, 6, -1} {
			_, err := flow.Create(ctx, &dto.CreateFeedbackRequest{Name: "Ali", Rating: rating}, meta)
			assert.True(t, IsValidationError(err), "rating %d", rating)
		}
	})

	t.Run("ListWithAverage", func(t *testing.T) {
		flow := NewFeedbackFlow(newFakeFeedbackRepo())
		for _, rating := range []int{5, 4, 4, 2} {
			_, err := flow.Create(ctx, &dto.CreateFeedbackRequest{Name: "Ali", Rating: rating, Comment: utils.ToPtr(" great ")}, meta)
			require.NoError(t, err)
		}

		all, err := flow.List(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all.Items, 4)
		assert.InDelta(t, 3.75, all.AverageRating, 0.001)
		require.NotNil(t, all.Items[0].Comment)
		assert.Equal(t, "great", *all.Items[0].Comment)

		high, err := flow.List(ctx, &dto.ListFeedbackRequest{MinRating: utils.ToPtr(4)})
		require.NoError(t, err)
		assert.Len(t, high.Items, 3)
		assert.InDelta(t, 4.33, high.AverageRating, 0.001)
	})

	t.Run("Delete", func(t *testing.T) {
		flow := NewFeedbackFlow(newFakeFeedbackRepo())
		fb, err := flow.Create(ctx, &dto.CreateFeedbackRequest{Name: "Ali", Rating: 5}, meta)
		require.NoError(t, err)

		require.NoError(t, flow.Delete(ctx, fb.UUID, meta))
		assert.True(t, IsFeedbackNotFound(flow.Delete(ctx, fb.UUID, meta)))
	})
}

// staleInquiryRepo reports every inquiry as open, as a reader racing another answer would see it
type staleInquiryRepo struct {
	*fakeInquiryRepo
}

func (r staleInquiryRepo) ByUUID(ctx context.Context, id string) (*models.Inquiry, error) {
	q, err := r.fakeInquiryRepo.ByUUID(ctx, id)
	if q != nil {
		q.Status = models.InquiryStatusOpen
	}
	return q, err
}

func TestInquiryFlow(t *testing.T) {
	ctx := context.Background()
	meta := NewClientMetadata("127.0.0.1", "test")

	newInquiry := func() *dto.CreateInquiryRequest {
		return &dto.CreateInquiryRequest{
			Name:    "Ali",
			Email:   " Ali@Example.com ",
			Subject: "Whitening",
			Message: "Do you offer whitening on weekends?",
		}
	}

	t.Run("CreateAndAnswerOnce", func(t *testing.T) {
		flow := NewInquiryFlow(newFakeInquiryRepo())
		inq, err := flow.Create(ctx, newInquiry(), meta)
		require.NoError(t, err)
		assert.Equal(t, models.InquiryStatusOpen, inq.Status)
		assert.Equal(t, "ali@example.com", inq.Email)

		answered, err := flow.Answer(ctx, inq.UUID, &dto.AnswerInquiryRequest{Response: "Yes, on Saturdays."}, meta)
		require.NoError(t, err)
		assert.Equal(t, models.InquiryStatusAnswered, answered.Status)
		require.NotNil(t, answered.Response)
		assert.NotNil(t, answered.AnsweredAt)

		_, err = flow.Answer(ctx, inq.UUID, &dto.AnswerInquiryRequest{Response: "Again"}, meta)
		require.Error(t, err)
		assert.True(t, IsInquiryAlreadyAnswered(err))
		assert.True(t, IsConflict(err))
	})

	t.Run("AnswerAfterStaleRead", func(t *testing.T) {
		repo := newFakeInquiryRepo()
		flow := NewInquiryFlow(staleInquiryRepo{repo})
		inq, err := flow.Create(ctx, newInquiry(), meta)
		require.NoError(t, err)

		_, err = flow.Answer(ctx, inq.UUID, &dto.AnswerInquiryRequest{Response: "First"}, meta)
		require.NoError(t, err)
		_, err = flow.Answer(ctx, inq.UUID, &dto.AnswerInquiryRequest{Response: "Second"}, meta)
		require.Error(t, err)
		assert.True(t, IsInquiryAlreadyAnswered(err))

		stored, err := repo.ByUUID(ctx, inq.UUID)
		require.NoError(t, err)
		require.NotNil(t, stored.Response)
		assert.Equal(t, "First", *stored.Response)
	})

	t.Run("EmptyAnswer", func(t *testing.T) {
		flow := NewInquiryFlow(newFakeInquiryRepo())
		inq, err := flow.Create(ctx, newInquiry(), meta)
		require.NoError(t, err)

		_, err = flow.Answer(ctx, inq.UUID, &dto.AnswerInquiryRequest{Response: "   "}, meta)
		assert.True(t, IsValidationError(err))
	})

	t.Run("ListByStatus", func(t *testing.T) {
		flow := NewInquiryFlow(newFakeInquiryRepo())
		first, err := flow.Create(ctx, newInquiry(), meta)
		require.NoError(t, err)
		_, err = flow.Create(ctx, newInquiry(), meta)
		require.NoError(t, err)
		_, err = flow.Answer(ctx, first.UUID, &dto.AnswerInquiryRequest{Response: "Yes"}, meta)
		require.NoError(t, err)

		open, err := flow.List(ctx, &dto.ListInquiriesRequest{Status: utils.ToPtr(models.InquiryStatusOpen)})
		require.NoError(t, err)
		assert.Len(t, open.Items, 1)
		assert.Equal(t, int64(1), open.Pagination.Total)
	})

	t.Run("UnknownInquiry", func(t *testing.T) {
		flow := NewInquiryFlow(newFakeInquiryRepo())
		err := flow.Delete(ctx, "3f1c1f0e-7a52-4a0c-9d3c-1d2b8a6f4e11", meta)
		assert.True(t, IsInquiryNotFound(err))
	})
}
