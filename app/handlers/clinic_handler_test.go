package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirphl/dentalcare/app/dto"
	businessflow "github.com/amirphl/dentalcare/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeedbackFlow struct {
	created *dto.CreateFeedbackRequest
	err     error
}

func (s *stubFeedbackFlow) Create(ctx context.Context, req *dto.CreateFeedbackRequest, metadata *businessflow.ClientMetadata) (*dto.FeedbackDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = req
	return &dto.FeedbackDTO{ID: 1, Name: req.Name, Rating: req.Rating}, nil
}

func (s *stubFeedbackFlow) List(ctx context.Context, req *dto.ListFeedbackRequest) (*dto.ListFeedbackResponse, error) {
	return &dto.ListFeedbackResponse{}, s.err
}

func (s *stubFeedbackFlow) Delete(ctx context.Context, feedbackUUID string, metadata *businessflow.ClientMetadata) error {
	return s.err
}

type stubInquiryFlow struct {
	err error
}

func (s *stubInquiryFlow) Create(ctx context.Context, req *dto.CreateInquiryRequest, metadata *businessflow.ClientMetadata) (*dto.InquiryDTO, error) {
	return &dto.InquiryDTO{Name: req.Name, Status: "open"}, s.err
}

func (s *stubInquiryFlow) List(ctx context.Context, req *dto.ListInquiriesRequest) (*dto.ListInquiriesResponse, error) {
	return &dto.ListInquiriesResponse{}, s.err
}

func (s *stubInquiryFlow) Answer(ctx context.Context, inquiryUUID string, req *dto.AnswerInquiryRequest, metadata *businessflow.ClientMetadata) (*dto.InquiryDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.InquiryDTO{UUID: inquiryUUID, Status: "answered", Response: &req.Response}, nil
}

func (s *stubInquiryFlow) Delete(ctx context.Context, inquiryUUID string, metadata *businessflow.ClientMetadata) error {
	return s.err
}

type stubCounterFlow struct{}

func (stubCounterFlow) List(ctx context.Context) (*dto.ListCountersResponse, error) {
	return &dto.ListCountersResponse{
		Backend:  "memory",
		Counters: []dto.CounterDTO{{Scope: "inventory", Prefix: "ITEM", Value: 2, NextCode: "ITEM-003"}},
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newClinicApp(fb *stubFeedbackFlow, inq *stubInquiryFlow) *fiber.App {
	h := NewClinicHandler(fb, inq, stubCounterFlow{})
	app := fiber.New()
	app.Post("/feedback", h.SubmitFeedback)
	app.Delete("/feedback/:uuid", h.DeleteFeedback)
	app.Post("/inquiries/:uuid/answer", h.AnswerInquiry)
	app.Get("/counters", h.ListCounters)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestClinicHandler_SubmitFeedback(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		fb := &stubFeedbackFlow{}
		status, env := call(t, newClinicApp(fb, &stubInquiryFlow{}), http.MethodPost, "/feedback", `{"name":"Sara","rating":5}`)
		assert.Equal(t, fiber.StatusCreated, status)
		assert.True(t, env.Success)
		require.NotNil(t, fb.created)
		assert.Equal(t, 5, fb.created.Rating)
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		fb := &stubFeedbackFlow{}
		status, env := call(t, newClinicApp(fb, &stubInquiryFlow{}), http.MethodPost, "/feedback", `{"name":"Sara","rating":9}`)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Nil(t, fb.created)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		status, env := call(t, newClinicApp(&stubFeedbackFlow{}, &stubInquiryFlow{}), http.MethodPost, "/feedback", `{"name":`)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	})
}

func TestClinicHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"NotFound", businessflow.NewBusinessError("FEEDBACK_NOT_FOUND", "Feedback not found", businessflow.ErrFeedbackNotFound), fiber.StatusNotFound, "FEEDBACK_NOT_FOUND"},
		{"BadUUID", businessflow.NewBusinessError("INVALID_UUID", "Invalid UUID", businessflow.ErrInvalidUUID), fiber.StatusBadRequest, "INVALID_UUID"},
		{"Timeout", context.DeadlineExceeded, fiber.StatusGatewayTimeout, "REQUEST_TIMEOUT"},
		{"Unexpected", errors.New("db exploded"), fiber.StatusInternalServerError, "DELETE_FEEDBACK_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newClinicApp(&stubFeedbackFlow{err: tt.err}, &stubInquiryFlow{})
			status, env := call(t, app, http.MethodDelete, "/feedback/3f1c1f0e-7a52-4a0c-9d3c-1d2b8a6f4e11", "")
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestClinicHandler_AnswerInquiry(t *testing.T) {
	path := "/inquiries/3f1c1f0e-7a52-4a0c-9d3c-1d2b8a6f4e11/answer"

	status, env := call(t, newClinicApp(&stubFeedbackFlow{}, &stubInquiryFlow{}), http.MethodPost, path, `{"response":"See you Monday"}`)
	assert.Equal(t, fiber.StatusOK, status)
	var inq dto.InquiryDTO
	require.NoError(t, json.Unmarshal(env.Data, &inq))
	assert.Equal(t, "answered", inq.Status)

	answered := businessflow.NewBusinessError("INQUIRY_ALREADY_ANSWERED", "Inquiry already answered", businessflow.ErrInquiryAlreadyAnswered)
	status, env = call(t, newClinicApp(&stubFeedbackFlow{}, &stubInquiryFlow{err: answered}), http.MethodPost, path, `{"response":"again"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INQUIRY_ALREADY_ANSWERED", env.Error.Code)
}

func TestClinicHandler_ListCounters(t *testing.T) {
	status, env := call(t, newClinicApp(&stubFeedbackFlow{}, &stubInquiryFlow{}), http.MethodGet, "/counters", "")
	require.Equal(t, fiber.StatusOK, status)

	var resp dto.ListCountersResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "memory", resp.Backend)
	require.Len(t, resp.Counters, 1)
	assert.Equal(t, "ITEM-003", resp.Counters[0].NextCode)
}
