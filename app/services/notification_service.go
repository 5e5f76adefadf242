package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/amirphl/dentalcare/config"
	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
)

// ErrInvalidMobile is returned for numbers that are not 10 to 15 digits with an optional leading +
var ErrInvalidMobile = errors.New("invalid mobile number")

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// NotificationService sends patient-facing messages
type NotificationService interface {
	SendSMS(ctx context.Context, mobile, message string) error
}

// SMSProvider delivers a single SMS
type SMSProvider interface {
	SendSMS(ctx context.Context, mobile, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	smsProvider SMSProvider
}

// NewNotificationService creates a new notification service
func NewNotificationService(smsProvider SMSProvider) NotificationService {
	return &NotificationServiceImpl{smsProvider: smsProvider}
}

// SendSMS validates the number and hands the message to the provider
func (s *NotificationServiceImpl) SendSMS(ctx context.Context, mobile, message string) error {
	if s.smsProvider == nil {
		return fmt.Errorf("SMS provider not configured")
	}
	if !mobilePattern.MatchString(mobile) {
		return fmt.Errorf("%w: %s", ErrInvalidMobile, mobile)
	}
	return s.smsProvider.SendSMS(ctx, mobile, message)
}

// NewSMSProvider picks the HTTP provider, or the logging mock when the domain is "mock"
func NewSMSProvider(cfg *config.SMSConfig) SMSProvider {
	if cfg == nil || cfg.ProviderDomain == "" || cfg.ProviderDomain == "mock" {
		return NewMockSMSProvider()
	}
	return NewHTTPSMSProvider(cfg)
}

// MockSMSProvider logs messages instead of sending them
type MockSMSProvider struct{}

func NewMockSMSProvider() SMSProvider {
	return &MockSMSProvider{}
}

func (p *MockSMSProvider) SendSMS(ctx context.Context, mobile, message string) error {
	utils.Logger.WithFields(logrus.Fields{"mobile": mobile, "provider": "mock"}).Info("SMS sent: " + message)
	return nil
}

// HTTPSMSProvider posts messages to the configured SMS gateway
type HTTPSMSProvider struct {
	config *config.SMSConfig
	client *http.Client
}

type smsRequest struct {
	SrcNum         string `json:"srcNum"`
	Recipient      string `json:"recipient"`
	Body           string `json:"body"`
	RetryCount     int    `json:"retryCount"`
	Type           int    `json:"type"` // Always 1
	ValidityPeriod int    `json:"validityPeriod"`
}

type smsResponse struct {
	MessageID  int64  `json:"messageId"`
	Recipient  string `json:"recipient"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
}

func NewHTTPSMSProvider(cfg *config.SMSConfig) *HTTPSMSProvider {
	return &HTTPSMSProvider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *HTTPSMSProvider) SendSMS(ctx context.Context, mobile, message string) error {
	body, err := json.Marshal([]smsRequest{{
		SrcNum:         p.config.SourceNumber,
		Recipient:      mobile,
		Body:           message,
		RetryCount:     p.config.RetryCount,
		Type:           1,
		ValidityPeriod: p.config.ValidityPeriod,
	}})
	if err != nil {
		return fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	url := fmt.Sprintf("https://%s/api/v3.0.1/send", p.config.ProviderDomain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	var results []smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return fmt.Errorf("failed to decode SMS response: %w", err)
	}
	for _, r := range results {
		if r.StatusCode != http.StatusOK || r.Status != "ACCEPTED" {
			return fmt.Errorf("SMS delivery failed for %s: %s (%d)", r.Recipient, r.Status, r.StatusCode)
		}
	}
	return nil
}
