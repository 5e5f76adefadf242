package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/dentalcare/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSMSProvider struct {
	mobile  string
	message string
}

func (p *capturingSMSProvider) SendSMS(ctx context.Context, mobile, message string) error {
	p.mobile, p.message = mobile, message
	return nil
}

func TestNotificationService_SendSMS(t *testing.T) {
	provider := &capturingSMSProvider{}
	svc := NewNotificationService(provider)

	require.NoError(t, svc.SendSMS(context.Background(), "+989121234567", "see you tomorrow"))
	assert.Equal(t, "+989121234567", provider.mobile)
	assert.Equal(t, "see you tomorrow", provider.message)

	err := svc.SendSMS(context.Background(), "12ab", "x")
	assert.ErrorIs(t, err, ErrInvalidMobile)

	assert.Error(t, NewNotificationService(nil).SendSMS(context.Background(), "+989121234567", "x"))
}

func TestNewSMSProvider_Mock(t *testing.T) {
	_, ok := NewSMSProvider(&config.SMSConfig{ProviderDomain: "mock"}).(*MockSMSProvider)
	assert.True(t, ok)
	_, ok = NewSMSProvider(&config.SMSConfig{ProviderDomain: "sms.example.com"}).(*HTTPSMSProvider)
	assert.True(t, ok)
}

func TestHTTPSMSProvider_SendSMS(t *testing.T) {
	var got []smsRequest
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "/api/v3.0.1/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode([]smsResponse{{MessageID: 1, Recipient: got[0].Recipient, Status: "ACCEPTED", StatusCode: 200}})
	}))
	defer srv.Close()

	cfg := &config.SMSConfig{
		ProviderDomain: strings.TrimPrefix(srv.URL, "https://"),
		APIKey:         "secret",
		SourceNumber:   "98100",
		Timeout:        5 * time.Second,
	}
	p := NewHTTPSMSProvider(cfg)
	p.client = srv.Client()

	require.NoError(t, p.SendSMS(context.Background(), "989121234567", "hello"))
	require.Len(t, got, 1)
	assert.Equal(t, "98100", got[0].SrcNum)
	assert.Equal(t, "hello", got[0].Body)
	assert.Equal(t, 1, got[0].Type)
}

func TestHTTPSMSProvider_RejectedDelivery(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]smsResponse{{Recipient: "989121234567", Status: "REJECTED", StatusCode: 400}})
	}))
	defer srv.Close()

	p := NewHTTPSMSProvider(&config.SMSConfig{ProviderDomain: strings.TrimPrefix(srv.URL, "https://"), Timeout: time.Second})
	p.client = srv.Client()

	err := p.SendSMS(context.Background(), "989121234567", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REJECTED")
}
