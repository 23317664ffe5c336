package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEmailJSEndpoint is the public EmailJS send API.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

const maxResponseBody = 64 << 10

type EmailJSConfig struct {
	Endpoint   string
	PublicKey  string
	PrivateKey string // optional access token for strict mode accounts
	HTTPClient *http.Client
}

// EmailJSClient sends templated emails through the EmailJS REST API.
type EmailJSClient struct {
	endpoint   string
	publicKey  string
	privateKey string
	client     *http.Client
}

// APIError is returned when EmailJS answers with a non-2xx status.
type APIError struct {
	Status int
	Text   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailer: emailjs returned %d: %s", e.Status, e.Text)
}

func NewEmailJSClient(cfg EmailJSConfig) (*EmailJSClient, error) {
	if cfg.PublicKey == "" {
		return nil, errors.New("mailer: emailjs public key is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEmailJSEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &EmailJSClient{
		endpoint:   endpoint,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		client:     client,
	}, nil
}

type sendRequest struct {
	ServiceID      string `json:"service_id"`
	TemplateID     string `json:"template_id"`
	UserID         string `json:"user_id"`
	AccessToken    string `json:"accessToken,omitempty"`
	TemplateParams Params `json:"template_params"`
}

// Send posts one request to EmailJS.
func (c *EmailJSClient) Send(ctx context.Context, serviceID, templateID string, params Params) (*Response, error) {
	body, err := json.Marshal(sendRequest{
		ServiceID:      serviceID,
		TemplateID:     templateID,
		UserID:         c.publicKey,
		AccessToken:    c.privateKey,
		TemplateParams: params,
	})
	if err != nil {
		return nil, fmt.Errorf("mailer: encoding emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mailer: building emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mailer: emailjs request: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("mailer: reading emailjs response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Text: strings.TrimSpace(string(text))}
	}
	return &Response{Status: resp.StatusCode, Text: string(text)}, nil
}
