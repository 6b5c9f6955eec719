package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBrevoURL is the transactional email endpoint.
const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

// BrevoConfig configures the Brevo sender. Endpoint defaults to
// DefaultBrevoURL.
type BrevoConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Endpoint  string
}

// Brevo sends mail through the Brevo HTTP API.
type Brevo struct {
	cfg        BrevoConfig
	httpClient *http.Client
}

func NewBrevo(cfg BrevoConfig, httpClient *http.Client) *Brevo {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultBrevoURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Brevo{cfg: cfg, httpClient: httpClient}
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

func (b *Brevo) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := checkMessage(to, subject, htmlBody); err != nil {
		return err
	}
	payload, err := json.Marshal(brevoRequest{
		Sender:      brevoAddress{Email: b.cfg.FromEmail, Name: b.cfg.FromName},
		To:          []brevoAddress{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("notify: brevo encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: brevo request: %w", err)
	}
	req.Header.Set("api-key", b.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: brevo send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify: brevo status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
