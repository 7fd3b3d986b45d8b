package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SnigdhoNext27/bliss-store-api/internal/resilience"
)

// HTTPEmailSender delivers mail through an HTTP mail gateway. Requests go
// through the resilient client so a flapping gateway is retried with
// backoff and eventually shed by the breaker.
type HTTPEmailSender struct {
	URL    string
	APIKey string
	From   string
	Client resilience.HTTPClient
}

type gatewayMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send implements common.EmailSender.
func (s HTTPEmailSender) Send(to, subject, html string) error {
	if s.URL == "" {
		return errors.New("notify: mail gateway url not configured")
	}
	body, err := json.Marshal(gatewayMessage{From: s.From, To: to, Subject: subject, HTML: html})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: mail gateway responded %d", resp.StatusCode)
	}
	return nil
}
