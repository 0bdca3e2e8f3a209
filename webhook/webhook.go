// Package webhook posts run events to a user-supplied endpoint.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kamaD-y/dcp-ops-monitor/config"
	"github.com/kamaD-y/dcp-ops-monitor/models"
)

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Dcpmon-Signature"

// Event types.
const (
	EventRunSucceeded = "run.succeeded"
	EventRunFailed    = "run.failed"
)

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type       string                        `json:"type"`
	RunID      string                        `json:"run_id"`
	Timestamp  int64                         `json:"timestamp"`
	Snapshot   *models.AssetSnapshot         `json:"snapshot,omitempty"`
	Indicators *models.OperationalIndicators `json:"indicators,omitempty"`
	Error      *models.ErrorDetail           `json:"error,omitempty"`
}

// Sender delivers events, retrying transport errors and 5xx responses.
type Sender struct {
	client *resty.Client
	url    string
	secret string
}

// NewSender creates a Sender posting to cfg.URL, signing with cfg.Secret
// when set and retrying up to cfg.Retries times.
func NewSender(cfg config.WebhookConfig) *Sender {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "dcpmon-webhook/1.0").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Sender{client: client, url: cfg.URL, secret: cfg.Secret}
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends event synchronously.
func (s *Sender) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req := s.client.R().SetContext(ctx).SetBody(body)
	if s.secret != "" {
		req.SetHeader(SignatureHeader, "sha256="+Sign(s.secret, body))
	}

	resp, err := req.Post(s.url)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode())
	}
	return nil
}

// NewEvent builds the event for a finished run.
func NewEvent(runID string, at time.Time, snap *models.AssetSnapshot, ind *models.OperationalIndicators, runErr error) *Event {
	ev := &Event{
		Type:       EventRunSucceeded,
		RunID:      runID,
		Timestamp:  at.Unix(),
		Snapshot:   snap,
		Indicators: ind,
	}
	if runErr != nil {
		ev.Type = EventRunFailed
		ev.Error = models.ToDetail(runErr)
	}
	return ev
}
