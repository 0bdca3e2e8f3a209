package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kamaD-y/dcp-ops-monitor/config"
	"github.com/kamaD-y/dcp-ops-monitor/models"
)

// maxMessagesPerRequest is the Messaging API limit per push/broadcast.
const maxMessagesPerRequest = 5

// lineMessage is a text or image message object.
type lineMessage struct {
	Type               string `json:"type"`
	Text               string `json:"text,omitempty"`
	OriginalContentURL string `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string `json:"previewImageUrl,omitempty"`
}

type linePayload struct {
	Messages []lineMessage `json:"messages"`
}

// LineNotifier sends messages to a LINE Messaging API endpoint.
type LineNotifier struct {
	client *resty.Client
	url    string
}

// NewLineNotifier creates a notifier using the channel access token in cfg.
func NewLineNotifier(cfg config.NotifyConfig) *LineNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json")

	return &LineNotifier{client: client, url: cfg.URL}
}

// Notify sends messages in order. Each message becomes a text message,
// followed by an image message when it has an ImageURL. Requests carry at
// most five message objects. Any failure is a *models.NotificationError and
// stops further batches.
func (n *LineNotifier) Notify(ctx context.Context, messages []models.NotificationMessage) error {
	converted := toLineMessages(messages)

	for start := 0; start < len(converted); start += maxMessagesPerRequest {
		end := min(start+maxMessagesPerRequest, len(converted))
		if err := n.send(ctx, converted[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (n *LineNotifier) send(ctx context.Context, batch []lineMessage) error {
	res, err := n.client.R().
		SetContext(ctx).
		SetBody(linePayload{Messages: batch}).
		Post(n.url)
	if err != nil {
		return &models.NotificationError{Err: err}
	}
	if res.IsError() {
		return &models.NotificationError{
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("unexpected response: %s", res.String()),
		}
	}

	slog.Info("line messages sent", "count", len(batch), "status", res.StatusCode())
	return nil
}

func toLineMessages(messages []models.NotificationMessage) []lineMessage {
	out := make([]lineMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, lineMessage{Type: "text", Text: m.Text})
		if m.ImageURL != "" {
			out = append(out, lineMessage{
				Type:               "image",
				OriginalContentURL: m.ImageURL,
				PreviewImageURL:    m.ImageURL,
			})
		}
	}
	return out
}
