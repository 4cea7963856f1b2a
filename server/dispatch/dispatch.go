// Package dispatch delivers generated messages to learners over whatever
// outbound channel the deployment configures.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const defaultTimeout = 10 * time.Second

// Dispatcher sends one text message to a learner's chat channel.
type Dispatcher interface {
	Send(ctx context.Context, learnerID int32, text string) error
}

// WebhookDispatcher POSTs each message as JSON to a delivery endpoint, e.g.
// a bot gateway bridging to the learner's messenger.
type WebhookDispatcher struct {
	url    string
	client *http.Client
}

func NewWebhookDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	LearnerID int32  `json:"learnerId"`
	Text      string `json:"text"`
	SentTs    int64  `json:"sentTs"`
}

func (d *WebhookDispatcher) Send(ctx context.Context, learnerID int32, text string) error {
	body, err := json.Marshal(webhookPayload{
		LearnerID: learnerID,
		Text:      text,
		SentTs:    time.Now().Unix(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to deliver webhook")
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook delivery returned status %d", resp.StatusCode)
	}
	return nil
}

// LogDispatcher writes messages to the log instead of delivering them.
// It is the development default when no webhook URL is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, learnerID int32, text string) error {
	d.logger.Info("message dispatched to log", "learner_id", learnerID, "text", text)
	return nil
}
