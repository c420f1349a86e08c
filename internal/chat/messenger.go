package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookMessenger posts appointment messages into the platform's chat
// provider through a webhook. Message threading, presence, and delivery are
// the provider's concern; this side only needs a best-effort send.
type WebhookMessenger struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookMessenger constructs a messenger for the given webhook URL.
func NewWebhookMessenger(url string, httpClient *http.Client, logger *zap.Logger) *WebhookMessenger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookMessenger{url: url, httpClient: httpClient, logger: logger}
}

type messagePayload struct {
	CandidateID string `json:"candidate_id"`
	ActorID     string `json:"actor_id"`
	Text        string `json:"text"`
}

// SendMessage posts a message to the candidate's thread.
func (m *WebhookMessenger) SendMessage(ctx context.Context, candidateID, actorID, text string) error {
	if m.url == "" {
		m.logger.Debug("chat webhook not configured, dropping message",
			zap.String("candidate_id", candidateID))
		return nil
	}

	body, err := json.Marshal(messagePayload{CandidateID: candidateID, ActorID: actorID, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat webhook returned %d", resp.StatusCode)
	}
	return nil
}
