package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LineNotifier pushes messages through the LINE Messaging API.
type LineNotifier struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewLineNotifier creates a notifier using a channel access token.
func NewLineNotifier(token string) *LineNotifier {
	return &LineNotifier{
		token:   token,
		baseURL: "https://api.line.me",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify pushes the rendered message to the notification's channel (a LINE
// group or room id).
func (l *LineNotifier) Notify(ctx context.Context, n Notification) error {
	payload := map[string]any{
		"to": n.Channel,
		"messages": []map[string]string{
			{"type": "text", "text": Message(n)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		l.baseURL+"/v2/bot/message/push",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("line http status: %s", resp.Status)
	}
	return nil
}
