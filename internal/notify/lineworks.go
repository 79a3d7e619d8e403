package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// LineWorksNotifier sends messages through the LINE WORKS bot API.
type LineWorksNotifier struct {
	token   string
	botID   string
	baseURL string
	http    *http.Client
}

// NewLineWorksNotifier creates a notifier for one bot.
func NewLineWorksNotifier(token, botID string) *LineWorksNotifier {
	return &LineWorksNotifier{
		token:   token,
		botID:   botID,
		baseURL: "https://www.worksapis.com",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify sends the rendered message to the notification's channel.
func (l *LineWorksNotifier) Notify(ctx context.Context, n Notification) error {
	payload := map[string]any{
		"content": map[string]string{
			"type": "text",
			"text": Message(n),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/v1.0/bots/%s/channels/%s/messages",
		l.baseURL, url.PathEscape(l.botID), url.PathEscape(n.Channel))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
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
		return fmt.Errorf("lineworks http status: %s", resp.Status)
	}
	return nil
}
