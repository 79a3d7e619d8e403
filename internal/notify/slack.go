package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackNotifier posts messages through the Slack Web API.
type SlackNotifier struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewSlackNotifier creates a notifier using a bot token.
func NewSlackNotifier(token string) *SlackNotifier {
	return &SlackNotifier{
		token:   token,
		baseURL: "https://slack.com/api",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Notify posts the rendered message to the notification's channel.
func (s *SlackNotifier) Notify(ctx context.Context, n Notification) error {
	payload := map[string]any{
		"channel": n.Channel,
		"text":    Message(n),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat.postMessage",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("slack http status: %s", resp.Status)
	}
	var res slackResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("slack api error: %s", res.Error)
	}
	return nil
}
