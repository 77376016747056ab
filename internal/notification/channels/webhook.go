package channels

import (
	"context"
	"fmt"
	"time"
)

// SendWebhook POST thông báo dạng JSON tới webhook URL do ops cấu hình
func SendWebhook(ctx context.Context, webhookURL string, msg *Message, details map[string]interface{}) error {
	actions := []map[string]interface{}{}
	for _, action := range msg.Actions {
		actions = append(actions, map[string]interface{}{
			"label": action.Label,
			"url":   action.URL,
		})
	}

	payload := map[string]interface{}{
		"subject":   msg.Subject,
		"content":   msg.Content,
		"timestamp": time.Now().Unix(),
		"actions":   actions,
	}
	if len(details) > 0 {
		payload["details"] = details
	}

	status, _, err := postJSON(ctx, webhookURL, payload)
	if err != nil {
		return err
	}

	if status < 200 || status >= 300 {
		return fmt.Errorf("webhook returned status %d", status)
	}
	return nil
}
