package channels

import (
	"context"
	"fmt"
	"strings"

	"bid_flow/internal/logger"

	"github.com/valyala/fasthttp"
)

// SendTelegram gửi thông báo qua Telegram Bot API tới một chat ID
func SendTelegram(ctx context.Context, botToken string, chatID string, msg *Message) error {
	log := logger.GetAppLogger()
	if botToken == "" {
		return fmt.Errorf("telegram bot token chưa được cấu hình")
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", botToken)

	// Format actions thành inline keyboard, tối đa 3 buttons/row
	inlineKeyboard := [][]map[string]interface{}{}
	row := []map[string]interface{}{}
	for _, action := range msg.Actions {
		// Telegram không chấp nhận localhost trong URL button
		if strings.Contains(action.URL, "localhost") || strings.Contains(action.URL, "127.0.0.1") {
			log.WithFields(map[string]interface{}{
				"label": action.Label,
				"url":   action.URL,
			}).Warn("📱 [TELEGRAM] Bỏ qua action vì URL chứa localhost (Telegram không chấp nhận)")
			continue
		}
		row = append(row, map[string]interface{}{
			"text": action.Label,
			"url":  action.URL,
		})
		if len(row) >= 3 {
			inlineKeyboard = append(inlineKeyboard, row)
			row = []map[string]interface{}{}
		}
	}
	if len(row) > 0 {
		inlineKeyboard = append(inlineKeyboard, row)
	}

	text := msg.Content
	if msg.Subject != "" {
		text = msg.Subject + "\n\n" + msg.Content
	}
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if len(inlineKeyboard) > 0 {
		payload["reply_markup"] = map[string]interface{}{
			"inline_keyboard": inlineKeyboard,
		}
	}

	status, body, err := postJSON(ctx, url, payload)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"chatID": chatID,
		}).Error("📱 [TELEGRAM] Lỗi khi gọi Telegram API")
		return err
	}

	if status != fasthttp.StatusOK {
		log.WithFields(map[string]interface{}{
			"chatID":     chatID,
			"statusCode": status,
			"response":   string(body),
		}).Error("📱 [TELEGRAM] Telegram API trả về lỗi")
		return fmt.Errorf("telegram API returned status %d: %s", status, string(body))
	}
	return nil
}
