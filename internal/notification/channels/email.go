package channels

import (
	"context"
	"fmt"

	"bid_flow/config"

	"gopkg.in/gomail.v2"
)

// SendEmail gửi thông báo qua SMTP. Cấu hình SMTP lấy từ server config.
func SendEmail(ctx context.Context, cfg *config.Configuration, recipient string, msg *Message) error {
	if cfg == nil || cfg.SMTP_Host == "" {
		return fmt.Errorf("SMTP chưa được cấu hình")
	}

	// Format actions thành HTML buttons
	actionHTML := ""
	for _, action := range msg.Actions {
		actionHTML += fmt.Sprintf(`<a href="%s" style="display:inline-block;padding:10px 20px;margin:5px;text-decoration:none;border-radius:5px;background-color:#007bff;color:#fff;">%s</a>`,
			action.URL, action.Label)
	}

	htmlContent := msg.Content
	if actionHTML != "" {
		htmlContent += "<div style='margin-top:20px;'>" + actionHTML + "</div>"
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", fmt.Sprintf("%s <%s>", cfg.SMTP_FromName, cfg.SMTP_FromEmail))
	mail.SetHeader("To", recipient)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", htmlContent)

	dialer := gomail.NewDialer(cfg.SMTP_Host, cfg.SMTP_Port, cfg.SMTP_Username, cfg.SMTP_Password)
	return dialer.DialAndSend(mail)
}
