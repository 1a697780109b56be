package services

import (
	"fmt"
	"html"
	"log"
	"os"

	"github.com/resend/resend-go/v2"

	"github.com/PrayerWall/models"
)

// EmailService sends admin notification emails through Resend. It is
// optional: without RESEND_API_KEY and ADMIN_EMAIL it stays nil and every
// notification is a no-op.
type EmailService struct {
	client    *resend.Client
	fromAddr  string
	adminAddr string
}

// NewEmailServiceFromEnv returns nil when the service is not configured.
func NewEmailServiceFromEnv() *EmailService {
	apiKey := os.Getenv("RESEND_API_KEY")
	adminAddr := os.Getenv("ADMIN_EMAIL")

	if apiKey == "" || adminAddr == "" {
		log.Println("WARNING: RESEND_API_KEY or ADMIN_EMAIL not set. Email notifications disabled.")
		return nil
	}

	fromAddr := os.Getenv("EMAIL_FROM")
	if fromAddr == "" {
		fromAddr = "Prayer Wall <onboarding@resend.dev>"
	}

	log.Println("Email service initialized successfully with Resend")
	return &EmailService{
		client:    resend.NewClient(apiKey),
		fromAddr:  fromAddr,
		adminAddr: adminAddr,
	}
}

// NotifyNewPrayerRequest emails the admin that a prayer request arrived.
// Safe to call on a nil receiver.
func (s *EmailService) NotifyNewPrayerRequest(request models.PrayerRequest) {
	if s == nil {
		return
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; color: #333;">
    <h2 style="color: #90c590;">New Prayer Request</h2>
    <p><strong>From:</strong> %s</p>
    <blockquote style="border-left: 3px solid #90c590; margin: 16px 0; padding: 8px 16px; background-color: #f5f5f5;">%s</blockquote>
    <p>Log in to the admin dashboard to review it.</p>
</body>
</html>`, html.EscapeString(request.Name), html.EscapeString(request.Request))

	params := &resend.SendEmailRequest{
		From:    s.fromAddr,
		To:      []string{s.adminAddr},
		Subject: fmt.Sprintf("New prayer request from %s", request.Name),
		Html:    htmlBody,
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		log.Printf("Failed to send prayer request notification email: %v", err)
	}
}
