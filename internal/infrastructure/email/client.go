// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"
	"time"

	"github.com/formflowhq/formflow-go/internal/infrastructure/email/templates"
	"github.com/formflowhq/formflow-go/pkg/config"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendSubmissionNotification(toEmail, formTitle, submissionID string, submittedAt time.Time) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: config.EmailFrom,
		fromName:  config.EmailFromName,
	}, nil
}

// SendSubmissionNotification composes and sends the new-submission email to a form owner.
func (c *ResendClient) SendSubmissionNotification(toEmail, formTitle, submissionID string, submittedAt time.Time) error {
	subject := fmt.Sprintf("New submission on %q", formTitle)

	content := templates.GetSubmissionEmailContent(templates.SubmissionEmailProps{
		FormTitle:    formTitle,
		SubmissionID: submissionID,
		SubmittedAt:  submittedAt.UTC().Format(time.RFC1123),
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: subject,
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send submission notification via Resend: %w", err)
	}

	return nil
}
