package services

import (
	"github.com/formflowhq/formflow-go/internal/domain/entities/forms"
	"github.com/formflowhq/formflow-go/internal/domain/submissions"
	"github.com/formflowhq/formflow-go/internal/domain/users"
	"github.com/formflowhq/formflow-go/internal/infrastructure/email"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
)

// NotificationService sends the new-submission email to form owners. Sends
// run on a detached goroutine; a failure only logs and never reaches the
// submitting client.
type NotificationService struct {
	emailService email.Service
	userRepo     users.Repository
	logger       *logging.ChanneledLogger
}

// NewNotificationService creates a new notification service. emailService
// may be nil when notifications are disabled; every send becomes a no-op.
func NewNotificationService(emailService email.Service, userRepo users.Repository, logger *logging.ChanneledLogger) *NotificationService {
	return &NotificationService{
		emailService: emailService,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// NotifySubmission fires the owner notification for a stored submission.
func (s *NotificationService) NotifySubmission(form *forms.Form, submission *submissions.Submission) {
	if s.emailService == nil {
		return
	}

	go func() {
		owner, err := s.userRepo.FindByID(form.UserID)
		if err != nil || owner == nil {
			s.logger.Email().Warn("Skipping submission notification, owner lookup failed",
				"formId", form.ID, "userId", form.UserID)
			return
		}

		if err := s.emailService.SendSubmissionNotification(owner.Email, form.Title, submission.ID, submission.CompletedAt); err != nil {
			s.logger.Email().Error("Failed to send submission notification",
				"error", err.Error(), "formId", form.ID, "submissionId", submission.ID)
			return
		}

		s.logger.Email().Info("Submission notification sent", "formId", form.ID, "submissionId", submission.ID)
	}()
}
