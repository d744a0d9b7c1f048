package templates

import "fmt"

// SubmissionEmailProps carries the values for the new-submission notification.
type SubmissionEmailProps struct {
	FormTitle    string
	SubmissionID string
	SubmittedAt  string
}

// GetSubmissionEmailContent composes the body for a new-submission email.
func GetSubmissionEmailContent(props SubmissionEmailProps) string {
	content := GetHeading("New submission received")
	content += GetParagraph(fmt.Sprintf("Your form %q just received a new submission.", props.FormTitle))
	content += GetParagraph(fmt.Sprintf("Submission ID: %s", props.SubmissionID))
	content += GetParagraph(fmt.Sprintf("Received at: %s", props.SubmittedAt))
	content += GetParagraph("Open your FormFlow dashboard to review the full response.")
	return content
}
