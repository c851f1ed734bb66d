package models

type NotificationKind string

const (
	NotificationSubmissionConfirmation NotificationKind = "submission_confirmation"
	NotificationAdminNewSubmission     NotificationKind = "admin_new_submission"
)

// Notification is the fixed-shape payload relayed to the email automation endpoint.
type Notification struct {
	Type           NotificationKind `json:"type"`
	ToEmail        string           `json:"to_email"`
	SubmitterName  string           `json:"submitter_name"`
	SubmissionType SubmissionType   `json:"submission_type"`
}
