// internal/workers/communication/send-notification/models.go
package sendnotification

type Input struct {
	RecipientID      string                 `json:"recipientId"`
	RecipientType    string                 `json:"recipientType"` // "student" or "counselor"
	NotificationType string                 `json:"notificationType"`
	ProfileID        string                 `json:"profileId,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeRecommendationsReady = "recommendations_ready"
	TypeDeadlineApproaching  = "deadline_approaching"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Recipient types
const (
	RecipientTypeStudent   = "student"
	RecipientTypeCounselor = "counselor"
)
