package entity

import "time"

// Notification kinds
const (
	NotificationKindApprovalRequest = "APPROVAL_REQUEST"
	NotificationKindApproved        = "RECORD_APPROVED"
	NotificationKindRejected        = "RECORD_REJECTED"
)

// Notification is one inbox row for one concrete recipient. Role references
// are expanded before storage; a stored notification never names a role.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Link        string    `json:"link,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
