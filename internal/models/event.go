package models

import "time"

// Event types published for list lifecycle changes.
const (
	ListCreated = "list.created"
	ListUpdated = "list.updated"
	ListDeleted = "list.deleted"
)

// ListEvent is the message body published when a list changes.
type ListEvent struct {
	Type       string    `json:"type"`
	ListID     uint      `json:"list_id"`
	ShopperID  uint      `json:"shopper_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewListEvent builds an event of the given type for l.
func NewListEvent(eventType string, l List, at time.Time) ListEvent {
	return ListEvent{
		Type:       eventType,
		ListID:     l.ID,
		ShopperID:  l.ShopperID,
		OccurredAt: at,
	}
}
