package domain

import "encoding/json"

// Database webhook event types.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeEvent is the payload the store's webhook dispatcher posts for
// every row mutation: the after-state in Record, the before-state in
// OldRecord (DELETE carries only OldRecord). Delivery is at-least-once
// and never transactional with the write that produced it.
type ChangeEvent struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
