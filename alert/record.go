package alert

import (
	"time"

	"github.com/google/uuid"
)

// Record is one pending alert. Records are values; the queue hands out copies.
type Record struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	DisplayName string    `json:"display_name"`
	Login       string    `json:"login"`
	ImageURL    string    `json:"image_url"`
	ViewerCount int       `json:"viewer_count,omitempty"` // raids only
	ReceivedAt  time.Time `json:"received_at"`
}

// NewRecord builds a record with a fresh id and receive time.
func NewRecord(kind Kind, displayName, login, imageURL string) Record {
	return Record{
		ID:          uuid.NewString(),
		Kind:        kind,
		DisplayName: displayName,
		Login:       login,
		ImageURL:    imageURL,
		ReceivedAt:  time.Now(),
	}
}
