package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is a persisted notification waiting to be pushed to its recipient.
type Item struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	NotificationID string          `json:"notification_id"`
	Payload        json.RawMessage `json:"payload"`
	Attempts       int             `json:"attempts"`
	EnqueuedAt     time.Time       `json:"enqueued_at"`

	key []byte
}

func (i *Item) normalize(now time.Time) {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.EnqueuedAt.IsZero() {
		i.EnqueuedAt = now
	}
}
