package domain

import "time"

// WaitlistEntry is one email captured by the waiting-list page.
type WaitlistEntry struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	Email     string     `json:"email" bson:"email"`
	Source    string     `json:"source" bson:"source"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	SyncedAt  *time.Time `json:"synced_at,omitempty" bson:"synced_at,omitempty"`
}
