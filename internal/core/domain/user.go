package domain

import "time"

// User is an account held by the built-in identity provider.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Identity projects the account onto the principal the session layer sees.
func (u *User) Identity() Identity {
	id := Identity{ID: u.ID, Email: u.Email}
	if len(u.Metadata) > 0 {
		id.Metadata = u.Metadata
	}
	return *id.Clone()
}
