package ports

import (
	"context"
	"time"

	"github.com/haphazard/site/internal/core/domain"
)

// WaitlistRepository persists waiting-list entries.
type WaitlistRepository interface {
	// Add returns domain.ErrAlreadyOnWaitlist when the email is present.
	Add(ctx context.Context, entry *domain.WaitlistEntry) error
	MarkSynced(ctx context.Context, email string, at time.Time) error
	// ListUnsynced returns up to limit entries not yet forwarded, oldest first.
	ListUnsynced(ctx context.Context, limit int64) ([]domain.WaitlistEntry, error)
}

// JoinWaitlistInput is the DTO passed from the transport layer.
type JoinWaitlistInput struct {
	Email  string
	Source string
}

// JoinWaitlistResult reports what happened to a submission.
type JoinWaitlistResult struct {
	Email string
	// AlreadyJoined is true when the email was captured earlier.
	AlreadyJoined bool
}

// WaitlistService captures waiting-list sign-ups.
type WaitlistService interface {
	Join(ctx context.Context, in JoinWaitlistInput) (*JoinWaitlistResult, error)
}

// NewsletterClient forwards a captured email to the mailing-list provider.
type NewsletterClient interface {
	Subscribe(ctx context.Context, email string) error
}

// WaitlistQueue hands entries to the background forwarder. Enqueue reports
// false when the entry could not be queued; it stays unsynced.
type WaitlistQueue interface {
	Enqueue(entry domain.WaitlistEntry) bool
}

// WaitlistSyncer pushes one entry to the newsletter and records the outcome.
type WaitlistSyncer interface {
	Sync(ctx context.Context, entry domain.WaitlistEntry) error
}
