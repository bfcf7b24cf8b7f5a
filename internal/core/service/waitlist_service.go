package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/pkg/metrics"
)

const (
	defaultWaitlistSource = "waiting-list"
	backfillBatch         = 500
)

type waitlistService struct {
	repo     ports.WaitlistRepository
	queue    ports.WaitlistQueue
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

// NewWaitlistService returns a WaitlistService implementation.
func NewWaitlistService(repo ports.WaitlistRepository, queue ports.WaitlistQueue, log zerolog.Logger) ports.WaitlistService {
	return &waitlistService{
		repo:     repo,
		queue:    queue,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// Join stores the email and queues it for the newsletter. Joining twice is
// not an error.
func (s *waitlistService) Join(ctx context.Context, in ports.JoinWaitlistInput) (*ports.JoinWaitlistResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		metrics.WaitlistSignupsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("join waitlist: %w", domain.ErrInvalidInput)
	}
	source := in.Source
	if source == "" {
		source = defaultWaitlistSource
	}

	entry := domain.WaitlistEntry{
		Email:     email,
		Source:    source,
		CreatedAt: s.now().UTC(),
	}
	err := s.repo.Add(ctx, &entry)
	if errors.Is(err, domain.ErrAlreadyOnWaitlist) {
		metrics.WaitlistSignupsTotal.WithLabelValues("duplicate").Inc()
		s.log.Debug().Str("email", email).Msg("email already on waiting list")
		return &ports.JoinWaitlistResult{Email: email, AlreadyJoined: true}, nil
	}
	if err != nil {
		metrics.WaitlistSignupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("join waitlist: %w", err)
	}

	metrics.WaitlistSignupsTotal.WithLabelValues("joined").Inc()
	if !s.queue.Enqueue(entry) {
		s.log.Warn().Str("email", email).Msg("waitlist queue full, entry left for backfill")
	}
	s.log.Info().Str("source", source).Msg("waiting list joined")

	return &ports.JoinWaitlistResult{Email: email}, nil
}

// waitlistSyncer forwards entries to the newsletter provider.
type waitlistSyncer struct {
	repo       ports.WaitlistRepository
	newsletter ports.NewsletterClient
	log        zerolog.Logger
	now        func() time.Time
}

// NewWaitlistSyncer returns a WaitlistSyncer implementation.
func NewWaitlistSyncer(repo ports.WaitlistRepository, newsletter ports.NewsletterClient, log zerolog.Logger) ports.WaitlistSyncer {
	return &waitlistSyncer{repo: repo, newsletter: newsletter, log: log, now: time.Now}
}

// Sync subscribes the entry's email and marks it synced. A failed mark is
// logged only; the provider treats repeat subscribes as no-ops.
func (s *waitlistSyncer) Sync(ctx context.Context, entry domain.WaitlistEntry) error {
	start := time.Now()
	err := s.newsletter.Subscribe(ctx, entry.Email)
	metrics.WaitlistSyncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WaitlistSyncTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("sync waitlist entry: %w", err)
	}
	metrics.WaitlistSyncTotal.WithLabelValues("ok").Inc()

	if err := s.repo.MarkSynced(ctx, entry.Email, s.now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("email", entry.Email).Msg("failed to mark waitlist entry synced")
	}
	return nil
}

// BackfillWaitlist queues entries that were captured but never forwarded,
// e.g. because the process stopped with a non-empty queue.
func BackfillWaitlist(ctx context.Context, repo ports.WaitlistRepository, queue ports.WaitlistQueue, log zerolog.Logger) (int, error) {
	entries, err := repo.ListUnsynced(ctx, backfillBatch)
	if err != nil {
		return 0, fmt.Errorf("backfill waitlist: %w", err)
	}
	queued := 0
	for _, e := range entries {
		if !queue.Enqueue(e) {
			break
		}
		queued++
	}
	if queued > 0 {
		log.Info().Int("queued", queued).Msg("unsynced waitlist entries queued")
	}
	return queued, nil
}
