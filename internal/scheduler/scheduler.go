package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vschac/CSDaily/internal/domain"
	"github.com/vschac/CSDaily/internal/store"
)

const batchSize = 100

// Sender is the minimal interface the scheduler needs to deliver a fact.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Scheduler periodically polls the store and dispatches due daily facts.
type Scheduler struct {
	repo     store.Repo
	log      *zap.Logger
	sender   Sender
	tz       string
	interval time.Duration
}

// New creates a Scheduler. tz is the delivery timezone preferredTime is
// interpreted in; a non-positive interval falls back to 30s.
func New(repo store.Repo, log *zap.Logger, sender Sender, tz string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{repo: repo, log: log, sender: sender, tz: tz, interval: interval}
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one cycle: assign send times to newly eligible users, then
// deliver to everyone due.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	s.schedule(ctx, now)
	s.dispatch(ctx, now)
}

// schedule computes next_send_at for enabled, verified users whose schedule
// was cleared by a settings change or who just became eligible.
func (s *Scheduler) schedule(ctx context.Context, now time.Time) {
	users, err := s.repo.ListUnscheduled(ctx, batchSize)
	if err != nil {
		s.log.Error("ListUnscheduled failed", zap.Error(err))
		return
	}
	for _, u := range users {
		next := domain.NextDelivery(now, u.PreferredTime, s.tz)
		if err := s.repo.SetSchedule(ctx, u.UID, next, u.LastSentAt); err != nil {
			s.log.Error("SetSchedule failed", zap.Error(err), zap.String("uid", u.UID))
			continue
		}
		s.log.Debug("delivery scheduled",
			zap.String("uid", u.UID), zap.Time("next", next))
	}
}

// dispatch sends one fact to each due user and schedules the next day.
// A send failure leaves the schedule untouched so delivery retries on the
// next tick.
func (s *Scheduler) dispatch(ctx context.Context, now time.Time) {
	users, err := s.repo.ListDue(ctx, now, batchSize)
	if err != nil {
		s.log.Error("ListDue failed", zap.Error(err))
		return
	}
	for _, u := range users {
		next := domain.NextDelivery(now, u.PreferredTime, s.tz)

		fact, err := s.repo.PickFact(ctx, domain.EnabledTopics(u.SelectedTopics))
		if err != nil {
			if errors.Is(err, store.ErrNoFact) {
				// Nothing to say for this topic selection; skip the day.
				s.log.Warn("no fact for user topics", zap.String("uid", u.UID))
				_ = s.repo.SetSchedule(ctx, u.UID, next, u.LastSentAt)
				continue
			}
			s.log.Error("PickFact failed", zap.Error(err), zap.String("uid", u.UID))
			continue
		}

		if err := s.sender.Send(ctx, *u.PhoneNumber, fact.Message()); err != nil {
			s.log.Error("send failed", zap.Error(err), zap.String("uid", u.UID))
			continue
		}

		if err := s.repo.SetSchedule(ctx, u.UID, next, &now); err != nil {
			s.log.Error("SetSchedule failed", zap.Error(err), zap.String("uid", u.UID))
		}
	}
}
