package store

import (
	"context"
	"errors"
	"time"

	"github.com/vschac/CSDaily/internal/domain"
)

// Sentinel outcomes distinguishable by callers.
var (
	// ErrNotFound signals a brand-new identity with no settings document.
	ErrNotFound = errors.New("settings not found")
	// ErrAlreadyExists signals a conditional create that lost the race:
	// a document for the identity is already persisted.
	ErrAlreadyExists = errors.New("settings already exist")
	// ErrNoFact signals that no fact matches the requested topics.
	ErrNoFact = errors.New("no fact available")
)

// Patch is a partial settings update. Nil fields are left untouched.
// Server timestamps are always stamped by the store, never by the caller.
type Patch struct {
	ServiceEnabled *bool
	PreferredTime  *string
	SelectedTopics map[string]bool
	PhoneNumber    *string
}

// Empty reports whether the patch touches nothing.
func (p Patch) Empty() bool {
	return p.ServiceEnabled == nil && p.PreferredTime == nil &&
		p.SelectedTopics == nil && p.PhoneNumber == nil
}

// Repo defines storage operations for user settings, delivery scheduling,
// and the fact corpus.
type Repo interface {
	// Load fetches the settings document for uid, or ErrNotFound.
	Load(ctx context.Context, uid string) (*domain.UserSettings, error)
	// CreateDefault conditionally inserts the default document for uid and
	// returns it. If a document already exists the insert is a no-op and
	// ErrAlreadyExists is returned; the existing document is never clobbered.
	CreateDefault(ctx context.Context, uid string) (*domain.UserSettings, error)
	// Merge applies a partial update and stamps updated_at/last_saved.
	Merge(ctx context.Context, uid string, p Patch) error

	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.UserSettings, error)
	ListUnscheduled(ctx context.Context, limit int) ([]domain.UserSettings, error)
	SetSchedule(ctx context.Context, uid string, next time.Time, last *time.Time) error

	SeedFacts(ctx context.Context, facts []domain.Fact) error
	PickFact(ctx context.Context, topics []string) (*domain.Fact, error)

	Close() error
}
