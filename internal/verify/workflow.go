package verify

import (
	"context"
	"fmt"
	"sync"

	"github.com/vschac/CSDaily/internal/domain"
	"github.com/vschac/CSDaily/internal/store"
)

// Phase is the verification workflow phase.
type Phase int

const (
	// Unverified: no phone number on the loaded settings document.
	Unverified Phase = iota
	// Editing: a draft number is being entered, possibly with an error.
	Editing
	// Verified: a canonical number is persisted.
	Verified
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Verified:
		return "verified"
	default:
		return "unverified"
	}
}

// User-facing messages, kept exact.
const (
	MsgInvalidPhone = "Please enter a valid phone number"
	MsgSaveFailed   = "Failed to save phone number"
)

// State is the single source of truth for the verification flow. Draft and
// Err are meaningful only in Editing; Number only in Verified.
type State struct {
	Phase  Phase
	Draft  string
	Err    string
	Number string
}

// TestSendFunc dispatches a test message to a canonical number on behalf of
// the workflow's identity.
type TestSendFunc func(ctx context.Context, number string) error

// Workflow drives phone entry, validation, persistence, and the verified
// transition for one identity. It is re-enterable indefinitely; there is no
// terminal phase.
type Workflow struct {
	uid      string
	region   string
	repo     store.Repo
	sendTest TestSendFunc

	mu    sync.Mutex
	state State
}

// New builds a workflow seeded from the loaded settings document: a present
// phone number starts Verified, otherwise Unverified.
func New(uid, region string, repo store.Repo, sendTest TestSendFunc, phoneNumber *string) *Workflow {
	w := &Workflow{uid: uid, region: region, repo: repo, sendTest: sendTest}
	if phoneNumber != nil && *phoneNumber != "" {
		w.state = State{Phase: Verified, Number: *phoneNumber}
	}
	return w
}

// State returns a copy of the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Edit enters Editing with the given draft and clears any prior error. From
// Verified this is the explicit "change number" action.
func (w *Workflow) Edit(draft string) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = State{Phase: Editing, Draft: draft}
	return w.state
}

// Submit validates the draft and persists the canonical number. A bad draft
// keeps Editing with MsgInvalidPhone and makes no store call; a failed merge
// keeps Editing with MsgSaveFailed and the draft preserved; success
// transitions to Verified.
func (w *Workflow) Submit(ctx context.Context, draft string) State {
	canonical, ok := domain.ValidatePhone(draft, w.region)
	if !ok {
		return w.setState(State{Phase: Editing, Draft: draft, Err: MsgInvalidPhone})
	}

	// The merge runs outside the lock so State and Edit stay responsive
	// during the store round-trip.
	if err := w.repo.Merge(ctx, w.uid, store.Patch{PhoneNumber: &canonical}); err != nil {
		return w.setState(State{Phase: Editing, Draft: draft, Err: MsgSaveFailed})
	}

	return w.setState(State{Phase: Verified, Number: canonical})
}

func (w *Workflow) setState(st State) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = st
	return w.state
}

// SendTest dispatches a test message to the verified number. Success and
// failure are reported to the caller but never change the phase; a failed
// test send does not invalidate Verified.
func (w *Workflow) SendTest(ctx context.Context) error {
	w.mu.Lock()
	st := w.state
	w.mu.Unlock()

	if st.Phase != Verified {
		return fmt.Errorf("%w: no verified phone number", domain.ErrValidation)
	}
	return w.sendTest(ctx, st.Number)
}
