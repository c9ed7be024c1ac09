package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/vschac/CSDaily/internal/autosave"
	"github.com/vschac/CSDaily/internal/domain"
	"github.com/vschac/CSDaily/internal/verify"
)

// SaveErrorMessage is surfaced as a dismissible banner after a failed
// autosave, kept exact.
const SaveErrorMessage = "Failed to save changes. Please try again."

// Change is a partial edit to the watched settings fields. Nil fields are
// untouched.
type Change struct {
	ServiceEnabled *bool
	PreferredTime  *string
	SelectedTopics map[string]bool
}

// Session holds one signed-in identity's working settings copy, its autosave
// debouncer, and its verification workflow. It exists only while the
// identity is signed in; nothing here survives sign-out.
type Session struct {
	UID string

	mu       sync.Mutex
	settings domain.UserSettings
	saveErr  string

	debounce *autosave.Debouncer
	verify   *verify.Workflow
}

// Settings returns a copy of the working settings state.
func (s *Session) Settings() domain.UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.settings
	out.SelectedTopics = copyTopics(s.settings.SelectedTopics)
	return out
}

// Apply validates and applies an edit to the working copy, then schedules a
// debounced write. Rapid edits coalesce into one write carrying the latest
// state. A new edit also dismisses any prior save-error banner.
func (s *Session) Apply(ch Change) error {
	if ch.PreferredTime != nil {
		if _, err := domain.ValidatePreferredTime(*ch.PreferredTime); err != nil {
			return fmt.Errorf("%w: preferred time: %v", domain.ErrValidation, err)
		}
	}
	if ch.SelectedTopics != nil {
		if err := domain.ValidateTopics(ch.SelectedTopics); err != nil {
			return fmt.Errorf("%w: topics: %v", domain.ErrValidation, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ch.ServiceEnabled != nil {
		s.settings.ServiceEnabled = *ch.ServiceEnabled
	}
	if ch.PreferredTime != nil {
		s.settings.PreferredTime = *ch.PreferredTime
	}
	if ch.SelectedTopics != nil {
		s.settings.SelectedTopics = copyTopics(ch.SelectedTopics)
	}
	s.saveErr = ""

	s.debounce.Change(autosave.Snapshot{
		ServiceEnabled: s.settings.ServiceEnabled,
		PreferredTime:  s.settings.PreferredTime,
		SelectedTopics: copyTopics(s.settings.SelectedTopics),
	})
	return nil
}

// SaveError returns the pending save-error banner, if any, and clears it.
func (s *Session) SaveError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.saveErr
	s.saveErr = ""
	return msg
}

func (s *Session) noteSaveError() {
	s.mu.Lock()
	s.saveErr = SaveErrorMessage
	s.mu.Unlock()
}

// VerificationState returns the current phone verification state.
func (s *Session) VerificationState() verify.State {
	return s.verify.State()
}

// EditPhone enters the Editing phase with the given draft.
func (s *Session) EditPhone(draft string) verify.State {
	return s.verify.Edit(draft)
}

// SubmitPhone runs the verification submit and, on success, reflects the
// canonical number into the working settings copy.
func (s *Session) SubmitPhone(ctx context.Context, draft string) verify.State {
	st := s.verify.Submit(ctx, draft)
	if st.Phase == verify.Verified {
		s.mu.Lock()
		num := st.Number
		s.settings.PhoneNumber = &num
		s.mu.Unlock()
	}
	return st
}

// SendTest dispatches a test message to the verified number.
func (s *Session) SendTest(ctx context.Context) error {
	return s.verify.SendTest(ctx)
}

func copyTopics(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
