package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vschac/CSDaily/internal/autosave"
	"github.com/vschac/CSDaily/internal/domain"
	"github.com/vschac/CSDaily/internal/identity"
	"github.com/vschac/CSDaily/internal/sms"
	"github.com/vschac/CSDaily/internal/store"
	"github.com/vschac/CSDaily/internal/verify"
)

// ErrNoSession is returned for identities that have not signed in.
var ErrNoSession = fmt.Errorf("%w: no active session", domain.ErrAuthorization)

// Manager reacts to sign-in and sign-out events: it verifies the identity,
// initializes a new user's default settings document exactly once, builds
// per-identity session state, and tears it down on sign-out.
type Manager struct {
	log    *zap.Logger
	repo   store.Repo
	ids    identity.Provider
	sender sms.Sender
	region string
	window time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager wires the session manager. region is the phone validation
// region assumption; window is the autosave debounce window.
func NewManager(log *zap.Logger, repo store.Repo, ids identity.Provider, sender sms.Sender, region string, window time.Duration) *Manager {
	return &Manager{
		log:      log,
		repo:     repo,
		ids:      ids,
		sender:   sender,
		region:   region,
		window:   window,
		sessions: make(map[string]*Session),
	}
}

// SignIn establishes a session for uid. The identity is confirmed with the
// provider first; a brand-new identity gets its default settings document
// through a conditional create, so two clients racing on first sign-in end
// up sharing one document. Signing in an already-active uid returns the
// existing session.
func (m *Manager) SignIn(ctx context.Context, uid string) (*Session, error) {
	if _, err := m.ids.Lookup(ctx, uid); err != nil {
		return nil, err
	}

	m.mu.RLock()
	existing, ok := m.sessions[uid]
	m.mu.RUnlock()
	if ok {
		return existing, nil
	}

	settings, err := m.initSettings(ctx, uid)
	if err != nil {
		return nil, err
	}

	s := &Session{UID: uid, settings: *settings}
	s.settings.SelectedTopics = copyTopics(settings.SelectedTopics)
	s.debounce = autosave.New(m.window,
		func(ctx context.Context, p store.Patch) error {
			return m.repo.Merge(ctx, uid, p)
		},
		func(err error) {
			m.log.Error("autosave failed", zap.String("uid", uid), zap.Error(err))
			s.noteSaveError()
		},
	)
	s.verify = verify.New(uid, m.region, m.repo, m.testSend(uid), settings.PhoneNumber)

	m.mu.Lock()
	if racing, ok := m.sessions[uid]; ok {
		// Another SignIn for the same uid won; discard ours.
		m.mu.Unlock()
		s.debounce.Stop()
		return racing, nil
	}
	m.sessions[uid] = s
	m.mu.Unlock()

	m.log.Info("session established", zap.String("uid", uid))
	return s, nil
}

// initSettings loads the settings document, creating the default one for a
// brand-new identity. Losing the conditional create means another client
// initialized first; the persisted document is reloaded, never overwritten.
func (m *Manager) initSettings(ctx context.Context, uid string) (*domain.UserSettings, error) {
	settings, err := m.repo.Load(ctx, uid)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: load settings: %v", domain.ErrPersistence, err)
	}

	settings, err = m.repo.CreateDefault(ctx, uid)
	if err == nil {
		m.log.Info("default settings created", zap.String("uid", uid))
		return settings, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return nil, fmt.Errorf("%w: create default settings: %v", domain.ErrPersistence, err)
	}

	settings, err = m.repo.Load(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: reload settings: %v", domain.ErrPersistence, err)
	}
	return settings, nil
}

// SignOut tears down the session for uid. The pending autosave, if any, is
// cancelled rather than fired against a stale identity.
func (m *Manager) SignOut(uid string) {
	m.mu.Lock()
	s, ok := m.sessions[uid]
	delete(m.sessions, uid)
	m.mu.Unlock()

	if ok {
		s.debounce.Stop()
		m.log.Info("session closed", zap.String("uid", uid))
	}
}

// Get returns the active session for uid, or ErrNoSession.
func (m *Manager) Get(uid string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[uid]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Event is one identity state change from the provider's stream.
type Event struct {
	UID      string
	SignedIn bool
}

// Watch consumes an identity event stream until ctx is done or the stream
// closes, driving session initialization on sign-in and teardown on
// sign-out.
func (m *Manager) Watch(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.SignedIn {
				m.SignOut(ev.UID)
				continue
			}
			if _, err := m.SignIn(ctx, ev.UID); err != nil {
				m.log.Error("sign-in event failed", zap.String("uid", ev.UID), zap.Error(err))
			}
		}
	}
}

// testSend builds the verification workflow's test-message action: the
// identity is re-confirmed server-side before anything is dispatched.
func (m *Manager) testSend(uid string) verify.TestSendFunc {
	return func(ctx context.Context, number string) error {
		if _, err := m.ids.Lookup(ctx, uid); err != nil {
			return err
		}
		return m.sender.Send(ctx, number, sms.TestMessageBody)
	}
}
