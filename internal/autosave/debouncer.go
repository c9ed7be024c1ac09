package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/vschac/CSDaily/internal/store"
)

// DefaultWindow is the quiet period after the last change before a write
// is committed.
const DefaultWindow = 500 * time.Millisecond

const saveTimeout = 10 * time.Second

// Snapshot is the watched tuple of editable settings fields.
type Snapshot struct {
	ServiceEnabled bool
	PreferredTime  string
	SelectedTopics map[string]bool
}

func (s Snapshot) patch() store.Patch {
	return store.Patch{
		ServiceEnabled: &s.ServiceEnabled,
		PreferredTime:  &s.PreferredTime,
		SelectedTopics: s.SelectedTopics,
	}
}

// SaveFunc commits one coalesced snapshot.
type SaveFunc func(ctx context.Context, p store.Patch) error

// Debouncer coalesces rapid settings changes into a single write. Each
// Change restarts the window and replaces the pending snapshot, so only the
// latest state is ever persisted; intermediate states are never written.
type Debouncer struct {
	window  time.Duration
	save    SaveFunc
	onError func(error)

	mu      sync.Mutex
	timer   *time.Timer
	pending Snapshot
	gen     uint64
	stopped bool
}

// New builds a debouncer. onError receives save failures; there is no
// automatic retry and a failure never blocks further edits. A zero window
// falls back to DefaultWindow.
func New(window time.Duration, save SaveFunc, onError func(error)) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window, save: save, onError: onError}
}

// Change records the latest state and (re)starts the window. Any pending
// write is superseded. Calls after Stop are no-ops.
func (d *Debouncer) Change(s Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	// Snapshot the topics now; later caller mutations must not leak into
	// the pending write.
	topics := make(map[string]bool, len(s.SelectedTopics))
	for k, v := range s.SelectedTopics {
		topics[k] = v
	}
	s.SelectedTopics = topics
	d.pending = s
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// fire commits the pending snapshot unless it has been superseded or the
// debouncer was stopped while the timer was in flight.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	snap := d.pending
	d.timer = nil
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := d.save(ctx, snap.patch()); err != nil && d.onError != nil {
		d.onError(err)
	}
}

// Stop cancels any pending write without firing it. Used on sign-out and
// teardown so a stale identity is never written to.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
