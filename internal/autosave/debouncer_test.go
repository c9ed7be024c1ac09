package autosave

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vschac/CSDaily/internal/store"
)

type saveRecorder struct {
	mu      sync.Mutex
	patches []store.Patch
}

func (r *saveRecorder) save(_ context.Context, p store.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patches = append(r.patches, p)
	return nil
}

func (r *saveRecorder) saved() []store.Patch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.Patch, len(r.patches))
	copy(out, r.patches)
	return out
}

func snap(enabled bool, prefTime string) Snapshot {
	return Snapshot{
		ServiceEnabled: enabled,
		PreferredTime:  prefTime,
		SelectedTopics: map[string]bool{"algorithms": true},
	}
}

func TestDebouncer_CoalescesRapidChanges(t *testing.T) {
	rec := &saveRecorder{}
	d := New(30*time.Millisecond, rec.save, nil)

	// Rapid burst: toggle true → false → true within the window.
	d.Change(snap(true, "09:00"))
	d.Change(snap(false, "09:00"))
	d.Change(snap(true, "10:30"))

	time.Sleep(150 * time.Millisecond)

	got := rec.saved()
	if len(got) != 1 {
		t.Fatalf("want exactly 1 write, got %d", len(got))
	}
	p := got[0]
	if p.ServiceEnabled == nil || !*p.ServiceEnabled {
		t.Fatal("write must carry the final serviceEnabled=true")
	}
	if p.PreferredTime == nil || *p.PreferredTime != "10:30" {
		t.Fatal("write must carry the final preferredTime")
	}
}

func TestDebouncer_SeparateWindowsWriteSeparately(t *testing.T) {
	rec := &saveRecorder{}
	d := New(20*time.Millisecond, rec.save, nil)

	d.Change(snap(true, "09:00"))
	time.Sleep(100 * time.Millisecond)
	d.Change(snap(false, "09:00"))
	time.Sleep(100 * time.Millisecond)

	if got := rec.saved(); len(got) != 2 {
		t.Fatalf("want 2 writes, got %d", len(got))
	}
}

func TestDebouncer_StopCancelsPendingWrite(t *testing.T) {
	rec := &saveRecorder{}
	d := New(30*time.Millisecond, rec.save, nil)

	d.Change(snap(true, "09:00"))
	d.Stop()

	time.Sleep(150 * time.Millisecond)

	if got := rec.saved(); len(got) != 0 {
		t.Fatalf("pending write fired after Stop: %d writes", len(got))
	}

	// Changes after Stop are no-ops too.
	d.Change(snap(false, "09:00"))
	time.Sleep(150 * time.Millisecond)
	if got := rec.saved(); len(got) != 0 {
		t.Fatalf("change after Stop produced a write")
	}
}

func TestDebouncer_SaveErrorReachesCallback(t *testing.T) {
	errs := make(chan error, 1)
	d := New(10*time.Millisecond,
		func(context.Context, store.Patch) error { return context.DeadlineExceeded },
		func(err error) { errs <- err },
	)

	d.Change(snap(true, "09:00"))

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("nil error delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("error callback never invoked")
	}
}

func TestDebouncer_LatestSnapshotIsIsolated(t *testing.T) {
	rec := &saveRecorder{}
	d := New(10*time.Millisecond, rec.save, nil)

	topics := map[string]bool{"algorithms": true}
	d.Change(Snapshot{ServiceEnabled: true, PreferredTime: "09:00", SelectedTopics: topics})
	topics["algorithms"] = false // caller mutates after the fact

	time.Sleep(100 * time.Millisecond)

	got := rec.saved()
	if len(got) != 1 {
		t.Fatalf("want 1 write, got %d", len(got))
	}
	if !got[0].SelectedTopics["algorithms"] {
		t.Fatal("patch must carry the topics as of the change, not later mutations")
	}
}
