package verify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vschac/CSDaily/internal/store"
)

// mergeRepo implements only the Merge path; everything else panics via the
// embedded nil interface, which is fine for these tests.
type mergeRepo struct {
	store.Repo
	mu      sync.Mutex
	fail    bool
	merges  []store.Patch
	lastUID string
}

func (r *mergeRepo) Merge(_ context.Context, uid string, p store.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastUID = uid
	r.merges = append(r.merges, p)
	if r.fail {
		return errors.New("store unavailable")
	}
	return nil
}

func (r *mergeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.merges)
}

func noTest(context.Context, string) error { return nil }

func TestWorkflow_StartsUnverifiedWithoutNumber(t *testing.T) {
	w := New("u1", "US", &mergeRepo{}, noTest, nil)
	if st := w.State(); st.Phase != Unverified {
		t.Fatalf("want Unverified, got %v", st.Phase)
	}
}

func TestWorkflow_StartsVerifiedWithNumber(t *testing.T) {
	num := "+15555555555"
	w := New("u1", "US", &mergeRepo{}, noTest, &num)
	st := w.State()
	if st.Phase != Verified || st.Number != num {
		t.Fatalf("want Verified(%s), got %+v", num, st)
	}
}

func TestWorkflow_SubmitInvalidDraft_NoStoreCall(t *testing.T) {
	repo := &mergeRepo{}
	w := New("u1", "US", repo, noTest, nil)

	st := w.Submit(context.Background(), "123")
	if st.Phase != Editing {
		t.Fatalf("want Editing, got %v", st.Phase)
	}
	if st.Err != MsgInvalidPhone {
		t.Fatalf("want %q, got %q", MsgInvalidPhone, st.Err)
	}
	if st.Draft != "123" {
		t.Fatalf("draft not preserved: %q", st.Draft)
	}
	if repo.count() != 0 {
		t.Fatalf("store called %d times, want 0", repo.count())
	}
}

func TestWorkflow_SubmitValidDraft_PersistsAndVerifies(t *testing.T) {
	repo := &mergeRepo{}
	w := New("u1", "US", repo, noTest, nil)

	st := w.Submit(context.Background(), "(555) 555-5555")
	if st.Phase != Verified {
		t.Fatalf("want Verified, got %+v", st)
	}
	if st.Number != "+15555555555" {
		t.Fatalf("want canonical +15555555555, got %s", st.Number)
	}
	if repo.count() != 1 {
		t.Fatalf("want 1 merge, got %d", repo.count())
	}
	p := repo.merges[0]
	if p.PhoneNumber == nil || *p.PhoneNumber != "+15555555555" {
		t.Fatal("merge must carry the canonical number, never the raw draft")
	}
}

func TestWorkflow_SubmitMergeFailure_KeepsEditingAndDraft(t *testing.T) {
	repo := &mergeRepo{fail: true}
	w := New("u1", "US", repo, noTest, nil)

	st := w.Submit(context.Background(), "(555) 555-5555")
	if st.Phase != Editing {
		t.Fatalf("want Editing after failed merge, got %v", st.Phase)
	}
	if st.Err != MsgSaveFailed {
		t.Fatalf("want %q, got %q", MsgSaveFailed, st.Err)
	}
	if st.Draft != "(555) 555-5555" {
		t.Fatalf("draft not preserved: %q", st.Draft)
	}
}

// blockingRepo parks Merge until released, so tests can observe the
// workflow mid-persist.
type blockingRepo struct {
	store.Repo
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRepo) Merge(context.Context, string, store.Patch) error {
	close(r.entered)
	<-r.release
	return nil
}

func TestWorkflow_StateReadableWhileSubmitPersists(t *testing.T) {
	repo := &blockingRepo{entered: make(chan struct{}), release: make(chan struct{})}
	w := New("u1", "US", repo, noTest, nil)

	done := make(chan State, 1)
	go func() { done <- w.Submit(context.Background(), "(555) 555-5555") }()
	<-repo.entered

	read := make(chan State, 1)
	go func() { read <- w.State() }()
	select {
	case <-read:
	case <-time.After(time.Second):
		t.Fatal("State blocked while a submit was persisting")
	}

	close(repo.release)
	if st := <-done; st.Phase != Verified {
		t.Fatalf("want Verified after release, got %+v", st)
	}
}

func TestWorkflow_VerifiedToEditingAndBack(t *testing.T) {
	num := "+15555555555"
	repo := &mergeRepo{}
	w := New("u1", "US", repo, noTest, &num)

	st := w.Edit(num)
	if st.Phase != Editing || st.Draft != num || st.Err != "" {
		t.Fatalf("want clean Editing with draft, got %+v", st)
	}

	st = w.Submit(context.Background(), "555-555-5556")
	if st.Phase != Verified || st.Number != "+15555555556" {
		t.Fatalf("want re-verified with new number, got %+v", st)
	}
}

func TestWorkflow_FailedTestSendDoesNotInvalidate(t *testing.T) {
	num := "+15555555555"
	failing := func(context.Context, string) error { return errors.New("gateway down") }
	w := New("u1", "US", &mergeRepo{}, failing, &num)

	if err := w.SendTest(context.Background()); err == nil {
		t.Fatal("want send error")
	}
	if st := w.State(); st.Phase != Verified || st.Number != num {
		t.Fatalf("verification state changed by failed test send: %+v", st)
	}
}

func TestWorkflow_SendTestRequiresVerified(t *testing.T) {
	w := New("u1", "US", &mergeRepo{}, noTest, nil)
	if err := w.SendTest(context.Background()); err == nil {
		t.Fatal("want error when no verified number")
	}
}
