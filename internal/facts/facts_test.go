package facts

import (
	"testing"

	"github.com/vschac/CSDaily/internal/domain"
)

func TestLoad_CorpusIsComplete(t *testing.T) {
	corpus, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(corpus) == 0 {
		t.Fatal("empty corpus")
	}

	known := domain.DefaultTopics()
	seen := map[string]bool{}
	for _, f := range corpus {
		if f.ID == "" || f.Term == "" || f.Definition == "" {
			t.Fatalf("incomplete fact: %+v", f)
		}
		if seen[f.ID] {
			t.Fatalf("duplicate fact id %s", f.ID)
		}
		seen[f.ID] = true
		if _, ok := known[f.Topic]; !ok {
			t.Fatalf("fact %s references unknown topic %s", f.ID, f.Topic)
		}
		if f.Difficulty == "" {
			t.Fatalf("fact %s has no difficulty", f.ID)
		}
	}
}

func TestFactMessage(t *testing.T) {
	f := domain.Fact{Term: "Big O Notation", Definition: "a growth bound"}
	if got := f.Message(); got != "Big O Notation: a growth bound" {
		t.Fatalf("message %q", got)
	}
}
