package facts

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/vschac/CSDaily/internal/domain"
)

//go:embed facts.json
var corpusFS embed.FS

type factRecord struct {
	ID         string `json:"id"`
	Topic      string `json:"topic"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Difficulty string `json:"difficulty"`
}

// Load parses the embedded fact corpus. The corpus is seeded into the store
// at startup; ids are stable so reseeding is a no-op.
func Load() ([]domain.Fact, error) {
	raw, err := corpusFS.ReadFile("facts.json")
	if err != nil {
		return nil, err
	}

	var records []factRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse facts.json: %w", err)
	}

	out := make([]domain.Fact, 0, len(records))
	for i, rec := range records {
		if rec.ID == "" || rec.Topic == "" || rec.Term == "" || rec.Definition == "" {
			return nil, fmt.Errorf("facts.json: record %d incomplete", i)
		}
		if rec.Difficulty == "" {
			rec.Difficulty = "intermediate"
		}
		out = append(out, domain.Fact{
			ID:         rec.ID,
			Topic:      rec.Topic,
			Term:       rec.Term,
			Definition: rec.Definition,
			Difficulty: rec.Difficulty,
		})
	}
	return out, nil
}
