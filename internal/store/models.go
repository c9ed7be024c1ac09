package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

func toNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}

func toNullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// encodeTopics serializes a topic map for the selected_topics column.
func encodeTopics(topics map[string]bool) (string, error) {
	if topics == nil {
		topics = map[string]bool{}
	}
	b, err := json.Marshal(topics)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTopics parses the selected_topics column; an empty value means
// no topics recorded.
func decodeTopics(raw string) (map[string]bool, error) {
	if raw == "" {
		return map[string]bool{}, nil
	}
	var topics map[string]bool
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
