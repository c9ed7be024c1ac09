package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultPreferredTime is the delivery time assigned to a brand-new user.
const DefaultPreferredTime = "09:00"

// UserSettings holds one user's delivery preferences and schedule.
// There is exactly one document per authenticated identity.
type UserSettings struct {
	UID            string
	ServiceEnabled bool
	PreferredTime  string          // "HH:MM", 24-hour, local to the delivery TZ
	SelectedTopics map[string]bool // topic id -> enabled; absent keys are false
	PhoneNumber    *string         // E.164, present only once verified
	CreatedAt      time.Time       // UTC
	UpdatedAt      time.Time       // UTC, stamped by the store
	LastSaved      time.Time       // UTC, stamped by the store
	NextSendAt     *time.Time      // UTC, nullable
	LastSentAt     *time.Time      // UTC, nullable
}

// Verified reports whether the user has a verified phone number on file.
func (s *UserSettings) Verified() bool {
	return s.PhoneNumber != nil && *s.PhoneNumber != ""
}

// DefaultTopics returns the topic map assigned on first sign-in: every
// known topic enabled.
func DefaultTopics() map[string]bool {
	return map[string]bool{
		"languages":      true,
		"frameworks":     true,
		"algorithms":     true,
		"dataStructures": true,
		"concepts":       true,
		"designPatterns": true,
		"bestPractices":  true,
		"systemDesign":   true,
		"tooling":        true,
		"testing":        true,
	}
}

// ValidateTopics checks that every key is a known topic id. Unknown ids
// would persist silently and never match a fact.
func ValidateTopics(topics map[string]bool) error {
	known := DefaultTopics()
	for id := range topics {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("unknown topic %q", id)
		}
	}
	return nil
}

// EnabledTopics returns the topic ids set to true, in no particular order.
func EnabledTopics(topics map[string]bool) []string {
	var out []string
	for id, on := range topics {
		if on {
			out = append(out, id)
		}
	}
	return out
}

// ValidatePreferredTime checks a strict "HH:MM" 24-hour string and returns
// minutes since midnight.
func ValidatePreferredTime(s string) (int, error) {
	return parseHHMM(s)
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, errors.New("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, errors.New("invalid minute")
	}
	return h*60 + m, nil
}

// ValidateTZ checks that the tz is a valid IANA location.
func ValidateTZ(tz string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}
