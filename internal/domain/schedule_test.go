package domain

import (
	"testing"
	"time"
)

// helper: build a time in given tz and return its UTC
func mustLocalUTC(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc).UTC()
}

func localHHMM(t *testing.T, ts time.Time, tz string) string {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return ts.In(loc).Format("15:04")
}

func TestNextDelivery_SlotStillAheadToday(t *testing.T) {
	tz := "America/New_York"
	// 07:12 local, preferred 09:00 → today 09:00
	now := mustLocalUTC(t, tz, 2025, time.May, 5, 7, 12)
	next := NextDelivery(now, "09:00", tz)

	if got := localHHMM(t, next, tz); got != "09:00" {
		t.Fatalf("want 09:00, got %s", got)
	}
	if !next.After(now) {
		t.Fatal("next delivery not in the future")
	}
	if next.Sub(now) > 24*time.Hour {
		t.Fatal("next delivery more than a day away")
	}
}

func TestNextDelivery_SlotPassedRollsToTomorrow(t *testing.T) {
	tz := "America/New_York"
	// 10:30 local, preferred 09:00 → tomorrow 09:00
	now := mustLocalUTC(t, tz, 2025, time.May, 5, 10, 30)
	next := NextDelivery(now, "09:00", tz)

	if got := localHHMM(t, next, tz); got != "09:00" {
		t.Fatalf("want 09:00, got %s", got)
	}
	loc, _ := time.LoadLocation(tz)
	if next.In(loc).Day() != 6 {
		t.Fatalf("want next day, got %v", next.In(loc))
	}
}

func TestNextDelivery_ExactSlotRollsToTomorrow(t *testing.T) {
	tz := "America/New_York"
	now := mustLocalUTC(t, tz, 2025, time.May, 5, 9, 0)
	next := NextDelivery(now, "09:00", tz)
	if !next.After(now) {
		t.Fatal("delivery at the current instant must roll forward")
	}
}

func TestNextDelivery_BadInputsFallBack(t *testing.T) {
	now := time.Date(2025, time.May, 5, 3, 0, 0, 0, time.UTC)

	// Unparseable preferred time falls back to the default slot.
	next := NextDelivery(now, "quarter past nine", "UTC")
	if got := next.Format("15:04"); got != "09:00" {
		t.Fatalf("want default 09:00, got %s", got)
	}

	// Unknown tz falls back to UTC.
	next = NextDelivery(now, "09:00", "Nowhere/Invalid")
	if got := next.Format("15:04"); got != "09:00" {
		t.Fatalf("want 09:00 UTC, got %s", got)
	}
}
