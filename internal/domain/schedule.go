package domain

import "time"

// NextDelivery computes the next daily send time in UTC for a preferred
// "HH:MM" local time in tz. If today's slot is still ahead of now it is used,
// otherwise tomorrow's. A preferredTime that fails to parse falls back to
// DefaultPreferredTime; an unknown tz falls back to UTC.
func NextDelivery(nowUTC time.Time, preferredTime, tz string) time.Time {
	mins, err := ValidatePreferredTime(preferredTime)
	if err != nil {
		mins, _ = ValidatePreferredTime(DefaultPreferredTime)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	localNow := nowUTC.In(loc)
	slot := time.Date(localNow.Year(), localNow.Month(), localNow.Day(),
		mins/60, mins%60, 0, 0, loc)
	if !slot.After(localNow) {
		slot = slot.Add(24 * time.Hour)
	}
	return slot.UTC()
}
