package domain

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed when a phone string carries no country signal.
const DefaultRegion = "US"

// ValidatePhone parses a free-form phone string against the given region and
// returns the E.164 canonical form, e.g. "+15555555555". It never returns an
// error: a string that does not parse, or has the wrong shape for the region,
// yields ok=false. Re-validating a returned canonical string yields the same
// string.
//
// Carrier metadata rejects some correctly-shaped numbers (the 555 exchange
// among them), so a number failing the strict validity check is still
// accepted when its length and pattern are possible for the region.
func ValidatePhone(raw, region string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) &&
		phonenumbers.IsPossibleNumberWithReason(num) != phonenumbers.IS_POSSIBLE {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}
