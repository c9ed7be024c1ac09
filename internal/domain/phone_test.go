package domain

import "testing"

func TestValidatePhone_USFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(555) 555-5555", "+15555555555"},
		{"555-555-5555", "+15555555555"},
		{"5555555555", "+15555555555"},
		{"+1 555 555 5555", "+15555555555"},
		{"  (555) 555-5555  ", "+15555555555"},
	}
	for _, c := range cases {
		got, ok := ValidatePhone(c.in, "US")
		if !ok {
			t.Errorf("ValidatePhone(%q) rejected, want %s", c.in, c.want)
			continue
		}
		if got != c.want {
			t.Errorf("ValidatePhone(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestValidatePhone_AcceptsFictionalExchange(t *testing.T) {
	// The 555 exchange never appears in carrier metadata but is a
	// correctly-shaped US number; it must canonicalize, not bounce.
	got, ok := ValidatePhone("(555) 555-5555", "US")
	if !ok {
		t.Fatal("555 exchange rejected")
	}
	if got != "+15555555555" {
		t.Fatalf("canonical form %s, want +15555555555", got)
	}
}

func TestValidatePhone_RejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"123",
		"not a number",
		"555-555",
		"+1",
		"00000000000000000000",
	}
	for _, in := range cases {
		if got, ok := ValidatePhone(in, "US"); ok {
			t.Errorf("ValidatePhone(%q) accepted as %s, want reject", in, got)
		}
	}
}

func TestValidatePhone_IdempotentOnOwnOutput(t *testing.T) {
	first, ok := ValidatePhone("(555) 555-5555", "US")
	if !ok {
		t.Fatal("initial validation rejected")
	}
	second, ok := ValidatePhone(first, "US")
	if !ok {
		t.Fatalf("re-validating %s rejected", first)
	}
	if second != first {
		t.Fatalf("re-validation changed canonical form: %s -> %s", first, second)
	}
}
