package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/csdaily.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	// DefaultTZ is the delivery timezone preferredTime is interpreted in.
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"America/New_York"`
	// DefaultRegion is the phone parsing region absent other signal.
	DefaultRegion string        `envconfig:"DEFAULT_REGION" default:"US"`
	DebounceMS    int           `envconfig:"DEBOUNCE_MS" default:"500"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`

	IdentityBaseURL string `envconfig:"IDENTITY_BASE_URL" required:"true"`
	IdentityAPIKey  string `envconfig:"IDENTITY_API_KEY" required:"true"`

	TwilioAccountSID  string `envconfig:"TWILIO_ACCOUNT_SID" required:"true"`
	TwilioAuthToken   string `envconfig:"TWILIO_AUTH_TOKEN" required:"true"`
	TwilioPhoneNumber string `envconfig:"TWILIO_PHONE_NUMBER" required:"true"`
}

// DebounceWindow returns the autosave window as a duration.
func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
