// CLAUDE:SUMMARY Environment-only configuration: parsed with caarlos0/env, checked with validator.
// Package config loads bobawatch configuration from flat environment
// variables. There is no config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// DefaultURL is the Pistachio Milk Tea item page on Toast.
const DefaultURL = "https://order.toasttab.com/online/teasnyou/item-pistachio-milk-tea_0090e00d-4be2-41a9-972f-dc591121459c"

// DefaultUserAgent is a current desktop Chrome string.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Config is the complete runtime configuration.
type Config struct {
	Mail    MailConfig
	Profile ProfileConfig
	Browser BrowserConfig
	Probe   ProbeConfig
	State   StateConfig
	Log     LogConfig

	// Schedule is the cron spec used by watch mode.
	Schedule string `env:"BOBAWATCH_SCHEDULE" envDefault:"@every 15m" validate:"required"`
}

// MailConfig holds SMTP credentials. Any empty credential disables sending.
type MailConfig struct {
	// Credentials are pasted secrets and carry stray whitespace; parse trims them.
	Sender   string `env:"EMAIL_SENDER"`
	Password string `env:"EMAIL_PASSWORD"`
	Receiver string `env:"EMAIL_RECEIVER"`
	Host     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com" validate:"required,hostname|ip"`
	Port     int    `env:"SMTP_PORT" envDefault:"465" validate:"min=1,max=65535"`
	// ImplicitTLS is off only for a local plaintext relay.
	ImplicitTLS bool `env:"SMTP_IMPLICIT_TLS" envDefault:"true"`
}

// ProfileConfig carries the inputs used to pick the run profile.
type ProfileConfig struct {
	// Explicit is interactive, noninteractive, or empty for detection.
	Explicit    string `env:"BOBAWATCH_PROFILE" validate:"omitempty,oneof=interactive noninteractive"`
	GitHubToken string `env:"GITHUB_TOKEN"`
	CI          string `env:"CI"`

	// WasUnavailable is the prior injected by the workflow.
	WasUnavailable string `env:"WAS_UNAVAILABLE" envDefault:"false"`
	// GitHubOutput is the step output file.
	GitHubOutput string `env:"GITHUB_OUTPUT"`
}

// NonInteractive reports whether the process runs unattended in CI.
func (p ProfileConfig) NonInteractive() bool {
	switch p.Explicit {
	case "interactive":
		return false
	case "noninteractive":
		return true
	}
	return p.GitHubToken != "" || p.CI != ""
}

// BrowserConfig controls the Chrome session.
type BrowserConfig struct {
	// Bin overrides the browser binary. In CI it defaults to the runner's
	// pre-installed Chrome.
	Bin       string `env:"CHROME_BIN"`
	CIBin     string `env:"BOBAWATCH_CI_CHROME_BIN" envDefault:"/usr/bin/google-chrome"`
	RemoteURL string `env:"CHROME_REMOTE_URL" validate:"omitempty,url"`
	UserAgent string `env:"BOBAWATCH_USER_AGENT" validate:"required"`
	Language  string `env:"BOBAWATCH_ACCEPT_LANGUAGE" envDefault:"en-US,en;q=0.9"`
	Headless  bool   `env:"BOBAWATCH_HEADLESS" envDefault:"true"`
	// Block lists resource types to drop: images, fonts, media, stylesheets.
	Block []string `env:"BOBAWATCH_BLOCK_RESOURCES" envSeparator:"," validate:"dive,oneof=images fonts media stylesheets"`
}

// ProbeConfig holds the page and element identification rule.
type ProbeConfig struct {
	URL            string `env:"BOBAWATCH_URL" validate:"required,url"`
	OptionText     string `env:"BOBAWATCH_OPTION_TEXT" envDefault:"1/2 Boba~" validate:"required"`
	ModalCloseX    string `env:"BOBAWATCH_MODAL_CLOSE_XPATH" envDefault:"//*[@id='modal-content']/div[1]/button"`
	ContentMarkerX string `env:"BOBAWATCH_CONTENT_XPATH" envDefault:"//*[contains(@class,'modifierGroups')]"`
	ErrorPageX     string `env:"BOBAWATCH_ERROR_XPATH" envDefault:"//div[contains(@class, 'error-page') or contains(@class, '404')]"`
	ChallengeTitle string `env:"BOBAWATCH_CHALLENGE_TITLE" envDefault:"Just a moment"`

	Bypass           string        `env:"BOBAWATCH_BYPASS" envDefault:"retry" validate:"oneof=none wait retry"`
	ChallengeRetries int           `env:"BOBAWATCH_CHALLENGE_RETRIES" envDefault:"3" validate:"min=1,max=20"`
	ChallengeDelay   time.Duration `env:"BOBAWATCH_CHALLENGE_DELAY" envDefault:"5s" validate:"gte=0"`
	LoadTimeout      time.Duration `env:"BOBAWATCH_LOAD_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	ErrorTimeout     time.Duration `env:"BOBAWATCH_ERROR_TIMEOUT" envDefault:"3s" validate:"gt=0"`
	DiscoveryTimeout time.Duration `env:"BOBAWATCH_DISCOVERY_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	PollInterval     time.Duration `env:"BOBAWATCH_POLL_INTERVAL" envDefault:"250ms" validate:"gt=0"`

	Screenshot string `env:"BOBAWATCH_SCREENSHOT" envDefault:"debug_screenshot.png"`
	HTMLDump   string `env:"BOBAWATCH_HTML_DUMP" envDefault:"debug_page.html"`
}

// StateConfig selects the interactive persistence backend.
type StateConfig struct {
	Backend string `env:"BOBAWATCH_STATE_BACKEND" envDefault:"file" validate:"oneof=file sqlite"`
	File    string `env:"BOBAWATCH_STATE_FILE" envDefault:"boba_status.json" validate:"required"`
	DB      string `env:"BOBAWATCH_STATE_DB" envDefault:"boba_status.db" validate:"required"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	File   string `env:"LOG_FILE"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := Config{
		Browser: BrowserConfig{UserAgent: DefaultUserAgent},
		Probe:   ProbeConfig{URL: DefaultURL},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.Mail.Sender = strings.TrimSpace(cfg.Mail.Sender)
	cfg.Mail.Password = strings.TrimSpace(cfg.Mail.Password)
	cfg.Mail.Receiver = strings.TrimSpace(cfg.Mail.Receiver)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}
