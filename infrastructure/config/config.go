// Package config resolves run configuration from defaults, an optional YAML file,
// a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"booking_automation/domain/entities"
)

// Browser drivers
const (
	DriverPlaywright = "playwright"
	DriverSelenium   = "selenium"
	DriverMemory     = "memory"
)

// Config is the single configuration object handed to every constructor
type Config struct {
	CI          bool              `mapstructure:"ci"`
	BaseURL     string            `mapstructure:"base_url"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts"`
	Navigation  NavigationConfig  `mapstructure:"navigation"`
	Overlay     OverlayConfig     `mapstructure:"overlay"`
	Interaction InteractionConfig `mapstructure:"interaction"`
	Flow        FlowConfig        `mapstructure:"flow"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Selenium    SeleniumConfig    `mapstructure:"selenium"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Report      ReportConfig      `mapstructure:"report"`
}

// TimeoutsConfig holds the environment-resolved timeouts in milliseconds
type TimeoutsConfig struct {
	NavigationMs  int `mapstructure:"navigation"`
	ActionMs      int `mapstructure:"action"`
	GlobalMs      int `mapstructure:"global"`
	NetworkIdleMs int `mapstructure:"network_idle"`
}

func (t TimeoutsConfig) Navigation() time.Duration  { return ms(t.NavigationMs) }
func (t TimeoutsConfig) Action() time.Duration      { return ms(t.ActionMs) }
func (t TimeoutsConfig) Global() time.Duration      { return ms(t.GlobalMs) }
func (t TimeoutsConfig) NetworkIdle() time.Duration { return ms(t.NetworkIdleMs) }

type NavigationConfig struct {
	PrimaryWaitUntil  string        `mapstructure:"primary_wait_until"`
	FallbackWaitUntil string        `mapstructure:"fallback_wait_until"`
	FallbackExtra     time.Duration `mapstructure:"fallback_extra"`
	SettleInterval    time.Duration `mapstructure:"settle_interval"`
}

type OverlayConfig struct {
	TransitionPause time.Duration `mapstructure:"transition_pause"`
	FinalPause      time.Duration `mapstructure:"final_pause"`
}

type InteractionConfig struct {
	PostActionPause time.Duration `mapstructure:"post_action_pause"`
}

type FlowConfig struct {
	CookieWait   time.Duration `mapstructure:"cookie_wait"`
	SearchWait   time.Duration `mapstructure:"search_wait"`
	ContinueWait time.Duration `mapstructure:"continue_wait"`
	ReturnDate   bool          `mapstructure:"return_date"`
}

type GeneratorConfig struct {
	DepartureOffsetDays int   `mapstructure:"departure_offset_days"`
	Seed                int64 `mapstructure:"seed"`
}

// CookieConfig is a cookie added to the browsing context before the first navigation
type CookieConfig struct {
	Name   string `mapstructure:"name"`
	Value  string `mapstructure:"value"`
	Domain string `mapstructure:"domain"`
	Path   string `mapstructure:"path"`
}

type BrowserConfig struct {
	Driver         string         `mapstructure:"driver"`
	Headless       bool           `mapstructure:"headless"`
	SlowMo         time.Duration  `mapstructure:"slow_mo"`
	ViewportWidth  int            `mapstructure:"viewport_width"`
	ViewportHeight int            `mapstructure:"viewport_height"`
	UserAgent      string         `mapstructure:"user_agent"`
	StorageState   string         `mapstructure:"storage_state"`
	Cookies        []CookieConfig `mapstructure:"cookies"`
	Args           []string       `mapstructure:"args"`
}

type SeleniumConfig struct {
	DriverPath   string `mapstructure:"driver_path"`
	ChromeBinary string `mapstructure:"chrome_binary"`
	Port         int    `mapstructure:"port"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type ReportConfig struct {
	Dir         string `mapstructure:"dir"`
	Screenshots bool   `mapstructure:"screenshots"`
}

// timeoutEnv maps timeout keys to the environment variables of a local run.
// CI runs read the same names with a CI_ prefix.
var timeoutEnv = map[string]string{
	"timeouts.navigation":   "NAVIGATION_TIMEOUT",
	"timeouts.action":       "ACTION_TIMEOUT",
	"timeouts.global":       "GLOBAL_TIMEOUT",
	"timeouts.network_idle": "NETWORK_IDLE_TIMEOUT",
}

var timeoutDefaults = map[string][2]int{
	// local, CI
	"timeouts.navigation":   {30000, 45000},
	"timeouts.action":       {60000, 90000},
	"timeouts.global":       {120000, 180000},
	"timeouts.network_idle": {10000, 15000},
}

// Load resolves the configuration. configFile may be empty, in which case
// ./booking.yaml is used when present.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("booking")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	_ = v.BindEnv("ci", "CI")
	ci := v.GetBool("ci")
	setDefaults(v, ci)
	bindEnv(v, ci)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.CI = ci

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, ci bool) {
	v.SetDefault("base_url", "https://www.tui.co.uk/flight/")

	for key, d := range timeoutDefaults {
		if ci {
			v.SetDefault(key, d[1])
		} else {
			v.SetDefault(key, d[0])
		}
	}

	v.SetDefault("navigation.primary_wait_until", string(entities.LoadStateLoad))
	v.SetDefault("navigation.fallback_wait_until", string(entities.LoadStateDOMContentLoaded))
	v.SetDefault("navigation.fallback_extra", 15*time.Second)
	v.SetDefault("navigation.settle_interval", 2*time.Second)

	v.SetDefault("overlay.transition_pause", 500*time.Millisecond)
	v.SetDefault("overlay.final_pause", time.Second)
	v.SetDefault("interaction.post_action_pause", 300*time.Millisecond)

	v.SetDefault("flow.cookie_wait", 5*time.Second)
	v.SetDefault("flow.search_wait", 10*time.Second)
	v.SetDefault("flow.continue_wait", 15*time.Second)
	v.SetDefault("flow.return_date", false)

	v.SetDefault("generator.departure_offset_days", 30)
	v.SetDefault("generator.seed", 0)

	v.SetDefault("browser.driver", DriverPlaywright)
	v.SetDefault("browser.headless", ci)
	v.SetDefault("browser.slow_mo", 0)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 720)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.storage_state", "")
	v.SetDefault("browser.cookies", []map[string]any{
		{"name": "selectedCountry", "value": "GB", "domain": ".tui.co.uk", "path": "/"},
	})
	v.SetDefault("browser.args", []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		"--disable-infobars",
		"--disable-notifications",
	})

	v.SetDefault("selenium.driver_path", "")
	v.SetDefault("selenium.chrome_binary", "")
	v.SetDefault("selenium.port", 9515)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size_mb", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)
	v.SetDefault("logger.compress", false)

	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.screenshots", true)
}

func bindEnv(v *viper.Viper, ci bool) {
	for key, env := range timeoutEnv {
		if ci {
			env = "CI_" + env
		}
		_ = v.BindEnv(key, env)
	}
	_ = v.BindEnv("base_url", "BASE_URL")
	_ = v.BindEnv("browser.driver", "BOOKING_BROWSER_DRIVER")
	_ = v.BindEnv("selenium.driver_path", "BROWSER_DRIVER_PATH")
	_ = v.BindEnv("selenium.chrome_binary", "CHROME_BINARY_PATH")
}

// Validate rejects configurations the flow cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url must be set"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL))
	}

	for name, v := range map[string]int{
		"timeouts.navigation":   c.Timeouts.NavigationMs,
		"timeouts.action":       c.Timeouts.ActionMs,
		"timeouts.global":       c.Timeouts.GlobalMs,
		"timeouts.network_idle": c.Timeouts.NetworkIdleMs,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}

	for name, state := range map[string]string{
		"navigation.primary_wait_until":  c.Navigation.PrimaryWaitUntil,
		"navigation.fallback_wait_until": c.Navigation.FallbackWaitUntil,
	} {
		if !validLoadState(state) {
			errs = append(errs, fmt.Errorf("%s: unknown load state %q", name, state))
		}
	}

	if c.Generator.DepartureOffsetDays < 1 {
		errs = append(errs, fmt.Errorf("generator.departure_offset_days must be at least 1, got %d", c.Generator.DepartureOffsetDays))
	}

	switch c.Browser.Driver {
	case DriverPlaywright, DriverSelenium, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("browser.driver: unknown driver %q", c.Browser.Driver))
	}

	if _, err := logrus.ParseLevel(c.Logger.Level); err != nil {
		errs = append(errs, fmt.Errorf("logger.level: %w", err))
	}
	if c.Logger.Format != "text" && c.Logger.Format != "json" {
		errs = append(errs, fmt.Errorf("logger.format: unknown format %q", c.Logger.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func validLoadState(s string) bool {
	switch entities.LoadState(s) {
	case entities.LoadStateCommit, entities.LoadStateDOMContentLoaded, entities.LoadStateLoad, entities.LoadStateNetworkIdle:
		return true
	}
	return false
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
