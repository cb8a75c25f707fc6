// Package config provides configuration loading for dailycommute.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/cpuguy83/dailycommute/internal/calendar"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the config file.
const (
	EnvWeatherKey  = "DAILYCOMMUTE_WEATHER_KEY"
	EnvFTPPassword = "DAILYCOMMUTE_FTP_PASSWORD"
)

// Config is the root configuration structure.
type Config struct {
	Timezone  string   `yaml:"timezone"`
	Language  string   `yaml:"language"` // "fr" or "en"
	Schedule  string   `yaml:"schedule"` // cron spec for the schedule command
	Output    string   `yaml:"output"`
	LogFile   string   `yaml:"log_file,omitempty"`
	Timeout   Duration `yaml:"timeout"`
	ICSExport string   `yaml:"ics_export,omitempty"`
	Ephemeris string   `yaml:"ephemeris,omitempty"`

	Weather    WeatherConfig                `yaml:"weather"`
	Sources    []SourceConfig               `yaml:"sources"`
	Categories map[string]calendar.Category `yaml:"categories"`
	Filters    FilterConfig                 `yaml:"filters"`
	Quotes     QuoteConfig                  `yaml:"quotes"`
	FTP        FTPConfig                    `yaml:"ftp"`
	SSM        SSMConfig                    `yaml:"ssm"`
}

// WeatherConfig configures the forecast API.
type WeatherConfig struct {
	URL         string  `yaml:"url"`
	APIKey      string  `yaml:"api_key,omitempty"`
	APIKeyParam string  `yaml:"api_key_param,omitempty"`
	Lat         float64 `yaml:"lat"`
	Lon         float64 `yaml:"lon"`
	Hours       int     `yaml:"hours"` // hourly points averaged into the daily summary
	Units       string  `yaml:"units"`
	Lang        string  `yaml:"lang"`
}

// SourceConfig configures a calendar source.
type SourceConfig struct {
	Name          string       `yaml:"name"`
	Type          string       `yaml:"type"` // "ics", "caldav", "icloud"
	URL           string       `yaml:"url"`
	Username      string       `yaml:"username,omitempty"`
	Password      string       `yaml:"password,omitempty"`
	PasswordCmd   string       `yaml:"password_cmd,omitempty"`
	PasswordParam string       `yaml:"password_param,omitempty"`
	Calendars     []string     `yaml:"calendars,omitempty"` // For CalDAV: which calendars to fetch
	Filters       FilterConfig `yaml:"filters,omitempty"`   // Per-source filters
}

// FilterConfig configures event filtering. An event is kept when it
// matches the rules (any of them, or all with mode "and") and none of the
// exclude rules. No rules keeps everything.
type FilterConfig struct {
	Mode    string       `yaml:"mode"` // "or" or "and"
	Rules   []FilterRule `yaml:"rules"`
	Exclude []FilterRule `yaml:"exclude,omitempty"`
}

// FilterRule defines a single filter rule.
// Use exactly one of: Contains, Exact, Prefix, Suffix, or Regex. Category
// rules only take Exact, with a category name.
type FilterRule struct {
	Field           string `yaml:"field"`              // "title", "location", "category", "feed"
	Contains        string `yaml:"contains,omitempty"` // Substring match
	Exact           string `yaml:"exact,omitempty"`    // Exact string match
	Prefix          string `yaml:"prefix,omitempty"`   // Starts with
	Suffix          string `yaml:"suffix,omitempty"`   // Ends with
	Regex           string `yaml:"regex,omitempty"`    // Regular expression
	CaseInsensitive bool   `yaml:"case_insensitive"`
}

// QuoteConfig configures the quote sections of the page.
type QuoteConfig struct {
	File          string `yaml:"file,omitempty"` // YAML list of quotes, one picked per day
	RonSwanson    bool   `yaml:"ron_swanson"`
	RonSwansonURL string `yaml:"ron_swanson_url,omitempty"`
}

// FTPConfig configures the page upload. Upload is disabled when Addr is empty.
type FTPConfig struct {
	Addr          string `yaml:"addr,omitempty"` // host:port
	Username      string `yaml:"username,omitempty"`
	Password      string `yaml:"password,omitempty"`
	PasswordCmd   string `yaml:"password_cmd,omitempty"`
	PasswordParam string `yaml:"password_param,omitempty"`
	Dir           string `yaml:"dir,omitempty"`
	RemoteName    string `yaml:"remote_name,omitempty"`
}

// SSMConfig configures access to AWS SSM Parameter Store for *_param keys.
type SSMConfig struct {
	Region string `yaml:"region,omitempty"`
}

// Duration is a time.Duration read from YAML. Besides the time.ParseDuration
// syntax it accepts whole days ("2d") and weeks ("1w").
type Duration time.Duration

// UnmarshalYAML implements custom unmarshaling for duration fields.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := parseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads configuration from the default location (~/.config/dailycommute/config.yaml).
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(configDir, "dailycommute", "config.yaml"), nil
}

// DefaultOutput is the page path used when none is configured. A page
// written there is removed once uploaded.
func DefaultOutput() string {
	return filepath.Join(os.TempDir(), "dailycommute", "index.html")
}

// LoadFrom reads configuration from a specific path.
//
// A .env file in the working directory or next to the config file may
// supply the DAILYCOMMUTE_* overrides; real environment variables win.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	dotenv, err := readDotEnv(".env", filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(dotenv)

	// Apply defaults
	cfg.applyDefaults()

	// Expand paths
	cfg.Output = expandPath(cfg.Output)
	cfg.LogFile = expandPath(cfg.LogFile)
	cfg.ICSExport = expandPath(cfg.ICSExport)
	cfg.Ephemeris = expandPath(cfg.Ephemeris)
	cfg.Quotes.File = expandPath(cfg.Quotes.File)

	return &cfg, nil
}

// readDotEnv reads the given .env files, skipping missing ones. Earlier
// files take precedence.
func readDotEnv(paths ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, p := range paths {
		values, err := godotenv.Read(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		for k, v := range values {
			if _, ok := env[k]; !ok {
				env[k] = v
			}
		}
	}
	return env, nil
}

// applyEnv overrides secrets with environment variables, then with values
// from dotenv.
func (c *Config) applyEnv(dotenv map[string]string) {
	lookup := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(dotenv[key])
	}

	if v := lookup(EnvWeatherKey); v != "" {
		c.Weather.APIKey = v
	}
	if v := lookup(EnvFTPPassword); v != "" {
		c.FTP.Password = v
	}
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = "fr"
	}
	if c.Schedule == "" {
		c.Schedule = "0 6 * * *"
	}
	if c.Output == "" {
		c.Output = DefaultOutput()
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(30 * time.Second)
	}
	if c.Weather.URL == "" {
		c.Weather.URL = "https://api.pirateweather.net/forecast"
	}
	if c.Weather.Hours == 0 {
		c.Weather.Hours = 8
	}
	if c.Weather.Units == "" {
		c.Weather.Units = "si"
	}
	if c.Weather.Lang == "" {
		c.Weather.Lang = c.Language
	}
	if c.Quotes.RonSwansonURL == "" {
		c.Quotes.RonSwansonURL = "https://ron-swanson-quotes.herokuapp.com/v2/quotes"
	}
	if c.FTP.RemoteName == "" {
		c.FTP.RemoteName = "index.html"
	}
	if c.Filters.Mode == "" {
		c.Filters.Mode = "or"
	}
	if len(c.Categories) == 0 {
		c.Categories = make(map[string]calendar.Category, len(calendar.DefaultCategories))
		for name, cat := range calendar.DefaultCategories {
			c.Categories[name] = cat
		}
	}
}

// Validate reports configuration errors that would only surface mid-run.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Language != "fr" && c.Language != "en" {
		errs = append(errs, fmt.Errorf("unsupported language %q (use fr, en)", c.Language))
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid schedule %q: %w", c.Schedule, err))
	}
	if c.Weather.Lat < -90 || c.Weather.Lat > 90 || c.Weather.Lon < -180 || c.Weather.Lon > 180 {
		errs = append(errs, fmt.Errorf("weather coordinates out of range: %v,%v", c.Weather.Lat, c.Weather.Lon))
	}
	if c.Weather.Hours < 1 {
		errs = append(errs, fmt.Errorf("weather hours must be positive, got %d", c.Weather.Hours))
	}

	for i, src := range c.Sources {
		if src.Name == "" {
			errs = append(errs, fmt.Errorf("source %d: missing name", i))
		}
		switch src.Type {
		case "ics", "caldav":
			if src.URL == "" {
				errs = append(errs, fmt.Errorf("source %q: missing url", src.Name))
			}
		case "icloud":
		default:
			errs = append(errs, fmt.Errorf("source %q: unknown type %q", src.Name, src.Type))
		}
	}

	return errors.Join(errs...)
}

// Location returns the zone reports are generated in. An empty timezone
// means the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GetPassword returns the password for a source, executing password_cmd if needed.
func (s *SourceConfig) GetPassword() (string, error) {
	return secret(s.Password, s.PasswordCmd)
}

// GetPassword returns the FTP password, executing password_cmd if needed.
func (f *FTPConfig) GetPassword() (string, error) {
	return secret(f.Password, f.PasswordCmd)
}

func secret(password, passwordCmd string) (string, error) {
	if password != "" {
		return password, nil
	}
	if passwordCmd == "" {
		return "", nil
	}

	// Execute the password command
	cmd := exec.Command("sh", "-c", passwordCmd)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("execute password_cmd: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// parseDuration parses a duration string, extending time.ParseDuration
// with "d" (days) and "w" (weeks) suffixes. Negative durations are rejected.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var unit time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}

	if unit != 0 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * unit, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", s)
	}
	return d, nil
}

// ParameterGetter is the part of the SSM client used to read secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NeedsSSM reports whether any secret has to be read from Parameter Store.
func (c *Config) NeedsSSM() bool {
	if c.Weather.APIKeyParam != "" && c.Weather.APIKey == "" {
		return true
	}
	if c.FTP.PasswordParam != "" && c.FTP.Password == "" {
		return true
	}
	for _, src := range c.Sources {
		if src.PasswordParam != "" && src.Password == "" {
			return true
		}
	}
	return false
}

// NewSSMClient creates a Parameter Store client from the default AWS
// credential chain.
func (c *Config) NewSSMClient(ctx context.Context) (*ssm.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.SSM.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.SSM.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// ResolveSecrets fills every secret configured through a *_param key and not
// already set, reading it from Parameter Store.
func (c *Config) ResolveSecrets(ctx context.Context, params ParameterGetter) error {
	resolve := func(dst *string, name string) error {
		if name == "" || *dst != "" {
			return nil
		}
		v, err := getParameter(ctx, params, name)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}

	if err := resolve(&c.Weather.APIKey, c.Weather.APIKeyParam); err != nil {
		return fmt.Errorf("weather api key: %w", err)
	}
	if err := resolve(&c.FTP.Password, c.FTP.PasswordParam); err != nil {
		return fmt.Errorf("ftp password: %w", err)
	}
	for i := range c.Sources {
		src := &c.Sources[i]
		if err := resolve(&src.Password, src.PasswordParam); err != nil {
			return fmt.Errorf("source %q password: %w", src.Name, err)
		}
	}
	return nil
}

// getParameter reads one decrypted parameter.
func getParameter(ctx context.Context, params ParameterGetter, name string) (string, error) {
	out, err := params.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil || *out.Parameter.Value == "" {
		return "", fmt.Errorf("parameter %s is empty", name)
	}
	return *out.Parameter.Value, nil
}
