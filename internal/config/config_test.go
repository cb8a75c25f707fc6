package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/cpuguy83/dailycommute/internal/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		// Days
		{"1d", 24 * time.Hour, false},
		{"14d", 14 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},

		// Weeks
		{"1w", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"4w", 28 * 24 * time.Hour, false},

		// Standard Go durations
		{"5m", 5 * time.Minute, false},
		{"1h", time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"336h", 14 * 24 * time.Hour, false},
		{"1h30m", time.Hour + 30*time.Minute, false},

		// Edge cases
		{"0d", 0, false},
		{"0w", 0, false},
		{"", 0, false},
		{"  14d  ", 14 * 24 * time.Hour, false},

		// Errors
		{"invalid", 0, true},
		{"d", 0, true},
		{"w", 0, true},
		{"14x", 0, true},
		{"-1d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

// MockSSMClient is a ParameterGetter for tests.
type MockSSMClient struct {
	mock.Mock
}

func (m *MockSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssm.GetParameterOutput), args.Error(1)
}

func paramNamed(name string) any {
	return mock.MatchedBy(func(input *ssm.GetParameterInput) bool {
		return *input.Name == name && *input.WithDecryption
	})
}

func paramValue(v string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvWeatherKey, "")
	t.Setenv(EnvFTPPassword, "")
}

func TestLoadFrom(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
timezone: Europe/Paris
language: en
timeout: 1m
weather:
  api_key: abc
  lat: 48.85
  lon: 2.35
sources:
  - name: Family
    type: icloud
    username: me@example.com
    password: secret
    calendars: [Agenda, Birthdays]
  - name: Holidays
    type: ics
    url: https://example.com/holidays.ics
    filters:
      rules:
        - field: title
          contains: Bank
      exclude:
        - field: title
          prefix: "Canceled:"
categories:
  Agenda: perso
  Birthdays: bday
  Holidays: holiday
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Europe/Paris", cfg.Timezone)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, time.Minute, cfg.Timeout.Std())
	assert.Equal(t, 48.85, cfg.Weather.Lat)
	assert.Len(t, cfg.Sources, 2)
	assert.Equal(t, []string{"Agenda", "Birthdays"}, cfg.Sources[0].Calendars)
	assert.Equal(t, "Bank", cfg.Sources[1].Filters.Rules[0].Contains)
	assert.Equal(t, "Canceled:", cfg.Sources[1].Filters.Exclude[0].Prefix)
	assert.Equal(t, map[string]calendar.Category{
		"Agenda":    calendar.CategoryPersonal,
		"Birthdays": calendar.CategoryBirthday,
		"Holidays":  calendar.CategoryHoliday,
	}, cfg.Categories)

	// Defaults
	assert.Equal(t, "0 6 * * *", cfg.Schedule)
	assert.Equal(t, 8, cfg.Weather.Hours)
	assert.Equal(t, "en", cfg.Weather.Lang)
	assert.Equal(t, "index.html", cfg.FTP.RemoteName)
	assert.Equal(t, "or", cfg.Filters.Mode)
	assert.NotEmpty(t, cfg.Output)
}

func TestLoadFrom_DefaultCategories(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(writeConfig(t, "language: fr\n"))
	require.NoError(t, err)
	assert.Equal(t, calendar.CategoryWork, cfg.Categories["Work"])
	assert.Len(t, cfg.Categories, len(calendar.DefaultCategories))

	// The defaults are a copy.
	cfg.Categories["Work"] = calendar.CategoryUnknown
	assert.Equal(t, calendar.CategoryWork, calendar.DefaultCategories["Work"])
}

func TestLoadFrom_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFrom(writeConfig(t, "categories:\n  Work: meetings\n"))
	assert.Error(t, err)

	_, err = LoadFrom(writeConfig(t, "timeout: soon\n"))
	assert.Error(t, err)
}

func TestLoadFrom_DotEnv(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "weather:\n  api_key: from-file\n")
	envFile := filepath.Join(filepath.Dir(path), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvWeatherKey+"=from-dotenv\n"+EnvFTPPassword+"=ftp-dotenv\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Weather.APIKey)
	assert.Equal(t, "ftp-dotenv", cfg.FTP.Password)

	// Real environment variables take precedence over .env.
	t.Setenv(EnvWeatherKey, "from-env")
	cfg, err = LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Weather.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Timezone: "Europe/Paris"}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "local timezone", mutate: func(c *Config) { c.Timezone = "" }},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "Mars/Olympus"},
		{name: "bad language", mutate: func(c *Config) { c.Language = "de" }, wantErr: "language"},
		{name: "bad schedule", mutate: func(c *Config) { c.Schedule = "every morning" }, wantErr: "schedule"},
		{name: "bad latitude", mutate: func(c *Config) { c.Weather.Lat = 91 }, wantErr: "coordinates"},
		{name: "bad hours", mutate: func(c *Config) { c.Weather.Hours = -1 }, wantErr: "hours"},
		{
			name:    "source without url",
			mutate:  func(c *Config) { c.Sources = []SourceConfig{{Name: "Work", Type: "caldav"}} },
			wantErr: "missing url",
		},
		{
			name:    "unknown source type",
			mutate:  func(c *Config) { c.Sources = []SourceConfig{{Name: "Work", Type: "ms365"}} },
			wantErr: "unknown type",
		},
		{
			name:   "icloud needs no url",
			mutate: func(c *Config) { c.Sources = []SourceConfig{{Name: "Family", Type: "icloud"}} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetPassword(t *testing.T) {
	src := SourceConfig{Password: "inline", PasswordCmd: "echo ignored"}
	got, err := src.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	ftp := FTPConfig{PasswordCmd: "echo '  from-cmd  '"}
	got, err = ftp.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "from-cmd", got)

	src = SourceConfig{PasswordCmd: "exit 3"}
	_, err = src.GetPassword()
	assert.Error(t, err)

	got, err = (&SourceConfig{}).GetPassword()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveSecrets(t *testing.T) {
	cfg := &Config{
		Weather: WeatherConfig{APIKeyParam: "/dailycommute/weather-key"},
		FTP:     FTPConfig{PasswordParam: "/dailycommute/ftp", Password: "already-set"},
		Sources: []SourceConfig{
			{Name: "Family", PasswordParam: "/dailycommute/icloud"},
			{Name: "Holidays"},
		},
	}
	require.True(t, cfg.NeedsSSM())

	mockSSM := new(MockSSMClient)
	mockSSM.On("GetParameter", mock.Anything, paramNamed("/dailycommute/weather-key")).Return(paramValue("wkey"), nil)
	mockSSM.On("GetParameter", mock.Anything, paramNamed("/dailycommute/icloud")).Return(paramValue("app-password"), nil)

	require.NoError(t, cfg.ResolveSecrets(context.Background(), mockSSM))

	assert.Equal(t, "wkey", cfg.Weather.APIKey)
	assert.Equal(t, "already-set", cfg.FTP.Password)
	assert.Equal(t, "app-password", cfg.Sources[0].Password)
	assert.Empty(t, cfg.Sources[1].Password)
	assert.False(t, cfg.NeedsSSM())
	mockSSM.AssertExpectations(t)
}

func TestResolveSecrets_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		mockSSM := new(MockSSMClient)
		mockSSM.On("GetParameter", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

		cfg := &Config{FTP: FTPConfig{PasswordParam: "/dailycommute/ftp"}}
		err := cfg.ResolveSecrets(context.Background(), mockSSM)
		assert.ErrorContains(t, err, "ftp password")
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("empty value", func(t *testing.T) {
		mockSSM := new(MockSSMClient)
		mockSSM.On("GetParameter", mock.Anything, mock.Anything).Return(paramValue(""), nil)

		cfg := &Config{Sources: []SourceConfig{{Name: "Work", PasswordParam: "/dailycommute/work"}}}
		err := cfg.ResolveSecrets(context.Background(), mockSSM)
		assert.ErrorContains(t, err, "is empty")
	})
}
