// Package config loads and exposes application configuration (TOML plus environment).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath        = "config.toml"
	DefaultHTTPAddr          = ":8080"
	DefaultImgurAPIBaseURL   = "https://api.imgur.com/3/"
	DefaultImgurTokenURL     = "https://api.imgur.com/oauth2/token"
	DefaultImgurTimeout      = 60 * time.Second
	DefaultRequestsPerSecond = 5
	DefaultRequestBurst      = 5
	DefaultScratchRoot       = "."
	DefaultScratchMaxAge     = 24 * time.Hour
	DefaultSweepSchedule     = "@hourly"
)

// Config is the root application configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`
	Discord DiscordConfig `toml:"discord"`
	Imgur   ImgurConfig   `toml:"imgur"`
	Scratch ScratchConfig `toml:"scratch"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the health server listen address. Empty disables the server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DiscordConfig holds the bot token and the guild slash commands are registered in.
type DiscordConfig struct {
	Token   string `toml:"token"`
	GuildID string `toml:"guild_id"`
}

// ImgurConfig holds API credentials and client tuning for the image host.
type ImgurConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	AccessToken  string `toml:"access_token"`
	// Username is the account that owns albums the bot may modify.
	Username          string        `toml:"username"`
	APIBaseURL        string        `toml:"api_base_url"`
	TokenURL          string        `toml:"token_url"`
	Timeout           time.Duration `toml:"timeout"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Burst             int           `toml:"burst"`
	DisableAudio      bool          `toml:"disable_audio"`
}

// ScratchConfig controls where batch temp directories live and how stale ones are swept.
type ScratchConfig struct {
	Root          string        `toml:"root"`
	MaxAge        time.Duration `toml:"max_age"`
	SweepSchedule string        `toml:"sweep_schedule"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Imgur: ImgurConfig{
			APIBaseURL:        DefaultImgurAPIBaseURL,
			TokenURL:          DefaultImgurTokenURL,
			Timeout:           DefaultImgurTimeout,
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultRequestBurst,
			DisableAudio:      true,
		},
		Scratch: ScratchConfig{
			Root:          DefaultScratchRoot,
			MaxAge:        DefaultScratchMaxAge,
			SweepSchedule: DefaultSweepSchedule,
		},
	}
}

// Load reads the TOML file at path over the defaults, then applies environment overrides
// from os.Getenv. A missing file is not an error.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	applyEnv(&cfg, getenv)
	return cfg, nil
}

// Environment variable names. Lower-case names match the deployed config.env file;
// upper-case variants are accepted as well.
var envBindings = []struct {
	name  string
	field func(*Config) *string
}{
	{"discord_token", func(c *Config) *string { return &c.Discord.Token }},
	{"discord_guild_id", func(c *Config) *string { return &c.Discord.GuildID }},
	{"imgur_client_id", func(c *Config) *string { return &c.Imgur.ClientID }},
	{"imgur_client_secret", func(c *Config) *string { return &c.Imgur.ClientSecret }},
	{"imgur_refresh_token", func(c *Config) *string { return &c.Imgur.RefreshToken }},
	{"imgur_access_token", func(c *Config) *string { return &c.Imgur.AccessToken }},
	{"imgur_username", func(c *Config) *string { return &c.Imgur.Username }},
	{"http_addr", func(c *Config) *string { return &c.Server.Addr }},
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	for _, b := range envBindings {
		value := strings.TrimSpace(getenv(b.name))
		if value == "" {
			value = strings.TrimSpace(getenv(strings.ToUpper(b.name)))
		}
		if value != "" {
			*b.field(cfg) = value
		}
	}
}

// Validate reports missing values required to run the bot.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Discord.Token) == "" {
		errs = append(errs, errors.New("discord token is required"))
	}
	if err := c.Imgur.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate reports missing values required to talk to the image host.
func (c ImgurConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ClientID) == "" {
		errs = append(errs, errors.New("imgur client id is required"))
	}
	if strings.TrimSpace(c.Username) == "" {
		errs = append(errs, errors.New("imgur username is required"))
	}
	if c.RefreshToken == "" && c.AccessToken == "" {
		errs = append(errs, errors.New("imgur refresh token or access token is required"))
	}
	if c.RefreshToken != "" && c.ClientSecret == "" {
		errs = append(errs, errors.New("imgur client secret is required with a refresh token"))
	}
	return errors.Join(errs...)
}
