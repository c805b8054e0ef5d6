// Package config loads the club configuration of nuliga-helper.
//
// The configuration is a YAML document with the club identity, the halls to
// watch, roster column names, notification recipients and every message
// template. Credentials can live in the document or in the environment; an
// optional .env file is loaded first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the validated configuration of one club
type Config struct {
	Club         ClubConfig      `yaml:"club"`
	League       LeagueConfig    `yaml:"league"`
	Mail         MailConfig      `yaml:"mail"`
	SMS          SMSConfig       `yaml:"sms"`
	Storage      StorageConfig   `yaml:"storage"`
	Columns      Columns         `yaml:"columns"`
	Coordinators []Recipient     `yaml:"referee_coordinators"`
	Newspaper    NewspaperConfig `yaml:"newspaper"`
	Texts        Texts           `yaml:"texts"`
}

// ClubConfig identifies the club on the league website
type ClubConfig struct {
	Name  string   `yaml:"name"`
	ID    string   `yaml:"id"`
	Halls []string `yaml:"halls"`
}

// LeagueConfig points at the league website
type LeagueConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
	Retries int    `yaml:"retries"`
}

// MailConfig holds the SMTP server and the sender accounts
type MailConfig struct {
	SMTPHost string    `yaml:"smtp_host"`
	SMTPPort int       `yaml:"smtp_port"`
	Default  Account   `yaml:"default"`
	Service  Account   `yaml:"service"`
	Operator Recipient `yaml:"operator"`
}

// Account is a mailbox messages are sent from
type Account struct {
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Login returns the SMTP user name, which defaults to the address
func (a Account) Login() string {
	if a.Username != "" {
		return a.Username
	}
	return a.Address
}

// SMSConfig holds the Twilio account used for text messages
type SMSConfig struct {
	AccountSID          string `yaml:"account_sid"`
	AuthToken           string `yaml:"auth_token"`
	From                string `yaml:"from"`
	MessagingServiceSID string `yaml:"messaging_service_sid"`
	BaseURL             string `yaml:"base_url"`
}

// Enabled reports whether SMS credentials are configured
func (s SMSConfig) Enabled() bool {
	return s.AccountSID != "" && s.AuthToken != ""
}

// StorageConfig points at the S3-compatible bucket holding the roster
type StorageConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Enabled reports whether the roster is kept in cloud storage
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// Recipient is a named contact outside the roster
type Recipient struct {
	Name    string `yaml:"name"`
	Contact string `yaml:"contact"`
}

// NewspaperConfig controls the weekly article for the local newspaper
type NewspaperConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Name        string            `yaml:"name"`
	Address     string            `yaml:"address"`
	Categories  map[string]string `yaml:"categories"`
	Tournaments map[string]string `yaml:"tournaments"`
}

// Load reads the configuration file at path. Environment files are loaded
// first when they exist; variables already set in the environment win.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document and fills in defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Mail.Default.Password = getEnv("NULIGA_MAIL_PASSWORD", c.Mail.Default.Password)
	c.Mail.Service.Password = getEnv("NULIGA_SERVICE_MAIL_PASSWORD", c.Mail.Service.Password)
	if c.Mail.Service.Password == "" && c.Mail.Service.Login() == c.Mail.Default.Login() {
		c.Mail.Service.Password = c.Mail.Default.Password
	}
	c.SMS.AccountSID = getEnv("TWILIO_ACCOUNT_SID", c.SMS.AccountSID)
	c.SMS.AuthToken = getEnv("TWILIO_AUTH_TOKEN", c.SMS.AuthToken)
	c.Storage.AccessKeyID = getEnv("NULIGA_S3_ACCESS_KEY_ID", c.Storage.AccessKeyID)
	c.Storage.SecretAccessKey = getEnv("NULIGA_S3_SECRET_ACCESS_KEY", c.Storage.SecretAccessKey)
	if port := os.Getenv("NULIGA_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Mail.SMTPPort = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.League.URL == "" {
		c.League.URL = DefaultLeagueURL
	}
	if c.League.Timeout == "" {
		c.League.Timeout = "30s"
	}
	if c.League.Retries == 0 {
		c.League.Retries = 3
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = 465
	}
	if c.Mail.Service.Address == "" {
		c.Mail.Service = c.Mail.Default
	}
	if c.Mail.Operator.Contact == "" {
		c.Mail.Operator = Recipient{Name: c.Mail.Default.Name, Contact: c.Mail.Default.Address}
	}
	if c.SMS.BaseURL == "" {
		c.SMS.BaseURL = DefaultTwilioURL
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "auto"
	}
	c.Columns.applyDefaults()
	c.Texts.applyDefaults()
	if c.Newspaper.Categories == nil {
		c.Newspaper.Categories = map[string]string{"F": "Damen", "M": "Herren"}
	}
	if c.Newspaper.Tournaments == nil {
		c.Newspaper.Tournaments = map[string]string{
			"MI": "Spielfest der Minis",
			"GE": "Turnier der gemischten E-Jugend",
		}
	}
}

// LeagueTimeout returns the HTTP timeout for the league website
func (c *Config) LeagueTimeout() time.Duration {
	d, err := time.ParseDuration(c.League.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if c.Club.ID == "" {
		return fmt.Errorf("club.id is required")
	}
	if len(c.Club.Halls) == 0 {
		return fmt.Errorf("club.halls needs at least one hall")
	}
	if _, err := time.ParseDuration(c.League.Timeout); err != nil {
		return fmt.Errorf("invalid league.timeout: %w", err)
	}
	if c.Mail.SMTPHost == "" {
		return fmt.Errorf("mail.smtp_host is required")
	}
	if c.Mail.Default.Address == "" {
		return fmt.Errorf("mail.default.address is required")
	}
	if c.Storage.Enabled() && c.Storage.Endpoint == "" {
		return fmt.Errorf("storage.endpoint is required when storage.bucket is set")
	}
	for i, coord := range c.Coordinators {
		if coord.Name == "" {
			return fmt.Errorf("referee_coordinators[%d].name is required", i)
		}
	}
	if c.Newspaper.Enabled {
		if c.Newspaper.Address == "" {
			return fmt.Errorf("newspaper.address is required when the newspaper article is enabled")
		}
		if c.Texts.Newspaper.Mail == "" {
			return fmt.Errorf("texts.newspaper.mail is required when the newspaper article is enabled")
		}
	}
	if err := c.Columns.validate(); err != nil {
		return err
	}
	return c.Texts.validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
