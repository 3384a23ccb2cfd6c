package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/username/refuse-schedule/internal/resolver"
	"github.com/username/refuse-schedule/internal/weekday"
)

const (
	DefaultHolidayURL         = "https://www.delawareohio.net/home/showpublisheddocument/4148/638689880014270000"
	DefaultUpdateIntervalDays = 90
	DefaultDaysAhead          = 90
	DefaultCalendarName       = "Delaware OH Refuse Schedule"
)

// Config represents application configuration
type Config struct {
	Address       string         `mapstructure:"address"`
	CollectionDay string         `mapstructure:"collection_day"` // skips the resolver when set
	Resolver      ResolverConfig `mapstructure:"resolver"`
	Holidays      HolidayConfig  `mapstructure:"holidays"`
	Schedule      ScheduleConfig `mapstructure:"schedule"`
	Server        ServerConfig   `mapstructure:"server"`
	Logging       LoggingConfig  `mapstructure:"logging"`
}

// ResolverConfig represents the ArcGIS address lookup configuration
type ResolverConfig struct {
	GeocodeURL string `mapstructure:"geocode_url"`
	LayerURL   string `mapstructure:"layer_url"`
	City       string `mapstructure:"city"`
	State      string `mapstructure:"state"`
	Timeout    string `mapstructure:"timeout"`
}

// HolidayConfig represents the holiday document configuration
type HolidayConfig struct {
	URL       string `mapstructure:"url"`
	File      string `mapstructure:"file"` // used when URL is empty, or as fallback when it fails
	Timeout   string `mapstructure:"timeout"`
	StateFile string `mapstructure:"state_file"`
}

// ScheduleConfig represents event generation configuration
type ScheduleConfig struct {
	DaysAhead          int `mapstructure:"days_ahead"`
	UpdateIntervalDays int `mapstructure:"update_interval_days"`
}

// ServerConfig represents the calendar feed server configuration
type ServerConfig struct {
	Listen       string `mapstructure:"listen"` // empty disables the server
	CalendarName string `mapstructure:"calendar_name"`
	PublishedTTL string `mapstructure:"published_ttl"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", "")
	v.SetDefault("collection_day", "")

	v.SetDefault("resolver.geocode_url", resolver.DefaultGeocodeURL)
	v.SetDefault("resolver.layer_url", resolver.DefaultLayerURL)
	v.SetDefault("resolver.city", "Delaware")
	v.SetDefault("resolver.state", "OH")
	v.SetDefault("resolver.timeout", "30s")

	v.SetDefault("holidays.url", DefaultHolidayURL)
	v.SetDefault("holidays.file", "")
	v.SetDefault("holidays.timeout", "30s")
	v.SetDefault("holidays.state_file", "data/holidays.json")

	v.SetDefault("schedule.days_ahead", DefaultDaysAhead)
	v.SetDefault("schedule.update_interval_days", DefaultUpdateIntervalDays)

	v.SetDefault("server.listen", "")
	v.SetDefault("server.calendar_name", DefaultCalendarName)
	v.SetDefault("server.published_ttl", "PT12H")

	v.SetDefault("logging.file", "")
	v.SetDefault("logging.level", "info")
}

// Load loads configuration from file and REFUSE_* environment variables.
// With an empty path the standard locations are searched and a missing file is not an error.
func Load(configPath string) (*Config, error) {
	config, err := read(configPath)
	if err != nil {
		return nil, err
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// LoadUnvalidated loads configuration like Load but skips validation.
// Used by commands that take the address or the holiday document as arguments.
func LoadUnvalidated(configPath string) (*Config, error) {
	return read(configPath)
}

func read(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.refuse-schedule")
		v.AddConfigPath("/etc/refuse-schedule")
	}

	// Read environment variables: REFUSE_ADDRESS, REFUSE_SCHEDULE_DAYS_AHEAD, ...
	v.SetEnvPrefix("REFUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("address is required")
	}
	if c.CollectionDay != "" {
		day, err := weekday.Parse(c.CollectionDay)
		if err != nil {
			return fmt.Errorf("collection_day: %w", err)
		}
		c.CollectionDay = day.String()
	}

	if c.Schedule.UpdateIntervalDays < 1 || c.Schedule.UpdateIntervalDays > 365 {
		return fmt.Errorf("schedule.update_interval_days must be between 1 and 365, got %d", c.Schedule.UpdateIntervalDays)
	}
	if c.Schedule.DaysAhead <= 0 {
		return fmt.Errorf("schedule.days_ahead must be positive")
	}

	if c.Holidays.URL == "" && c.Holidays.File == "" {
		return fmt.Errorf("holidays.url or holidays.file is required")
	}

	return nil
}

// GetTimeout returns the resolver HTTP timeout
func (c *ResolverConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GetTimeout returns the holiday document download timeout
func (c *HolidayConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GetUpdateInterval returns the refresh interval as a duration
func (c *ScheduleConfig) GetUpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalDays) * 24 * time.Hour
}

// GetCollectionDay returns the configured collection day, or empty if the resolver should be used
func (c *Config) GetCollectionDay() weekday.Name {
	return weekday.Name(c.CollectionDay)
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Address = os.ExpandEnv(c.Address)
	c.Holidays.File = os.ExpandEnv(c.Holidays.File)
	c.Holidays.StateFile = os.ExpandEnv(c.Holidays.StateFile)
	c.Logging.File = os.ExpandEnv(c.Logging.File)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
