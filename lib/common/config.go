package common

import (
	"fmt"
	"github.com/ValentinKolb/propdb/lib/boolexp"
	"github.com/ValentinKolb/propdb/lib/db"
	"github.com/ValentinKolb/propdb/lib/diskbase"
	"github.com/ValentinKolb/propdb/lib/store"
	"github.com/go-playground/validator/v10"
	"strconv"
	"strings"
	"time"
)

// validate is the singleton validator instance
var validate = validator.New()

// --------------------------------------------------------------------------
// Configuration structs
// --------------------------------------------------------------------------

// DiskbaseConfig holds the settings of the property cache. It is squashed
// into Config, so its keys are the flat flag names.
type DiskbaseConfig struct {
	// Enabled pages property trees in from the database file on demand
	Enabled bool `mapstructure:"diskbase"`
	// LazyValues leaves string and lock values on disk until they are read
	LazyValues bool `mapstructure:"diskbase-lazy-values"`
	// Convert re-serializes every property block on save
	Convert bool `mapstructure:"diskbase-convert"`
	// StaleInterval is the idle time after which a resident tree is evicted
	StaleInterval time.Duration `mapstructure:"diskbase-stale-interval" validate:"min=0"`
	// MaxLoadedPercent is the share of tracked objects housekeeping keeps loaded
	MaxLoadedPercent int `mapstructure:"diskbase-max-loaded" validate:"min=1,max=100"`
	// StatSlot is the bucket width of the fetch statistics
	StatSlot time.Duration `mapstructure:"diskbase-stat-slot" validate:"gt=0"`
	// StatWindow is the time span covered by the fetch statistics
	StatWindow time.Duration `mapstructure:"diskbase-stat-window" validate:"gtefield=StatSlot"`
}

// Config holds all configuration parameters of a database instance
type Config struct {
	// DBPath is the database file
	DBPath string `mapstructure:"db" validate:"required"`
	// GenderProp is the property mirrored with the legacy "sex" property
	GenderProp string `mapstructure:"gender-prop" validate:"required,excludesall=:/"`
	// LogLevel is the level at which logs are written
	LogLevel string `mapstructure:"log-level" validate:"required,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`

	Diskbase DiskbaseConfig `mapstructure:",squash"`
}

// DefaultConfig returns a configuration with the default cache settings
func DefaultConfig() Config {
	opts := diskbase.DefaultOptions()
	return Config{
		DBPath:     "world.db",
		GenderProp: store.DefaultGenderProp,
		LogLevel:   "info",
		Diskbase: DiskbaseConfig{
			Enabled:          true,
			LazyValues:       opts.LazyValues,
			Convert:          opts.Convert,
			StaleInterval:    opts.StaleInterval,
			MaxLoadedPercent: opts.MaxLoadedPercent,
			StatSlot:         opts.StatSlot,
			StatWindow:       opts.StatWindow,
		},
	}
}

// Validate checks the configuration using its struct tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

// --------------------------------------------------------------------------
// Conversion
// --------------------------------------------------------------------------

// ToCacheOptions converts the diskbase settings to cache options
func (c *DiskbaseConfig) ToCacheOptions() diskbase.Options {
	return diskbase.Options{
		LazyValues:       c.LazyValues,
		Convert:          c.Convert,
		StaleInterval:    c.StaleInterval,
		MaxLoadedPercent: c.MaxLoadedPercent,
		StatSlot:         c.StatSlot,
		StatWindow:       c.StatWindow,
		LockParser:       boolexp.ParseLock,
	}
}

// ToDBOptions converts the configuration to database options
func (c *Config) ToDBOptions() db.Options {
	return db.Options{
		Diskbase: c.Diskbase.Enabled,
		Cache:    c.Diskbase.ToCacheOptions(),
		Store:    store.Options{GenderProp: c.GenderProp},
	}
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Database")
	addField("File", c.DBPath)
	addField("Gender Property", c.GenderProp)

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Diskbase")
	addField("Enabled", strconv.FormatBool(c.Diskbase.Enabled))
	if c.Diskbase.Enabled {
		addField("Lazy Values", strconv.FormatBool(c.Diskbase.LazyValues))
		addField("Convert", strconv.FormatBool(c.Diskbase.Convert))
		addField("Stale Interval", c.Diskbase.StaleInterval.String())
		addField("Max Loaded", fmt.Sprintf("%d %%", c.Diskbase.MaxLoadedPercent))
		addField("Stat Slot", c.Diskbase.StatSlot.String())
		addField("Stat Window", c.Diskbase.StatWindow.String())
	}
	return sb.String()
}
