package util

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/propdb/lib/common"
	"github.com/ValentinKolb/propdb/lib/db"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"strings"
)

var plog = logger.GetLogger("cmd")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupDBFlags adds the database and cache flags to a command
func SetupDBFlags(cmd *cobra.Command) {
	def := common.DefaultConfig()

	key := "db"
	cmd.PersistentFlags().String(key, def.DBPath, WrapString("The database file. It is created on the first save if it does not exist"))

	key = "config"
	cmd.PersistentFlags().String(key, "", WrapString("Optional config file (yaml, json or toml) with the same keys as the flags"))

	key = "log-level"
	cmd.PersistentFlags().String(key, def.LogLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "gender-prop"
	cmd.PersistentFlags().String(key, def.GenderProp, WrapString("The gender property of players. It is mirrored with the legacy 'sex' property"))

	key = "diskbase"
	cmd.PersistentFlags().Bool(key, def.Diskbase.Enabled, WrapString("Page property trees in from the database file on demand instead of loading everything at startup"))

	key = "diskbase-lazy-values"
	cmd.PersistentFlags().Bool(key, def.Diskbase.LazyValues, WrapString("(Diskbase) Leave string and lock values on disk until they are read"))

	key = "diskbase-convert"
	cmd.PersistentFlags().Bool(key, def.Diskbase.Convert, WrapString("(Diskbase) Parse and re-serialize every property block on save instead of copying untouched blocks"))

	key = "diskbase-stale-interval"
	cmd.PersistentFlags().Duration(key, def.Diskbase.StaleInterval, WrapString("(Diskbase) Idle time after which a loaded property tree is evicted"))

	key = "diskbase-max-loaded"
	cmd.PersistentFlags().Int(key, def.Diskbase.MaxLoadedPercent, WrapString("(Diskbase) Share of all objects in percent that housekeeping keeps loaded"))

	key = "diskbase-stat-slot"
	cmd.PersistentFlags().Duration(key, def.Diskbase.StatSlot, WrapString("(Diskbase) Bucket width of the fetch statistics"))

	key = "diskbase-stat-window"
	cmd.PersistentFlags().Duration(key, def.Diskbase.StatWindow, WrapString("(Diskbase) Time span covered by the fetch statistics"))
}

// InitConfig loads env files and initializes viper
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("propdb")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper and reads the config
// file if one is given
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return nil
}

// GetConfig decodes the configuration from viper and validates it. The
// mapstructure tags of common.Config are the flag names.
func GetConfig() (*common.Config, error) {
	conf := &common.Config{}
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// SetupDB binds the flags, initializes the loggers and opens the database
// named by the configuration. A missing file yields an empty database that
// is created on the first save.
func SetupDB(cmd *cobra.Command) (*db.DB, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	conf, err := GetConfig()
	if err != nil {
		return nil, err
	}
	if err := common.InitLoggers(*conf); err != nil {
		return nil, err
	}
	plog.Debugf("configuration:%s", conf)

	d, err := db.Open(conf.DBPath, conf.ToDBOptions())
	if errors.Is(err, os.ErrNotExist) {
		plog.Infof("%s does not exist, starting with an empty database", conf.DBPath)
		return db.NewAt(conf.DBPath, conf.ToDBOptions()), nil
	}
	return d, err
}

// SaveDB writes the database back to its file and closes it
func SaveDB(d *db.DB) error {
	if err := d.Save(""); err != nil {
		return err
	}
	return d.Close()
}

// ParseRef parses an object reference argument and checks that it exists
func ParseRef(d *db.DB, arg string) (prop.DBRef, error) {
	ref, err := prop.ParseDBRef(arg)
	if err != nil {
		return prop.Nothing, err
	}
	if _, ok := d.Get(ref); !ok {
		return prop.Nothing, fmt.Errorf("%s: %w", ref, db.ErrNoSuchObject)
	}
	return ref, nil
}

// ParseAccess parses an access level name (mortal, owner, wizard)
func ParseAccess(s string) (prop.Access, error) {
	for _, a := range []prop.Access{prop.AccessMortal, prop.AccessOwner, prop.AccessWizard} {
		if strings.EqualFold(s, a.String()) {
			return a, nil
		}
	}
	return prop.AccessMortal, fmt.Errorf("invalid access level %q (expected mortal, owner or wizard)", s)
}
