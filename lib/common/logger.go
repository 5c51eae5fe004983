package common

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Levels
// --------------------------------------------------------------------------

// levelNames are the accepted spellings of the --log-level flag
var levelNames = map[string]logger.LogLevel{
	"debug":   logger.DEBUG,
	"info":    logger.INFO,
	"warn":    logger.WARNING,
	"warning": logger.WARNING,
	"error":   logger.ERROR,
}

// levelTags are written in front of every line
var levelTags = map[logger.LogLevel]string{
	logger.CRITICAL: "PANIC",
	logger.ERROR:    "ERROR",
	logger.WARNING:  "WARN",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DEBUG",
}

// ParseLogLevel converts a level name to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	if l, ok := levelNames[strings.ToLower(level)]; ok {
		return l, nil
	}
	return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
}

// --------------------------------------------------------------------------
// Line Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// lineLogger writes one "LEVEL | package | message" line per call
type lineLogger struct {
	pkg   string
	level logger.LogLevel
	out   *log.Logger
}

func (l *lineLogger) SetLevel(level logger.LogLevel) { l.level = level }

func (l *lineLogger) Debugf(format string, args ...interface{}) { l.logf(logger.DEBUG, format, args) }
func (l *lineLogger) Infof(format string, args ...interface{})  { l.logf(logger.INFO, format, args) }
func (l *lineLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, format, args)
}
func (l *lineLogger) Errorf(format string, args ...interface{}) { l.logf(logger.ERROR, format, args) }

// Panicf logs at every level and panics with the message
func (l *lineLogger) Panicf(format string, args ...interface{}) {
	panic(l.logf(logger.CRITICAL, format, args))
}

// logf writes the message if level is enabled and returns it either way.
// Lower dragonboat levels are more severe.
func (l *lineLogger) logf(level logger.LogLevel, format string, args []interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if level <= l.level {
		l.out.Printf("%-5s | %-10s | %s", levelTags[level], l.pkg, msg)
	}
	return msg
}

// --------------------------------------------------------------------------
// Factory
// --------------------------------------------------------------------------

// output is where every logger created by CreateLogger writes to
var output io.Writer = os.Stderr

// CreateLogger implements dragonboat's logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &lineLogger{
		pkg:   pkgName,
		level: logger.INFO,
		out:   log.New(output, "", log.Ldate|log.Ltime),
	}
}

// Loggers are the names the propdb packages pass to logger.GetLogger
var Loggers = []string{"prop", "propfile", "diskbase", "store", "db", "cmd"}

// dragonboat panics when the factory is set twice
var installFactory sync.Once

// InitLoggers installs CreateLogger as the dragonboat logger factory and
// sets the configured level on every logger in Loggers. It may be called
// again to change the level.
func InitLoggers(config Config) error {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}
	installFactory.Do(func() { logger.SetLoggerFactory(CreateLogger) })
	for _, name := range Loggers {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}
