package common

import (
	"bytes"
	"github.com/lni/dragonboat/v4/logger"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.LogLevel
	}{
		{"debug", logger.DEBUG},
		{"INFO", logger.INFO},
		{"warn", logger.WARNING},
		{"Warning", logger.WARNING},
		{"error", logger.ERROR},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("Expected %q to parse as %v, got %v (%v)", tt.in, tt.want, got, err)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Errorf("Expected an invalid level to fail")
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	old := output
	output = &buf
	defer func() { output = old }()

	l := CreateLogger("diskbase")
	l.Infof("loaded %d objects", 3)
	l.Debugf("hidden at info level")

	got := buf.String()
	if !strings.Contains(got, "INFO  | diskbase   | loaded 3 objects") {
		t.Errorf("Expected a formatted info line, got %q", got)
	}
	if strings.Contains(got, "hidden") {
		t.Errorf("Expected debug output to be suppressed, got %q", got)
	}

	buf.Reset()
	l.SetLevel(logger.ERROR)
	l.Warningf("suppressed")
	l.Errorf("broken")
	got = buf.String()
	if strings.Contains(got, "suppressed") || !strings.Contains(got, "ERROR | diskbase   | broken") {
		t.Errorf("Expected only the error line, got %q", got)
	}
}

func TestInitLoggers(t *testing.T) {
	c := DefaultConfig()
	c.LogLevel = "nonsense"
	if err := InitLoggers(c); err == nil {
		t.Errorf("Expected an invalid level to be rejected")
	}
	c.LogLevel = "warn"
	if err := InitLoggers(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	c.LogLevel = "debug"
	if err := InitLoggers(c); err != nil {
		t.Errorf("Expected a second call to change the level, got %v", err)
	}
}

func TestPanicf(t *testing.T) {
	var buf bytes.Buffer
	old := output
	output = &buf
	defer func() { output = old }()

	l := CreateLogger("db")
	l.SetLevel(logger.ERROR)
	defer func() {
		r := recover()
		if r != "bad block 7" {
			t.Errorf("Expected a panic with the message, got %v", r)
		}
		if !strings.Contains(buf.String(), "PANIC | db         | bad block 7") {
			t.Errorf("Expected the panic to be logged, got %q", buf.String())
		}
	}()
	l.Panicf("bad block %d", 7)
}
