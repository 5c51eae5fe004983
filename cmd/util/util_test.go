package util

import (
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/spf13/viper"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	wrapped := WrapString(text)

	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > Wrap {
			t.Errorf("Expected lines of at most %d characters, got %d: %q", Wrap, len(line), line)
		}
	}
	if strings.Join(strings.Fields(wrapped), " ") != strings.TrimSpace(text) {
		t.Errorf("Expected wrapping to keep every word")
	}
	if WrapString("") != "" {
		t.Errorf("Expected empty text to stay empty")
	}
}

func TestParseAccess(t *testing.T) {
	tests := []struct {
		in   string
		want prop.Access
		ok   bool
	}{
		{"mortal", prop.AccessMortal, true},
		{"Owner", prop.AccessOwner, true},
		{"WIZARD", prop.AccessWizard, true},
		{"god", prop.AccessMortal, false},
	}
	for _, tt := range tests {
		got, err := ParseAccess(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseAccess(%q): expected ok=%v, got error %v", tt.in, tt.ok, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAccess(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestGetConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("db", "test.db")
	viper.Set("gender-prop", "pronouns")
	viper.Set("log-level", "debug")
	viper.Set("diskbase", true)
	viper.Set("diskbase-lazy-values", true)
	viper.Set("diskbase-stale-interval", "5m")
	viper.Set("diskbase-max-loaded", 30)
	viper.Set("diskbase-stat-slot", "10s")
	viper.Set("diskbase-stat-window", "1h")

	conf, err := GetConfig()
	if err != nil {
		t.Fatalf("Expected a valid configuration, got %v", err)
	}
	if conf.DBPath != "test.db" || conf.GenderProp != "pronouns" {
		t.Errorf("Expected database settings to be read, got %+v", conf)
	}
	if !conf.Diskbase.Enabled || conf.Diskbase.MaxLoadedPercent != 30 {
		t.Errorf("Expected diskbase settings to be read, got %+v", conf.Diskbase)
	}
	if !conf.Diskbase.LazyValues || conf.Diskbase.StatWindow != time.Hour {
		t.Errorf("Expected lazy values and a 1h window, got %+v", conf.Diskbase)
	}
	if conf.Diskbase.StaleInterval != 5*time.Minute {
		t.Errorf("Expected stale interval of 5m, got %s", conf.Diskbase.StaleInterval)
	}

	// out of range
	viper.Set("diskbase-max-loaded", 0)
	if _, err := GetConfig(); err == nil {
		t.Errorf("Expected an error for a max loaded share of 0")
	}
}

func TestGetConfigFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	file := filepath.Join(t.TempDir(), "propdb.yaml")
	content := "db: muck.db\n" +
		"gender-prop: pronouns\n" +
		"log-level: warn\n" +
		"diskbase: false\n" +
		"diskbase-max-loaded: 40\n" +
		"diskbase-stat-slot: 30s\n" +
		"diskbase-stat-window: 2h\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	viper.SetConfigFile(file)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	conf, err := GetConfig()
	if err != nil {
		t.Fatalf("Expected a valid configuration, got %v", err)
	}
	if conf.DBPath != "muck.db" || conf.LogLevel != "warn" {
		t.Errorf("Expected the file settings to be used, got %+v", conf)
	}
	if conf.Diskbase.Enabled || conf.Diskbase.MaxLoadedPercent != 40 {
		t.Errorf("Expected diskbase off with a 40%% share, got %+v", conf.Diskbase)
	}
	if conf.Diskbase.StatSlot != 30*time.Second || conf.Diskbase.StatWindow != 2*time.Hour {
		t.Errorf("Expected 30s slots over 2h, got %s and %s", conf.Diskbase.StatSlot, conf.Diskbase.StatWindow)
	}
}
