package daemon

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LIFEQUEST_HOME", t.TempDir())
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7420 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7420)
	}
	if cfg.Rules.DeclineFraction != 0.5 || cfg.Rules.DareWindowDays != 1 {
		t.Errorf("Rules = %+v", cfg.Rules)
	}
	if len(cfg.Rules.StreakMilestones) != 6 {
		t.Errorf("StreakMilestones = %v", cfg.Rules.StreakMilestones)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	t.Setenv("LIFEQUEST_HOME", t.TempDir())
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadConfigFile error: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("expected defaults, got port %d", cfg.API.Port)
	}
}

func TestLoadConfigFile_Overrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LIFEQUEST_HOME", home)
	t.Setenv("LIFEQUEST_USER", "")

	path := filepath.Join(home, "config.toml")
	data := `
[user]
id = "ana"

[api]
port = 9000

[rules]
timezone = "Europe/Berlin"
dark_penalty_per_day = 20
streak_milestones = [3, 10]
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile error: %v", err)
	}
	if cfg.User.ID != "ana" || cfg.API.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Rules.DarkPenaltyPerDay != 20 || len(cfg.Rules.StreakMilestones) != 2 {
		t.Errorf("rules = %+v", cfg.Rules)
	}
	if cfg.Rules.DeclineFraction != 0.5 {
		t.Errorf("untouched rule lost its default: %v", cfg.Rules.DeclineFraction)
	}
	loc, err := cfg.Rules.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	_ = os.WriteFile(path, []byte("[rules]\ntimezone = \"Mars/Olympus\"\n"), 0600)
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("unknown timezone should fail")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LIFEQUEST_HOME", home)

	cfg := DefaultConfig()
	cfg.User.ID = "bo"
	cfg.Rules.DeclineFraction = 0.25
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}
	got, err := LoadConfigFile(ConfigPath())
	if err != nil {
		t.Fatalf("LoadConfigFile error: %v", err)
	}
	if got.User.ID != "bo" || got.Rules.DeclineFraction != 0.25 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLoadConfig_Dotenv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LIFEQUEST_HOME", home)
	t.Setenv("LIFEQUEST_USER", "")
	os.Unsetenv("LIFEQUEST_USER")
	if err := os.WriteFile(filepath.Join(home, ".env"), []byte("LIFEQUEST_USER=dotenv-user\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.User.ID != "dotenv-user" {
		t.Errorf("User.ID = %q", cfg.User.ID)
	}
}

func TestParseDuration(t *testing.T) {
	if got := parseDuration("", time.Second); got != time.Second {
		t.Errorf("empty = %v", got)
	}
	if got := parseDuration("bogus", time.Second); got != time.Second {
		t.Errorf("bogus = %v", got)
	}
	if got := parseDuration("250ms", time.Second); got != 250*time.Millisecond {
		t.Errorf("250ms = %v", got)
	}
}

func TestDaemon_ServeStopsOnCancel(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LIFEQUEST_HOME", home)

	cfg := DefaultConfig()
	cfg.Store.Dir = home
	cfg.Logging.File = ""
	cfg.Logging.Console = false
	cfg.API.ShutdownGrace = "1s"

	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig error: %v", err)
	}
	defer d.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.ServeListener(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ServeListener returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ServeListener did not stop")
	}
}
