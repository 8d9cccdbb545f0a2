package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func TestGodotenvQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `TEAMDESK_FILTER='[Status]="Complete"'`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `[Status]="Complete"`
	if env["TEAMDESK_FILTER"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["TEAMDESK_FILTER"])
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"TEAMDESK_DOMAIN", "TEAMDESK_APP_ID", "TEAMDESK_TABLE", "TEAMDESK_VIEW",
		"TEAMDESK_PAGE_SIZE", "TEAMDESK_CONCURRENCY", "TEAMDESK_MAX_RETRIES",
		"TEAMDESK_TIMEOUT_SECONDS", "PACKHOUSE_CACHE_TTL_MS", "PACKHOUSE_ADDR", "PACKHOUSE_DATA_DIR",
	} {
		unsetEnv(t, key)
	}

	cfg := FromEnv("logs")
	if cfg.TeamDesk.Domain != "appnostic.dbflex.net" || cfg.TeamDesk.AppID != "75820" {
		t.Errorf("unexpected TeamDesk origin: %+v", cfg.TeamDesk)
	}
	if cfg.TeamDesk.Table != "Palletizing" || cfg.TeamDesk.View != "BI_Palletizing" {
		t.Errorf("unexpected table/view: %q/%q", cfg.TeamDesk.Table, cfg.TeamDesk.View)
	}
	if cfg.TeamDesk.PageSize != 500 || cfg.TeamDesk.Concurrency != 3 || cfg.TeamDesk.MaxRetries != 5 {
		t.Errorf("unexpected pagination defaults: %+v", cfg.TeamDesk)
	}
	if cfg.TeamDesk.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v", cfg.TeamDesk.Timeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.Addr != ":8080" || cfg.DataDir != "data" {
		t.Errorf("Addr/DataDir = %q/%q", cfg.Addr, cfg.DataDir)
	}
}

func TestFromEnv_Ranges(t *testing.T) {
	tests := []struct {
		key   string
		value string
		get   func(*AppConfig) int
		want  int
	}{
		{"TEAMDESK_PAGE_SIZE", "250", func(c *AppConfig) int { return c.TeamDesk.PageSize }, 250},
		{"TEAMDESK_PAGE_SIZE", "50", func(c *AppConfig) int { return c.TeamDesk.PageSize }, 500},
		{"TEAMDESK_PAGE_SIZE", "5000", func(c *AppConfig) int { return c.TeamDesk.PageSize }, 500},
		{"TEAMDESK_CONCURRENCY", "8", func(c *AppConfig) int { return c.TeamDesk.Concurrency }, 8},
		{"TEAMDESK_CONCURRENCY", "0", func(c *AppConfig) int { return c.TeamDesk.Concurrency }, 3},
		{"TEAMDESK_MAX_RETRIES", "0", func(c *AppConfig) int { return c.TeamDesk.MaxRetries }, 0},
		{"TEAMDESK_MAX_RETRIES", "9", func(c *AppConfig) int { return c.TeamDesk.MaxRetries }, 5},
		{"TEAMDESK_MAX_RETRIES", "many", func(c *AppConfig) int { return c.TeamDesk.MaxRetries }, 5},
		{"PACKHOUSE_CACHE_TTL_MS", "1000", func(c *AppConfig) int { return int(c.CacheTTL / time.Millisecond) }, 1000},
		{"PACKHOUSE_CACHE_TTL_MS", "0", func(c *AppConfig) int { return int(c.CacheTTL / time.Millisecond) }, 300000},
		{"PACKHOUSE_CACHE_TTL_MS", "-5", func(c *AppConfig) int { return int(c.CacheTTL / time.Millisecond) }, 300000},
		{"PACKHOUSE_CACHE_TTL_MS", "500.0", func(c *AppConfig) int { return int(c.CacheTTL / time.Millisecond) }, 500},
		{"PACKHOUSE_CACHE_TTL_MS", "1500.9", func(c *AppConfig) int { return int(c.CacheTTL / time.Millisecond) }, 1500},
		{"PACKHOUSE_CACHE_TTL_MS", "0.5", func(c *AppConfig) int { return int(c.CacheTTL / time.Millisecond) }, 300000},
		{"PACKHOUSE_CACHE_TTL_MS", "Infinity", func(c *AppConfig) int { return int(c.CacheTTL / time.Millisecond) }, 300000},
		{"TEAMDESK_PAGE_SIZE", " 250 ", func(c *AppConfig) int { return c.TeamDesk.PageSize }, 250},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if got := tt.get(FromEnv("")); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFromEnv_EmptyViewIsKept(t *testing.T) {
	t.Setenv("TEAMDESK_VIEW", "")
	if v := FromEnv("").TeamDesk.View; v != "" {
		t.Errorf("View = %q, want empty", v)
	}
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}
