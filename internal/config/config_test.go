package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "env: test\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env != "test" || cfg.DB.Type != "sqlite" || cfg.HTTP.Addr != ":8080" {
		t.Fatalf("cfg = %+v", cfg)
	}
	table, err := cfg.Learning.Table()
	if err != nil || table.Len() != 6 {
		t.Fatalf("Table() = %v, %v", table.Days(), err)
	}
	if cfg.Scheduler.Workers != 4 || cfg.Learning.MaxBatchSize != 200 {
		t.Fatalf("scheduler/learning = %+v / %+v", cfg.Scheduler, cfg.Learning)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
learning:
  intervals: [1, 3, 9]
  timezone: Asia/Shanghai
telegram:
  admin_ids: [42]
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "secret")
	t.Setenv("WORDTRAIL_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "secret" || len(cfg.Telegram.AdminIDs) != 1 || cfg.Telegram.AdminIDs[0] != 42 {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("http.addr = %q", cfg.HTTP.Addr)
	}
	if got := cfg.Learning.Intervals; len(got) != 3 || got[2] != 9 {
		t.Errorf("intervals = %v", got)
	}
	loc, err := cfg.Learning.Location()
	if err != nil || loc.String() != "Asia/Shanghai" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load(writeConfig(t, "env: test\n"))
	if !errors.Is(err, ErrMissingEnvironmentVariables) {
		t.Fatalf("Load() error = %v, want ErrMissingEnvironmentVariables", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]string{
		"intervals": "learning:\n  intervals: [3, 2]\n",
		"timezone":  "learning:\n  timezone: Mars/Base\n",
		"sweep":     "scheduler:\n  sweep_time: \"25:99\"\n",
		"window":    "scheduler:\n  reminder_start_hour: 20\n  reminder_end_hour: 8\n",
		"db type":   "database:\n  type: mongo\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("Load() accepted %q", body)
			}
		})
	}
}
