package postgres

import "testing"

func TestNewConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE"} {
		t.Setenv(key, "")
	}

	cfg := NewConfig()
	if cfg.Host != "localhost" || cfg.Port != 5432 || cfg.Database != "mktows" || cfg.SSLMode != "disable" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_USER", "mkto")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "leads")
	t.Setenv("DB_SSLMODE", "require")

	cfg := NewConfig()
	want := "host=db.internal port=6432 user=mkto password=s3cret dbname=leads sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNewConfig_BadPort(t *testing.T) {
	t.Setenv("DB_PORT", "postgres")
	if cfg := NewConfig(); cfg.Port != 5432 {
		t.Errorf("expected fallback port 5432, got %d", cfg.Port)
	}
}
