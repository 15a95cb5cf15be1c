package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", c.Server.Port)
	}
	if c.Cache.MaxSize != 2048 || c.Cache.OHLCVTTL != 300*time.Second || c.Cache.TickerTTL != 15*time.Second {
		t.Fatalf("cache defaults wrong: %+v", c.Cache)
	}
	if c.Archive.Backend != "none" {
		t.Fatalf("archive backend = %q, want none", c.Archive.Backend)
	}
	if len(c.Analysis.QualityTimeframes) != 3 {
		t.Fatalf("quality timeframes = %v", c.Analysis.QualityTimeframes)
	}
}

func TestValidateRejectsBadArchiveBackend(t *testing.T) {
	path := writeConfig(t, "environment: test\narchive:\n  backend: s3\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateRequiresSymbolsForStream(t *testing.T) {
	path := writeConfig(t, "environment: test\nexchange:\n  stream_enabled: true\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for empty symbols")
	}
}

func TestValidateAggregateRequiresNotify(t *testing.T) {
	path := writeConfig(t, "environment: test\nlog:\n  aggregate:\n    enabled: true\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error: aggregation needs the kafka producer")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SYMBOLS", "BTC/USDT,ETH/USDT")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", c.Server.Port)
	}
	if len(c.Exchange.Symbols) != 2 {
		t.Fatalf("symbols = %v", c.Exchange.Symbols)
	}
}
