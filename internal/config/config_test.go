package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/ecomenu/internal/dataset"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ECOMENU_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ECOMENU_MODEL", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Model != "gpt-3.5-turbo" || c.Temperature != 0.7 || c.MaxTokens != 500 {
		t.Fatalf("unexpected model defaults: %+v", c)
	}
	if c.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("base_url=%s", c.BaseURL)
	}
	if c.RetryMaxAttempts != 1 || c.HTTPTimeoutSec != 0 {
		t.Fatalf("retry must be opt-in: attempts=%d timeout=%d", c.RetryMaxAttempts, c.HTTPTimeoutSec)
	}
	if c.ServerAddr != "127.0.0.1:8501" || c.TopN != 10 || c.SnippetLimit != 5 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.APIKey != "" {
		t.Fatalf("api key should be empty")
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.APIKey != "sk-openai" {
		t.Fatalf("api_key=%q", c.APIKey)
	}
	t.Setenv("ECOMENU_API_KEY", "sk-eco")
	c, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.APIKey != "sk-eco" {
		t.Fatalf("ECOMENU_API_KEY should win, got %q", c.APIKey)
	}
}

func TestSaveThenLoadRoundTripsFile(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range map[string]string{
		"model":                  "gpt-4o-mini",
		"delimiter":              ";",
		"decimal_separator":      "comma",
		"keywords":               "quinoa, lentilles",
		"columns.climate_impact": "CO2",
		"retry_max_attempts":     "3",
		"http_timeout_sec":       "30",
	} {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	if err := Save(c, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, DirName, "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != "gpt-4o-mini" || got.Delimiter != ";" || got.RetryMaxAttempts != 3 {
		t.Fatalf("reloaded: %+v", got)
	}
	if len(got.Keywords) != 2 || got.Keywords[1] != "lentilles" {
		t.Fatalf("keywords=%v", got.Keywords)
	}
	opt := got.DatasetOptions()
	if opt.Delimiter != ';' || opt.DecimalSeparator != ',' || opt.Headers[dataset.ColClimateImpact] != "CO2" {
		t.Fatalf("dataset options: %+v", opt)
	}
	ao := got.AssistantOptions()
	if ao.HTTPTimeout != 30*time.Second || ao.RetryMaxAttempts != 3 || *ao.Temperature != 0.7 {
		t.Fatalf("assistant options: %+v", ao)
	}
}

func TestSetValidates(t *testing.T) {
	c := &Global{}
	bad := map[string]string{
		"temperature":        "3",
		"max_tokens":         "zero",
		"delimiter":          "|",
		"decimal_separator":  "'",
		"columns.price":      "Prix",
		"unknown":            "x",
		"retry_max_attempts": "0",
	}
	for k, v := range bad {
		if err := c.Set(k, v); err == nil {
			t.Errorf("Set(%s, %s) should fail", k, v)
		}
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(p, []byte("temperature: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatal("expected validation error")
	}
	if err := os.WriteFile(p, []byte("columns:\n  nope: X\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatal("expected unknown column error")
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{"": 0, ",": ',', ";": ';', "tab": '\t', `\t`: '\t'}
	for in, want := range cases {
		got, err := ParseDelimiter(in)
		if err != nil || got != want {
			t.Errorf("ParseDelimiter(%q)=%q,%v want %q", in, got, err, want)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	cases := map[string]rune{"": 0, ".": '.', "dot": '.', ",": ',', "Comma": ','}
	for in, want := range cases {
		got, err := ParseDecimal(in)
		if err != nil || got != want {
			t.Errorf("ParseDecimal(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseDecimal(";"); err == nil {
		t.Fatal("expected error for ';'")
	}
}
