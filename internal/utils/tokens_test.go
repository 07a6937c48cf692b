package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/ecomenu/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "hello world", 2},
		{"short", "ok", 1},
		{"long", strings.Repeat("a", 4000), 900},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestTokenBreakdown(t *testing.T) {
	got := utils.TokenBreakdown(map[string]string{
		"system": strings.Repeat("x", 40),
		"user":   "",
	})
	if got["system"] != 10 {
		t.Fatalf("system tokens=%d want 10", got["system"])
	}
	if got["user"] != 0 {
		t.Fatalf("user tokens=%d want 0", got["user"])
	}
}
