package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSetsLevelAndFormat(t *testing.T) {
	log := New(Config{Level: "debug", Format: "json", Console: ConsoleConfig{Enabled: true}})
	if log.GetLevel().String() != "debug" {
		t.Fatalf("expected level debug, got %s", log.GetLevel())
	}
}

func TestNewDefaultsToStdoutWhenNothingEnabled(t *testing.T) {
	log := New(Config{Level: "info", Format: "text"})
	if log.Out == nil {
		t.Fatalf("expected a default output writer")
	}
}

func TestNewCreatesRotatingLogFile(t *testing.T) {
	originalWD, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(originalWD) })

	temp := t.TempDir()
	if err := os.Chdir(temp); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	log := New(Config{
		Level:  "info",
		Format: "text",
		File: FileConfig{
			Enabled:   true,
			Path:      filepath.Join("logs", "test.log"),
			Rotation:  "10 MB",
			Retention: "30 days",
		},
	})
	log.Info("hello")

	data, err := os.ReadFile(filepath.Join("logs", "test.log"))
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log file to contain data")
	}
}

func TestParseMegabytes(t *testing.T) {
	cases := map[string]int{
		"10 MB": 10,
		"512KB": 1,
		"2GB":   2048,
		"":      100,
		"bogus": 100,
	}
	for input, want := range cases {
		if got := parseMegabytes(input); got != want {
			t.Errorf("parseMegabytes(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestParseDays(t *testing.T) {
	cases := map[string]int{
		"30 days": 30,
		"12 hours": 1,
		"":        30,
		"bogus":   30,
	}
	for input, want := range cases {
		if got := parseDays(input); got != want {
			t.Errorf("parseDays(%q) = %d, want %d", input, got, want)
		}
	}
}
