package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogErrorToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")

	LogErrorToFile(path, "tools/call", errors.New("upstream exploded"))
	LogErrorToFile(path, "resources/read", errors.New("file vanished"))

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading error log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), content)
	}
	if !strings.Contains(lines[0], "[tools/call] upstream exploded") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[resources/read] file vanished") {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestLogErrorToFileDisabled(t *testing.T) {
	// Must be a no-op: empty path, nil error.
	LogErrorToFile("", "op", errors.New("ignored"))
	path := filepath.Join(t.TempDir(), "untouched.log")
	LogErrorToFile(path, "op", nil)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("nil error should not create the log file")
	}
}
