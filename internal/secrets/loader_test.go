package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	got, err := Load(Source{Name: "gemini api key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file value, got %q", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("   "), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	_, err := Load(Source{Name: "gemini api key", File: path})
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{Name: "api key", File: filepath.Join(t.TempDir(), "absent")})
	if err == nil || !strings.Contains(err.Error(), "reading api key") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("INTERVIEW_TEST_PRIMARY", "")
	t.Setenv("INTERVIEW_TEST_SECONDARY", " env-secret ")

	got, err := Load(Source{Name: "api key", Env: []string{"INTERVIEW_TEST_PRIMARY", "INTERVIEW_TEST_SECONDARY"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "env-secret" {
		t.Fatalf("expected env value, got %q", got)
	}
}

func TestLoadInlineBeatsEnv(t *testing.T) {
	t.Setenv("INTERVIEW_TEST_PRIMARY", "env-secret")

	got, err := Load(Source{Value: "inline", Env: []string{"INTERVIEW_TEST_PRIMARY"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline value, got %q", got)
	}
}

func TestLoadNotConfigured(t *testing.T) {
	t.Setenv("INTERVIEW_TEST_PRIMARY", "")

	_, err := Load(Source{Env: []string{"INTERVIEW_TEST_PRIMARY"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "secret is not configured") || !strings.Contains(err.Error(), "INTERVIEW_TEST_PRIMARY") {
		t.Fatalf("unexpected error: %v", err)
	}
}
