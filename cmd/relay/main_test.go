package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runRelay(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut strings.Builder
	err = run(context.Background(), strings.NewReader(""), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

func TestRunVersion(t *testing.T) {
	stdout, _, err := runRelay(t, "version")
	if err != nil {
		t.Fatalf("run(version) = %v, want nil", err)
	}
	if !strings.HasPrefix(stdout, "relay ") {
		t.Errorf("stdout = %q, want version string", stdout)
	}
}

func TestRunVersionJSON(t *testing.T) {
	stdout, _, err := runRelay(t, "-o", "json", "version")
	if err != nil {
		t.Fatalf("run(-o json version) = %v, want nil", err)
	}

	var info map[string]string
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if info["version"] == "" {
		t.Errorf("info = %v, want version field", info)
	}
}

func TestRunHelp(t *testing.T) {
	for _, flag := range []string{"-h", "-help", "--help"} {
		stdout, _, err := runRelay(t, flag)
		if err != nil {
			t.Errorf("run(%s) = %v, want nil", flag, err)
		}
		if !strings.Contains(stdout, "Usage:") {
			t.Errorf("run(%s) output missing usage:\n%s", flag, stdout)
		}
	}
}

func TestRunUnknownArgument(t *testing.T) {
	_, _, err := runRelay(t, "-frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown argument") {
		t.Errorf("run(-frobnicate) = %v, want unknown-argument error", err)
	}
}

func TestRunMissingConfig(t *testing.T) {
	_, _, err := runRelay(t, "-config", "/nonexistent/relay.yaml", "tools")
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("run() = %v, want config-not-found error", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	// An unknown command needs a loadable config first; version is the
	// only command that short-circuits, so feed a minimal config file.
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte("server:\n  command: echo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := runRelay(t, "-config", path, "frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("run(frobnicate) = %v, want unknown-command error", err)
	}
}
