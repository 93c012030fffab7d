package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the root command with args against an isolated config.
func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args, configPath)
}

func runCLIContext(t *testing.T, ctx context.Context, args []string, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// writeTestConfig creates a minimal config pointing at temp directories.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(base, "data") + `"`,
		`output_dir = "` + filepath.Join(base, "output") + `"`,
		`log_dir = "` + filepath.Join(base, "logs") + `"`,
		"",
		"[llm]",
		`api_key = "test"`,
	}, "\n")
	path := filepath.Join(base, "flowmind.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigNewAndCheck(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, []string{"config", "new", "--path", target}, "")
	if err != nil {
		t.Fatalf("config new: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, []string{"config", "new", "--path", target}, ""); err == nil {
		t.Fatal("expected error when the target already exists")
	}
}

func TestRequirementsListEmpty(t *testing.T) {
	configPath := writeTestConfig(t)
	out, err := runCLI(t, []string{"requirements", "list"}, configPath)
	if err != nil {
		t.Fatalf("requirements list: %v", err)
	}
	requireContains(t, out, "No requirements in this view.")
}

func TestMemorySetAndGet(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, []string{"memory", "set", "tone", "British English"}, configPath); err != nil {
		t.Fatalf("memory set: %v", err)
	}
	out, err := runCLI(t, []string{"memory", "get", "tone"}, configPath)
	if err != nil {
		t.Fatalf("memory get: %v", err)
	}
	requireContains(t, out, "British English")
}

func TestSyncRequiresTracker(t *testing.T) {
	configPath := writeTestConfig(t)
	_, err := runCLI(t, []string{"sync"}, configPath)
	if err == nil || !strings.Contains(err.Error(), "tracker sync is disabled") {
		t.Fatalf("expected disabled-tracker error, got %v", err)
	}
}

func TestApproveUnknownRequirementFails(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, []string{"approve", "REQ-999"}, configPath); err == nil {
		t.Fatal("expected error approving unknown requirement")
	}
}

func TestCommandsHonorRootContextCancellation(t *testing.T) {
	configPath := writeTestConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runCLIContext(t, ctx, []string{"requirements", "list"}, configPath)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation to abort the command, got %v", err)
	}
}
