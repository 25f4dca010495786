package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/exprel/internal/config"
)

func runEntry(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Entry(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestEvalLiteral(t *testing.T) {
	code, stdout, stderr := runEntry(t, "-e", "42")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "42" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestEvalAgainstTarget(t *testing.T) {
	code, stdout, stderr := runEntry(t, "-e", "name", "--target", `{name: ada, role: admin}`)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "ada" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestEvalFailureExitsNonZero(t *testing.T) {
	code, _, stderr := runEntry(t, "-e", "Missing()", "--target", `{a: 1}`)
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "cannot be found") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestBadFlagExitsUsage(t *testing.T) {
	code, _, _ := runEntry(t, "--nope")
	if code != 2 {
		t.Errorf("exit = %d, want 2", code)
	}
	code, _, stderr := runEntry(t, "stray-positional")
	if code != 2 || !strings.Contains(stderr, "Usage:") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestInvalidTarget(t *testing.T) {
	code, _, stderr := runEntry(t, "-e", "42", "--target", "{broken")
	if code != 2 || !strings.Contains(stderr, "invalid --target") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestUnknownBackendRejected(t *testing.T) {
	code, _, stderr := runEntry(t, "-e", "42", "--backend", "jit",
		"--config", writeConfig(t, ""))
	if code != 2 || !strings.Contains(stderr, "unknown backend") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}

	code, _, stderr = runEntry(t, "-e", "42", "--mode", "eager",
		"--config", writeConfig(t, ""))
	if code != 2 || !strings.Contains(stderr, "unknown compiler mode") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestMethodsUsage(t *testing.T) {
	code, _, stderr := runEntry(t, "methods", "bytes")
	if code != 2 || !strings.Contains(stderr, "usage: exprel methods") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestNormalizeYAML(t *testing.T) {
	in := map[string]any{
		"nested": map[string]any{"k": 1},
		"list":   []any{map[string]any{"x": true}},
		"plain":  "s",
	}
	out := normalizeYAML(in).(map[string]any)
	if out["nested"].(map[string]any)["k"] != 1 {
		t.Errorf("nested = %v", out["nested"])
	}
	if out["list"].([]any)[0].(map[string]any)["x"] != true {
		t.Errorf("list = %v", out["list"])
	}
	if out["plain"] != "s" {
		t.Errorf("plain = %v", out["plain"])
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
