package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const dump = `<html><body><div class="modifierGroups"><div class="option">
<input type="checkbox" aria-disabled="true">
<label><div class="name">1/2 Boba~</div></label>
</div></div></body></html>`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BOBAWATCH_PROFILE", "interactive")
	t.Setenv("BOBAWATCH_STATE_BACKEND", "file")
	t.Setenv("BOBAWATCH_STATE_FILE", filepath.Join(dir, "boba_status.json"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FILE", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug_page.html")
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if strings.TrimSpace(out) != "unavailable" {
		t.Fatalf("output = %q", out)
	}
}

func TestInspectCommand_MissingFile(t *testing.T) {
	if _, err := execute(t, "inspect", filepath.Join(t.TempDir(), "nope.html")); err == nil {
		t.Fatal("expected error for missing dump")
	}
}

func TestInspectCommand_NeedsOneArg(t *testing.T) {
	if _, err := execute(t, "inspect"); err == nil {
		t.Fatal("expected arg count error")
	}
}

func TestStateCommand_FirstRun(t *testing.T) {
	out, err := execute(t, "state")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !strings.Contains(out, "profile=interactive") || !strings.Contains(out, "was_unavailable=false") {
		t.Fatalf("output = %q", out)
	}
}

func TestRoot_RejectsArgs(t *testing.T) {
	if _, err := execute(t, "extra"); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

func TestConfigError(t *testing.T) {
	t.Setenv("BOBAWATCH_BYPASS", "pray")
	if _, err := execute(t, "state"); err == nil {
		t.Fatal("expected validation error")
	}
}
