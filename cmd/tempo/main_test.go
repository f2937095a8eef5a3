package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/davidahmann/tempo/internal/testutil"
)

func TestRunDispatch(t *testing.T) {
	if code := run([]string{"tempo"}); code != exitInvalidInput {
		t.Fatalf("run without args: expected %d got %d", exitInvalidInput, code)
	}
	if code := run([]string{"tempo", "version"}); code != exitOK {
		t.Fatalf("run version: expected %d got %d", exitOK, code)
	}
	if code := run([]string{"tempo", "unknown"}); code != exitInvalidInput {
		t.Fatalf("run unknown: expected %d got %d", exitInvalidInput, code)
	}
	if code := run([]string{"tempo", "--explain"}); code != exitOK {
		t.Fatalf("run explain: expected %d got %d", exitOK, code)
	}
	if code := run([]string{"tempo", "policy", "--explain"}); code != exitOK {
		t.Fatalf("run policy explain: expected %d got %d", exitOK, code)
	}
}

func TestRunPolicyDigest(t *testing.T) {
	if code := run([]string{"tempo", "policy", "-digest"}); code != exitOK {
		t.Fatalf("run policy digest: expected %d got %d", exitOK, code)
	}
}

func TestRunValidateCommand(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "descriptor.json")
	testutil.WriteFile(t, path, []byte(`{"domain":"task","operation":"create","payload":{"title":"Buy groceries"}}`))

	if code := run([]string{"tempo", "validate", "-schema", "action_descriptor", "-input", path}); code != exitOK {
		t.Fatalf("validate descriptor: expected %d got %d", exitOK, code)
	}
	if code := run([]string{"tempo", "validate", "-schema", "action_descriptor", "-input", filepath.Join(workDir, "missing.json")}); code != exitInvalidInput {
		t.Fatalf("validate missing file: expected %d got %d", exitInvalidInput, code)
	}
}

func TestRunSlotsCommand(t *testing.T) {
	workDir := t.TempDir()
	busyPath := filepath.Join(workDir, "busy.json")
	testutil.WriteFile(t, busyPath, []byte(`[
		{"start":"2026-03-02T12:00:00Z","end":"2026-03-02T13:00:00Z"},
		{"start":"2026-03-02T15:00:00Z","end":"2026-03-02T16:00:00Z"}
	]`))

	code := run([]string{
		"tempo", "slots",
		"-start", "2026-03-02T09:00:00Z",
		"-duration", "1h",
		"-pref", "afternoon",
		"-busy", busyPath,
	})
	if code != exitOK {
		t.Fatalf("slots: expected %d got %d", exitOK, code)
	}

	if code := run([]string{"tempo", "slots"}); code != exitInvalidInput {
		t.Fatalf("slots without start: expected %d got %d", exitInvalidInput, code)
	}
}

func TestRunEvaluateCommand(t *testing.T) {
	workDir := t.TempDir()

	descriptorPath := filepath.Join(workDir, "descriptor.json")
	testutil.WriteFile(t, descriptorPath, []byte(`{
		"domain": "event",
		"operation": "create",
		"payload": {
			"title": "Team sync",
			"start": "2026-03-02T10:00:00Z",
			"end": "2026-03-02T11:00:00Z",
			"participants": ["sam@example.com"]
		}
	}`))

	code := run([]string{"tempo", "evaluate", "-input", descriptorPath})
	if code != exitApprovalRequired {
		t.Fatalf("evaluate participant event: expected %d got %d", exitApprovalRequired, code)
	}

	soloPath := filepath.Join(workDir, "solo.json")
	testutil.WriteFile(t, soloPath, []byte(`{
		"domain": "task",
		"operation": "create",
		"payload": {"title": "Buy groceries"}
	}`))
	if code := run([]string{"tempo", "evaluate", "-input", soloPath}); code != exitOK {
		t.Fatalf("evaluate solo task: expected %d got %d", exitOK, code)
	}

	if code := run([]string{"tempo", "evaluate"}); code != exitInvalidInput {
		t.Fatalf("evaluate without input: expected %d got %d", exitInvalidInput, code)
	}
}

func TestMainEntrypoint(t *testing.T) {
	if os.Getenv("TEMPO_TEST_MAIN") == "1" {
		os.Args = []string{"tempo", "version"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainEntrypoint")
	cmd.Env = append(os.Environ(), "TEMPO_TEST_MAIN=1")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run child process: %v", err)
	}
}

func TestEvaluateOutputShape(t *testing.T) {
	raw, err := json.Marshal(evaluateOutput{OK: true})
	if err != nil {
		t.Fatalf("marshal evaluate output: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected envelope: %s", raw)
	}
}
