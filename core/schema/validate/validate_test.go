package validate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNamesListsEmbeddedSchemas(t *testing.T) {
	names := Names()
	if len(names) != 2 {
		t.Fatalf("unexpected schema names: %v", names)
	}
	if names[0] != "action_descriptor" || names[1] != "approval_request" {
		t.Fatalf("unexpected schema names: %v", names)
	}
}

func TestValidateActionDescriptor(t *testing.T) {
	valid := []byte(`{
		"domain": "event",
		"operation": "create",
		"payload": {
			"title": "Team sync",
			"start": "2026-03-02T10:00:00Z",
			"end": "2026-03-02T11:00:00Z",
			"participants": ["sam@example.com"]
		}
	}`)
	if err := Validate("action_descriptor", valid); err != nil {
		t.Fatalf("expected valid descriptor, got: %v", err)
	}

	invalid := [][]byte{
		[]byte(`{"domain": "note", "operation": "create", "payload": {}}`),
		[]byte(`{"domain": "task", "operation": "explode", "payload": {}}`),
		[]byte(`{"domain": "task", "operation": "create"}`),
		[]byte(`{"domain": "task", "operation": "create", "payload": {"unknown_field": 1}}`),
	}
	for index, data := range invalid {
		if err := Validate("action_descriptor", data); err == nil {
			t.Fatalf("case %d: expected validation failure", index)
		}
	}
}

func TestValidateApprovalRequest(t *testing.T) {
	valid := []byte(`{
		"schema_id": "tempo.approval_request",
		"schema_version": "1.0.0",
		"created_at": "2026-03-01T08:00:00Z",
		"request_id": "req-1",
		"needs_approval": true,
		"action_type": "bulk_complete",
		"action_data": {
			"schema_id": "tempo.action_data",
			"schema_version": "1.0.0",
			"domain": "task",
			"operation": "complete",
			"payload": {"target_ids": ["a", "b", "c", "d"]},
			"item_count": 4,
			"payload_digest": "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		},
		"preview": {"summary": "Complete 4 tasks", "risks": ["completes multiple items"]}
	}`)
	if err := Validate("approval_request", valid); err != nil {
		t.Fatalf("expected valid approval request, got: %v", err)
	}

	tampered := []byte(`{
		"schema_id": "tempo.approval_request",
		"schema_version": "1.0.0",
		"request_id": "req-1",
		"needs_approval": false,
		"action_type": "bulk_complete",
		"action_data": {
			"schema_id": "tempo.action_data",
			"schema_version": "1.0.0",
			"domain": "task",
			"operation": "complete",
			"payload": {},
			"payload_digest": "not-a-digest"
		},
		"preview": {"summary": "Complete 4 tasks"}
	}`)
	if err := Validate("approval_request", tampered); err == nil {
		t.Fatal("expected validation failure for tampered request")
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	if err := Validate("nonexistent", []byte(`{}`)); err == nil {
		t.Fatal("expected unknown schema error")
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "descriptor.json")
	content := []byte(`{"domain": "task", "operation": "create", "payload": {"title": "Buy groceries"}}`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	if err := ValidateFile("action_descriptor", path); err != nil {
		t.Fatalf("validate file: %v", err)
	}
	if err := ValidateFile("action_descriptor", filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected read error for missing file")
	}
}
