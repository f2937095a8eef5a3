package engineconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAllowMissingReturnsDefaults(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "missing.yaml")

	configuration, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load allow missing: %v", err)
	}
	if configuration.Scheduling.WorkDayStartHour != 9 || configuration.Scheduling.WorkDayEndHour != 18 {
		t.Fatalf("expected default working hours, got %#v", configuration.Scheduling)
	}
	if configuration.Matching.SimilarityThreshold != 0.85 {
		t.Fatalf("expected default similarity threshold, got %v", configuration.Matching.SimilarityThreshold)
	}
	if configuration.MeetingBuffer() != 10*time.Minute {
		t.Fatalf("unexpected meeting buffer %v", configuration.MeetingBuffer())
	}
	if configuration.SearchHorizon() != 14*24*time.Hour {
		t.Fatalf("unexpected search horizon %v", configuration.SearchHorizon())
	}
}

func TestLoadMissingRequired(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "missing.yaml")

	if _, err := Load(path, false); err == nil {
		t.Fatal("expected missing required config error")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "config.yaml")
	content := []byte(`
scheduling:
  timezone: " UTC "
  work_day_start_hour: 8
  work_day_end_hour: 16
  meeting_buffer_minutes: 5
  slot_step_minutes: 30
  search_horizon_days: 7
matching:
  similarity_threshold: 0.8
  strict_threshold: 0.9
  event_proximity_minutes: 30
policy:
  path: " ./.tempo/policy.yaml "
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configuration, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load parse: %v", err)
	}
	if configuration.Scheduling.Timezone != "UTC" {
		t.Fatalf("unexpected timezone %q", configuration.Scheduling.Timezone)
	}
	if configuration.Scheduling.WorkDayStartHour != 8 || configuration.Scheduling.WorkDayEndHour != 16 {
		t.Fatalf("unexpected working hours: %#v", configuration.Scheduling)
	}
	if configuration.SlotStep() != 30*time.Minute {
		t.Fatalf("unexpected slot step %v", configuration.SlotStep())
	}
	if configuration.SearchHorizon() != 7*24*time.Hour {
		t.Fatalf("unexpected search horizon %v", configuration.SearchHorizon())
	}
	if configuration.Matching.StrictThreshold != 0.9 {
		t.Fatalf("unexpected strict threshold %v", configuration.Matching.StrictThreshold)
	}
	if configuration.EventProximity() != 30*time.Minute {
		t.Fatalf("unexpected proximity window %v", configuration.EventProximity())
	}
	if configuration.Policy.Path != "./.tempo/policy.yaml" {
		t.Fatalf("unexpected policy path %q", configuration.Policy.Path)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "empty_work_window",
			content: `
scheduling:
  work_day_start_hour: 18
  work_day_end_hour: 9
`,
		},
		{
			name: "bad_timezone",
			content: `
scheduling:
  timezone: "Mars/Olympus"
`,
		},
		{
			name: "threshold_out_of_range",
			content: `
matching:
  similarity_threshold: 1.5
`,
		},
		{
			name: "strict_below_base",
			content: `
matching:
  similarity_threshold: 0.9
  strict_threshold: 0.8
`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			workDir := t.TempDir()
			path := filepath.Join(workDir, "config.yaml")
			if err := os.WriteFile(path, []byte(test.content), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path, false); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "config.yaml")
	if err := os.WriteFile(path, []byte("scheduling: [\n"), 0o600); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if _, err := Load(path, false); err == nil {
		t.Fatal("expected parse error for invalid yaml")
	}
}
