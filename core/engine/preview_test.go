package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidahmann/tempo/core/policy"
	"github.com/davidahmann/tempo/core/schema/v1/action"
)

func TestBuildPreviewConflictRiskTracksAlternative(t *testing.T) {
	table := policy.Default()
	start := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	desc := action.ActionDescriptor{
		Domain:    action.DomainEvent,
		Operation: action.OperationCreate,
		Payload:   action.Payload{Title: "Planning session", Start: start},
	}
	verdict := action.Verdict{
		RequiresApproval: true,
		ActionType:       policy.TagEventCreateConflictReschedule,
	}

	withAlternative := action.ActionData{
		Domain:    desc.Domain,
		Operation: desc.Operation,
		Payload:   desc.Payload,
		Conflict: &action.ConflictReport{
			Conflicting:          true,
			SuggestedAlternative: &action.Slot{Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
		},
	}
	preview := buildPreview(desc, verdict, withAlternative, table)
	require.NotEmpty(t, preview.Risks)
	assert.Contains(t, preview.Risks[0], "alternative slot")

	withoutAlternative := withAlternative
	withoutAlternative.Conflict = &action.ConflictReport{Conflicting: true}
	preview = buildPreview(desc, verdict, withoutAlternative, table)
	require.NotEmpty(t, preview.Risks)
	for _, risk := range preview.Risks {
		assert.False(t, strings.Contains(risk, "alternative slot was selected"),
			"preview must not promise an alternative that was never found: %s", risk)
	}
	assert.Contains(t, preview.Risks[0], "conflicts")
}
