package duplicate

import (
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/tempo/core/schema/v1/action"
	"github.com/davidahmann/tempo/core/similarity"
)

// DefaultProximityWindow limits event duplicates to items starting within an
// hour of the proposed time; tasks have no time axis and ignore it.
const DefaultProximityWindow = time.Hour

// Detector flags near-duplicate titles against a same-domain snapshot. Any
// single match is sufficient grounds for approval, so the scan short-circuits
// on the first hit instead of ranking candidates.
type Detector struct {
	Threshold       float64
	ProximityWindow time.Duration
}

// NewDetector fills zero fields with the package defaults.
func NewDetector(threshold float64, proximity time.Duration) Detector {
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}
	if proximity <= 0 {
		proximity = DefaultProximityWindow
	}
	return Detector{Threshold: threshold, ProximityWindow: proximity}
}

// Check scans the snapshot for the first active item whose title is similar
// to the candidate. Completed, archived, and cancelled items never count.
func (d Detector) Check(domain, title string, proposedStart time.Time, existing []action.ItemSummary) action.DuplicateReport {
	candidate := strings.TrimSpace(title)
	if candidate == "" {
		return action.DuplicateReport{IsDuplicate: false}
	}

	for _, item := range existing {
		if item.Domain != "" && item.Domain != domain {
			continue
		}
		if isInactive(item.Status) {
			continue
		}
		if !similarity.TitlesAreSimilar(item.Title, candidate, d.Threshold) {
			continue
		}
		if domain == action.DomainEvent && !d.withinProximity(proposedStart, item.Start) {
			continue
		}
		matched := item
		return action.DuplicateReport{
			IsDuplicate: true,
			Matched:     &matched,
			Basis:       fmt.Sprintf("title ratio %.2f against %q", similarity.Ratio(item.Title, candidate), item.Title),
		}
	}
	return action.DuplicateReport{IsDuplicate: false}
}

func (d Detector) withinProximity(proposedStart, existingStart time.Time) bool {
	if d.ProximityWindow <= 0 || proposedStart.IsZero() || existingStart.IsZero() {
		return true
	}
	delta := proposedStart.Sub(existingStart)
	if delta < 0 {
		delta = -delta
	}
	return delta < d.ProximityWindow
}

func isInactive(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "complete", "completed", "done", "archived", "cancelled", "canceled":
		return true
	default:
		return false
	}
}
