package conflict

import (
	"strings"
	"time"

	"github.com/davidahmann/tempo/core/interval"
	"github.com/davidahmann/tempo/core/schema/v1/action"
)

// DefaultBuffer is the breathing room enforced around existing events when
// testing a proposed time.
const DefaultBuffer = 10 * time.Minute

// Detector finds overlaps between a proposed interval and a snapshot of
// existing items, and proposes the next viable slot when they collide.
type Detector struct {
	Buffer time.Duration
	Slot   interval.SlotOptions
}

// NewDetector builds a detector with the default meeting buffer when buffer
// is zero. Slot options steer the alternative search (step, horizon, working
// window, preference).
func NewDetector(buffer time.Duration, slot interval.SlotOptions) Detector {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return Detector{Buffer: buffer, Slot: slot}
}

// Check compares the proposed interval against the snapshot. On conflict the
// report carries every colliding item plus a suggested alternative found by
// scanning forward from the proposed start with the same duration. The
// alternative honors the buffer around every existing item. When the search
// horizon is exhausted the report still lists the collisions and the error
// carries NoAvailabilityFound.
func (d Detector) Check(proposed interval.Interval, existing []action.ItemSummary) (action.ConflictReport, error) {
	validated, err := interval.New(proposed.Start, proposed.End)
	if err != nil {
		return action.ConflictReport{}, err
	}

	buffer := d.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	busy := make([]interval.Interval, 0, len(existing))
	var colliding []action.ItemSummary
	for _, item := range existing {
		if isCancelled(item.Status) || item.Start.IsZero() || !item.Start.Before(item.End) {
			continue
		}
		occupied := interval.Interval{Start: item.Start, End: item.End}
		busy = append(busy, interval.Inflate(occupied, buffer))
		if interval.Overlaps(validated, interval.Inflate(occupied, buffer)) {
			colliding = append(colliding, item)
		}
	}
	if len(colliding) == 0 {
		return action.ConflictReport{Conflicting: false}, nil
	}

	report := action.ConflictReport{Conflicting: true, CollidingItems: colliding}

	options := d.Slot
	options.Duration = validated.Duration()
	alternative, err := interval.FindNextFreeSlot(validated, busy, options)
	if err != nil {
		return report, err
	}
	report.SuggestedAlternative = &action.Slot{Start: alternative.Start, End: alternative.End}
	return report, nil
}

func isCancelled(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "cancelled", "canceled":
		return true
	default:
		return false
	}
}
