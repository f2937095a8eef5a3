package interval

import (
	"fmt"
	"sort"
	"time"

	coreerrors "github.com/davidahmann/tempo/core/errors"
)

const (
	DefaultStep        = 15 * time.Minute
	DefaultHorizon     = 14 * 24 * time.Hour
	DefaultDayStart    = 9
	DefaultDayEnd      = 18
	maxScanIterations  = 10000
	defaultSlotMinutes = 60
)

// Interval is a half-open time span [Start, End). Touching endpoints never
// overlap.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds a validated interval. Start must strictly precede End.
func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, coreerrors.Wrap(
			fmt.Errorf("interval start %s must precede end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)),
			coreerrors.CategoryInvalidInput,
			coreerrors.CodeInvalidInterval,
			"supply a start time strictly before the end time",
			false,
		)
	}
	return Interval{Start: start, End: end}, nil
}

func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Inflate widens an interval by buffer on both sides. Used to enforce
// breathing room between adjacent meetings.
func Inflate(iv Interval, buffer time.Duration) Interval {
	if buffer <= 0 {
		return iv
	}
	return Interval{Start: iv.Start.Add(-buffer), End: iv.End.Add(buffer)}
}

// AlignUp rounds t up to the next multiple of step, leaving already-aligned
// times untouched.
func AlignUp(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	truncated := t.Truncate(step)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(step)
}

// Preference narrows candidate slots to a canonical part of day. It is a hard
// filter: a preferred slot must lie fully inside the clamped window.
type Preference string

const (
	PreferenceNone      Preference = ""
	PreferenceMorning   Preference = "morning"
	PreferenceAfternoon Preference = "afternoon"
	PreferenceEvening   Preference = "evening"
)

// ParsePreference normalizes a wire string into a Preference.
func ParsePreference(value string) (Preference, error) {
	switch Preference(value) {
	case PreferenceNone, PreferenceMorning, PreferenceAfternoon, PreferenceEvening:
		return Preference(value), nil
	default:
		return PreferenceNone, coreerrors.Wrap(
			fmt.Errorf("unsupported time preference: %s", value),
			coreerrors.CategoryInvalidInput,
			"invalid_time_preference",
			"use morning, afternoon, or evening",
			false,
		)
	}
}

func preferenceHours(pref Preference) (int, int, bool) {
	switch pref {
	case PreferenceMorning:
		return 6, 12, true
	case PreferenceAfternoon:
		return 12, 17, true
	case PreferenceEvening:
		return 17, 21, true
	default:
		return 0, 0, false
	}
}

// ClampToPreference intersects window with the canonical range for pref on
// the day window starts. An empty intersection yields NoAvailabilityFound.
func ClampToPreference(window Interval, pref Preference) (Interval, error) {
	if !window.Start.Before(window.End) {
		return Interval{}, coreerrors.Wrap(
			fmt.Errorf("window start must precede end"),
			coreerrors.CategoryInvalidInput,
			coreerrors.CodeInvalidInterval,
			"supply a valid window",
			false,
		)
	}
	startHour, endHour, bounded := preferenceHours(pref)
	if !bounded {
		return window, nil
	}
	day := startOfDay(window.Start)
	prefStart := day.Add(time.Duration(startHour) * time.Hour)
	prefEnd := day.Add(time.Duration(endHour) * time.Hour)

	clampedStart := window.Start
	if clampedStart.Before(prefStart) {
		clampedStart = prefStart
	}
	clampedEnd := window.End
	if clampedEnd.After(prefEnd) {
		clampedEnd = prefEnd
	}
	if !clampedStart.Before(clampedEnd) {
		return Interval{}, coreerrors.Wrap(
			fmt.Errorf("window does not intersect the %s range", pref),
			coreerrors.CategoryNoAvailability,
			coreerrors.CodeNoAvailabilityFound,
			"widen the window or drop the time preference",
			false,
		)
	}
	return Interval{Start: clampedStart, End: clampedEnd}, nil
}

// SlotOptions tunes the free-slot scan. Zero values take the package
// defaults: 15-minute step, 14-day horizon, 09:00-18:00 working window.
type SlotOptions struct {
	Duration     time.Duration
	Step         time.Duration
	Bounds       Interval
	Preference   Preference
	Horizon      time.Duration
	DayStartHour int
	DayEndHour   int
	SkipWeekends bool
}

func (opts SlotOptions) withDefaults(requested Interval) SlotOptions {
	if opts.Duration <= 0 {
		if requested.Start.Before(requested.End) {
			opts.Duration = requested.Duration()
		} else {
			opts.Duration = defaultSlotMinutes * time.Minute
		}
	}
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	if opts.Horizon <= 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.DayStartHour == 0 && opts.DayEndHour == 0 {
		opts.DayStartHour = DefaultDayStart
		opts.DayEndHour = DefaultDayEnd
	}
	return opts
}

// FindNextFreeSlot scans forward from requested.Start in step increments and
// returns the earliest duration-long span that avoids every busy interval and
// fits the working window, bounds, and preference. The scan is deterministic;
// earliest valid start always wins. Exceeding the horizon (or bounds) yields
// NoAvailabilityFound.
func FindNextFreeSlot(requested Interval, busy []Interval, opts SlotOptions) (Interval, error) {
	if requested.Start.IsZero() {
		return Interval{}, coreerrors.Wrap(
			fmt.Errorf("requested interval start is required"),
			coreerrors.CategoryInvalidInput,
			coreerrors.CodeInvalidInterval,
			"supply the requested start time",
			false,
		)
	}
	opts = opts.withDefaults(requested)
	if opts.DayStartHour < 0 || opts.DayEndHour > 24 || opts.DayStartHour >= opts.DayEndHour {
		return Interval{}, coreerrors.Wrap(
			fmt.Errorf("invalid working window %d-%d", opts.DayStartHour, opts.DayEndHour),
			coreerrors.CategoryInvalidInput,
			coreerrors.CodeInvalidInterval,
			"working window start hour must precede end hour",
			false,
		)
	}

	ordered := append([]Interval(nil), busy...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start.Before(ordered[j].Start) })

	horizonEnd := requested.Start.Add(opts.Horizon)
	if !opts.Bounds.IsZero() && opts.Bounds.End.Before(horizonEnd) {
		horizonEnd = opts.Bounds.End
	}
	start := AlignUp(requested.Start, opts.Step)
	if !opts.Bounds.IsZero() && start.Before(opts.Bounds.Start) {
		start = AlignUp(opts.Bounds.Start, opts.Step)
	}

	for iteration := 0; iteration < maxScanIterations; iteration++ {
		if start.Add(opts.Duration).After(horizonEnd) {
			return Interval{}, noAvailability(opts)
		}

		window, ok := dayWindow(start, opts)
		if !ok {
			start = AlignUp(nextDayStart(start, opts), opts.Step)
			continue
		}
		if start.Before(window.Start) {
			start = AlignUp(window.Start, opts.Step)
			continue
		}
		candidate := Interval{Start: start, End: start.Add(opts.Duration)}
		if candidate.End.After(window.End) {
			start = AlignUp(nextDayStart(start, opts), opts.Step)
			continue
		}

		collided := false
		for _, busyInterval := range ordered {
			if Overlaps(candidate, busyInterval) {
				start = AlignUp(busyInterval.End, opts.Step)
				collided = true
				break
			}
		}
		if collided {
			continue
		}
		return candidate, nil
	}
	return Interval{}, noAvailability(opts)
}

func noAvailability(opts SlotOptions) error {
	return coreerrors.Wrap(
		fmt.Errorf("no free %s slot within the search horizon", opts.Duration),
		coreerrors.CategoryNoAvailability,
		coreerrors.CodeNoAvailabilityFound,
		"widen the search window or shorten the duration",
		false,
	)
}

// dayWindow computes the valid scheduling window for the day containing t,
// folding in the working hours and any part-of-day preference. ok is false
// when the day offers no window at all (weekend or empty intersection).
func dayWindow(t time.Time, opts SlotOptions) (Interval, bool) {
	if opts.SkipWeekends && isWeekend(t) {
		return Interval{}, false
	}
	day := startOfDay(t)
	windowStart := day.Add(time.Duration(opts.DayStartHour) * time.Hour)
	windowEnd := day.Add(time.Duration(opts.DayEndHour) * time.Hour)

	if prefStartHour, prefEndHour, bounded := preferenceHours(opts.Preference); bounded {
		prefStart := day.Add(time.Duration(prefStartHour) * time.Hour)
		prefEnd := day.Add(time.Duration(prefEndHour) * time.Hour)
		if prefStart.After(windowStart) {
			windowStart = prefStart
		}
		if prefEnd.Before(windowEnd) {
			windowEnd = prefEnd
		}
	}
	if !windowStart.Before(windowEnd) {
		return Interval{}, false
	}
	return Interval{Start: windowStart, End: windowEnd}, true
}

func nextDayStart(t time.Time, opts SlotOptions) time.Time {
	next := startOfDay(t).AddDate(0, 0, 1)
	return next.Add(time.Duration(opts.DayStartHour) * time.Hour)
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	weekday := t.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsWorkingHours reports whether t falls inside the default working window on
// a weekday.
func IsWorkingHours(t time.Time) bool {
	if isWeekend(t) {
		return false
	}
	hour := t.Hour()
	return hour >= DefaultDayStart && hour < DefaultDayEnd
}

// NextWorkingTime returns t when it is already a working instant, otherwise
// the start of the next working window.
func NextWorkingTime(t time.Time) time.Time {
	if IsWorkingHours(t) {
		return t
	}
	candidate := t
	if candidate.Hour() >= DefaultDayEnd {
		candidate = startOfDay(candidate).AddDate(0, 0, 1)
	} else {
		candidate = startOfDay(candidate)
	}
	candidate = candidate.Add(DefaultDayStart * time.Hour)
	for isWeekend(candidate) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
