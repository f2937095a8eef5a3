package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"github.com/davidahmann/tempo/core/engineconfig"
	"github.com/davidahmann/tempo/core/interval"
	"github.com/davidahmann/tempo/core/schema/v1/action"
)

type slotsOutput struct {
	OK   bool         `json:"ok"`
	Slot *action.Slot `json:"slot,omitempty"`
}

func runSlots(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Find the next free slot of a given duration, honoring working hours, busy intervals, and an optional time-of-day preference.")
	}

	flagSet := flag.NewFlagSet("slots", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var startText string
	var durationText string
	var preferenceText string
	var busyPath string
	var configPath string

	flagSet.StringVar(&startText, "start", "", "earliest acceptable start (RFC3339)")
	flagSet.StringVar(&durationText, "duration", "1h", "slot duration")
	flagSet.StringVar(&preferenceText, "pref", "", "time preference: morning, afternoon, or evening")
	flagSet.StringVar(&busyPath, "busy", "", "path to a JSON array of busy intervals")
	flagSet.StringVar(&configPath, "config", engineconfig.DefaultPath, "path to the engine config YAML")

	if err := flagSet.Parse(arguments); err != nil {
		return writeInvalidInput(err.Error())
	}
	if startText == "" {
		return writeInvalidInput("-start is required")
	}
	start, err := time.Parse(time.RFC3339, startText)
	if err != nil {
		return writeInvalidInput("parse -start: " + err.Error())
	}
	duration, err := time.ParseDuration(durationText)
	if err != nil || duration <= 0 {
		return writeInvalidInput("-duration must be a positive duration")
	}
	preference, err := interval.ParsePreference(preferenceText)
	if err != nil {
		return writeErrorOutput(err)
	}

	configuration, err := engineconfig.Load(configPath, true)
	if err != nil {
		return writeInvalidInput(err.Error())
	}

	var busy []interval.Interval
	if busyPath != "" {
		busy, err = readBusy(busyPath)
		if err != nil {
			return writeInvalidInput(err.Error())
		}
	}

	requested := interval.Interval{Start: start, End: start.Add(duration)}
	options := interval.SlotOptions{
		Duration:     duration,
		Step:         configuration.SlotStep(),
		Preference:   preference,
		Horizon:      configuration.SearchHorizon(),
		DayStartHour: configuration.Scheduling.WorkDayStartHour,
		DayEndHour:   configuration.Scheduling.WorkDayEndHour,
		SkipWeekends: configuration.Scheduling.SkipWeekends,
	}
	slot, err := interval.FindNextFreeSlot(requested, busy, options)
	if err != nil {
		return writeErrorOutput(err)
	}
	return writeJSONOutput(slotsOutput{OK: true, Slot: &action.Slot{Start: slot.Start, End: slot.End}}, exitOK)
}

func readBusy(path string) ([]interval.Interval, error) {
	// #nosec G304 -- busy path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var busy []interval.Interval
	if err := json.Unmarshal(content, &busy); err != nil {
		return nil, err
	}
	return busy, nil
}
