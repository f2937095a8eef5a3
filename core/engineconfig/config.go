// Package engineconfig loads optional per-project engine settings from a
// YAML file. Every field has a working default so a missing or empty file is
// not an error.
package engineconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const DefaultPath = ".tempo/config.yaml"

type Config struct {
	Scheduling SchedulingDefaults `yaml:"scheduling"`
	Matching   MatchingDefaults   `yaml:"matching"`
	Policy     PolicyDefaults     `yaml:"policy"`
}

type SchedulingDefaults struct {
	Timezone             string `yaml:"timezone"`
	WorkDayStartHour     int    `yaml:"work_day_start_hour"`
	WorkDayEndHour       int    `yaml:"work_day_end_hour"`
	MeetingBufferMinutes int    `yaml:"meeting_buffer_minutes"`
	SlotStepMinutes      int    `yaml:"slot_step_minutes"`
	SearchHorizonDays    int    `yaml:"search_horizon_days"`
	SkipWeekends         bool   `yaml:"skip_weekends"`
}

type MatchingDefaults struct {
	SimilarityThreshold   float64 `yaml:"similarity_threshold"`
	StrictThreshold       float64 `yaml:"strict_threshold"`
	EventProximityMinutes int     `yaml:"event_proximity_minutes"`
}

type PolicyDefaults struct {
	Path string `yaml:"path"`
}

func Defaults() Config {
	return Config{
		Scheduling: SchedulingDefaults{
			WorkDayStartHour:     9,
			WorkDayEndHour:       18,
			MeetingBufferMinutes: 10,
			SlotStepMinutes:      15,
			SearchHorizonDays:    14,
			SkipWeekends:         true,
		},
		Matching: MatchingDefaults{
			SimilarityThreshold:   0.85,
			StrictThreshold:       0.95,
			EventProximityMinutes: 60,
		},
	}
}

func Load(path string, allowMissing bool) (Config, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Config{}, fmt.Errorf("engine config path is required")
	}

	// #nosec G304 -- config path is explicit local user input.
	content, err := os.ReadFile(trimmedPath)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return Defaults(), nil
		}
		return Config{}, fmt.Errorf("read engine config: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return Defaults(), nil
	}

	configuration := Defaults()
	if err := yaml.Unmarshal(content, &configuration); err != nil {
		return Config{}, fmt.Errorf("parse engine config: %w", err)
	}
	if err := configuration.normalize(); err != nil {
		return Config{}, err
	}
	return configuration, nil
}

func (configuration *Config) normalize() error {
	configuration.Scheduling.Timezone = strings.TrimSpace(configuration.Scheduling.Timezone)
	if configuration.Scheduling.Timezone != "" {
		if _, err := time.LoadLocation(configuration.Scheduling.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", configuration.Scheduling.Timezone, err)
		}
	}
	if configuration.Scheduling.WorkDayStartHour < 0 || configuration.Scheduling.WorkDayStartHour > 23 {
		return fmt.Errorf("work_day_start_hour out of range: %d", configuration.Scheduling.WorkDayStartHour)
	}
	if configuration.Scheduling.WorkDayEndHour < 1 || configuration.Scheduling.WorkDayEndHour > 24 {
		return fmt.Errorf("work_day_end_hour out of range: %d", configuration.Scheduling.WorkDayEndHour)
	}
	if configuration.Scheduling.WorkDayStartHour >= configuration.Scheduling.WorkDayEndHour {
		return fmt.Errorf("work day window is empty: %d-%d",
			configuration.Scheduling.WorkDayStartHour, configuration.Scheduling.WorkDayEndHour)
	}
	if configuration.Scheduling.MeetingBufferMinutes < 0 {
		return fmt.Errorf("meeting_buffer_minutes must not be negative: %d", configuration.Scheduling.MeetingBufferMinutes)
	}
	if configuration.Scheduling.SlotStepMinutes <= 0 {
		return fmt.Errorf("slot_step_minutes must be positive: %d", configuration.Scheduling.SlotStepMinutes)
	}
	if configuration.Scheduling.SearchHorizonDays <= 0 {
		return fmt.Errorf("search_horizon_days must be positive: %d", configuration.Scheduling.SearchHorizonDays)
	}

	if configuration.Matching.SimilarityThreshold <= 0 || configuration.Matching.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold out of range: %v", configuration.Matching.SimilarityThreshold)
	}
	if configuration.Matching.StrictThreshold < configuration.Matching.SimilarityThreshold || configuration.Matching.StrictThreshold > 1 {
		return fmt.Errorf("strict_threshold out of range: %v", configuration.Matching.StrictThreshold)
	}
	if configuration.Matching.EventProximityMinutes <= 0 {
		return fmt.Errorf("event_proximity_minutes must be positive: %d", configuration.Matching.EventProximityMinutes)
	}

	configuration.Policy.Path = strings.TrimSpace(configuration.Policy.Path)
	return nil
}

// MeetingBuffer returns the scheduling buffer as a duration.
func (configuration Config) MeetingBuffer() time.Duration {
	return time.Duration(configuration.Scheduling.MeetingBufferMinutes) * time.Minute
}

// SlotStep returns the slot alignment step as a duration.
func (configuration Config) SlotStep() time.Duration {
	return time.Duration(configuration.Scheduling.SlotStepMinutes) * time.Minute
}

// SearchHorizon returns the forward search horizon as a duration.
func (configuration Config) SearchHorizon() time.Duration {
	return time.Duration(configuration.Scheduling.SearchHorizonDays) * 24 * time.Hour
}

// EventProximity returns the duplicate proximity window as a duration.
func (configuration Config) EventProximity() time.Duration {
	return time.Duration(configuration.Matching.EventProximityMinutes) * time.Minute
}
