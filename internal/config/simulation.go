package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/resink-ai/resinker/internal/constants"
)

// durationPattern matches duration strings like "10s", "5m", "2h".
var durationPattern = regexp.MustCompile(`^(\d+)([smh])$`)

// SimulationSettings holds the global simulation settings.
type SimulationSettings struct {
	Duration            string          `yaml:"duration"`
	TotalEvents         *int            `yaml:"total_events"`
	InitialEntityCounts map[string]int  `yaml:"initial_entity_counts"`
	TimeProgression     TimeProgression `yaml:"time_progression"`
	RandomSeed          *int64          `yaml:"random_seed"`
}

// TimeProgression controls where the simulation clock starts and how fast
// it runs relative to wall clock.
type TimeProgression struct {
	StartTime      string  `yaml:"start_time"`
	TimeMultiplier float64 `yaml:"time_multiplier"`
}

// DefaultSimulationSettings returns the default simulation settings.
func DefaultSimulationSettings() SimulationSettings {
	return SimulationSettings{
		InitialEntityCounts: map[string]int{},
		TimeProgression: TimeProgression{
			StartTime:      constants.StartTimeNow,
			TimeMultiplier: 1.0,
		},
	}
}

// UnmarshalYAML applies defaults before decoding so absent keys keep them.
func (s *SimulationSettings) UnmarshalYAML(node *yaml.Node) error {
	type raw SimulationSettings
	tmp := raw(DefaultSimulationSettings())
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	*s = SimulationSettings(tmp)
	return nil
}

// UnmarshalYAML applies defaults before decoding so absent keys keep them.
func (p *TimeProgression) UnmarshalYAML(node *yaml.Node) error {
	type raw TimeProgression
	tmp := raw{StartTime: constants.StartTimeNow, TimeMultiplier: 1.0}
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	*p = TimeProgression(tmp)
	return nil
}

// Validate validates the simulation settings.
func (s *SimulationSettings) Validate() error {
	if s.Duration != "" && !durationPattern.MatchString(s.Duration) {
		return fmt.Errorf("invalid duration %q: use <number><s|m|h>, e.g. 30m", s.Duration)
	}
	if s.TotalEvents != nil && *s.TotalEvents < 0 {
		return fmt.Errorf("total_events must be >= 0, got %d", *s.TotalEvents)
	}
	if s.TimeProgression.TimeMultiplier < 0 {
		return fmt.Errorf("time_multiplier must be >= 0, got %v", s.TimeProgression.TimeMultiplier)
	}
	if !strings.EqualFold(s.TimeProgression.StartTime, constants.StartTimeNow) {
		if _, err := parseStartTime(s.TimeProgression.StartTime); err != nil {
			return fmt.Errorf("invalid start_time %q: use ISO 8601 or %q", s.TimeProgression.StartTime, constants.StartTimeNow)
		}
	}
	for entityType, count := range s.InitialEntityCounts {
		if count < 0 {
			return fmt.Errorf("initial_entity_counts[%s] must be >= 0, got %d", entityType, count)
		}
	}
	return nil
}

// DurationSeconds converts the duration string to seconds. The second return
// value reports whether a duration is configured.
func (s *SimulationSettings) DurationSeconds() (float64, bool) {
	if s.Duration == "" {
		return 0, false
	}
	m := durationPattern.FindStringSubmatch(s.Duration)
	if m == nil {
		return 0, false
	}
	value, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "m":
		value *= 60
	case "h":
		value *= 3600
	}
	return float64(value), true
}

// StartTime resolves the configured start time. "now" yields the wall clock.
func (s *SimulationSettings) StartTime() (time.Time, error) {
	if strings.EqualFold(s.TimeProgression.StartTime, constants.StartTimeNow) {
		return time.Now(), nil
	}
	return parseStartTime(s.TimeProgression.StartTime)
}

func parseStartTime(v string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}
