package calendar

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// builtinHolidays returns the NYSE full-closure dates shipped with the
// binary. Dates are keyed "YYYY-MM-DD" in Eastern time.
func builtinHolidays() map[string]string {
	return map[string]string{
		// 2025
		"2025-01-01": "New Year's Day",
		"2025-01-20": "Martin Luther King Jr. Day",
		"2025-02-17": "Presidents Day",
		"2025-04-18": "Good Friday",
		"2025-05-26": "Memorial Day",
		"2025-06-19": "Juneteenth",
		"2025-07-04": "Independence Day",
		"2025-09-01": "Labor Day",
		"2025-11-27": "Thanksgiving",
		"2025-12-25": "Christmas",

		// 2026
		"2026-01-01": "New Year's Day",
		"2026-01-19": "Martin Luther King Jr. Day",
		"2026-02-16": "Presidents Day",
		"2026-04-03": "Good Friday",
		"2026-05-25": "Memorial Day",
		"2026-06-19": "Juneteenth",
		"2026-07-03": "Independence Day (observed)",
		"2026-09-07": "Labor Day",
		"2026-11-26": "Thanksgiving",
		"2026-12-25": "Christmas",
	}
}

// builtinEarlyCloses returns the 13:00 ET early-close dates.
func builtinEarlyCloses() map[string]string {
	return map[string]string{
		"2025-07-03": "Day before Independence Day",
		"2025-11-28": "Day after Thanksgiving",
		"2025-12-24": "Christmas Eve",

		"2026-11-27": "Day after Thanksgiving",
		"2026-12-24": "Christmas Eve",
	}
}

// calendarFile is the YAML override format:
//
//	holidays:
//	  - date: 2027-01-01
//	    name: New Year's Day
//	early_closes:
//	  - date: 2027-12-24
//	    name: Christmas Eve
type calendarFile struct {
	Holidays    []calendarDate `yaml:"holidays"`
	EarlyCloses []calendarDate `yaml:"early_closes"`
}

type calendarDate struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// NewFromFile creates a calendar whose holiday tables are replaced by a YAML
// file. A missing or unreadable file is not fatal: the built-in tables are
// used and a warning is logged.
func NewFromFile(path string, log zerolog.Logger) *Calendar {
	cal := New(log)
	if path == "" {
		return cal
	}

	holidays, earlyCloses, err := loadCalendarFile(path)
	if err != nil {
		cal.log.Warn().Err(err).Str("path", path).Msg("Failed to load calendar file, using built-in tables")
		return cal
	}

	cal.holidays = holidays
	cal.earlyCloses = earlyCloses
	cal.log.Info().
		Str("path", path).
		Int("holidays", len(holidays)).
		Int("early_closes", len(earlyCloses)).
		Msg("Loaded holiday calendar from file")
	return cal
}

func loadCalendarFile(path string) (map[string]string, map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read calendar file: %w", err)
	}

	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse calendar file: %w", err)
	}

	holidays := make(map[string]string, len(file.Holidays))
	for _, h := range file.Holidays {
		if err := validateDate(h.Date); err != nil {
			return nil, nil, err
		}
		holidays[h.Date] = h.Name
	}

	earlyCloses := make(map[string]string, len(file.EarlyCloses))
	for _, e := range file.EarlyCloses {
		if err := validateDate(e.Date); err != nil {
			return nil, nil, err
		}
		earlyCloses[e.Date] = e.Name
	}

	return holidays, earlyCloses, nil
}

func validateDate(date string) error {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return fmt.Errorf("invalid calendar date %q, want YYYY-MM-DD", date)
	}
	return nil
}
