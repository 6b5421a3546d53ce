//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"fmt"
	"strings"
	"time"
)

// SeasonRule selects how dates are mapped to seasons.
type SeasonRule string

const (
	// SeasonCalendar splits the year at the 21st of March, June,
	// September and December.
	SeasonCalendar SeasonRule = "calendar"

	// SeasonLegacy reproduces the season column of previously loaded
	// warehouses. It files most dates on or after the 21st of a month
	// outside the boundary months as Fall.
	SeasonLegacy SeasonRule = "legacy"
)

// ParseSeasonRule parses a season rule name; empty selects the calendar rule.
func ParseSeasonRule(s string) (SeasonRule, error) {
	switch SeasonRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", SeasonCalendar:
		return SeasonCalendar, nil
	case SeasonLegacy:
		return SeasonLegacy, nil
	}
	return "", fmt.Errorf("unknown season rule %q (want %s or %s)", s, SeasonCalendar, SeasonLegacy)
}

// Season returns Winter, Spring, Summer or Fall for t.
func Season(t time.Time, rule SeasonRule) string {
	month, day := int(t.Month()), t.Day()
	if rule == SeasonLegacy {
		return legacySeason(month, day)
	}

	switch {
	case month == 12 && day >= 21, month < 3, month == 3 && day < 21:
		return "Winter"
	case month < 6, month == 6 && day < 21:
		return "Spring"
	case month < 9, month == 9 && day < 21:
		return "Summer"
	default:
		return "Fall"
	}
}

func legacySeason(month, day int) string {
	switch {
	case (month == 12 && day >= 21) || (month <= 3 && day < 21):
		return "Winter"
	case (month == 3 && day >= 21) || (month <= 6 && day < 21):
		return "Spring"
	case (month == 6 && day >= 21) || (month <= 9 && day < 21):
		return "Summer"
	case (month == 9 && day >= 21) || month < 12 || (month == 12 && day < 21):
		return "Fall"
	}
	return ""
}

// Normalize derives the date dimension record for t. It is pure.
func Normalize(t time.Time, rule SeasonRule) DateRecord {
	hour := t.Hour()
	ampm := "PM"
	if hour < 12 {
		ampm = "AM"
	}
	return DateRecord{
		Key:       t,
		Year:      t.Year(),
		Quarter:   (int(t.Month())-1)/3 + 1,
		Season:    Season(t, rule),
		Month:     int(t.Month()),
		MonthName: t.Month().String(),
		Day:       t.Day(),
		DayName:   t.Weekday().String(),
		Hour:      hour,
		AMPM:      ampm,
	}
}
