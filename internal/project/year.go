package project

import (
	"slices"
	"strings"
	"time"
)

// MinStartYear is the first start year taken at face value. Earlier start
// dates are placeholders and the creation date is used instead.
const MinStartYear = 1985

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseYear returns the calendar year of a date string.
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// DerivedYear is the year a project is bucketed under.
//
// An unparsable start date is never compared against MinStartYear, so it
// yields no year even when the creation date is valid.
func DerivedYear(p Project) (int, bool) {
	year, ok := ParseYear(p.StartOn)
	if !ok {
		return 0, false
	}
	if year < MinStartYear {
		return ParseYear(p.Created)
	}
	return year, true
}

// Years returns the distinct derived years in ascending order.
func Years(ps []Project) []int {
	seen := make(map[int]struct{}, len(ps))
	years := make([]int, 0, len(ps))
	for _, p := range ps {
		year, ok := DerivedYear(p)
		if !ok {
			continue
		}
		if _, dup := seen[year]; dup {
			continue
		}
		seen[year] = struct{}{}
		years = append(years, year)
	}
	slices.Sort(years)
	return years
}

// ForYear keeps the projects whose derived year equals year, in order.
func ForYear(ps []Project, year int) []Project {
	var out []Project
	for _, p := range ps {
		if y, ok := DerivedYear(p); ok && y == year {
			out = append(out, p)
		}
	}
	return out
}
