package model

import "time"

// Sort selects the ordering applied to video listings.
type Sort string

const (
	SortNone     Sort = ""
	SortTime     Sort = "time"
	SortTrending Sort = "trending"
	SortViews    Sort = "views"
)

// ParseSort maps a client-supplied sort value to a known Sort.
// Unrecognized values collapse to SortNone rather than failing the request.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortTime, SortTrending, SortViews:
		return Sort(s)
	default:
		return SortNone
	}
}

// IsValid reports whether the sort is one of the forwardable values.
func (s Sort) IsValid() bool {
	switch s {
	case SortTime, SortTrending, SortViews:
		return true
	default:
		return false
	}
}

func (s Sort) String() string {
	return string(s)
}

// Period restricts video listings to a relative creation-time window.
type Period string

const (
	PeriodNone  Period = ""
	PeriodAll   Period = "all"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a client-supplied period value to a known Period.
// Unrecognized values collapse to PeriodNone rather than failing the request.
func ParsePeriod(p string) Period {
	switch Period(p) {
	case PeriodAll, PeriodDay, PeriodWeek, PeriodMonth:
		return Period(p)
	default:
		return PeriodNone
	}
}

// IsValid reports whether the period is one of the forwardable values.
func (p Period) IsValid() bool {
	switch p {
	case PeriodAll, PeriodDay, PeriodWeek, PeriodMonth:
		return true
	default:
		return false
	}
}

func (p Period) String() string {
	return string(p)
}

// LowerBound returns the inclusive created_at lower bound for the period,
// serialized in TimestampLayout, relative to now. The second return value
// is false when the period imposes no bound (all or absent).
func (p Period) LowerBound(now time.Time) (string, bool) {
	var window time.Duration
	switch p {
	case PeriodDay:
		window = 24 * time.Hour
	case PeriodWeek:
		window = 7 * 24 * time.Hour
	case PeriodMonth:
		window = 30 * 24 * time.Hour
	default:
		return "", false
	}
	return now.UTC().Add(-window).Format(TimestampLayout), true
}
