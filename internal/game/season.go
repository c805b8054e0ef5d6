package game

import (
	"fmt"
	"time"
)

// DateLayout is the club-local date format used by the league and the roster
const DateLayout = "02.01.2006"

// Season is a handball season running from autumn to the next summer
type Season struct {
	StartYear int
}

// SeasonOf returns the season a day belongs to. From July on the new season
// has started.
func SeasonOf(day time.Time) Season {
	if day.Month() >= time.July {
		return Season{StartYear: day.Year()}
	}
	return Season{StartYear: day.Year() - 1}
}

// From returns the first day searched on the league website
func (s Season) From() string {
	return fmt.Sprintf("01.09.%d", s.StartYear)
}

// To returns the last day searched on the league website
func (s Season) To() string {
	return fmt.Sprintf("01.07.%d", s.StartYear+1)
}

// String returns the season as "2025/26"
func (s Season) String() string {
	return fmt.Sprintf("%d/%02d", s.StartYear, (s.StartYear+1)%100)
}

// FileName returns the name of the persisted roster for the season
func (s Season) FileName() string {
	return fmt.Sprintf("Heimspielplan_%d_%02d.xlsx", s.StartYear, (s.StartYear+1)%100)
}

// FormatDate formats day in the club-local date format
func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}

// ParseDate parses a club-local date. Returns the zero time if parsing fails.
func ParseDate(text string) time.Time {
	t, err := time.Parse(DateLayout, text)
	if err != nil {
		return time.Time{}
	}
	return t
}
