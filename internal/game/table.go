package game

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// ByeMarker is the guest team the league lists for a team without a game
	ByeMarker = "spielfrei"

	// HomeRefereeMarker in the referee status means the home club has to
	// supply the referee
	HomeRefereeMarker = "Heim"

	// ExemptCategory marks mixed-age tournament games that have no stable
	// roster entry and are never reported as unmatched
	ExemptCategory = "GE"
)

func containsHomeMarker(status string) bool {
	return strings.Contains(status, HomeRefereeMarker)
}

// Table is the ordered roster of home games for one season
type Table []Record

// Clone returns a copy of the table that shares no records with t
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// Lookup returns the record with the given game number. When the number is
// listed more than once the last one wins.
func (t Table) Lookup(number int) (Record, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Number == number {
			return t[i], true
		}
	}
	return Record{}, false
}

// Duplicates returns every game number listed more than once, sorted
func (t Table) Duplicates() []int {
	seen := make(map[int]int, len(t))
	for _, rec := range t {
		seen[rec.Number]++
	}

	var dups []int
	for number, count := range seen {
		if count > 1 {
			dups = append(dups, number)
		}
	}
	sort.Ints(dups)
	return dups
}

// Index maps game numbers to records. It fails when a number is ambiguous.
func (t Table) Index() (map[int]Record, error) {
	if dups := t.Duplicates(); len(dups) > 0 {
		return nil, fmt.Errorf("%w: game numbers %v listed more than once", ErrAmbiguousTable, dups)
	}
	index := make(map[int]Record, len(t))
	for _, rec := range t {
		index[rec.Number] = rec
	}
	return index, nil
}

// OnDate returns the games played on date, without byes and blank rows
func (t Table) OnDate(date string) Table {
	out := make(Table, 0)
	for _, rec := range t {
		if rec.IsBlank() || rec.IsBye() {
			continue
		}
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	return out
}

// HasDate reports whether any record's date contains date
func (t Table) HasDate(date string) bool {
	if date == "" {
		return false
	}
	for _, rec := range t {
		if strings.Contains(rec.Date, date) {
			return true
		}
	}
	return false
}

// HomeRefereeNeeded returns the games on date for which the home club has to
// supply the referee
func (t Table) HomeRefereeNeeded(date string) Table {
	out := make(Table, 0)
	if date == "" {
		return out
	}
	for _, rec := range t {
		if strings.Contains(rec.Date, date) && rec.NeedsHomeReferee() {
			out = append(out, rec)
		}
	}
	return out
}
