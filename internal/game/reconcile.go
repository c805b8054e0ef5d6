package game

import "errors"

// ErrAmbiguousTable is returned when the persisted roster lists a game number
// more than once. Picking one of the rows would silently drop assignments.
var ErrAmbiguousTable = errors.New("ambiguous roster")

// ChangeKind identifies the kind of a detected change
type ChangeKind string

const (
	ChangeScheduleShift  ChangeKind = "schedule_shift"
	ChangeRefereeMissing ChangeKind = "referee_missing"
	ChangeUnmatchedGame  ChangeKind = "unmatched_game"
)

// Change is a difference between the league schedule and the persisted
// roster that needs attention. For a referee change only NewDate and NewTime
// are set, for an unmatched game only Number.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Number  int        `json:"number"`
	OldDate string     `json:"old_date,omitempty"`
	OldTime string     `json:"old_time,omitempty"`
	NewDate string     `json:"new_date,omitempty"`
	NewTime string     `json:"new_time,omitempty"`
}

// Result is the outcome of a reconciliation
type Result struct {
	Merged    Table    `json:"-"`
	Changes   []Change `json:"changes"`
	Unmatched []int    `json:"unmatched"`
}

// Of returns the changes of the given kind in detection order
func (r *Result) Of(kind ChangeKind) []Change {
	out := make([]Change, 0)
	for _, c := range r.Changes {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Reconcile merges the schedule fetched from the league with the persisted
// roster. Schedule fields of authoritative always win, volunteer fields of
// persisted always win. Games that left the league schedule are dropped.
// Neither input is modified.
func Reconcile(authoritative, persisted Table) (*Result, error) {
	index, err := persisted.Index()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Merged:    make(Table, 0, len(authoritative)),
		Changes:   make([]Change, 0),
		Unmatched: make([]int, 0),
	}
	reported := make(map[int]bool)

	for _, rec := range authoritative {
		merged := rec

		previous, ok := index[rec.Number]
		if !ok {
			if rec.Category != ExemptCategory && !reported[rec.Number] {
				reported[rec.Number] = true
				result.Unmatched = append(result.Unmatched, rec.Number)
				result.Changes = append(result.Changes, Change{
					Kind:   ChangeUnmatchedGame,
					Number: rec.Number,
				})
			}
			result.Merged = append(result.Merged, merged)
			continue
		}

		merged.CopyVolunteers(previous)
		result.Changes = append(result.Changes, DetectChanges(previous, merged)...)
		result.Merged = append(result.Merged, merged)
	}

	return result, nil
}

// DetectChanges runs every detector on a matched pair of records
func DetectChanges(previous, current Record) []Change {
	var changes []Change

	if c, ok := DetectScheduleShift(previous, current); ok {
		changes = append(changes, c)
	}
	if c, ok := DetectRefereeGap(previous, current); ok {
		changes = append(changes, c)
	}

	return changes
}

// DetectScheduleShift reports a moved game: the date or the time differs
func DetectScheduleShift(previous, current Record) (Change, bool) {
	if previous.Date == current.Date && previous.Time == current.Time {
		return Change{}, false
	}
	return Change{
		Kind:    ChangeScheduleShift,
		Number:  current.Number,
		OldDate: previous.Date,
		OldTime: previous.Time,
		NewDate: current.Date,
		NewTime: current.Time,
	}, true
}

// DetectRefereeGap reports a game that just started to need a home referee.
// A status that already asked for one and did not change is not reported
// again.
func DetectRefereeGap(previous, current Record) (Change, bool) {
	if previous.RefereeStatus == current.RefereeStatus || !current.NeedsHomeReferee() {
		return Change{}, false
	}
	return Change{
		Kind:    ChangeRefereeMissing,
		Number:  current.Number,
		NewDate: current.Date,
		NewTime: current.Time,
	}, true
}
