package game

// Role is a volunteer duty at a home game
type Role int

const (
	RoleLiaison Role = iota
	RoleJudge1
	RoleJudge2
	RoleConcession1
	RoleConcession2
	RoleSecurity
	RoleCleaning

	roleCount
)

// Roles lists every volunteer role in roster column order.
// The reconciler and the workbook schema both iterate this list, so a new
// duty only needs a constant above and an entry here.
var Roles = []Role{
	RoleLiaison,
	RoleJudge1,
	RoleJudge2,
	RoleConcession1,
	RoleConcession2,
	RoleSecurity,
	RoleCleaning,
}

// TaskRoles are the roles that receive a task reminder. The liaison is
// notified separately with a summary of the game.
var TaskRoles = []Role{
	RoleJudge1,
	RoleJudge2,
	RoleConcession1,
	RoleConcession2,
	RoleSecurity,
	RoleCleaning,
}

var roleKeys = map[Role]string{
	RoleLiaison:     "liaison",
	RoleJudge1:      "judge1",
	RoleJudge2:      "judge2",
	RoleConcession1: "concession1",
	RoleConcession2: "concession2",
	RoleSecurity:    "security",
	RoleCleaning:    "cleaning",
}

// Key returns the stable identifier of the role used in configuration and logs
func (r Role) Key() string {
	if key, ok := roleKeys[r]; ok {
		return key
	}
	return "unknown"
}

func (r Role) String() string {
	return r.Key()
}

// IsConcession reports whether the role staffs the concession stand
func (r Role) IsConcession() bool {
	return r == RoleConcession1 || r == RoleConcession2
}

// Assignment is one volunteer slot: who does the job and how to reach them
type Assignment struct {
	Name    string  `json:"name,omitempty"`
	Contact Contact `json:"contact"`
}

// IsZero reports whether nobody is assigned
func (a Assignment) IsZero() bool {
	return a.Name == "" && a.Contact.Raw() == ""
}

// Volunteers holds one assignment per role, indexed by Role
type Volunteers [roleCount]Assignment

// Record is one home game at the club's venue
type Record struct {
	Number int `json:"number"`

	// Schedule fields, overwritten from the league website on every run
	Day           string `json:"day"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Hall          string `json:"hall"`
	Category      string `json:"category"`
	Home          string `json:"home"`
	Guest         string `json:"guest"`
	RefereeStatus string `json:"referee_status"`

	// Volunteer fields, carried forward from the persisted roster
	DutyTeam   string     `json:"duty_team,omitempty"`
	Volunteers Volunteers `json:"volunteers"`
}

// Assignment returns the volunteer assigned to role
func (r *Record) Assignment(role Role) Assignment {
	if role < 0 || role >= roleCount {
		return Assignment{}
	}
	return r.Volunteers[role]
}

// Assign sets the volunteer for role
func (r *Record) Assign(role Role, a Assignment) {
	if role < 0 || role >= roleCount {
		return
	}
	r.Volunteers[role] = a
}

// CopyVolunteers copies every volunteer field of src onto r and leaves the
// schedule fields untouched
func (r *Record) CopyVolunteers(src Record) {
	r.DutyTeam = src.DutyTeam
	r.Volunteers = src.Volunteers
}

// NeedsHomeReferee reports whether the home club has to supply the referee
func (r *Record) NeedsHomeReferee() bool {
	return containsHomeMarker(r.RefereeStatus)
}

// IsBye reports whether the record is a placeholder for a team without a game
func (r *Record) IsBye() bool {
	return r.Guest == ByeMarker
}

// IsBlank reports whether the record carries no data at all
func (r *Record) IsBlank() bool {
	return *r == Record{}
}
