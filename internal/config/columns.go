package config

import (
	"fmt"

	"github.com/mrwillibald/nuliga-helper/internal/game"
)

const (
	// DefaultLeagueURL is the club meetings search of the Bavarian handball league
	DefaultLeagueURL = "https://bhv-handball.liga.nu/cgi-bin/WebObjects/nuLigaHBDE.woa/wa/clubMeetings"

	// DefaultTwilioURL is the base of the Twilio REST API
	DefaultTwilioURL = "https://api.twilio.com/2010-04-01/"
)

// Columns maps roster fields to the column headers of the workbook
type Columns struct {
	Day      string                 `yaml:"day"`
	Date     string                 `yaml:"date"`
	Time     string                 `yaml:"time"`
	Hall     string                 `yaml:"hall"`
	Number   string                 `yaml:"number"`
	Category string                 `yaml:"category"`
	Home     string                 `yaml:"home"`
	Guest    string                 `yaml:"guest"`
	Referee  string                 `yaml:"referee"`
	DutyTeam string                 `yaml:"duty_team"`
	Roles    map[string]RoleColumns `yaml:"roles"`
}

// RoleColumns names the two columns of a volunteer role. Name doubles as
// the task label in messages.
type RoleColumns struct {
	Name    string `yaml:"name"`
	Contact string `yaml:"contact"`
}

var defaultRoleColumns = map[game.Role]RoleColumns{
	game.RoleLiaison:     {Name: "MV", Contact: "Kontakt MV"},
	game.RoleJudge1:      {Name: "Kampfgericht 1", Contact: "Kontakt Kampfgericht 1"},
	game.RoleJudge2:      {Name: "Kampfgericht 2", Contact: "Kontakt Kampfgericht 2"},
	game.RoleConcession1: {Name: "Verkauf 1", Contact: "Kontakt Verkauf 1"},
	game.RoleConcession2: {Name: "Verkauf 2", Contact: "Kontakt Verkauf 2"},
	game.RoleSecurity:    {Name: "Sicherheit", Contact: "Kontakt Sicherheit"},
	game.RoleCleaning:    {Name: "Reinigung", Contact: "Kontakt Reinigung"},
}

// DefaultColumns returns the column headers used when the configuration
// names none
func DefaultColumns() Columns {
	var c Columns
	c.applyDefaults()
	return c
}

func (c *Columns) applyDefaults() {
	setDefault(&c.Day, "Tag")
	setDefault(&c.Date, "Datum")
	setDefault(&c.Time, "Zeit")
	setDefault(&c.Hall, "Halle")
	setDefault(&c.Number, "Nr.")
	setDefault(&c.Category, "AK")
	setDefault(&c.Home, "Heimmannschaft")
	setDefault(&c.Guest, "Gastmannschaft")
	setDefault(&c.Referee, "Schiedsrichter")
	setDefault(&c.DutyTeam, "KG-Team")

	if c.Roles == nil {
		c.Roles = make(map[string]RoleColumns, len(game.Roles))
	}
	for _, role := range game.Roles {
		cols := c.Roles[role.Key()]
		def := defaultRoleColumns[role]
		setDefault(&cols.Name, def.Name)
		setDefault(&cols.Contact, def.Contact)
		c.Roles[role.Key()] = cols
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Role returns the column headers of a volunteer role
func (c Columns) Role(role game.Role) RoleColumns {
	if cols, ok := c.Roles[role.Key()]; ok {
		return cols
	}
	return defaultRoleColumns[role]
}

// Label returns the task label of a role as used in messages
func (c Columns) Label(role game.Role) string {
	return c.Role(role).Name
}

// Schedule returns the headers of the schedule fields in workbook order
func (c Columns) Schedule() []string {
	return []string{c.Day, c.Date, c.Time, c.Hall, c.Number, c.Category, c.Home, c.Guest, c.Referee}
}

// Headers returns every workbook header in column order
func (c Columns) Headers() []string {
	headers := append(c.Schedule(), c.DutyTeam)
	for _, role := range game.Roles {
		cols := c.Role(role)
		headers = append(headers, cols.Name, cols.Contact)
	}
	return headers
}

func (c Columns) validate() error {
	for key := range c.Roles {
		known := false
		for _, role := range game.Roles {
			if role.Key() == key {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("columns.roles: unknown role %q", key)
		}
	}

	seen := make(map[string]bool)
	for _, header := range c.Headers() {
		if header == "" {
			return fmt.Errorf("columns: empty column name")
		}
		if seen[header] {
			return fmt.Errorf("columns: %q is used for more than one field", header)
		}
		seen[header] = true
	}
	return nil
}
