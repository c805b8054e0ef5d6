package dispatch

import (
	"context"
	"strconv"
	"strings"

	"github.com/mrwillibald/nuliga-helper/internal/game"
	"github.com/mrwillibald/nuliga-helper/internal/logger"
)

// TaskReminders notifies every volunteer of the games on date, then the
// liaison of each game
func (d *Dispatcher) TaskReminders(ctx context.Context, t game.Table, date string) Tally {
	var tally Tally
	tmpl := d.cfg.Texts.Task

	for _, rec := range t.OnDate(date) {
		for _, role := range game.TaskRoles {
			r := d.volunteer(&rec, role)
			tally.Add(d.deliver(ctx, "task", r, tmpl, d.mail,
				r.name, date, r.role, rec.Category, rec.Home, rec.Guest, rec.Time))
		}

		r := d.volunteer(&rec, game.RoleLiaison)
		tally.Add(d.deliver(ctx, "liaison", r, d.cfg.Texts.Liaison, d.mail,
			r.name, rec.DutyTeam, date,
			rec.Assignment(game.RoleJudge1).Name, rec.Assignment(game.RoleJudge2).Name,
			rec.Category, rec.Home, rec.Guest, rec.Time))
	}

	return tally
}

// PreTaskReminders notifies the volunteers of the games on date a week in
// advance. The concession stand of the first game is left out; it gets the
// service pre-notice instead.
func (d *Dispatcher) PreTaskReminders(ctx context.Context, t game.Table, date string) Tally {
	var tally Tally
	tmpl := d.cfg.Texts.PreTask

	roles := append([]game.Role{}, game.TaskRoles...)
	roles = append(roles, game.RoleLiaison)

	for i, rec := range t.OnDate(date) {
		for _, role := range roles {
			if i == 0 && role.IsConcession() {
				continue
			}
			r := d.volunteer(&rec, role)
			tally.Add(d.deliver(ctx, "pre_task", r, tmpl, d.mail,
				r.name, date, r.role, rec.Category, rec.Home, rec.Guest, rec.Time))
		}
	}

	return tally
}

// ServicePreNotice asks both concession volunteers of the first game on date
// to coordinate with each other. It is sent from the service mailbox.
func (d *Dispatcher) ServicePreNotice(ctx context.Context, t game.Table, date string) Tally {
	var tally Tally

	games := t.OnDate(date)
	if len(games) == 0 {
		return tally
	}
	first := games[0]

	pairs := [][2]game.Role{
		{game.RoleConcession1, game.RoleConcession2},
		{game.RoleConcession2, game.RoleConcession1},
	}
	for _, pair := range pairs {
		r := d.volunteer(&first, pair[0])
		partner := first.Assignment(pair[1]).Name
		tally.Add(d.deliver(ctx, "service", r, d.cfg.Texts.Service, d.serviceMail,
			r.name, date, r.role, first.Category, first.Home, first.Guest, partner, first.Time))
	}

	return tally
}

// RefereeCoordinatorAlert sends every coordinator the list of games on date
// that need a referee from the home club
func (d *Dispatcher) RefereeCoordinatorAlert(ctx context.Context, t game.Table, date string) Tally {
	var tally Tally

	games := t.HomeRefereeNeeded(date)
	if len(games) == 0 {
		return tally
	}

	var lines strings.Builder
	for _, rec := range games {
		lines.WriteString(rec.Category + " um " + rec.Time + "\n")
	}

	names := make([]string, 0, len(d.cfg.Coordinators))
	for _, c := range d.cfg.Coordinators {
		names = append(names, c.Name)
	}
	all := strings.Join(names, ", ")

	for _, c := range d.cfg.Coordinators {
		r := recipient{
			name:    c.Name,
			contact: game.ParseContact(c.Contact),
			role:    "referee_coordinator",
		}
		tally.Add(d.deliver(ctx, "referee", r, d.cfg.Texts.Referee, d.mail,
			c.Name, date, lines.String(), all))
	}

	d.log.Info("Home referees required", logger.Fields{
		"date":  date,
		"games": len(games),
	})
	return tally
}

// ShiftAlert tells every volunteer of rec that the game moved
func (d *Dispatcher) ShiftAlert(ctx context.Context, rec game.Record, change game.Change) Tally {
	var tally Tally

	roles := append([]game.Role{}, game.TaskRoles...)
	roles = append(roles, game.RoleLiaison)

	for _, role := range roles {
		r := d.volunteer(&rec, role)
		tally.Add(d.deliver(ctx, "shift", r, d.cfg.Texts.Shift, d.mail,
			r.name, r.role, rec.Category, rec.Home, rec.Guest,
			change.OldDate, change.OldTime, change.NewDate, change.NewTime))
	}

	return tally
}

// NewspaperDigest mails the schedule of date to the local newspaper.
// Tournament categories collapse into a single line each.
func (d *Dispatcher) NewspaperDigest(ctx context.Context, t game.Table, date, weekday, articleDate string) Tally {
	games := t.OnDate(date)
	if len(games) == 0 {
		return Tally{}
	}

	paper := d.cfg.Newspaper
	var lines strings.Builder
	listed := 0
	tournaments := make(map[string]bool)

	for _, rec := range games {
		start := cleanTime(rec.Time)
		if label, ok := paper.Tournaments[rec.Category]; ok {
			if tournaments[rec.Category] {
				continue
			}
			tournaments[rec.Category] = true
			lines.WriteString("Ab " + start + " " + label + "\n")
			listed++
			continue
		}

		team := rec.Category
		if label, ok := paper.Categories[rec.Category]; ok {
			team = label
		}
		lines.WriteString(start + " " + team + " " + rec.Home + " - " + rec.Guest + "\n")
		listed++
	}

	r := recipient{
		name:    paper.Name,
		contact: game.EmailContact(paper.Address),
		role:    "newspaper",
	}
	tally := d.deliver(ctx, "newspaper", r, d.cfg.Texts.Newspaper, d.mail,
		articleDate, weekday, date, lines.String())

	d.log.Info("Newspaper article prepared", logger.Fields{
		"date":  date,
		"lines": listed,
	})
	return tally
}

// UnmatchedReport tells the operator which scraped games have no row in the
// roster and need to be added by hand
func (d *Dispatcher) UnmatchedReport(ctx context.Context, numbers []int) Tally {
	if len(numbers) == 0 {
		return Tally{}
	}

	list := make([]string, len(numbers))
	for i, n := range numbers {
		list[i] = strconv.Itoa(n)
	}

	op := d.cfg.Mail.Operator
	r := recipient{
		name:    op.Name,
		contact: game.ParseContact(op.Contact),
		role:    "operator",
	}
	return d.deliver(ctx, "unmatched", r, d.cfg.Texts.Unmatched, d.mail, strings.Join(list, ", "))
}

// cleanTime strips the league's markers for rescheduled ("v") and
// tournament ("t") games from a start time
func cleanTime(s string) string {
	return strings.Trim(strings.Trim(s, " v"), " t")
}
