// Package planner runs one pass of the home game helper: download the
// persisted roster, merge it with the league schedule, alert on changes,
// persist the result and send the reminders that are due today.
//
// Runs are strictly sequential and must not overlap; the scheduler that
// invokes the helper once a day guarantees that.
package planner
