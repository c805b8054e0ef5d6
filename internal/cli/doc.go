// Package cli implements the command-line interface for nuliga-helper.
//
// The root command loads the club configuration, wires the league scraper,
// roster storage and message transports into a planner run and prints the
// run summary as text or JSON. It is meant to be invoked once a day by a
// scheduler such as cron.
package cli
