// Package scraper fetches the home game schedule from the nuLiga league website.
//
// The club meetings search returns one HTML table (class "result-set") with a
// row per game of the club. Day and date cells are only filled on the first
// game of a day, so they are carried down to the following rows. Games in
// other halls and bye rows without a game number are dropped.
package scraper
