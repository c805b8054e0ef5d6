// Package storage persists the home game roster.
//
// The roster is an xlsx workbook with one row per game: the schedule columns
// scraped from the league website followed by a name and a contact column
// per volunteer role. Column headers come from the club configuration so
// the sheet can be edited by hand. Between runs the workbook lives in an
// S3-compatible bucket (Cloudflare R2 in production); ObjectStore moves it
// between the bucket and the local work directory.
package storage
