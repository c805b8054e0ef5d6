// Package game provides the home game roster model and its reconciliation.
//
// A Table holds one Record per scheduled home game, keyed by the league's game
// number. Schedule fields come from the league website on every run, volunteer
// assignments come from the roster persisted by the previous run. Reconcile
// merges both and reports the changes that need a notification: shifted
// games, games that newly need a home referee and games missing from the
// roster.
package game
