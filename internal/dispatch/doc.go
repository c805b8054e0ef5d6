// Package dispatch selects the recipients of each notification category,
// renders their messages from the configured templates and hands them to
// the mail or SMS transport matching their contact.
//
// Every category returns a Tally. A recipient without a usable contact is
// skipped with a warning, a failed send is logged and counted; neither stops
// the remaining recipients.
package dispatch
