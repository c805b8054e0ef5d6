// Package notifier delivers messages to volunteers and coordinators.
//
// Mail goes out over SMTP from one of the club's mailboxes, text messages
// through the Twilio REST API. Dry-run implementations print each message
// instead of sending it so a run can be checked end to end.
package notifier
