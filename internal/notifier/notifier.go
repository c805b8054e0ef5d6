package notifier

import "context"

// Mail is a plain text message to a single recipient
type Mail struct {
	ToName  string
	ToAddr  string
	Subject string
	Body    string
}

// Mailer sends mail from one mailbox
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// SMSSender sends text messages to phone numbers in international format
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}
