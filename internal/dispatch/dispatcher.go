package dispatch

import (
	"context"

	"github.com/mrwillibald/nuliga-helper/internal/config"
	"github.com/mrwillibald/nuliga-helper/internal/game"
	"github.com/mrwillibald/nuliga-helper/internal/logger"
	"github.com/mrwillibald/nuliga-helper/internal/notifier"
)

// Tally counts the outcome of one notification call
type Tally struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Add accumulates o into t
func (t *Tally) Add(o Tally) {
	t.Sent += o.Sent
	t.Skipped += o.Skipped
	t.Failed += o.Failed
}

// Dispatcher sends the club's notifications
type Dispatcher struct {
	cfg         *config.Config
	mail        notifier.Mailer
	serviceMail notifier.Mailer
	sms         notifier.SMSSender
	log         *logger.Logger
	metrics     *logger.Metrics
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithServiceMailer sets the mailbox used for the concession pre-notice.
// Without it the default mailer is used.
func WithServiceMailer(m notifier.Mailer) Option {
	return func(d *Dispatcher) {
		d.serviceMail = m
	}
}

// WithSMS sets the SMS transport. Without it phone contacts are skipped.
func WithSMS(s notifier.SMSSender) Option {
	return func(d *Dispatcher) {
		d.sms = s
	}
}

// WithLogger replaces the default logger
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithMetrics replaces the default metrics
func WithMetrics(m *logger.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a Dispatcher that sends mail through mail
func New(cfg *config.Config, mail notifier.Mailer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:     cfg,
		mail:    mail,
		log:     logger.Default(),
		metrics: logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.serviceMail == nil {
		d.serviceMail = mail
	}
	return d
}

// recipient is one person a notification is addressed to
type recipient struct {
	name    string
	contact game.Contact
	role    string
	game    int
}

func (d *Dispatcher) volunteer(rec *game.Record, role game.Role) recipient {
	a := rec.Assignment(role)
	return recipient{
		name:    a.Name,
		contact: a.Contact,
		role:    d.cfg.Columns.Label(role),
		game:    rec.Number,
	}
}

// deliver renders tmpl for r and sends it over the transport matching the
// contact. It never returns an error; failures are logged and counted.
func (d *Dispatcher) deliver(ctx context.Context, kind string, r recipient, tmpl config.Template, mailer notifier.Mailer, args ...any) Tally {
	fields := logger.Fields{
		"notification": kind,
		"name":         r.name,
		"role":         r.role,
	}
	if r.game != 0 {
		fields["game"] = r.game
	}

	switch r.contact.Method() {
	case game.MethodEmail:
		fields["to"] = r.contact.Masked()
		err := mailer.Send(ctx, notifier.Mail{
			ToName:  r.name,
			ToAddr:  r.contact.Address(),
			Subject: Format(tmpl.Subject, args...),
			Body:    Format(tmpl.Mail, args...),
		})
		if err != nil {
			d.log.Error("Failed to send e-mail", fields, err)
			d.metrics.IncrCounter("dispatch.failed")
			return Tally{Failed: 1}
		}
		d.log.Info("E-Mail sent", fields)
		d.metrics.IncrCounter("dispatch.email")
		return Tally{Sent: 1}

	case game.MethodPhone:
		fields["to"] = r.contact.Masked()
		if d.sms == nil {
			d.log.Warn("SMS not configured, skipping phone contact", fields)
			d.metrics.IncrCounter("dispatch.skipped")
			return Tally{Skipped: 1}
		}
		if err := d.sms.Send(ctx, r.contact.Address(), Format(tmpl.SMSText(), args...)); err != nil {
			d.log.Error("Failed to send SMS", fields, err)
			d.metrics.IncrCounter("dispatch.failed")
			return Tally{Failed: 1}
		}
		d.log.Info("SMS sent", fields)
		d.metrics.IncrCounter("dispatch.sms")
		return Tally{Sent: 1}

	default:
		d.log.Warn("No valid phone number or email address", fields)
		d.metrics.IncrCounter("dispatch.skipped")
		return Tally{Skipped: 1}
	}
}
