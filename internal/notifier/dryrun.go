package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// DryRunMailer prints what would be mailed without actually sending
type DryRunMailer struct {
	mu    sync.Mutex
	out   io.Writer
	label string
	count int
}

// NewDryRunMailer creates a dry-run mailer writing to out. The label names
// the mailbox the messages would be sent from.
func NewDryRunMailer(out io.Writer, label string) *DryRunMailer {
	return &DryRunMailer{out: out, label: label}
}

// Send prints the message
func (n *DryRunMailer) Send(ctx context.Context, m Mail) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.count++
	fmt.Fprintf(n.out, "--- Mail %d (%s) ---\n", n.count, n.label)
	fmt.Fprintf(n.out, "To: %s <%s>\n", m.ToName, m.ToAddr)
	fmt.Fprintf(n.out, "Subject: %s\n\n", m.Subject)
	fmt.Fprintln(n.out, m.Body)
	fmt.Fprintln(n.out)
	return nil
}

// Count returns how many messages were printed
func (n *DryRunMailer) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// DryRunSMS prints what would be texted without actually sending
type DryRunSMS struct {
	mu    sync.Mutex
	out   io.Writer
	count int
}

// NewDryRunSMS creates a dry-run SMS sender writing to out
func NewDryRunSMS(out io.Writer) *DryRunSMS {
	return &DryRunSMS{out: out}
}

// Send prints the text message
func (n *DryRunSMS) Send(ctx context.Context, to, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.count++
	fmt.Fprintf(n.out, "--- SMS %d ---\n", n.count)
	fmt.Fprintf(n.out, "To: %s\n\n", to)
	fmt.Fprintln(n.out, body)
	fmt.Fprintf(n.out, "\n(Length: %d characters)\n\n", len([]rune(body)))
	return nil
}

// Count returns how many messages were printed
func (n *DryRunSMS) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}
