package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/sling"
	"github.com/mrwillibald/nuliga-helper/internal/config"
)

// TwilioSender sends text messages through the Twilio Messages API
type TwilioSender struct {
	base                *sling.Sling
	accountSID          string
	from                string
	messagingServiceSID string
}

type twilioMessageParams struct {
	To                  string `url:"To"`
	From                string `url:"From,omitempty"`
	MessagingServiceSID string `url:"MessagingServiceSid,omitempty"`
	Body                string `url:"Body"`
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// TwilioError is the error document returned by the Twilio API
type TwilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	MoreInfo string `json:"more_info"`
}

func (e *TwilioError) Error() string {
	return fmt.Sprintf("twilio: %d %s (status %d)", e.Code, e.Message, e.Status)
}

// NewTwilioSender creates a sender for the configured account. A nil client
// uses one with a 30 second timeout.
func NewTwilioSender(cfg config.SMSConfig, client *http.Client) *TwilioSender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	base := sling.New().Client(client).Base(cfg.BaseURL).SetBasicAuth(cfg.AccountSID, cfg.AuthToken)

	return &TwilioSender{
		base:                base,
		accountSID:          cfg.AccountSID,
		from:                cfg.From,
		messagingServiceSID: cfg.MessagingServiceSID,
	}
}

// Send delivers body to the phone number to
func (t *TwilioSender) Send(ctx context.Context, to, body string) error {
	params := &twilioMessageParams{
		To:                  to,
		MessagingServiceSID: t.messagingServiceSID,
		Body:                body,
	}
	if params.MessagingServiceSID == "" {
		params.From = t.from
	}

	req, err := t.base.New().
		Post(fmt.Sprintf("Accounts/%s/Messages.json", t.accountSID)).
		BodyForm(params).
		Request()
	if err != nil {
		return fmt.Errorf("building SMS request: %w", err)
	}

	msg := new(twilioMessage)
	apiErr := new(TwilioError)
	resp, err := t.base.Do(req.WithContext(ctx), msg, apiErr)
	if err != nil {
		return fmt.Errorf("sending SMS: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		if apiErr.Code != 0 || apiErr.Message != "" {
			return apiErr
		}
		return fmt.Errorf("sending SMS: unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
