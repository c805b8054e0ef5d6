package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mrwillibald/nuliga-helper/internal/config"
)

func newTwilioServer(t *testing.T, handler http.HandlerFunc) *TwilioSender {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewTwilioSender(config.SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+4915100000000",
		BaseURL:    server.URL + "/2010-04-01/",
	}, server.Client())
}

func TestTwilioSender_Send(t *testing.T) {
	sender := newTwilioServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("basic auth = %q, %q, %v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("To"); got != "+4917012345678" {
			t.Errorf("To = %q", got)
		}
		if got := r.PostForm.Get("From"); got != "+4915100000000" {
			t.Errorf("From = %q", got)
		}
		if got := r.PostForm.Get("Body"); got != "Hallo Bob, Spiel 102 verlegt." {
			t.Errorf("Body = %q", got)
		}
		if r.PostForm.Has("MessagingServiceSid") {
			t.Error("MessagingServiceSid must be omitted when unset")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	})

	if err := sender.Send(context.Background(), "+4917012345678", "Hallo Bob, Spiel 102 verlegt."); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestTwilioSender_MessagingService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("MessagingServiceSid"); got != "MG1" {
			t.Errorf("MessagingServiceSid = %q", got)
		}
		if r.PostForm.Has("From") {
			t.Error("From must be omitted when a messaging service is used")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM2","status":"accepted"}`))
	}))
	defer server.Close()

	sender := NewTwilioSender(config.SMSConfig{
		AccountSID:          "AC123",
		AuthToken:           "secret",
		From:                "+4915100000000",
		MessagingServiceSID: "MG1",
		BaseURL:             server.URL + "/",
	}, server.Client())

	if err := sender.Send(context.Background(), "+4917012345678", "Hallo"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestTwilioSender_APIError(t *testing.T) {
	sender := newTwilioServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
	})

	err := sender.Send(context.Background(), "+49", "Hallo")
	var apiErr *TwilioError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Send() error = %v, want *TwilioError", err)
	}
	if apiErr.Code != 21211 {
		t.Errorf("Code = %d, want 21211", apiErr.Code)
	}
}
