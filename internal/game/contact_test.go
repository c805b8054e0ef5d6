package game

import (
	"encoding/json"
	"testing"
)

func TestParseContact(t *testing.T) {
	tests := []struct {
		raw         string
		wantMethod  Method
		wantAddress string
	}{
		{"alice@x.test", MethodEmail, "alice@x.test"},
		{"  bob@x.test ", MethodEmail, "bob@x.test"},
		{"+49 170 1234567", MethodPhone, "+491701234567"},
		{"+491701234567", MethodPhone, "+491701234567"},
		{"0170 1234567", MethodUnset, ""},
		{"", MethodUnset, ""},
		{"nan", MethodUnset, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := ParseContact(tt.raw)
			if c.Method() != tt.wantMethod {
				t.Errorf("Method() = %v, want %v", c.Method(), tt.wantMethod)
			}
			if c.Address() != tt.wantAddress {
				t.Errorf("Address() = %q, want %q", c.Address(), tt.wantAddress)
			}
		})
	}
}

func TestContact_KeepsRawText(t *testing.T) {
	c := ParseContact("0170 1234567")
	if c.Reachable() {
		t.Error("expected local number to be unreachable")
	}
	if c.Raw() != "0170 1234567" {
		t.Errorf("expected raw text to be kept, got %q", c.Raw())
	}
}

func TestContact_Masked(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"alice@x.test", "al***@x.test"},
		{"a@x.test", "*@x.test"},
		{"jö@x.test", "**@x.test"},
		{"jörg@x.test", "jö**@x.test"},
		{"öl@x.test", "**@x.test"},
		{"+491701234567", "+49********67"},
		{"", ""},
		{"unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseContact(tt.raw).Masked(); got != tt.want {
				t.Errorf("Masked() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContact_JSON(t *testing.T) {
	a := Assignment{Name: "Alice", Contact: EmailContact("alice@x.test")}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"name":"Alice","contact":"alice@x.test"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var back Assignment
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != a {
		t.Errorf("expected %+v, got %+v", a, back)
	}
}
