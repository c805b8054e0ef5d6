package game

import "strings"

// Method is the transport a contact can be reached with
type Method int

const (
	MethodUnset Method = iota
	MethodEmail
	MethodPhone
)

func (m Method) String() string {
	switch m {
	case MethodEmail:
		return "email"
	case MethodPhone:
		return "sms"
	default:
		return "unset"
	}
}

// Contact is an email address, an international phone number or nothing
// usable. The original cell text is kept so unusable entries survive a
// roster round trip unchanged.
type Contact struct {
	method Method
	value  string
}

// ParseContact classifies a roster cell. Anything with an "@" is an email
// address, anything with a "+" a phone number in international format.
func ParseContact(raw string) Contact {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return Contact{}
	case strings.Contains(value, "@"):
		return Contact{method: MethodEmail, value: value}
	case strings.Contains(value, "+"):
		return Contact{method: MethodPhone, value: value}
	default:
		return Contact{method: MethodUnset, value: value}
	}
}

// EmailContact returns a contact reached by mail
func EmailContact(address string) Contact {
	return Contact{method: MethodEmail, value: address}
}

// PhoneContact returns a contact reached by SMS
func PhoneContact(number string) Contact {
	return Contact{method: MethodPhone, value: number}
}

// Method returns how the contact can be reached
func (c Contact) Method() Method {
	return c.method
}

// Address returns the destination for the contact's method, or "" when the
// contact cannot be reached
func (c Contact) Address() string {
	switch c.method {
	case MethodEmail:
		return c.value
	case MethodPhone:
		return strings.ReplaceAll(c.value, " ", "")
	default:
		return ""
	}
}

// Raw returns the text the contact was parsed from
func (c Contact) Raw() string {
	return c.value
}

// Reachable reports whether a message can be delivered to the contact
func (c Contact) Reachable() bool {
	return c.method != MethodUnset
}

// Masked returns the destination with most characters hidden, for logs
func (c Contact) Masked() string {
	switch c.method {
	case MethodEmail:
		local, domain, _ := strings.Cut(c.value, "@")
		return maskKeep(local, 2) + "@" + domain
	case MethodPhone:
		number := []rune(c.Address())
		if len(number) <= 5 {
			return strings.Repeat("*", len(number))
		}
		return string(number[:3]) + strings.Repeat("*", len(number)-5) + string(number[len(number)-2:])
	default:
		return ""
	}
}

// maskKeep keeps the first keep characters of s, counted in runes
func maskKeep(s string, keep int) string {
	r := []rune(s)
	if len(r) <= keep {
		return strings.Repeat("*", len(r))
	}
	return string(r[:keep]) + strings.Repeat("*", len(r)-keep)
}

// MarshalText implements encoding.TextMarshaler
func (c Contact) MarshalText() ([]byte, error) {
	return []byte(c.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Contact) UnmarshalText(text []byte) error {
	*c = ParseContact(string(text))
	return nil
}
