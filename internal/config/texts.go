package config

import "fmt"

// Template is one message in its mail and SMS variants. Placeholders are
// positional: {0}, {1}, ...
type Template struct {
	Subject string `yaml:"subject"`
	Mail    string `yaml:"mail"`
	SMS     string `yaml:"sms"`
}

// SMSText returns the SMS variant, falling back to the mail body
func (t Template) SMSText() string {
	if t.SMS != "" {
		return t.SMS
	}
	return t.Mail
}

// Texts holds the template of every notification category
type Texts struct {
	Task      Template `yaml:"task"`
	PreTask   Template `yaml:"pre_task"`
	Liaison   Template `yaml:"liaison"`
	Service   Template `yaml:"service"`
	Referee   Template `yaml:"referee"`
	Shift     Template `yaml:"shift"`
	Newspaper Template `yaml:"newspaper"`
	Unmatched Template `yaml:"unmatched"`
}

func (t *Texts) applyDefaults() {
	if t.PreTask.Mail == "" {
		t.PreTask = t.Task
	}
}

func (t *Texts) validate() error {
	required := []struct {
		name string
		tmpl Template
	}{
		{"task", t.Task},
		{"liaison", t.Liaison},
		{"service", t.Service},
		{"referee", t.Referee},
		{"shift", t.Shift},
		{"unmatched", t.Unmatched},
	}
	for _, r := range required {
		if r.tmpl.Mail == "" {
			return fmt.Errorf("texts.%s.mail is required", r.name)
		}
		if r.tmpl.Subject == "" {
			return fmt.Errorf("texts.%s.subject is required", r.name)
		}
	}
	return nil
}
