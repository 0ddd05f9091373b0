// Package form defines the contact submission and the rules applied to it on
// both sides of the wire.
package form

import (
	"regexp"

	"contactgate/internal/i18n"
)

// Field lengths, counted in runes after sanitizing.
const (
	NameMin       = 2
	NameMax       = 100
	EmailMax      = 254
	LocationMin   = 2
	LocationMax   = 200
	GoalMin       = 10
	GoalMax       = 2000
	AdditionalMax = 2000
)

var (
	// EmailPattern is the strict local@domain.tld shape accepted by the server.
	EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// PhonePattern accepts an optional +CC prefix and nine digits grouped 3-3-3
	// or 2-3-2-2, separated by spaces or dashes.
	PhonePattern = regexp.MustCompile(`^(\+\d{1,3}[\s-]?)?(\d{3}[\s-]?\d{3}[\s-]?\d{3}|\d{2}[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2})$`)
)

// Submission is the payload assembled by the wizard and sent once.
type Submission struct {
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Location            string     `json:"location"`
	Problems            []string   `json:"problems"`
	Rooms               []string   `json:"rooms"`
	Goal                string     `json:"goal"`
	PreferredDate       string     `json:"preferredDate,omitempty"`
	AdditionalQuestions string     `json:"additionalQuestions,omitempty"`
	Honeypot            string     `json:"_honeypot,omitempty"`
	Lang                *i18n.Lang `json:"lang,omitempty"`
}

// Sanitized returns a copy with every free-text field passed through Sanitize.
// Option codes and the honeypot are left untouched.
func (s Submission) Sanitized() Submission {
	out := s
	out.Name = Sanitize(s.Name)
	out.Email = Sanitize(s.Email)
	out.Phone = Sanitize(s.Phone)
	out.Location = Sanitize(s.Location)
	out.Goal = Sanitize(s.Goal)
	out.PreferredDate = Sanitize(s.PreferredDate)
	out.AdditionalQuestions = Sanitize(s.AdditionalQuestions)
	out.Problems = append([]string(nil), s.Problems...)
	out.Rooms = append([]string(nil), s.Rooms...)
	return out
}

// IsBot reports whether the hidden honeypot field was filled in.
func (s Submission) IsBot() bool {
	return s.Honeypot != ""
}
