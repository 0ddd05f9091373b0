// Package i18n holds every user-facing string of the contact flow in the two
// languages the site is published in.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Lang is one of the supported site languages.
type Lang int

const (
	PL Lang = iota
	EN
)

var (
	supported = []language.Tag{language.Polish, language.English}
	matcher   = language.NewMatcher(supported)
)

// Parse maps a language code, BCP 47 tag or Accept-Language header value to a
// supported language. Anything unrecognised falls back to PL.
func Parse(s string) Lang {
	s = strings.TrimSpace(s)
	if s == "" {
		return PL
	}
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return PL
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return PL
	}
	return Lang(idx)
}

func (l Lang) String() string {
	switch l {
	case EN:
		return "en"
	default:
		return "pl"
	}
}

// MarshalText lets Lang travel as "pl"/"en" in JSON.
func (l Lang) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Lang) UnmarshalText(b []byte) error {
	*l = Parse(string(b))
	return nil
}

// Key names a user-facing message.
type Key int

const (
	TooManyAttempts Key = iota
	ServerMisconfigured
	SendFailed
	SuspiciousContent
	NameLength
	EmailInvalid
	PhoneInvalid
	LocationLength
	GoalLength
	AdditionalTooLong
	ProblemsRequired
	RoomsRequired
	NameRequired
	NameTooShort
	EmailRequired
	PhoneRequired
	LocationRequired
	GoalRequired
	ConsentRequired
	MalformedRequest

	keyCount
)

// Keys returns every defined key.
func Keys() []Key {
	keys := make([]Key, 0, keyCount)
	for k := Key(0); k < keyCount; k++ {
		keys = append(keys, k)
	}
	return keys
}

var polish = [keyCount]string{
	TooManyAttempts:     "Zbyt wiele prób. Spróbuj ponownie za minutę.",
	ServerMisconfigured: "Błąd konfiguracji serwera. Spróbuj ponownie później.",
	SendFailed:          "Nie udało się wysłać wiadomości. Spróbuj ponownie później.",
	SuspiciousContent:   "Wiadomość zawiera podejrzane treści.",
	NameLength:          "Imię i nazwisko musi mieć od 2 do 100 znaków.",
	EmailInvalid:        "Podaj prawidłowy adres e-mail.",
	PhoneInvalid:        "Podaj prawidłowy numer telefonu.",
	LocationLength:      "Lokalizacja musi mieć od 2 do 200 znaków.",
	GoalLength:          "Opis celu musi mieć od 10 do 2000 znaków.",
	AdditionalTooLong:   "Dodatkowe pytania mogą mieć najwyżej 2000 znaków.",
	ProblemsRequired:    "Wybierz przynajmniej jeden problem.",
	RoomsRequired:       "Wybierz przynajmniej jedno pomieszczenie.",
	NameRequired:        "Imię jest wymagane.",
	NameTooShort:        "Imię musi mieć co najmniej 3 znaki.",
	EmailRequired:       "Adres e-mail jest wymagany.",
	PhoneRequired:       "Numer telefonu jest wymagany.",
	LocationRequired:    "Lokalizacja jest wymagana.",
	GoalRequired:        "Opisz, co chcesz osiągnąć.",
	ConsentRequired:     "Zaznacz zgodę na przetwarzanie danych.",
	MalformedRequest:    "Nieprawidłowe żądanie.",
}

var english = [keyCount]string{
	TooManyAttempts:     "Too many attempts. Please try again in a minute.",
	ServerMisconfigured: "Server configuration error. Please try again later.",
	SendFailed:          "Could not send your message. Please try again later.",
	SuspiciousContent:   "Your message contains suspicious content.",
	NameLength:          "Name must be between 2 and 100 characters.",
	EmailInvalid:        "Please enter a valid email address.",
	PhoneInvalid:        "Please enter a valid phone number.",
	LocationLength:      "Location must be between 2 and 200 characters.",
	GoalLength:          "Goal description must be between 10 and 2000 characters.",
	AdditionalTooLong:   "Additional questions can be at most 2000 characters.",
	ProblemsRequired:    "Select at least one problem.",
	RoomsRequired:       "Select at least one room.",
	NameRequired:        "Name is required.",
	NameTooShort:        "Name must be at least 3 characters.",
	EmailRequired:       "Email is required.",
	PhoneRequired:       "Phone number is required.",
	LocationRequired:    "Location is required.",
	GoalRequired:        "Describe what you want to achieve.",
	ConsentRequired:     "Please accept the data processing consent.",
	MalformedRequest:    "Malformed request.",
}

// Text returns the message for k in l.
func (l Lang) Text(k Key) string {
	if k < 0 || k >= keyCount {
		return ""
	}
	switch l {
	case EN:
		return english[k]
	default:
		return polish[k]
	}
}
