package gateway

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"contactgate/internal/form"
)

const phoneRegion = "PL"

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html lang="pl">
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<h2>Nowe zgłoszenie z formularza kontaktowego</h2>
<table cellpadding="6" style="border-collapse: collapse;">
<tr><td><strong>Imię i nazwisko:</strong></td><td>{{.Name}}</td></tr>
<tr><td><strong>E-mail:</strong></td><td><a href="{{.MailTo}}">{{.Email}}</a></td></tr>
<tr><td><strong>Telefon:</strong></td><td><a href="{{.Tel}}">{{.Phone}}</a></td></tr>
<tr><td><strong>Lokalizacja:</strong></td><td>{{.Location}}</td></tr>
<tr><td><strong>Problemy:</strong></td><td>{{.Problems}}</td></tr>
<tr><td><strong>Pomieszczenia:</strong></td><td>{{.Rooms}}</td></tr>
</table>
<h3>Cel</h3>
<p style="white-space: pre-wrap;">{{.Goal}}</p>
{{- if .PreferredDate}}
<h3>Preferowany termin</h3>
<p>{{.PreferredDate}}</p>
{{- end}}
{{- if .AdditionalQuestions}}
<h3>Dodatkowe pytania</h3>
<p style="white-space: pre-wrap;">{{.AdditionalQuestions}}</p>
{{- end}}
</body>
</html>
`))

// notificationView carries already sanitized text. Sanitize removes tags and
// escapes < > ' ", so the fields are passed as template.HTML to avoid
// escaping the entities a second time.
type notificationView struct {
	Subject             string
	Name                template.HTML
	Email               template.HTML
	MailTo              template.URL
	Phone               template.HTML
	Tel                 template.URL
	Location            template.HTML
	Problems            template.HTML
	Rooms               template.HTML
	Goal                template.HTML
	PreferredDate       template.HTML
	AdditionalQuestions template.HTML
}

// renderNotification builds the subject and HTML body for a sanitized,
// validated submission.
func renderNotification(s form.Submission, problems, rooms form.Labels) (subject, body string, err error) {
	subject = notificationSubject(s, problems)

	view := notificationView{
		Subject:             subject,
		Name:                template.HTML(s.Name),
		Email:               template.HTML(s.Email),
		MailTo:              template.URL("mailto:" + s.Email),
		Phone:               template.HTML(s.Phone),
		Tel:                 template.URL(telLink(s.Phone)),
		Location:            template.HTML(s.Location),
		Problems:            template.HTML(form.Sanitize(problems.Join(s.Problems))),
		Rooms:               template.HTML(form.Sanitize(rooms.Join(s.Rooms))),
		Goal:                template.HTML(s.Goal),
		PreferredDate:       template.HTML(s.PreferredDate),
		AdditionalQuestions: template.HTML(s.AdditionalQuestions),
	}

	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, view); err != nil {
		return "", "", fmt.Errorf("failed to render notification: %w", err)
	}
	return subject, buf.String(), nil
}

// notificationSubject names the sender and either the single problem label or
// the number of problems.
func notificationSubject(s form.Submission, problems form.Labels) string {
	name := html.UnescapeString(s.Name)

	var summary string
	switch len(s.Problems) {
	case 0:
		summary = "brak problemów"
	case 1:
		summary = problems.Label(s.Problems[0])
	default:
		summary = fmt.Sprintf("%d problemów", len(s.Problems))
	}

	return fmt.Sprintf("Nowe zgłoszenie: %s - %s", name, summary)
}

// telLink returns an E.164 tel: URI, falling back to the digits and leading
// plus of the raw value when the number cannot be parsed.
func telLink(phone string) string {
	if parsed, err := phonenumbers.Parse(phone, phoneRegion); err == nil {
		return "tel:" + phonenumbers.Format(parsed, phonenumbers.E164)
	}

	var b strings.Builder
	for i, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return "tel:" + b.String()
}
