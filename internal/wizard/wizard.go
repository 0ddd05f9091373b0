// Package wizard is the client-side state machine of the contact form: four
// data entry steps, a success step, per-step validation and one final
// submission to the gateway.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"contactgate/internal/form"
	"contactgate/internal/gateway"
	"contactgate/internal/i18n"
)

type Step int

const (
	StepIdentity Step = iota + 1
	StepProject
	StepExtras
	StepConsent
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepProject:
		return "project"
	case StepExtras:
		return "extras"
	case StepConsent:
		return "consent"
	case StepSuccess:
		return "success"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Field names a validated input.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldLocation Field = "location"
	FieldProblems Field = "problems"
	FieldRooms    Field = "rooms"
	FieldGoal     Field = "goal"
	FieldConsent  Field = "consent"
)

const nameMinRunes = 3

// emailPattern is looser than the server's; the gateway has the final say.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrNotAtConsent    = errors.New("wizard: submit is only possible on the consent step")
	ErrConsentRequired = errors.New("wizard: consent not given")
	ErrInFlight        = errors.New("wizard: submission already in flight")
	ErrSubmitFailed    = errors.New("wizard: submission failed")
	ErrUnreachable     = errors.New("wizard: gateway unreachable")
)

// Submitter delivers a finished form to the gateway. A returned error means
// the gateway could not be reached or answered with garbage.
type Submitter interface {
	Submit(ctx context.Context, sub form.Submission) (gateway.Result, error)
}

// Wizard is safe for concurrent use. The submitter is called without holding
// the lock, so accessors stay responsive while a submission is in flight.
type Wizard struct {
	mu         sync.Mutex
	submitter  Submitter
	lang       i18n.Lang
	step       Step
	values     form.Submission
	consent    bool
	errs       map[Field]string
	submitting bool
	submitErr  string
	result     gateway.Result
	// generation changes on Close so a late response cannot touch a reset form
	generation uint64
}

func New(submitter Submitter, lang i18n.Lang) *Wizard {
	return &Wizard{
		submitter: submitter,
		lang:      lang,
		step:      StepIdentity,
		errs:      make(map[Field]string),
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Lang() i18n.Lang {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lang
}

// Values returns a copy of the entered data.
func (w *Wizard) Values() form.Submission {
	w.mu.Lock()
	defer w.mu.Unlock()
	return copySubmission(w.values)
}

func (w *Wizard) Consent() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.consent
}

// Errors returns the currently recorded field errors: identity fields from
// step 1, problems, rooms and goal from step 2, and consent after a refused
// Submit. Each setter clears its own field's entry.
func (w *Wizard) Errors() map[Field]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[Field]string, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// SubmitError is the message of the last failed submission, shown inline on
// the consent step.
func (w *Wizard) SubmitError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitErr
}

// Result is the gateway answer of the last successful submission.
func (w *Wizard) Result() gateway.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

func (w *Wizard) set(field Field, apply func(*form.Submission)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	apply(&w.values)
	if field != "" {
		delete(w.errs, field)
	}
}

func (w *Wizard) SetName(v string)     { w.set(FieldName, func(s *form.Submission) { s.Name = v }) }
func (w *Wizard) SetEmail(v string)    { w.set(FieldEmail, func(s *form.Submission) { s.Email = v }) }
func (w *Wizard) SetPhone(v string)    { w.set(FieldPhone, func(s *form.Submission) { s.Phone = v }) }
func (w *Wizard) SetLocation(v string) { w.set(FieldLocation, func(s *form.Submission) { s.Location = v }) }
func (w *Wizard) SetGoal(v string)     { w.set(FieldGoal, func(s *form.Submission) { s.Goal = v }) }

func (w *Wizard) SetPreferredDate(v string) {
	w.set("", func(s *form.Submission) { s.PreferredDate = v })
}

func (w *Wizard) SetAdditionalQuestions(v string) {
	w.set("", func(s *form.Submission) { s.AdditionalQuestions = v })
}

// SetHoneypot fills the hidden field. Only bots do this.
func (w *Wizard) SetHoneypot(v string) {
	w.set("", func(s *form.Submission) { s.Honeypot = v })
}

// ToggleProblem adds code to the selected problems or removes it.
func (w *Wizard) ToggleProblem(code string) {
	w.set(FieldProblems, func(s *form.Submission) { s.Problems = toggle(s.Problems, code) })
}

// ToggleRoom adds code to the selected rooms or removes it.
func (w *Wizard) ToggleRoom(code string) {
	w.set(FieldRooms, func(s *form.Submission) { s.Rooms = toggle(s.Rooms, code) })
}

func (w *Wizard) SetConsent(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.consent = v
	delete(w.errs, FieldConsent)
}

func toggle(codes []string, code string) []string {
	if i := slices.Index(codes, code); i >= 0 {
		return slices.Delete(slices.Clone(codes), i, i+1)
	}
	return append(slices.Clone(codes), code)
}

// Next validates the current step and advances when it passes. Extras always
// advance; the consent step only moves forward through Submit.
func (w *Wizard) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepIdentity:
		if !w.checkIdentity() {
			return false
		}
	case StepProject:
		if !w.checkProject() {
			return false
		}
	case StepExtras:
	default:
		return false
	}

	w.step++
	return true
}

// Back moves one step back from steps 2 to 4.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepIdentity && w.step <= StepConsent {
		w.step--
	}
}

func (w *Wizard) checkIdentity() bool {
	v := w.values

	name := strings.TrimSpace(v.Name)
	switch {
	case name == "":
		w.errs[FieldName] = w.lang.Text(i18n.NameRequired)
	case utf8.RuneCountInString(name) < nameMinRunes:
		w.errs[FieldName] = w.lang.Text(i18n.NameTooShort)
	}

	email := strings.TrimSpace(v.Email)
	switch {
	case email == "":
		w.errs[FieldEmail] = w.lang.Text(i18n.EmailRequired)
	case !emailPattern.MatchString(email):
		w.errs[FieldEmail] = w.lang.Text(i18n.EmailInvalid)
	}

	phone := strings.TrimSpace(v.Phone)
	switch {
	case phone == "":
		w.errs[FieldPhone] = w.lang.Text(i18n.PhoneRequired)
	case !form.PhonePattern.MatchString(phone):
		w.errs[FieldPhone] = w.lang.Text(i18n.PhoneInvalid)
	}

	if strings.TrimSpace(v.Location) == "" {
		w.errs[FieldLocation] = w.lang.Text(i18n.LocationRequired)
	}

	return !w.hasError(FieldName, FieldEmail, FieldPhone, FieldLocation)
}

func (w *Wizard) checkProject() bool {
	v := w.values
	if len(v.Problems) == 0 {
		w.errs[FieldProblems] = w.lang.Text(i18n.ProblemsRequired)
	}
	if len(v.Rooms) == 0 {
		w.errs[FieldRooms] = w.lang.Text(i18n.RoomsRequired)
	}
	if strings.TrimSpace(v.Goal) == "" {
		w.errs[FieldGoal] = w.lang.Text(i18n.GoalRequired)
	}
	return !w.hasError(FieldProblems, FieldRooms, FieldGoal)
}

func (w *Wizard) hasError(fields ...Field) bool {
	for _, f := range fields {
		if _, ok := w.errs[f]; ok {
			return true
		}
	}
	return false
}

// CanSubmit reports whether the submit control is enabled.
func (w *Wizard) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step == StepConsent && w.consent && !w.submitting
}

// Submit sends the form. A filled honeypot makes it a silent no-op. On
// success the wizard moves to StepSuccess; on failure it stays on the consent
// step with SubmitError set and returns an error wrapping ErrSubmitFailed, or
// ErrUnreachable when the submitter itself failed.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.step != StepConsent:
		w.mu.Unlock()
		return ErrNotAtConsent
	case w.submitting:
		w.mu.Unlock()
		return ErrInFlight
	case !w.consent:
		w.errs[FieldConsent] = w.lang.Text(i18n.ConsentRequired)
		w.mu.Unlock()
		return ErrConsentRequired
	case w.values.IsBot():
		w.mu.Unlock()
		return nil
	}

	w.submitting = true
	w.submitErr = ""
	generation := w.generation
	lang := w.lang
	sub := copySubmission(w.values)
	sub.Lang = &lang
	w.mu.Unlock()

	res, err := w.submitter.Submit(ctx, sub)

	w.mu.Lock()
	defer w.mu.Unlock()

	if generation != w.generation {
		// closed while in flight
		return nil
	}
	w.submitting = false

	if err != nil {
		w.submitErr = lang.Text(i18n.SendFailed)
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if !res.Success {
		w.submitErr = res.Error
		if w.submitErr == "" {
			w.submitErr = lang.Text(i18n.SendFailed)
		}
		return fmt.Errorf("%w: %s", ErrSubmitFailed, w.submitErr)
	}

	w.result = res
	w.step = StepSuccess
	return nil
}

// Close discards everything and returns to the first step.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepIdentity
	w.values = form.Submission{}
	w.consent = false
	w.errs = make(map[Field]string)
	w.submitting = false
	w.submitErr = ""
	w.result = gateway.Result{}
	w.generation++
}

func copySubmission(s form.Submission) form.Submission {
	s.Problems = slices.Clone(s.Problems)
	s.Rooms = slices.Clone(s.Rooms)
	if s.Lang != nil {
		lang := *s.Lang
		s.Lang = &lang
	}
	return s
}
