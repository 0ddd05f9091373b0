package form

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"contactgate/internal/i18n"
)

// RuleError is the first server-side rule a submission broke.
type RuleError struct {
	Field string
	Tag   string
	Key   i18n.Key
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("field %s failed rule %s", e.Field, e.Tag)
}

// Message returns the localized text shown to the submitter.
func (e *RuleError) Message(lang i18n.Lang) string {
	return lang.Text(e.Key)
}

// rules mirrors Submission in checking order. The validator reports field
// errors in declaration order, so the first one is the first broken rule.
type rules struct {
	Name                string   `validate:"min=2,max=100"`
	Email               string   `validate:"max=254,contact_email"`
	Phone               string   `validate:"contact_phone"`
	Location            string   `validate:"min=2,max=200"`
	Goal                string   `validate:"min=10,max=2000"`
	AdditionalQuestions string   `validate:"max=2000"`
	Problems            []string `validate:"min=1"`
	Rooms               []string `validate:"min=1"`
}

var fieldKeys = map[string]i18n.Key{
	"Name":                i18n.NameLength,
	"Email":               i18n.EmailInvalid,
	"Phone":               i18n.PhoneInvalid,
	"Location":            i18n.LocationLength,
	"Goal":                i18n.GoalLength,
	"AdditionalQuestions": i18n.AdditionalTooLong,
	"Problems":            i18n.ProblemsRequired,
	"Rooms":               i18n.RoomsRequired,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return EmailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("contact_phone", func(fl validator.FieldLevel) bool {
		return PhonePattern.MatchString(fl.Field().String())
	})
	return v
}

// Check applies the server rules to an already sanitized submission and
// returns the first violation, or nil.
func Check(s Submission) *RuleError {
	err := validate.Struct(rules{
		Name:                s.Name,
		Email:               s.Email,
		Phone:               s.Phone,
		Location:            s.Location,
		Goal:                s.Goal,
		AdditionalQuestions: s.AdditionalQuestions,
		Problems:            s.Problems,
		Rooms:               s.Rooms,
	})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		// only reachable on a programming error in rules
		panic(fmt.Sprintf("form: unexpected validation error: %v", err))
	}

	first := fieldErrs[0]
	return &RuleError{
		Field: first.Field(),
		Tag:   first.Tag(),
		Key:   fieldKeys[first.StructField()],
	}
}
