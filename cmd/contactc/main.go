// Package main is a terminal front end for the contact form. It walks the
// user through the same steps as the website wizard and submits the result to
// a running contactd.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"

	"contactgate/internal/client"
	"contactgate/internal/form"
	"contactgate/internal/i18n"
	"contactgate/internal/wizard"
)

// Exit codes following sysexits(3)
const (
	EX_OK          = 0  // Successful completion
	EX_USAGE       = 64 // Command line usage error
	EX_NOINPUT     = 66 // Input ended before the form was complete
	EX_UNAVAILABLE = 69 // Gateway unreachable
	EX_TEMPFAIL    = 75 // Gateway refused the submission
)

var errNoInput = errors.New("input closed")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("contactc", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		endpoint = flags.String("url", "http://localhost:8845/api/contact", "gateway endpoint")
		lang     = flags.String("lang", "pl", "message language (pl, en)")
		timeout  = flags.Duration("timeout", client.DefaultTimeout, "request timeout")
	)
	if err := flags.Parse(args); err != nil {
		return EX_USAGE
	}
	if *endpoint == "" || *timeout <= 0 {
		fmt.Fprintln(stderr, "url and a positive timeout are required")
		return EX_USAGE
	}

	c := client.New(*endpoint, client.WithHTTPClient(&http.Client{Timeout: *timeout}))
	p := &prompter{
		in:  bufio.NewScanner(stdin),
		out: stdout,
		w:   wizard.New(c, i18n.Parse(*lang)),
	}

	if err := p.fill(); err != nil {
		fmt.Fprintf(stderr, "Form not completed: %v\n", err)
		return EX_NOINPUT
	}

	err := p.w.Submit(context.Background())
	switch {
	case err == nil && p.w.Step() == wizard.StepSuccess:
		res := p.w.Result()
		if res.Data != nil {
			fmt.Fprintf(stdout, "Sent (id %s)\n", res.Data.ID)
		} else {
			fmt.Fprintln(stdout, "Sent")
		}
		p.w.Close()
		return EX_OK
	case err == nil:
		// honeypot, nothing was sent
		return EX_OK
	case errors.Is(err, wizard.ErrConsentRequired):
		fmt.Fprintln(stderr, p.w.Errors()[wizard.FieldConsent])
		return EX_USAGE
	case errors.Is(err, wizard.ErrUnreachable):
		fmt.Fprintln(stderr, p.w.SubmitError())
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return EX_UNAVAILABLE
	case errors.Is(err, wizard.ErrSubmitFailed):
		fmt.Fprintln(stderr, p.w.SubmitError())
		return EX_TEMPFAIL
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return EX_TEMPFAIL
	}
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	w   *wizard.Wizard
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// fill runs the data entry steps until the wizard reaches consent and the
// consent answer is recorded.
func (p *prompter) fill() error {
	for {
		var err error
		switch p.w.Step() {
		case wizard.StepIdentity:
			err = p.identity()
		case wizard.StepProject:
			err = p.project()
		case wizard.StepExtras:
			err = p.extras()
		case wizard.StepConsent:
			return p.consent()
		default:
			return nil
		}
		if err != nil {
			return err
		}
		if !p.w.Next() {
			p.printErrors()
		}
	}
}

func (p *prompter) identity() error {
	fields := []struct {
		label string
		set   func(string)
	}{
		{"Name", p.w.SetName},
		{"Email", p.w.SetEmail},
		{"Phone", p.w.SetPhone},
		{"Location", p.w.SetLocation},
	}
	for _, f := range fields {
		v, err := p.ask(f.label)
		if err != nil {
			return err
		}
		f.set(v)
	}
	return nil
}

func (p *prompter) project() error {
	values := p.w.Values()

	problems, err := p.choose("Problems", form.ProblemLabels(), values.Problems)
	if err != nil {
		return err
	}
	for _, code := range toggles(values.Problems, problems) {
		p.w.ToggleProblem(code)
	}

	rooms, err := p.choose("Rooms", form.RoomLabels(), values.Rooms)
	if err != nil {
		return err
	}
	for _, code := range toggles(values.Rooms, rooms) {
		p.w.ToggleRoom(code)
	}

	goal, err := p.ask("Goal")
	if err != nil {
		return err
	}
	p.w.SetGoal(goal)
	return nil
}

func (p *prompter) extras() error {
	date, err := p.ask("Preferred date (optional)")
	if err != nil {
		return err
	}
	p.w.SetPreferredDate(date)

	questions, err := p.ask("Additional questions (optional)")
	if err != nil {
		return err
	}
	p.w.SetAdditionalQuestions(questions)
	return nil
}

func (p *prompter) consent() error {
	v, err := p.ask("I agree to the processing of my data to answer this enquiry [y/N]")
	if err != nil {
		return err
	}
	switch strings.ToLower(v) {
	case "y", "yes", "t", "tak":
		p.w.SetConsent(true)
	default:
		p.w.SetConsent(false)
	}
	return nil
}

// choose lists options and reads a comma separated selection of numbers or
// codes. It returns the wanted set of codes.
func (p *prompter) choose(label string, labels form.Labels, current []string) ([]string, error) {
	options := labels.Options()
	fmt.Fprintf(p.out, "%s:\n", label)
	for i, o := range options {
		fmt.Fprintf(p.out, "  %2d) %s\n", i+1, o.Label)
	}

	v, err := p.ask(label + " (e.g. 1,3)")
	if err != nil {
		return nil, err
	}
	if v == "" {
		return current, nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code := part
		if n, err := strconv.Atoi(part); err == nil && n >= 1 && n <= len(options) {
			code = options[n-1].Code
		}
		if !slices.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out, nil
}

// toggles lists the codes whose selection differs between have and want.
func toggles(have, want []string) []string {
	var out []string
	for _, c := range have {
		if !slices.Contains(want, c) {
			out = append(out, c)
		}
	}
	for _, c := range want {
		if !slices.Contains(have, c) {
			out = append(out, c)
		}
	}
	return out
}

func (p *prompter) printErrors() {
	errs := p.w.Errors()
	order := []wizard.Field{
		wizard.FieldName, wizard.FieldEmail, wizard.FieldPhone, wizard.FieldLocation,
		wizard.FieldProblems, wizard.FieldRooms, wizard.FieldGoal,
	}
	for _, f := range order {
		if msg, ok := errs[f]; ok {
			fmt.Fprintf(p.out, "! %s\n", msg)
		}
	}
}
