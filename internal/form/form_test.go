package form

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactgate/internal/i18n"
)

func validSubmission() Submission {
	return Submission{
		Name:     "Jan Kowalski",
		Email:    "jan@example.com",
		Phone:    "+48 123 456 789",
		Location: "Warszawa",
		Problems: []string{"messy"},
		Rooms:    []string{"kitchen"},
		Goal:     "Chcę uporządkować kuchnię i szafki.",
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims", "  Jan  ", "Jan"},
		{"strips tags", "<b>Jan</b> <script>alert(1)</script>", "Jan alert(1)"},
		{"escapes quotes", `O'Brien "Jr"`, "O&#39;Brien &quot;Jr&quot;"},
		{"escapes stray brackets", "a < b > c", "a &lt; b &gt; c"},
		{"keeps text between comparison signs", "budżet < 5000 zł, metraż > 20 m2", "budżet &lt; 5000 zł, metraż &gt; 20 m2"},
		{"closing tag", "a</p >b", "ab"},
		{"nested tags cannot reassemble", "<<b>script>", "&lt;script&gt;"},
		{"strips NUL", "Ja\x00n", "Jan"},
		{"keeps polish letters", "Łódź, ul. Żółta", "Łódź, ul. Żółta"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Truncates(t *testing.T) {
	long := strings.Repeat("ż", MaxInputRunes+50)
	out := Sanitize(long)
	assert.Equal(t, MaxInputRunes, utf8.RuneCountInString(out))
	assert.True(t, utf8.ValidString(out))
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"  <p>Hello</p>  ",
		`<a href="x">'quoted'</a>`,
		"<<<>>>",
		"x < y > z <b>",
		"<<b>script>",
		"a\x00<b\x00>c",
		strings.Repeat("x", MaxInputRunes-1) + " <i>tail</i> more",
		strings.Repeat("'", MaxInputRunes),
		"\t\n",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once))
	}
}

func TestSubmission_Sanitized(t *testing.T) {
	s := validSubmission()
	s.Name = " <b>Jan</b> "
	s.Problems = []string{"<messy>"}
	s.Honeypot = "<x>"

	out := s.Sanitized()
	assert.Equal(t, "Jan", out.Name)
	assert.Equal(t, []string{"<messy>"}, out.Problems, "codes are not free text")
	assert.Equal(t, "<x>", out.Honeypot)

	out.Problems[0] = "changed"
	assert.Equal(t, "<messy>", s.Problems[0])
}

func TestCheck_Valid(t *testing.T) {
	assert.Nil(t, Check(validSubmission()))

	s := validSubmission()
	s.AdditionalQuestions = strings.Repeat("a", AdditionalMax)
	s.Goal = strings.Repeat("ą", GoalMax)
	s.Name = strings.Repeat("ń", NameMax)
	assert.Nil(t, Check(s))
}

func TestCheck_FirstFailureWins(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Submission)
		want   i18n.Key
	}{
		{"name too short", func(s *Submission) { s.Name = "J" }, i18n.NameLength},
		{"name too long", func(s *Submission) { s.Name = strings.Repeat("a", NameMax+1) }, i18n.NameLength},
		{"email shape", func(s *Submission) { s.Email = "not-an-email" }, i18n.EmailInvalid},
		{"email empty", func(s *Submission) { s.Email = "" }, i18n.EmailInvalid},
		{"email too long", func(s *Submission) { s.Email = strings.Repeat("a", 250) + "@example.com" }, i18n.EmailInvalid},
		{"phone", func(s *Submission) { s.Phone = "12345" }, i18n.PhoneInvalid},
		{"location", func(s *Submission) { s.Location = "W" }, i18n.LocationLength},
		{"goal short", func(s *Submission) { s.Goal = "za krótko" }, i18n.GoalLength},
		{"goal long", func(s *Submission) { s.Goal = strings.Repeat("a", GoalMax+1) }, i18n.GoalLength},
		{"additional long", func(s *Submission) { s.AdditionalQuestions = strings.Repeat("a", AdditionalMax+1) }, i18n.AdditionalTooLong},
		{"no problems", func(s *Submission) { s.Problems = nil }, i18n.ProblemsRequired},
		{"no rooms", func(s *Submission) { s.Rooms = []string{} }, i18n.RoomsRequired},
		{"name beats email", func(s *Submission) { s.Name = ""; s.Email = "bad" }, i18n.NameLength},
		{"email beats goal", func(s *Submission) { s.Email = "bad"; s.Goal = "" }, i18n.EmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.modify(&s)
			err := Check(s)
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Key)
			assert.Equal(t, i18n.PL.Text(tt.want), err.Message(i18n.PL))
		})
	}
}

func TestPhonePattern(t *testing.T) {
	valid := []string{
		"123456789",
		"123 456 789",
		"123-456-789",
		"+48 123 456 789",
		"+48123456789",
		"+48-123-456-789",
		"12 345 67 89",
		"12-345-67-89",
		"+1 12 345 67 89",
	}
	invalid := []string{
		"",
		"12345678",
		"1234567890",
		"+48 123 456 78",
		"123.456.789",
		"(12) 345 67 89",
		"+12345 123 456 789",
		"abc def ghi",
	}

	for _, p := range valid {
		assert.True(t, PhonePattern.MatchString(p), p)
	}
	for _, p := range invalid {
		assert.False(t, PhonePattern.MatchString(p), p)
	}
}

func TestSuspicious(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain", "Chcę uporządkować kuchnię i szafki.", false},
		{"empty", "", false},
		{"keyword", "Cheap VIAGRA for you, viagra today", true},
		{"keyword in polish sentence", "Zarabiaj na kasynie: casino online", true},
		{"ten repeats allowed", "Pomocy" + strings.Repeat("!", 10), false},
		{"eleven repeats", "Pomocy" + strings.Repeat("!", 11), true},
		{"three urls allowed", "http://a.pl https://b.pl http://c.pl", false},
		{"four urls", "http://a.pl https://b.pl http://c.pl https://d.pl", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suspicious(tt.text))
		})
	}
}

func TestLabels(t *testing.T) {
	problems := ProblemLabels()
	rooms := RoomLabels()

	for _, table := range []Labels{problems, rooms} {
		require.NotEmpty(t, table.Codes())
		for _, o := range table.Options() {
			assert.NotEmpty(t, o.Label, o.Code)
			assert.Equal(t, o.Label, table.Label(o.Code))
		}
	}

	assert.Equal(t, "Bałagan", problems.Label("messy"))
	assert.Equal(t, "Kuchnia", rooms.Label("kitchen"))
	assert.Equal(t, "unknown-code", problems.Label("unknown-code"))
	assert.Equal(t, "Bałagan, mystery", problems.Join([]string{"messy", "mystery"}))
	assert.Equal(t, "", rooms.Join(nil))
}

func TestLabels_Immutable(t *testing.T) {
	l := NewLabels(Option{"a", "A"}, Option{"b", "B"}, Option{"a", "A2"})
	assert.Equal(t, []string{"a", "b"}, l.Codes())
	assert.Equal(t, "A2", l.Label("a"))

	codes := l.Codes()
	codes[0] = "zzz"
	assert.Equal(t, []string{"a", "b"}, l.Codes())
}
