package form

import "strings"

// Option is one selectable code and its display label.
type Option struct {
	Code  string
	Label string
}

// Labels is an immutable, ordered code-to-label table.
type Labels struct {
	order  []string
	labels map[string]string
}

// NewLabels builds a table from options. Later duplicates overwrite the label
// but keep the first position.
func NewLabels(options ...Option) Labels {
	l := Labels{labels: make(map[string]string, len(options))}
	for _, o := range options {
		if _, ok := l.labels[o.Code]; !ok {
			l.order = append(l.order, o.Code)
		}
		l.labels[o.Code] = o.Label
	}
	return l
}

// Label returns the display label for code, or code itself when unknown.
func (l Labels) Label(code string) string {
	if label, ok := l.labels[code]; ok {
		return label
	}
	return code
}

// Map returns the labels for codes, in order.
func (l Labels) Map(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, l.Label(c))
	}
	return out
}

// Join maps codes and joins the labels for display.
func (l Labels) Join(codes []string) string {
	return strings.Join(l.Map(codes), ", ")
}

// Codes lists the known codes in declaration order.
func (l Labels) Codes() []string {
	return append([]string(nil), l.order...)
}

// Options lists the table in declaration order.
func (l Labels) Options() []Option {
	out := make([]Option, 0, len(l.order))
	for _, c := range l.order {
		out = append(out, Option{Code: c, Label: l.labels[c]})
	}
	return out
}

// ProblemLabels is the fixed table of problems a client can report.
func ProblemLabels() Labels {
	return NewLabels(
		Option{"messy", "Bałagan"},
		Option{"no-place", "Brak miejsca na rzeczy"},
		Option{"too-many-things", "Za dużo rzeczy"},
		Option{"no-system", "Brak systemu przechowywania"},
		Option{"no-time", "Brak czasu na porządki"},
		Option{"moving", "Przeprowadzka"},
		Option{"downsizing", "Zmniejszenie metrażu"},
		Option{"other", "Inne"},
	)
}

// RoomLabels is the fixed table of rooms a client can pick.
func RoomLabels() Labels {
	return NewLabels(
		Option{"kitchen", "Kuchnia"},
		Option{"wardrobe", "Garderoba / szafa"},
		Option{"bathroom", "Łazienka"},
		Option{"living-room", "Salon"},
		Option{"bedroom", "Sypialnia"},
		Option{"kids-room", "Pokój dziecięcy"},
		Option{"office", "Biuro / gabinet"},
		Option{"storage", "Piwnica / garaż"},
		Option{"whole-home", "Całe mieszkanie"},
		Option{"other", "Inne"},
	)
}
