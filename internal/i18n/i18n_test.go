package i18n

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Lang
	}{
		{"", PL},
		{"pl", PL},
		{"en", EN},
		{"EN", EN},
		{"en-GB", EN},
		{"pl-PL,pl;q=0.9,en;q=0.8", PL},
		{"en-US,en;q=0.9", EN},
		{"de-DE", PL},
		{"!!!", PL},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestText_EveryKeyTranslated(t *testing.T) {
	for _, lang := range []Lang{PL, EN} {
		for _, k := range Keys() {
			assert.NotEmpty(t, lang.Text(k), "lang %s key %d", lang, k)
		}
	}
	assert.NotEqual(t, PL.Text(EmailInvalid), EN.Text(EmailInvalid))
	assert.Empty(t, PL.Text(keyCount))
}

func TestLang_JSON(t *testing.T) {
	var v struct {
		Lang Lang `json:"lang"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"lang":"en"}`), &v))
	assert.Equal(t, EN, v.Lang)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lang":"en"}`, string(out))
}
