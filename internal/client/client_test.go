package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactgate/internal/form"
	"contactgate/internal/i18n"
)

func TestSubmit_Success(t *testing.T) {
	var got form.Submission
	var lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		lang = r.Header.Get("Accept-Language")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"abc","provider":"smtp"}}`))
	}))
	defer srv.Close()

	en := i18n.EN
	res, err := New(srv.URL).Submit(context.Background(), form.Submission{
		Name:     "Jan",
		Problems: []string{"messy"},
		Honeypot: "",
		Lang:     &en,
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Equal(t, "abc", res.Data.ID)
	assert.Equal(t, "smtp", res.Data.Provider)

	assert.Equal(t, "Jan", got.Name)
	assert.Equal(t, []string{"messy"}, got.Problems)
	require.NotNil(t, got.Lang)
	assert.Equal(t, i18n.EN, *got.Lang)
	assert.Equal(t, "en", lang)
}

func TestSubmit_ErrorStatusStillDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false,"error":"Zbyt wiele prób."}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Submit(context.Background(), form.Submission{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Zbyt wiele prób.", res.Error)
}

func TestSubmit_GarbageResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), form.Submission{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.Submit(context.Background(), form.Submission{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach gateway")
}

func TestSubmit_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Submit(context.Background(), form.Submission{})
	assert.Error(t, err)
}
