package meeting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLinkWithoutCredentials(t *testing.T) {
	z := NewZoom("", "", "", time.Second)

	link, err := z.CreateLink(context.Background(), "Consultation with Dr. Smith", time.Now())
	require.NoError(t, err)
	assert.Equal(t, PlaceholderLink, link)
}

func TestCreateLinkHappyPath(t *testing.T) {
	var gotTopic string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "account_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "acct-1", r.PostForm.Get("account_id"))
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})

		case "/users/me/meetings":
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			var payload struct {
				Topic    string `json:"topic"`
				Type     int    `json:"type"`
				Duration int    `json:"duration"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			gotTopic = payload.Topic
			assert.Equal(t, 2, payload.Type)
			assert.Equal(t, 30, payload.Duration)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"join_url": "https://zoom.us/j/987654"})

		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	z := NewZoom("acct-1", "client-id", "client-secret", time.Second)
	z.tokenURL = srv.URL + "/oauth/token"
	z.apiURL = srv.URL

	link, err := z.CreateLink(context.Background(), "Consultation with Dr. Smith", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "https://zoom.us/j/987654", link)
	assert.Equal(t, "Consultation with Dr. Smith", gotTopic)
}

func TestCreateLinkTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	z := NewZoom("acct-1", "client-id", "bad-secret", time.Second)
	z.tokenURL = srv.URL + "/oauth/token"
	z.apiURL = srv.URL

	_, err := z.CreateLink(context.Background(), "topic", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zoom token")
}

func TestCreateLinkMeetingCreationFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	z := NewZoom("acct-1", "client-id", "client-secret", time.Second)
	z.tokenURL = srv.URL + "/oauth/token"
	z.apiURL = srv.URL

	_, err := z.CreateLink(context.Background(), "topic", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestStaticDefaultsToPlaceholder(t *testing.T) {
	s := NewStatic("")
	link, err := s.CreateLink(context.Background(), "topic", time.Now())
	require.NoError(t, err)
	assert.Equal(t, PlaceholderLink, link)

	s = NewStatic("https://example.com/room")
	link, _ = s.CreateLink(context.Background(), "topic", time.Now())
	assert.Equal(t, "https://example.com/room", link)
}
