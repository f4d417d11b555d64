package roblox

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trizly/lumi-link/internal/ports"
)

func newTestDirectory(t *testing.T, h http.Handler) *Directory {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewDirectory(DirectoryOptions{
		UsersURL:      srv.URL,
		ThumbnailsURL: srv.URL,
		Retry:         &RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond},
		HTTPClient:    srv.Client(),
	})
}

func TestDirectory_ResolveUsername(t *testing.T) {
	d := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/usernames/users", r.URL.Path)
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))

		var body struct {
			Usernames          []string `json:"usernames"`
			ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Usernames[0] == "builder" {
			_, _ = w.Write([]byte(`{"data":[{"id":156,"name":"builder"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	id, err := d.ResolveUsername(t.Context(), "builder")
	require.NoError(t, err)
	assert.Equal(t, "156", id)

	_, err = d.ResolveUsername(t.Context(), "nobody")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDirectory_ProfileNotFound(t *testing.T) {
	d := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/users/156" {
			_, _ = w.Write([]byte(`{"id":156,"name":"builder","displayName":"Bob","created":"2006-02-27T21:06:40.3Z"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	p, err := d.Profile(t.Context(), "156")
	require.NoError(t, err)
	assert.Equal(t, "Bob", p.DisplayName)
	assert.Equal(t, int64(156), p.ID)

	_, err = d.Profile(t.Context(), "1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDirectory_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	d := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "420x420", r.URL.Query().Get("size"))
		assert.Equal(t, "false", r.URL.Query().Get("isCircular"))
		_, _ = w.Write([]byte(`{"data":[{"targetId":156,"state":"Completed","imageUrl":"https://tr.rbxcdn.com/x.png"}]}`))
	}))

	u, err := d.AvatarURL(t.Context(), "156")
	require.NoError(t, err)
	assert.Equal(t, "https://tr.rbxcdn.com/x.png", u)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDirectory_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	d := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := d.AvatarURL(t.Context(), "156")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.Equal(t, int32(4), calls.Load())
}

func TestDirectory_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	d := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := d.ResolveUsername(t.Context(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDirectory_EmptyThumbnail(t *testing.T) {
	d := newTestDirectory(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	u, err := d.AvatarURL(t.Context(), "156")
	require.NoError(t, err)
	assert.Empty(t, u)
}
