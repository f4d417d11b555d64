package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/ports"
)

// Public API defaults.
const (
	DefaultUsersAPIURL      = "https://users.roblox.com"
	DefaultThumbnailsAPIURL = "https://thumbnails.roblox.com"
	UserAgent               = "TrizlyVerification/1.0"
)

// RetryPolicy bounds retries of the public API: MaxRetries attempts after the
// first, waiting BaseDelay*2^n between them.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// DefaultRetryPolicy retries three times starting at 300ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 300 * time.Millisecond}
}

// DirectoryOptions configures the public API client.
type DirectoryOptions struct {
	UsersURL      string
	ThumbnailsURL string
	Retry         *RetryPolicy
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Directory reads public Roblox profile data.
type Directory struct {
	usersURL      string
	thumbnailsURL string
	retry         RetryPolicy
	client        *http.Client
	logger        *slog.Logger
}

var _ ports.RobloxDirectory = (*Directory)(nil)

// NewDirectory creates a Directory with defaults for unset options.
func NewDirectory(opts DirectoryOptions) *Directory {
	retry := DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		usersURL:      strings.TrimRight(orDefault(opts.UsersURL, DefaultUsersAPIURL), "/"),
		thumbnailsURL: strings.TrimRight(orDefault(opts.ThumbnailsURL, DefaultThumbnailsAPIURL), "/"),
		retry:         retry,
		client:        client,
		logger:        logger.With("component", "roblox_directory"),
	}
}

// StatusError is a non-2xx response from the public API.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("roblox api %s returned %d", e.URL, e.Status)
}

// ResolveUsername looks up the user id for an exact username.
func (d *Directory) ResolveUsername(ctx context.Context, username string) (string, error) {
	body := map[string]any{"usernames": []string{username}, "excludeBannedUsers": false}
	var out struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := d.doJSON(ctx, http.MethodPost, d.usersURL+"/v1/usernames/users", body, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 || out.Data[0].ID == 0 {
		return "", ports.ErrNotFound
	}
	return strconv.FormatInt(out.Data[0].ID, 10), nil
}

// Profile fetches /v1/users/{id}.
func (d *Directory) Profile(ctx context.Context, userID string) (*model.RobloxProfile, error) {
	var p model.RobloxProfile
	err := d.doJSON(ctx, http.MethodGet, d.usersURL+"/v1/users/"+userID, nil, &p)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AvatarURL returns the 420x420 bust thumbnail, or "" when none is ready.
func (d *Directory) AvatarURL(ctx context.Context, userID string) (string, error) {
	u := fmt.Sprintf("%s/v1/users/avatar-bust?userIds=%s&size=420x420&format=Png&isCircular=false",
		d.thumbnailsURL, userID)
	var out struct {
		Data []struct {
			ImageURL string `json:"imageUrl"`
			State    string `json:"state"`
		} `json:"data"`
	}
	if err := d.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		return "", nil
	}
	return out.Data[0].ImageURL, nil
}

func (d *Directory) doJSON(ctx context.Context, method, url string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.retry.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	op := func() error {
		return d.attempt(ctx, method, url, payload, out)
	}
	notify := func(err error, wait time.Duration) {
		d.logger.WarnContext(ctx, "roblox api retry", "url", url, "wait", wait, "error", err)
	}
	return backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, d.retry.MaxRetries), ctx), notify)
}

func (d *Directory) attempt(ctx context.Context, method, url string, payload []byte, out any) error {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return fmt.Errorf("roblox api %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Status: resp.StatusCode, URL: url}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return backoff.Permanent(&StatusError{Status: resp.StatusCode, URL: url})
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode %s: %w", url, err))
	}
	return nil
}
