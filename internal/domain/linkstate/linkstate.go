// Package linkstate encodes and decodes the opaque state token carried through
// both OAuth legs of a link flow.
//
// Wire format: discordId:guildId:nonce[:sessionId]. Fields are positional and
// separated by ':' with no escaping; a missing or empty segment decodes as absent.
package linkstate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	separator    = ":"
	unlinkPrefix = "unlink:"
	nonceLength  = 8
)

var (
	snowflakePattern = regexp.MustCompile(`^\d{17,19}$`)
	numericPattern   = regexp.MustCompile(`^\d+$`)
)

var (
	// ErrMissingContext is returned when subject or context segments are absent.
	ErrMissingContext = errors.New("state must contain discordId and guildId")
	// ErrInvalidSubject is returned when the subject is not a snowflake.
	ErrInvalidSubject = errors.New("invalid discord id")
	// ErrInvalidContext is returned when the context is not a snowflake.
	ErrInvalidContext = errors.New("invalid guild id")
)

// State is the decoded form of a state token. Empty strings mean absent.
type State struct {
	SubjectID string
	ContextID string
	Nonce     string
	SessionID string
}

// Decode parses raw into a State. Empty input yields the zero State.
func Decode(raw string) State {
	if raw == "" {
		return State{}
	}
	parts := strings.Split(raw, separator)
	at := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return State{
		SubjectID: at(0),
		ContextID: at(1),
		Nonce:     at(2),
		SessionID: at(3),
	}
}

// Encode renders s in wire form. SessionID is appended only when present.
func Encode(s State) string {
	fields := []string{s.SubjectID, s.ContextID, s.Nonce}
	if s.SessionID != "" {
		fields = append(fields, s.SessionID)
	}
	return strings.Join(fields, separator)
}

// String implements fmt.Stringer using the wire form.
func (s State) String() string { return Encode(s) }

// HasContext reports whether both subject and context segments are present.
func (s State) HasContext() bool {
	return s.SubjectID != "" && s.ContextID != ""
}

// Validate checks that subject and context are present snowflakes.
// A missing SessionID is not an error.
func (s State) Validate() error {
	if !s.HasContext() {
		return ErrMissingContext
	}
	if !IsSnowflake(s.SubjectID) {
		return ErrInvalidSubject
	}
	if !IsSnowflake(s.ContextID) {
		return ErrInvalidContext
	}
	return nil
}

// WithSession returns a copy of s carrying sessionID.
func (s State) WithSession(sessionID string) State {
	s.SessionID = sessionID
	return s
}

// Enrich builds the state the relay hands to the second OAuth leg: the
// original subject and context, a fresh nonce and an optional session id.
func Enrich(subjectID, contextID, sessionID string) State {
	return State{
		SubjectID: subjectID,
		ContextID: contextID,
		Nonce:     NewNonce(),
		SessionID: sessionID,
	}
}

// IsSnowflake reports whether s looks like a Discord snowflake (17-19 digits).
func IsSnowflake(s string) bool {
	return snowflakePattern.MatchString(s)
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// NewNonce returns the first eight characters of a random UUID.
func NewNonce() string {
	return uuid.NewString()[:nonceLength]
}

// NewUnlinkState returns a fresh state token for the unlink flow.
func NewUnlinkState() string {
	return unlinkPrefix + uuid.NewString()
}

// IsUnlinkState reports whether raw was issued by NewUnlinkState.
func IsUnlinkState(raw string) bool {
	return strings.HasPrefix(raw, unlinkPrefix)
}
