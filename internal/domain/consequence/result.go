// Package consequence models the outcome of applying a link or unlink to a
// guild member as a sequence of tagged step results.
package consequence

import (
	"errors"
	"fmt"
	"strings"
)

// Outcome tags a single step result.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Step names a unit of work in the pipeline.
type Step string

const (
	StepLoadConfig       Step = "load_config"
	StepFetchMember      Step = "fetch_member"
	StepPrivilegeCheck   Step = "privilege_check"
	StepAddVerified      Step = "add_verified_role"
	StepRemoveVerified   Step = "remove_verified_role"
	StepAddUnverified    Step = "add_unverified_role"
	StepRemoveUnverified Step = "remove_unverified_role"
	StepNameSync         Step = "name_sync"
	StepNotify           Step = "notify"
)

// Reasons attached to step results.
const (
	ReasonRoleDisabled       = "verified_role_disabled"
	ReasonNoRoleConfigured   = "no_role_configured"
	ReasonMemberNotFound     = "member_not_found"
	ReasonAlreadyHeld        = "already_held"
	ReasonNotHeld            = "not_held"
	ReasonInsufficientPerms  = "insufficient_permissions"
	ReasonRoleAboveBot       = "role_above_bot"
	ReasonRoleNotFound       = "role_not_found"
	ReasonPermissionDenied   = "permission_denied"
	ReasonDisabled           = "disabled"
	ReasonNotConfigured      = "not_configured"
	ReasonApplied            = "applied"
	ReasonUnchanged          = "unchanged"
	ReasonEmptyNickname      = "empty_nickname"
	ReasonSetFailed          = "set_failed"
	ReasonMissingPermission  = "missing_permission"
	ReasonRoleNotAssigned    = "role_not_assigned"
	ReasonNotLinked          = "not_linked"
	ReasonAutoVerifyDisabled = "auto_verify_disabled"
	ReasonUpstreamError      = "upstream_error"
)

// StepResult is the tagged result of one step. Escalate marks failures that
// must fail the whole event so it is redelivered.
type StepResult struct {
	Step     Step
	Outcome  Outcome
	Reason   string
	Detail   string
	Err      error
	Escalate bool
}

// Applied returns an applied result.
func Applied(step Step, reason string) StepResult {
	return StepResult{Step: step, Outcome: OutcomeApplied, Reason: reason}
}

// Skipped returns a skipped result.
func Skipped(step Step, reason string) StepResult {
	return StepResult{Step: step, Outcome: OutcomeSkipped, Reason: reason}
}

// Failed returns a failed, non-escalated result.
func Failed(step Step, reason string, err error) StepResult {
	return StepResult{Step: step, Outcome: OutcomeFailed, Reason: reason, Err: err}
}

// WithDetail attaches a human-readable detail such as a tier or nickname.
func (r StepResult) WithDetail(detail string) StepResult {
	r.Detail = detail
	return r
}

// Escalated marks r as fatal to the event.
func (r StepResult) Escalated() StepResult {
	r.Escalate = true
	return r
}

func (r StepResult) String() string {
	var b strings.Builder
	b.WriteString(string(r.Step))
	b.WriteByte('=')
	b.WriteString(string(r.Outcome))
	if r.Reason != "" {
		b.WriteByte('(')
		b.WriteString(r.Reason)
		if r.Detail != "" {
			b.WriteByte(':')
			b.WriteString(r.Detail)
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Summary collects the step results of one event.
type Summary struct {
	Event     string
	SubjectID string
	ContextID string
	Steps     []StepResult
}

// NewSummary starts a summary for an event on subject in context.
func NewSummary(event, subjectID, contextID string) *Summary {
	return &Summary{Event: event, SubjectID: subjectID, ContextID: contextID}
}

// Add records r and returns it for inline inspection.
func (s *Summary) Add(r StepResult) StepResult {
	s.Steps = append(s.Steps, r)
	return r
}

// Result returns the last result recorded for step.
func (s *Summary) Result(step Step) (StepResult, bool) {
	for i := len(s.Steps) - 1; i >= 0; i-- {
		if s.Steps[i].Step == step {
			return s.Steps[i], true
		}
	}
	return StepResult{}, false
}

// Applied reports whether step was applied.
func (s *Summary) Applied(step Step) bool {
	r, ok := s.Result(step)
	return ok && r.Outcome == OutcomeApplied
}

// Count returns the number of results with outcome o.
func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Steps {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Err joins the errors of escalated failures. Nil when nothing escalated.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Steps {
		if r.Outcome == OutcomeFailed && r.Escalate {
			errs = append(errs, fmt.Errorf("%s: %w", r.Step, errOrReason(r)))
		}
	}
	return errors.Join(errs...)
}

func (s *Summary) String() string {
	parts := make([]string, 0, len(s.Steps))
	for _, r := range s.Steps {
		parts = append(parts, r.String())
	}
	return fmt.Sprintf("%s subject=%s context=%s %s", s.Event, s.SubjectID, s.ContextID, strings.Join(parts, " "))
}

func errOrReason(r StepResult) error {
	if r.Err != nil {
		return r.Err
	}
	return errors.New(r.Reason)
}
