package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeRelay runs the edge relay (OAuth endpoints, webhook dispatch).
	ServiceModeRelay ServiceMode = "relay"
	// ServiceModeOrigin runs the origin receiver (webhooks, lookup, persistence).
	ServiceModeOrigin ServiceMode = "origin"
	// ServiceModeLinkRunner runs the link event consumer that applies consequences.
	ServiceModeLinkRunner ServiceMode = "link-runner"
	// ServiceModeGateway runs the Discord gateway listener for member joins.
	ServiceModeGateway ServiceMode = "gateway"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeRelay,
		ServiceModeOrigin,
		ServiceModeLinkRunner,
		ServiceModeGateway,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeRelay, ServiceModeOrigin, ServiceModeLinkRunner, ServiceModeGateway:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: relay, origin, link-runner, gateway)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// LinkRunnerConfig contains link event consumer configuration.
type LinkRunnerConfig struct {
	// Concurrency is the number of worker goroutines per event type.
	Concurrency int `env:"LINK_RUNNER_CONCURRENCY" envDefault:"2"`

	// JobLease is the duration a worker holds a reserved event.
	JobLease time.Duration `env:"LINK_RUNNER_JOB_LEASE" envDefault:"30s"`

	// MaxRetries bounds redelivery of a failing event.
	MaxRetries int `env:"LINK_RUNNER_MAX_RETRIES" envDefault:"5"`

	// RetryDelay is how long a failed event waits before it is eligible again.
	RetryDelay time.Duration `env:"JOB_RETRY_DELAY" envDefault:"30s"`

	// PollInterval is the fallback wake-up when no notification arrives.
	PollInterval time.Duration `env:"LINK_RUNNER_POLL_INTERVAL" envDefault:"5s"`
}

// Sanitize applies guardrails to link runner configuration values.
func (l *LinkRunnerConfig) Sanitize() {
	if l.Concurrency < 1 {
		l.Concurrency = 1
	}
	if l.JobLease < 5*time.Second {
		l.JobLease = 5 * time.Second
	}
	if l.MaxRetries < 0 {
		l.MaxRetries = 0
	}
	if l.RetryDelay <= 0 {
		l.RetryDelay = 30 * time.Second
	}
	if l.PollInterval < time.Second {
		l.PollInterval = time.Second
	}
}

// ReaperConfig controls retention of finished link events.
type ReaperConfig struct {
	Interval        time.Duration `env:"REAPER_INTERVAL"          envDefault:"1h"`
	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"168h"`
	FailedMaxAge    time.Duration `env:"REAPER_FAILED_MAX_AGE"    envDefault:"720h"`
	BatchSize       int           `env:"REAPER_BATCH_SIZE"        envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
	if r.BatchSize < 1 {
		r.BatchSize = 1000
	}
}
