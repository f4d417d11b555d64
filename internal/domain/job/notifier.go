// Package job holds queue-side helpers shared by producers and the link runner.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trizly/lumi-link/internal/domain/model"
)

// ErrWaiterRequired indicates a notifier cannot be constructed without a waiter.
var ErrWaiterRequired = errors.New("notifier waiter is required")

// Waiter blocks until a job of the given type is announced or ctx ends.
type Waiter interface {
	WaitForNotification(ctx context.Context, jobType model.JobType) error
}

// Notifier fans queue announcements out to in-process subscribers.
type Notifier interface {
	Subscribe(jobType model.JobType) (func(), <-chan struct{})
	StopAll()
}

// NotifierOptions configure the default notifier.
type NotifierOptions struct {
	Waiter Waiter
	// PollInterval bounds each wait; subscribers are woken on every expiry so a
	// missed announcement delays work by at most one interval.
	PollInterval time.Duration
	// ErrorBackoff is the pause after a failed wait.
	ErrorBackoff time.Duration
}

type topic struct {
	cancel context.CancelFunc
	subs   map[chan struct{}]struct{}
}

// DefaultNotifier runs one listener goroutine per subscribed job type.
type DefaultNotifier struct {
	waiter       Waiter
	pollInterval time.Duration
	errorBackoff time.Duration

	mu     sync.Mutex
	topics map[model.JobType]*topic
}

// NewNotifier constructs the default notifier implementation.
func NewNotifier(opts NotifierOptions) (*DefaultNotifier, error) {
	if opts.Waiter == nil {
		return nil, ErrWaiterRequired
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = 250 * time.Millisecond
	}
	return &DefaultNotifier{
		waiter:       opts.Waiter,
		pollInterval: opts.PollInterval,
		errorBackoff: opts.ErrorBackoff,
		topics:       make(map[model.JobType]*topic),
	}, nil
}

// Subscribe registers a wake-up channel for jobType. The returned func
// unsubscribes and closes the channel.
func (n *DefaultNotifier) Subscribe(jobType model.JobType) (func(), <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	t, ok := n.topics[jobType]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		t = &topic{cancel: cancel, subs: make(map[chan struct{}]struct{})}
		n.topics[jobType] = t
		go n.listen(ctx, jobType)
	}

	ch := make(chan struct{}, 1)
	t.subs[ch] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() { n.unsubscribe(jobType, ch) })
	}, ch
}

func (n *DefaultNotifier) unsubscribe(jobType model.JobType, ch chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	t, ok := n.topics[jobType]
	if !ok {
		return
	}
	if _, ok := t.subs[ch]; !ok {
		return
	}
	delete(t.subs, ch)
	closeDrained(ch)
	if len(t.subs) == 0 {
		t.cancel()
		delete(n.topics, jobType)
	}
}

// StopAll cancels every listener and closes every subscriber channel.
func (n *DefaultNotifier) StopAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for jobType, t := range n.topics {
		t.cancel()
		for ch := range t.subs {
			closeDrained(ch)
		}
		delete(n.topics, jobType)
	}
}

func (n *DefaultNotifier) listen(ctx context.Context, jobType model.JobType) {
	for ctx.Err() == nil {
		waitCtx, cancel := context.WithTimeout(ctx, n.pollInterval)
		err := n.waiter.WaitForNotification(waitCtx, jobType)
		cancel()

		n.wake(jobType)

		if err != nil && !errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.errorBackoff):
			}
		}
	}
}

func (n *DefaultNotifier) wake(jobType model.JobType) {
	n.mu.Lock()
	defer n.mu.Unlock()

	t, ok := n.topics[jobType]
	if !ok {
		return
	}
	for ch := range t.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// closeDrained empties a buffered channel and closes it.
func closeDrained(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}

var _ Notifier = (*DefaultNotifier)(nil)
