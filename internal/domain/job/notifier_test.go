package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trizly/lumi-link/internal/domain/model"
)

type stubWaiter struct {
	calls atomic.Int32
	err   error
	block bool
}

func (s *stubWaiter) WaitForNotification(ctx context.Context, _ model.JobType) error {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func receive(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
	case <-time.After(time.Second):
		t.Fatal("expected wake-up")
	}
}

func TestNewNotifierRequiresWaiter(t *testing.T) {
	n, err := NewNotifier(NotifierOptions{})
	require.ErrorIs(t, err, ErrWaiterRequired)
	assert.Nil(t, n)
}

func TestNotifier_WakesOnNotification(t *testing.T) {
	n, err := NewNotifier(NotifierOptions{Waiter: &stubWaiter{}})
	require.NoError(t, err)
	defer n.StopAll()

	unsub, ch := n.Subscribe(model.JobTypeLinked)
	defer unsub()
	receive(t, ch)
}

func TestNotifier_WakesOnPollTimeout(t *testing.T) {
	w := &stubWaiter{block: true}
	n, err := NewNotifier(NotifierOptions{Waiter: w, PollInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	defer n.StopAll()

	unsub, ch := n.Subscribe(model.JobTypeUnlinked)
	defer unsub()
	receive(t, ch)
	assert.GreaterOrEqual(t, w.calls.Load(), int32(1))
}

func TestNotifier_BacksOffOnError(t *testing.T) {
	w := &stubWaiter{err: errors.New("listen failed")}
	n, err := NewNotifier(NotifierOptions{Waiter: w, ErrorBackoff: 50 * time.Millisecond})
	require.NoError(t, err)

	unsub, ch := n.Subscribe(model.JobTypeLinked)
	receive(t, ch)
	time.Sleep(120 * time.Millisecond)
	unsub()

	assert.LessOrEqual(t, w.calls.Load(), int32(4))
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	n, err := NewNotifier(NotifierOptions{Waiter: &stubWaiter{block: true}})
	require.NoError(t, err)

	unsub, ch := n.Subscribe(model.JobTypeMemberJoined)
	unsub()
	unsub()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestNotifier_StopAllClosesEverySubscriber(t *testing.T) {
	n, err := NewNotifier(NotifierOptions{Waiter: &stubWaiter{block: true}})
	require.NoError(t, err)

	_, a := n.Subscribe(model.JobTypeLinked)
	_, b := n.Subscribe(model.JobTypeUnlinked)
	n.StopAll()

	for _, ch := range []<-chan struct{}{a, b} {
		_, ok := <-ch
		assert.False(t, ok)
	}
}
