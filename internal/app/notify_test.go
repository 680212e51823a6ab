package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/domaintest"
	"github.com/stretchr/testify/require"
)

type scriptedTransport struct {
	mutex    sync.Mutex
	results  []error
	attempts int
	send     func(ctx context.Context) error
}

func (s *scriptedTransport) Send(ctx context.Context, alert domain.MissedCheckInAlert) error {
	s.mutex.Lock()
	attempt := s.attempts
	s.attempts++
	s.mutex.Unlock()

	if s.send != nil {
		return s.send(ctx)
	}
	if attempt < len(s.results) {
		return s.results[attempt]
	}
	return nil
}

type recordingAfter struct {
	waits []time.Duration
}

func (r *recordingAfter) After(d time.Duration) <-chan time.Time {
	r.waits = append(r.waits, d)
	return immediately(d)
}

func TestNotifyContact(t *testing.T) {
	t.Parallel()

	contact := domaintest.NewContactBuilder(userA).Build()
	profile := domaintest.NewProfileBuilder(userA).Build()
	alert := domain.NewMissedCheckInAlert(profile, domain.Date{Year: 2025, Month: time.June, Day: 2}, contact)
	temporary := errors.Join(domain.ErrTemporarilyUnavailable, errors.New("503 service unavailable"))

	t.Run("first attempt succeeds", func(t *testing.T) {
		t.Parallel()

		transport := &scriptedTransport{}
		after := &recordingAfter{}

		require.True(t, BuildNotifyContact(transport, time.Second, 3, after.After)(t.Context(), contact, alert))
		require.Equal(t, 1, transport.attempts)
		require.Empty(t, after.waits)
	})

	t.Run("temporary failures are retried with backoff", func(t *testing.T) {
		t.Parallel()

		transport := &scriptedTransport{results: []error{temporary, temporary, nil}}
		after := &recordingAfter{}

		require.True(t, BuildNotifyContact(transport, time.Second, 3, after.After)(t.Context(), contact, alert))
		require.Equal(t, 3, transport.attempts)
		require.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, after.waits)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		t.Parallel()

		transport := &scriptedTransport{results: []error{temporary, temporary, temporary, nil}}
		after := &recordingAfter{}

		require.False(t, BuildNotifyContact(transport, time.Second, 3, after.After)(t.Context(), contact, alert))
		require.Equal(t, 3, transport.attempts)
	})

	t.Run("permanent failures are not retried", func(t *testing.T) {
		t.Parallel()

		transport := &scriptedTransport{results: []error{domain.ErrTransport, nil}}
		after := &recordingAfter{}

		require.False(t, BuildNotifyContact(transport, time.Second, 3, after.After)(t.Context(), contact, alert))
		require.Equal(t, 1, transport.attempts)
		require.Empty(t, after.waits)
	})

	t.Run("timed out attempts are not sent again", func(t *testing.T) {
		t.Parallel()

		transport := &scriptedTransport{send: func(ctx context.Context) error {
			<-ctx.Done()
			return fmt.Errorf("%w: %w", domain.ErrTransport, ctx.Err())
		}}
		after := &recordingAfter{}

		require.False(t, BuildNotifyContact(transport, 10*time.Millisecond, 3, after.After)(t.Context(), contact, alert))
		require.Equal(t, 1, transport.attempts)
		require.Empty(t, after.waits)
	})

	t.Run("a slow send that succeeds is delivered once", func(t *testing.T) {
		t.Parallel()

		var delivered atomic.Int32
		transport := &scriptedTransport{send: func(context.Context) error {
			// Ignores the attempt deadline like a client without context support
			time.Sleep(50 * time.Millisecond)
			delivered.Add(1)
			return nil
		}}

		require.True(t, BuildNotifyContact(transport, 10*time.Millisecond, 3, immediately)(t.Context(), contact, alert))
		require.Equal(t, 1, transport.attempts)
		require.EqualValues(t, 1, delivered.Load())
	})

	t.Run("a panicking transport counts as a failure", func(t *testing.T) {
		t.Parallel()

		transport := &scriptedTransport{send: func(ctx context.Context) error {
			panic("nil pointer")
		}}

		require.False(t, BuildNotifyContact(transport, time.Second, 3, immediately)(t.Context(), contact, alert))
		require.Equal(t, 1, transport.attempts)
	})

	t.Run("no retries once the context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		transport := &scriptedTransport{send: func(context.Context) error {
			cancel()
			return domain.ErrTemporarilyUnavailable
		}}

		require.False(t, BuildNotifyContact(transport, time.Second, 3, immediately)(ctx, contact, alert))
		require.Equal(t, 1, transport.attempts)
	})

	t.Run("cancelled while backing off", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		transport := &scriptedTransport{results: []error{temporary, nil}}
		never := func(time.Duration) <-chan time.Time {
			cancel()
			return make(chan time.Time)
		}

		require.False(t, BuildNotifyContact(transport, time.Second, 3, never)(ctx, contact, alert))
		require.Equal(t, 1, transport.attempts)
	})
}
