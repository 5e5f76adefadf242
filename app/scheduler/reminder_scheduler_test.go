package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu    sync.Mutex
	calls int
	lead  time.Duration
	sent  int
	err   error
}

func (f *fakeSender) SendDueReminders(ctx context.Context, leadTime time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lead = leadTime
	return f.sent, f.err
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewReminderSchedulerDefaults(t *testing.T) {
	s := NewReminderScheduler(&fakeSender{}, 0, -time.Hour)
	assert.Equal(t, 10*time.Minute, s.interval)
	assert.Equal(t, 24*time.Hour, s.leadTime)
}

func TestRunOnce(t *testing.T) {
	t.Run("PassesLeadTime", func(t *testing.T) {
		sender := &fakeSender{sent: 3}
		s := NewReminderScheduler(sender, time.Minute, 2*time.Hour)

		assert.Equal(t, 3, s.runOnce(context.Background()))
		assert.Equal(t, 2*time.Hour, sender.lead)
	})

	t.Run("ErrorIsSwallowed", func(t *testing.T) {
		sender := &fakeSender{sent: 1, err: errors.New("db down")}
		s := NewReminderScheduler(sender, time.Minute, time.Hour)

		assert.Equal(t, 1, s.runOnce(context.Background()))
	})
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	sender := &fakeSender{}
	s := NewReminderScheduler(sender, 20*time.Millisecond, time.Hour)

	stop := s.Start(context.Background())
	require.Eventually(t, func() bool { return sender.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	stop()

	// allow an in-flight pass to finish, then make sure the loop is gone
	time.Sleep(50 * time.Millisecond)
	after := sender.callCount()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, after, sender.callCount())
}
