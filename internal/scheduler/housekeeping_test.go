package scheduler

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/manuscripts/internal/tasks"
)

type recordingQueue struct {
	mu     gosync.Mutex
	queued []string
	failOn string
}

func (q *recordingQueue) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	name := task.Config().Name
	if name == q.failOn {
		return "", errors.New("queue unavailable")
	}
	q.queued = append(q.queued, name)
	return "id-" + name, nil
}

func (q *recordingQueue) names() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.queued...)
}

func TestHousekeeping_StartEnqueuesImmediately(t *testing.T) {
	queue := &recordingQueue{}
	h := NewHousekeeping("", queue,
		tasks.CleanupAuditEventsTask{RetentionDays: 30},
		tasks.CleanupUploadsTask{Dir: t.TempDir()},
	)
	assert.Equal(t, DefaultHousekeepingSchedule, h.schedule)

	require.NoError(t, h.Start(context.Background()))
	defer h.Stop()

	assert.Equal(t, []string{"cleanup_audit_events", "cleanup_uploads"}, queue.names())

	// A second Start is a no-op.
	require.NoError(t, h.Start(context.Background()))
	assert.Len(t, queue.names(), 2)
}

func TestHousekeeping_EnqueueAllSkipsFailures(t *testing.T) {
	queue := &recordingQueue{failOn: "cleanup_audit_events"}
	h := NewHousekeeping("0 3 * * *", queue,
		tasks.CleanupAuditEventsTask{},
		tasks.CleanupUploadsTask{Dir: "uploads"},
	)

	assert.Equal(t, 1, h.EnqueueAll(context.Background()))
	assert.Equal(t, []string{"cleanup_uploads"}, queue.names())
}

func TestHousekeeping_InvalidSchedule(t *testing.T) {
	h := NewHousekeeping("every day", &recordingQueue{})

	err := h.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")

	done := make(chan struct{})
	go func() {
		h.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a scheduler that never started")
	}
}
