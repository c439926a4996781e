package scheduler

import (
	"context"
	"fmt"
	"log"
	gosync "sync"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
)

// DefaultHousekeepingSchedule runs cleanup once a day, outside working hours.
const DefaultHousekeepingSchedule = "0 3 * * *"

// TaskEnqueuer puts tasks on the background queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Housekeeping enqueues maintenance tasks (audit pruning, stale upload
// removal) at startup and then on a cron schedule.
type Housekeeping struct {
	schedule string
	queue    TaskEnqueuer
	tasks    []backlite.Task

	cron      *cron.Cron
	mu        gosync.Mutex
	isRunning bool
}

func NewHousekeeping(schedule string, queue TaskEnqueuer, tasks ...backlite.Task) *Housekeeping {
	if schedule == "" {
		schedule = DefaultHousekeepingSchedule
	}
	return &Housekeeping{
		schedule: schedule,
		queue:    queue,
		tasks:    tasks,
		cron:     cron.New(cron.WithParser(scheduleParser)),
	}
}

func (h *Housekeeping) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.isRunning {
		return nil
	}
	if err := ValidateCronSchedule(h.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", h.schedule, err)
	}

	if _, err := h.cron.AddFunc(h.schedule, func() { h.EnqueueAll(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule housekeeping: %w", err)
	}
	h.EnqueueAll(ctx)

	h.cron.Start()
	h.isRunning = true
	log.Printf("[HOUSEKEEPING] %d tasks scheduled (%s)", len(h.tasks), DescribeSchedule(h.schedule))
	return nil
}

func (h *Housekeeping) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.isRunning {
		return
	}
	<-h.cron.Stop().Done()
	h.isRunning = false
}

// EnqueueAll queues every maintenance task once and returns how many were
// accepted.
func (h *Housekeeping) EnqueueAll(ctx context.Context) int {
	queued := 0
	for _, task := range h.tasks {
		if _, err := h.queue.Enqueue(ctx, task); err != nil {
			log.Printf("[HOUSEKEEPING] Failed to enqueue %s: %v", task.Config().Name, err)
			continue
		}
		queued++
	}
	return queued
}
