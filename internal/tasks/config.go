package tasks

import "time"

// Config controls the background import queue.
type Config struct {
	Workers int

	// MaxRetries caps attempts for queues that retry. Default: 3
	MaxRetries int

	// RetryDelay is the backoff between attempts. Default: 30s
	RetryDelay time.Duration

	// TaskTimeout bounds a single import. Default: 10m
	TaskTimeout time.Duration

	// ReleaseAfter hands a claimed task back to the queue if its worker
	// went away. Default: 15m
	ReleaseAfter time.Duration

	CleanupInterval time.Duration

	// RetentionDuration is how long finished tasks stay queryable. Default: 24h
	RetentionDuration time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        30 * time.Second,
		TaskTimeout:       10 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = d.TaskTimeout
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = d.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.RetentionDuration <= 0 {
		c.RetentionDuration = d.RetentionDuration
	}
	return c
}
