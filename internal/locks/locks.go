// Package locks serializes imports that target the same publication.
//
// Two imports into the same slug must not interleave their "does it exist"
// lookup and "create it" write. Callers wrap each import in Acquire:
//
//	release, err := locker.Acquire(ctx, "publication:"+slug)
//	if err != nil {
//		return err
//	}
//	defer release()
//
// MemoryLocker covers a single process. RedisLocker covers several processes
// sharing one database.
package locks

import (
	"context"
	"errors"
	"sync"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

// Locker hands out exclusive locks by key. Acquire blocks until the lock is
// held or ctx is done; the returned release function is safe to call more
// than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// MemoryLocker is an in-process keyed mutex.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{}
	waiters int
}

var _ Locker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*slot)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.waiters++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.leave(key, s)
		return nil, errors.Join(ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.leave(key, s)
		})
	}, nil
}

// leave drops the slot once nobody holds or waits for it.
func (l *MemoryLocker) leave(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(l.slots, key)
	}
}
