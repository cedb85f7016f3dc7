package services

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Locker hands out the run lock every sync operation holds. ok=false means
// another holder has it; the orchestrator reports that as ErrSyncInProgress.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(), ok bool, err error)
}

// LocalLocker guards runs within one process.
type LocalLocker struct {
	sem *semaphore.Weighted
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: semaphore.NewWeighted(1)}
}

func (l *LocalLocker) TryLock(context.Context) (func(), bool, error) {
	if !l.sem.TryAcquire(1) {
		return nil, false, nil
	}
	return func() { l.sem.Release(1) }, true, nil
}
