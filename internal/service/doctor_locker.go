package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DoctorLocker serializes review writes per doctor inside this process.
//
// Lock Ordering (to prevent deadlocks):
// 1. Acquire doctor mutex FIRST
// 2. Then open the database transaction and take the row lock
//
// Mutexes are created lazily and dropped by a background loop once they have been
// idle longer than the stale threshold. Call Stop() during graceful shutdown.
type DoctorLocker struct {
	log *logrus.Logger

	doctorMu sync.Map // map[uuid.UUID]*mutexWithTimestamp

	cleanupInterval time.Duration
	staleThreshold  time.Duration

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix nanoseconds
}

// NewDoctorLocker starts the cleanup goroutine.
func NewDoctorLocker(log *logrus.Logger, cleanupInterval, staleThreshold time.Duration) *DoctorLocker {
	l := &DoctorLocker{
		log:             log,
		cleanupInterval: cleanupInterval,
		staleThreshold:  staleThreshold,
		stopChan:        make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupMutexMapLoop()

	return l
}

// Stop is safe to call multiple times.
func (l *DoctorLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
		l.log.Info("DoctorLocker stopped")
	}
}

// Lock blocks until the caller holds the doctor's mutex and returns the unlock func.
func (l *DoctorLocker) Lock(doctorID uuid.UUID) func() {
	for {
		mt := l.getDoctorMutex(doctorID)
		mt.mu.Lock()

		// The cleanup loop may have dropped this mutex while we were waiting on it.
		// Holding an orphan would not exclude callers that loaded the replacement.
		if current, ok := l.doctorMu.Load(doctorID); ok && current == mt {
			mt.lastUsed.Store(time.Now().UnixNano())
			return func() {
				mt.lastUsed.Store(time.Now().UnixNano())
				mt.mu.Unlock()
			}
		}
		mt.mu.Unlock()
	}
}

// getDoctorMutex returns mutex for a specific doctor ID
func (l *DoctorLocker) getDoctorMutex(doctorID uuid.UUID) *mutexWithTimestamp {
	fresh := &mutexWithTimestamp{}
	fresh.lastUsed.Store(time.Now().UnixNano())
	mt, _ := l.doctorMu.LoadOrStore(doctorID, fresh)
	return mt.(*mutexWithTimestamp)
}

// cleanupMutexMapLoop runs in background to clean stale mutexes
func (l *DoctorLocker) cleanupMutexMapLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			l.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			l.cleanupStaleMutexes()
		}
	}
}

// cleanupStaleMutexes removes unused mutexes using TryLock so held ones are never dropped
func (l *DoctorLocker) cleanupStaleMutexes() int {
	cutoff := time.Now().Add(-l.staleThreshold).UnixNano()
	cleaned := 0

	l.doctorMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			l.doctorMu.Delete(key)
			return true
		}

		if mt.lastUsed.Load() >= cutoff {
			return true
		}

		if mt.mu.TryLock() {
			l.doctorMu.CompareAndDelete(key, mt)
			mt.mu.Unlock()
			cleaned++
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale doctor mutexes", cleaned)
	}
	return cleaned
}
