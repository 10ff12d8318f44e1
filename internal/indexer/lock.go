package indexer

import "sync/atomic"

// IndexLock admits one indexing run at a time. A run that finds it held
// fails fast with ErrIndexingInProgress instead of queueing.
type IndexLock struct {
	held atomic.Bool
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (l *IndexLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock. Only the holder may call it.
func (l *IndexLock) Release() {
	l.held.Store(false)
}
