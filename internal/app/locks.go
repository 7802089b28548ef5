package app

import "sync"

// jobLocks serializes the read-modify-write-persist sequence per job id.
// Operations on different jobs proceed concurrently. Locks are created on
// first use and kept for the life of the process; the ledger is an audit
// trail, so the set of jobs only grows.
type jobLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newJobLocks() *jobLocks {
	return &jobLocks{locks: make(map[string]*sync.Mutex)}
}

func (j *jobLocks) acquire(jobID string) func() {
	j.mu.Lock()
	l, ok := j.locks[jobID]
	if !ok {
		l = &sync.Mutex{}
		j.locks[jobID] = l
	}
	j.mu.Unlock()

	l.Lock()
	return l.Unlock
}
