package pipeline

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultLockStripes = 64

// userLocks serializes work per user id over a fixed set of mutexes.
// Two users may share a stripe; one user always maps to the same one.
type userLocks struct {
	stripes []sync.Mutex
}

func newUserLocks(n int) *userLocks {
	if n <= 0 {
		n = defaultLockStripes
	}
	return &userLocks{stripes: make([]sync.Mutex, n)}
}

func (l *userLocks) lock(userID string) (unlock func()) {
	mu := &l.stripes[xxhash.Sum64String(userID)%uint64(len(l.stripes))]
	mu.Lock()
	return mu.Unlock
}
