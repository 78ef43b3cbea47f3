package store

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is the shard count used when none is configured.
const DefaultShards = 32

type shard struct {
	mu   sync.RWMutex
	msgs map[string][]string
}

// MemoryStore is a sharded in-process ConversationStore. Each user id
// hashes to one shard, so writers for different users rarely contend.
type MemoryStore struct {
	shards     []*shard
	maxPerUser int
}

// NewMemoryStore creates a store with n shards. maxPerUser keeps only the
// newest messages per user; 0 means unbounded.
func NewMemoryStore(n, maxPerUser int) *MemoryStore {
	if n <= 0 {
		n = DefaultShards
	}
	if maxPerUser < 0 {
		maxPerUser = 0
	}
	s := &MemoryStore{
		shards:     make([]*shard, n),
		maxPerUser: maxPerUser,
	}
	for i := range s.shards {
		s.shards[i] = &shard{msgs: make(map[string][]string)}
	}
	return s
}

func (s *MemoryStore) shardFor(userID string) *shard {
	return s.shards[xxhash.Sum64String(userID)%uint64(len(s.shards))]
}

// Append adds message to the user's history.
func (s *MemoryStore) Append(_ context.Context, userID, message string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	msgs := append(sh.msgs[userID], message)
	if s.maxPerUser > 0 && len(msgs) > s.maxPerUser {
		// Copy so the dropped prefix can be collected.
		msgs = append([]string(nil), msgs[len(msgs)-s.maxPerUser:]...)
	}
	sh.msgs[userID] = msgs
	return nil
}

// History returns a copy of the user's messages.
func (s *MemoryStore) History(_ context.Context, userID string) ([]string, error) {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	msgs := sh.msgs[userID]
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Users returns the number of users with recorded history.
func (s *MemoryStore) Users() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.msgs)
		sh.mu.RUnlock()
	}
	return n
}
