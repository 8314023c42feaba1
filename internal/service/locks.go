package service

import (
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// userLocks serializes operations per user inside one process. Row locks
// taken inside the transaction cover other processes on PostgreSQL.
type userLocks struct {
	m *xsync.MapOf[uint, *sync.Mutex]
}

func newUserLocks() *userLocks {
	return &userLocks{m: xsync.NewMapOf[uint, *sync.Mutex]()}
}

// lock acquires the mutex of every distinct id in ascending order and
// returns the matching unlock.
func (l *userLocks) lock(ids ...uint) func() {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		mu, _ := l.m.LoadOrStore(id, &sync.Mutex{})
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
