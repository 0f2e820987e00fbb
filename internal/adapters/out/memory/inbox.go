package memory

import (
	"context"
	"sync"
	"time"
)

// Inbox remembers processed event ids per consumer until ttl expires.
type Inbox struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time

	marks int
}

// evictEvery is the number of marks between two sweeps of expired ids.
const evictEvery = 256

func NewInbox(ttl time.Duration, now func() time.Time) *Inbox {
	if now == nil {
		now = time.Now
	}
	return &Inbox{seen: make(map[string]time.Time), ttl: ttl, now: now}
}

func (i *Inbox) Processed(_ context.Context, consumer, eventID string) (bool, error) {
	now := i.now()

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.markedLocked(consumer+"/"+eventID, now), nil
}

func (i *Inbox) MarkProcessed(_ context.Context, consumer, eventID string) (bool, error) {
	key := consumer + "/" + eventID
	now := i.now()

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.markedLocked(key, now) {
		return false, nil
	}

	i.seen[key] = now.Add(i.ttl)
	i.evictLocked(now)
	return true, nil
}

func (i *Inbox) markedLocked(key string, now time.Time) bool {
	expires, ok := i.seen[key]
	return ok && (i.ttl <= 0 || now.Before(expires))
}

func (i *Inbox) evictLocked(now time.Time) {
	i.marks++
	if i.ttl <= 0 || i.marks%evictEvery != 0 {
		return
	}
	for key, expires := range i.seen {
		if !now.Before(expires) {
			delete(i.seen, key)
		}
	}
}
