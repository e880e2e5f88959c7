package news

import "sync"

// messageKey identifies one message across chats.
type messageKey struct {
	chatID    int64
	messageID int
}

// keyedLock serializes work per message. Concurrent reaction events on
// the same message queue behind one mutex; events on different messages
// proceed independently. Entries are kept for the process lifetime: the
// set of messages receiving reactions at any moment is small.
type keyedLock struct {
	mu    sync.Mutex
	locks map[messageKey]*sync.Mutex
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[messageKey]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and returns
// the unlock function.
func (l *keyedLock) Lock(key messageKey) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
