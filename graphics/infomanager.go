package graphics

import "sync"

// DefaultInfoQueueLimit bounds the number of messages an InfoQueue retains.
const DefaultInfoQueueLimit = 1024

// InfoQueue collects debug layer messages. Drivers push into it from
// whatever goroutine their debug callback runs on.
type InfoQueue struct {
	mu    sync.Mutex
	msgs  []string
	base  uint64 // sequence number of msgs[0]
	limit int
}

func NewInfoQueue() *InfoQueue {
	return &InfoQueue{limit: DefaultInfoQueueLimit}
}

// Push appends a message, dropping the oldest one once the limit is reached.
func (q *InfoQueue) Push(msg string) {
	if q == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	if q.limit > 0 && len(q.msgs) > q.limit {
		drop := len(q.msgs) - q.limit
		q.msgs = append(q.msgs[:0:0], q.msgs[drop:]...)
		q.base += uint64(drop)
	}
}

// Len returns the number of messages ever pushed.
func (q *InfoQueue) Len() uint64 {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.base + uint64(len(q.msgs))
}

// Since returns the retained messages with sequence number >= n.
func (q *InfoQueue) Since(n uint64) []string {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if n < q.base {
		n = q.base
	}
	i := n - q.base
	if i >= uint64(len(q.msgs)) {
		return nil
	}
	return append([]string(nil), q.msgs[i:]...)
}

// InfoManager tracks a checkpoint in an InfoQueue. A nil *InfoManager is
// valid and never reports messages; it stands for a disabled debug layer.
type InfoManager struct {
	queue *InfoQueue
	next  uint64
}

func NewInfoManager(q *InfoQueue) *InfoManager {
	if q == nil {
		return nil
	}
	return &InfoManager{queue: q, next: q.Len()}
}

// Set marks the checkpoint; later calls to Messages only return messages
// pushed after it.
func (m *InfoManager) Set() {
	if m == nil {
		return
	}
	m.next = m.queue.Len()
}

// Messages returns the messages pushed since the last Set.
func (m *InfoManager) Messages() []string {
	if m == nil {
		return nil
	}
	return m.queue.Since(m.next)
}
