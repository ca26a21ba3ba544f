// Package notify buffers per-user toast notifications until the client
// polls for them. The hub is the server-side stand-in for the storefront's
// toast stack: pushes are cheap and never block, and each notification is
// delivered at most once.
package notify

import (
	"sync"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

// queue cap per user; a client that never polls must not grow memory.
const maxQueued = 50

type Hub struct {
	mu     sync.Mutex
	queues map[string][]usecase.Notification
}

func NewHub() *Hub {
	return &Hub{queues: make(map[string][]usecase.Notification)}
}

// Push enqueues a notification for userID. When the queue is full the
// oldest entry is dropped first.
func (h *Hub) Push(userID string, n usecase.Notification) {
	h.mu.Lock()
	q := h.queues[userID]
	if len(q) >= maxQueued {
		q = q[1:]
	}
	h.queues[userID] = append(q, n)
	h.mu.Unlock()
}

// Drain returns and clears everything queued for userID.
func (h *Hub) Drain(userID string) []usecase.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	q := h.queues[userID]
	if len(q) == 0 {
		return nil
	}
	delete(h.queues, userID)
	return q
}
