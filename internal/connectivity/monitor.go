package connectivity

import "sync"

// Monitor mirrors the platform's online/offline signal and fans out change
// notifications. It is push-based: the platform layer calls Set when the
// signal flips; nothing here polls.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[chan bool]struct{}
}

// NewMonitor creates a monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{
		online: online,
		subs:   make(map[chan bool]struct{}),
	}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set updates the connectivity state and notifies subscribers. Setting the
// same state twice is a no-op; subscribers only see transitions.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]chan bool, 0, len(m.subs))
	for ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	for _, ch := range subs {
		// A subscriber's buffer must always hold the newest state: discard a
		// stale unread notification before sending, never the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- online:
		default:
		}
	}
}

// Subscribe registers for transition notifications. The returned channel is
// buffered; missed intermediate flips collapse into the latest state.
func (m *Monitor) Subscribe() chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription.
func (m *Monitor) Unsubscribe(ch chan bool) {
	m.mu.Lock()
	delete(m.subs, ch)
	m.mu.Unlock()
}
