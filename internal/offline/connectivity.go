package offline

import (
	"context"
	"sync"
	"time"
)

// Monitor holds the client's view of network reachability and notifies
// subscribers on every transition. It never acts on a transition itself.
type Monitor struct {
	mu          sync.Mutex
	online      bool
	nextID      int
	subscribers []subscriber
}

type subscriber struct {
	id int
	fn func(online bool)
}

func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records the reachability signal. Subscribers run synchronously in
// the calling goroutine, in subscription order, and only when the state flips.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	callbacks := make([]func(bool), 0, len(m.subscribers))
	for _, sub := range m.subscribers {
		callbacks = append(callbacks, sub.fn)
	}
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(online)
	}
}

func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for idx, sub := range m.subscribers {
				if sub.id == id {
					m.subscribers = append(m.subscribers[:idx], m.subscribers[idx+1:]...)
					return
				}
			}
		})
	}
}

// Watch feeds the result of probe into SetOnline, once immediately and then
// every interval, until ctx is done.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, probe func(context.Context) error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	check := func() {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := probe(probeCtx)
		if ctx.Err() != nil {
			return
		}
		m.SetOnline(err == nil)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
