// Package flood limits how often a single client may call an HTTP route.
package flood

import (
	"sort"
	"sync"
	"time"
)

const (
	// window is the span over which a client's requests are counted.
	window = time.Minute
	// sweepInterval is how often idle clients are forgotten.
	sweepInterval = 10 * time.Minute
	// idleTimeout is how long a client may stay silent before it is forgotten.
	idleTimeout = 10 * time.Minute
)

// Floodgate counts requests per route and client address over a sliding one-minute window.
type Floodgate struct {
	limitPerMinute int

	mu      sync.Mutex
	clients map[string]*requestLog

	stop     chan struct{}
	stopOnce sync.Once
}

// requestLog holds the arrival times of one client's recent requests, oldest first.
type requestLog struct {
	arrivals []time.Time
	lastSeen time.Time
}

// expire drops arrivals that fell out of the window ending at now.
func (l *requestLog) expire(now time.Time) {
	cutoff := now.Add(-window)
	keep := sort.Search(len(l.arrivals), func(i int) bool {
		return l.arrivals[i].After(cutoff)
	})
	l.arrivals = append(l.arrivals[:0], l.arrivals[keep:]...)
}

// New creates a Floodgate admitting limitPerMinute requests per client and route,
// and starts the sweeper that forgets idle clients. Call Stop to end it.
func New(limitPerMinute int) *Floodgate {
	fg := &Floodgate{
		limitPerMinute: limitPerMinute,
		clients:        make(map[string]*requestLog),
		stop:           make(chan struct{}),
	}

	go fg.sweep()

	return fg
}

// Stop ends the idle sweeper. Calling it again is a no-op.
func (fg *Floodgate) Stop() {
	fg.stopOnce.Do(func() {
		close(fg.stop)
	})
}

// Allow records a request from client on route and reports whether it is within the limit.
// Rejected requests are not recorded.
func (fg *Floodgate) Allow(route, client string) bool {
	return fg.allowAt(route, client, time.Now())
}

func (fg *Floodgate) allowAt(route, client string, now time.Time) bool {
	fg.mu.Lock()
	defer fg.mu.Unlock()

	key := clientKey(route, client)
	log, ok := fg.clients[key]
	if !ok {
		log = &requestLog{}
		fg.clients[key] = log
	}
	log.lastSeen = now
	log.expire(now)

	if len(log.arrivals) >= fg.limitPerMinute {
		return false
	}
	log.arrivals = append(log.arrivals, now)
	return true
}

// RetryAfter returns how long client must wait before route admits it again.
func (fg *Floodgate) RetryAfter(route, client string) time.Duration {
	return fg.retryAfterAt(route, client, time.Now())
}

func (fg *Floodgate) retryAfterAt(route, client string, now time.Time) time.Duration {
	fg.mu.Lock()
	defer fg.mu.Unlock()

	log, ok := fg.clients[clientKey(route, client)]
	if !ok || len(log.arrivals) == 0 {
		return 0
	}

	if wait := log.arrivals[0].Add(window).Sub(now); wait > 0 {
		return wait
	}
	return 0
}

func (fg *Floodgate) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			fg.forgetIdle(now)
		case <-fg.stop:
			return
		}
	}
}

// forgetIdle removes clients not seen for idleTimeout before now.
func (fg *Floodgate) forgetIdle(now time.Time) {
	fg.mu.Lock()
	defer fg.mu.Unlock()

	cutoff := now.Add(-idleTimeout)
	for key, log := range fg.clients {
		if log.lastSeen.Before(cutoff) {
			delete(fg.clients, key)
		}
	}
}

// GetStats returns a snapshot for the periodic stats log.
func (fg *Floodgate) GetStats() Stats {
	fg.mu.Lock()
	defer fg.mu.Unlock()

	return Stats{
		ActiveClients:  len(fg.clients),
		LimitPerMinute: fg.limitPerMinute,
		WindowSeconds:  int(window.Seconds()),
	}
}

// Stats describes the floodgate's current load.
type Stats struct {
	ActiveClients  int `json:"active_clients"`
	LimitPerMinute int `json:"limit_per_minute"`
	WindowSeconds  int `json:"window_seconds"`
}

func clientKey(route, client string) string {
	return route + " " + client
}
