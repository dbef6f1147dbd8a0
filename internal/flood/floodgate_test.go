package flood

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const tasksRoute = "/api/tasks"

func TestFloodgate_Allow(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	type call struct {
		route   string
		client  string
		offset  time.Duration
		allowed bool
	}

	tests := []struct {
		name  string
		limit int
		calls []call
	}{
		{
			name:  "Limit reached within the window",
			limit: 3,
			calls: []call{
				{tasksRoute, "10.0.0.1", 0, true},
				{tasksRoute, "10.0.0.1", time.Second, true},
				{tasksRoute, "10.0.0.1", 2 * time.Second, true},
				{tasksRoute, "10.0.0.1", 3 * time.Second, false},
			},
		},
		{
			name:  "Window slides past the oldest request",
			limit: 2,
			calls: []call{
				{tasksRoute, "10.0.0.1", 0, true},
				{tasksRoute, "10.0.0.1", 30 * time.Second, true},
				{tasksRoute, "10.0.0.1", 59 * time.Second, false},
				{tasksRoute, "10.0.0.1", 61 * time.Second, true},
				{tasksRoute, "10.0.0.1", 62 * time.Second, false},
			},
		},
		{
			name:  "Request exactly one window later is admitted",
			limit: 1,
			calls: []call{
				{tasksRoute, "10.0.0.1", 0, true},
				{tasksRoute, "10.0.0.1", window, true},
			},
		},
		{
			name:  "Clients and routes are counted separately",
			limit: 1,
			calls: []call{
				{tasksRoute, "10.0.0.1", 0, true},
				{tasksRoute, "10.0.0.2", 0, true},
				{"/api/other", "10.0.0.1", 0, true},
				{tasksRoute, "10.0.0.1", time.Second, false},
				{tasksRoute, "10.0.0.2", time.Second, false},
			},
		},
		{
			name:  "Rejected requests do not extend the wait",
			limit: 1,
			calls: []call{
				{tasksRoute, "10.0.0.1", 0, true},
				{tasksRoute, "10.0.0.1", 50 * time.Second, false},
				{tasksRoute, "10.0.0.1", 61 * time.Second, true},
			},
		},
		{
			name:  "Zero limit rejects everything",
			limit: 0,
			calls: []call{
				{tasksRoute, "10.0.0.1", 0, false},
			},
		},
		{
			name:  "Empty identifiers",
			limit: 1,
			calls: []call{
				{"", "", 0, true},
				{"", "", 0, false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg := New(tt.limit)
			defer fg.Stop()

			for i, c := range tt.calls {
				got := fg.allowAt(c.route, c.client, start.Add(c.offset))
				assert.Equal(t, c.allowed, got, "call %d (%s %s at +%v)", i, c.route, c.client, c.offset)
			}
		})
	}
}

func TestFloodgate_RetryAfter(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fg := New(1)
	defer fg.Stop()

	assert.Zero(t, fg.retryAfterAt(tasksRoute, "10.0.0.1", start))

	fg.allowAt(tasksRoute, "10.0.0.1", start)
	assert.Equal(t, 45*time.Second, fg.retryAfterAt(tasksRoute, "10.0.0.1", start.Add(15*time.Second)))
	assert.Zero(t, fg.retryAfterAt(tasksRoute, "10.0.0.1", start.Add(2*window)))

	fg.Allow(tasksRoute, "10.0.0.2")
	wait := fg.RetryAfter(tasksRoute, "10.0.0.2")
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, window)
}

func TestFloodgate_ForgetIdle(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fg := New(1)
	defer fg.Stop()

	fg.allowAt(tasksRoute, "10.0.0.1", start)
	fg.allowAt(tasksRoute, "10.0.0.2", start.Add(8*time.Minute))
	assert.Equal(t, 2, fg.GetStats().ActiveClients)

	fg.forgetIdle(start.Add(idleTimeout + time.Second))
	assert.Equal(t, 1, fg.GetStats().ActiveClients)

	// A forgotten client starts over.
	assert.True(t, fg.allowAt(tasksRoute, "10.0.0.1", start.Add(idleTimeout+2*time.Second)))
}

func TestFloodgate_GetStats(t *testing.T) {
	fg := New(5)
	defer fg.Stop()

	assert.Equal(t, Stats{ActiveClients: 0, LimitPerMinute: 5, WindowSeconds: 60}, fg.GetStats())

	fg.Allow(tasksRoute, "10.0.0.1")
	fg.Allow(tasksRoute, "10.0.0.2")
	fg.Allow("/api/other", "10.0.0.1")

	assert.Equal(t, 3, fg.GetStats().ActiveClients)
}

func TestFloodgate_ConcurrentClients(t *testing.T) {
	fg := New(5)
	defer fg.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if fg.Allow(tasksRoute, "10.0.0.1") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
				fg.GetStats()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
}

func TestFloodgate_StopTwice(t *testing.T) {
	fg := New(1)
	fg.Stop()
	fg.Stop()
}
