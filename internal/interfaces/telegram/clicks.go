package telegram

import (
	"sync"
	"time"
)

const clickDebounce = 2 * time.Second

// ClickGuard debounces inline-button presses per chat so double taps do not
// fire an action twice.
type ClickGuard struct {
	mu   sync.Mutex
	last map[int64]time.Time
}

func NewClickGuard() *ClickGuard {
	return &ClickGuard{last: make(map[int64]time.Time)}
}

// Allow reports whether this click should be processed and records it.
func (g *ClickGuard) Allow(chatID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if time.Since(g.last[chatID]) < clickDebounce {
		return false
	}
	g.last[chatID] = time.Now()
	return true
}
