package llm

import (
	"sync"
	"time"

	"github.com/Veraticus/tally/internal/credential"
)

// CooldownTracker is optional cross-request quota memory. The gateway skips
// credentials the tracker reports as unavailable and tells it about quota
// failures and successes. Nothing is remembered unless a tracker is injected.
type CooldownTracker interface {
	Available(cred credential.Credential, now time.Time) bool
	MarkExhausted(cred credential.Credential, now time.Time)
	MarkSucceeded(cred credential.Credential)
}

// MemoryCooldown keeps exhausted credentials out of rotation for a fixed
// duration. It lives only as long as the process.
type MemoryCooldown struct {
	until    map[string]time.Time
	duration time.Duration
	mu       sync.RWMutex
}

// NewCooldownTracker creates an in-memory tracker. A non-positive duration
// disables it (every credential is always available).
func NewCooldownTracker(d time.Duration) *MemoryCooldown {
	return &MemoryCooldown{
		until:    make(map[string]time.Time),
		duration: d,
	}
}

func cooldownKey(cred credential.Credential) string {
	return cred.Slot
}

// Available implements CooldownTracker.
func (m *MemoryCooldown) Available(cred credential.Credential, now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	until, ok := m.until[cooldownKey(cred)]
	return !ok || !now.Before(until)
}

// MarkExhausted implements CooldownTracker.
func (m *MemoryCooldown) MarkExhausted(cred credential.Credential, now time.Time) {
	if m.duration <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.until[cooldownKey(cred)] = now.Add(m.duration)
}

// MarkSucceeded implements CooldownTracker.
func (m *MemoryCooldown) MarkSucceeded(cred credential.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.until, cooldownKey(cred))
}

// size returns the number of credentials currently tracked.
func (m *MemoryCooldown) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.until)
}
