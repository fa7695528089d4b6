package service

import "sync"

// playerLocks serializes raid mutations per player key. Every mutating
// operation holds the player's lock for its whole read, mutate, write span;
// players never contend with each other.
type playerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the player's mutex, creating it on first use, and returns
// the unlock function.
func (p *playerLocks) acquire(playerKey string) func() {
	p.mu.Lock()
	lock, ok := p.locks[playerKey]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[playerKey] = lock
	}
	p.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
