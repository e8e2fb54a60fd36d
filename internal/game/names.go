package game

import (
	"math/rand/v2"
	"sync"
)

// GuestName is the placeholder a client sends when it has no display name.
const GuestName = "Guest"

var defaultGuestNames = []string{
	"Disco Potato",
	"Silver Blister",
	"Insulated Mustard",
	"Funeral Flapjack",
	"Toenail",
	"Urgent Drip",
	"Raging Bagel",
	"Aggressive Pie",
	"Loving Spoon",
	"Swollen Node",
	"The Spleen",
	"Dingle Dangle",
}

// NamePool hands out guest names without replacement and refills itself
// once every name has been drawn. It is shared by all sessions.
type NamePool struct {
	mu        sync.Mutex
	base      []string
	remaining []string
}

func NewNamePool(names ...string) *NamePool {
	if len(names) == 0 {
		names = defaultGuestNames
	}
	p := &NamePool{base: append([]string(nil), names...)}
	p.resetLocked()
	return p
}

func (p *NamePool) Take() string {
	if p == nil {
		return GuestName
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.remaining) == 0 {
		p.resetLocked()
	}
	i := rand.IntN(len(p.remaining))
	name := p.remaining[i]
	p.remaining[i] = p.remaining[len(p.remaining)-1]
	p.remaining = p.remaining[:len(p.remaining)-1]
	if len(p.remaining) == 0 {
		p.resetLocked()
	}
	return name
}

func (p *NamePool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *NamePool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.remaining)
}

func (p *NamePool) resetLocked() {
	p.remaining = append(p.remaining[:0], p.base...)
}
