package scraper

import "sync/atomic"

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36 Edg/121.0.0.0",
}

// UserAgentPool rotates User-Agent strings round-robin; safe for concurrent use.
type UserAgentPool struct {
	agents  []string
	counter atomic.Uint64
}

// NewUserAgentPool copies agents, falling back to a built-in desktop set.
func NewUserAgentPool(agents []string) *UserAgentPool {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	copied := make([]string, len(agents))
	copy(copied, agents)
	return &UserAgentPool{agents: copied}
}

// Next returns the following agent in the rotation.
func (p *UserAgentPool) Next() string {
	idx := p.counter.Add(1) - 1
	return p.agents[idx%uint64(len(p.agents))]
}
