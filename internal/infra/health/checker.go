package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

type Probe func(ctx context.Context) error

type Health struct {
	Failing bool   `json:"failing"`
	Detail  string `json:"detail,omitempty"`
}

// Checker runs named probes and caches each result for a short window so
// a busy health endpoint does not hammer Redis or the database.
type Checker struct {
	probes     map[string]Probe
	cache      map[string]Health
	lastCheck  map[string]time.Time
	checkMutex sync.Mutex
	window     time.Duration
	timeout    time.Duration
	now        func() time.Time
}

func NewChecker(window time.Duration) *Checker {
	return &Checker{
		probes:    make(map[string]Probe),
		cache:     make(map[string]Health),
		lastCheck: make(map[string]time.Time),
		window:    window,
		timeout:   time.Second,
		now:       time.Now,
	}
}

func (c *Checker) Register(name string, p Probe) {
	c.checkMutex.Lock()
	defer c.checkMutex.Unlock()
	c.probes[name] = p
}

// Check returns the state of every probe and whether all of them pass.
func (c *Checker) Check(ctx context.Context) (map[string]Health, bool) {
	c.checkMutex.Lock()
	defer c.checkMutex.Unlock()

	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]Health, len(names))
	healthy := true
	for _, name := range names {
		h := c.check(ctx, name)
		out[name] = h
		if h.Failing {
			healthy = false
		}
	}
	return out, healthy
}

func (c *Checker) check(ctx context.Context, name string) Health {
	now := c.now()
	if last, ok := c.lastCheck[name]; ok && now.Sub(last) < c.window {
		return c.cache[name]
	}

	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	h := Health{}
	if err := c.probes[name](pctx); err != nil {
		h = Health{Failing: true, Detail: err.Error()}
	}
	c.cache[name] = h
	c.lastCheck[name] = now
	return h
}
