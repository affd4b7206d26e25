package command

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "command_cache_hits_total"})
	cacheMiss = prometheus.NewCounter(prometheus.CounterOpts{Name: "command_cache_miss_total"})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMiss)
}

// CompiledCommand is a ChatCommand with its trigger pre-normalized and the
// permission lists decoded.
type CompiledCommand struct {
	TriggerNormalized string
	Response          string
	OnlyWhenLive      bool
	AllowedLogins     []string
	AllowedRoleIDs    []string
}

type CommandSet struct {
	Commands  []*CompiledCommand
	UpdatedAt time.Time
}

// CommandCache holds the per-channel compiled command sets. Constructed once
// per service instance; refresh happens through the owning Service, never as
// ambient package state.
type CommandCache struct {
	mu    sync.RWMutex
	items map[string]*CommandSet
	ttl   time.Duration
}

func NewCommandCache(ttl time.Duration) *CommandCache {
	return &CommandCache{
		items: make(map[string]*CommandSet),
		ttl:   ttl,
	}
}

func (c *CommandCache) Get(channelID string) (*CommandSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[channelID]
	if !ok || (c.ttl > 0 && time.Since(v.UpdatedAt) > c.ttl) {
		cacheMiss.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return v, true
}

func (c *CommandCache) Set(channelID string, v *CommandSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[channelID] = v
}

func (c *CommandCache) Invalidate(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, channelID)
}
