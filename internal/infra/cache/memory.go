package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

const (
	DefaultSize = 1024
	DefaultTTL  = 10 * time.Minute
)

type memoryEntry struct {
	value     analysis.Analysis
	expiresAt time.Time
}

// Memory is an in-process bounded LRU. Entries leave on TTL or when the
// least recently used one is pushed out.
type Memory struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemory builds a cache holding at most size entries. maxTTL bounds how
// long any entry may live regardless of the ttl passed to Put.
func NewMemory(size int, maxTTL time.Duration) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	if maxTTL <= 0 {
		maxTTL = DefaultTTL
	}
	return &Memory{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (m *Memory) Get(_ context.Context, fingerprint string) (analysis.Analysis, bool, error) {
	e, ok := m.lru.Get(fingerprint)
	if !ok {
		return analysis.Analysis{}, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.lru.Remove(fingerprint)
		return analysis.Analysis{}, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Put(_ context.Context, fingerprint string, a analysis.Analysis, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.lru.Add(fingerprint, memoryEntry{value: a, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *Memory) Len() int { return m.lru.Len() }

// Ping always succeeds; it lets the memory cache stand in as a health checker.
func (m *Memory) Ping(context.Context) error { return nil }
