// Package stats tracks process-wide translation counters. Counters are
// incremented by the engine and reset only at process start (or explicitly
// via Reset).
package stats

import (
	"fmt"
	"sync/atomic"
)

// Counters holds the running totals. All fields are updated atomically.
type Counters struct {
	requests        atomic.Int64
	cacheHits       atomic.Int64
	apiCalls        atomic.Int64
	offlineRequests atomic.Int64
	errors          atomic.Int64
	retries         atomic.Int64
	autoCorrections atomic.Int64
}

// New returns zeroed counters.
func New() *Counters {
	return &Counters{}
}

func (c *Counters) AddRequest()        { c.requests.Add(1) }
func (c *Counters) AddCacheHit()       { c.cacheHits.Add(1) }
func (c *Counters) AddAPICall()        { c.apiCalls.Add(1) }
func (c *Counters) AddOfflineRequest() { c.offlineRequests.Add(1) }
func (c *Counters) AddError()          { c.errors.Add(1) }
func (c *Counters) AddRetry()          { c.retries.Add(1) }
func (c *Counters) AddAutoCorrection() { c.autoCorrections.Add(1) }

// APICalls returns the current remote-call count. Exposed separately because
// tests assert cache hits do not increment it.
func (c *Counters) APICalls() int64 {
	return c.apiCalls.Load()
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.requests.Store(0)
	c.cacheHits.Store(0)
	c.apiCalls.Store(0)
	c.offlineRequests.Store(0)
	c.errors.Store(0)
	c.retries.Store(0)
	c.autoCorrections.Store(0)
}

// Snapshot is a read-only copy of the counters with derived rates.
type Snapshot struct {
	Requests        int64
	CacheHits       int64
	APICalls        int64
	OfflineRequests int64
	Errors          int64
	Retries         int64
	AutoCorrections int64

	CacheHitRate  string
	APIEfficiency string
}

// Snapshot captures the current totals.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Requests:        c.requests.Load(),
		CacheHits:       c.cacheHits.Load(),
		APICalls:        c.apiCalls.Load(),
		OfflineRequests: c.offlineRequests.Load(),
		Errors:          c.errors.Load(),
		Retries:         c.retries.Load(),
		AutoCorrections: c.autoCorrections.Load(),
	}
	total := s.Requests
	if total < 1 {
		total = 1
	}
	s.CacheHitRate = fmt.Sprintf("%.1f%%", float64(s.CacheHits)/float64(total)*100)
	s.APIEfficiency = fmt.Sprintf("%.1f%%", float64(s.APICalls)/float64(total)*100)
	return s
}
