package search

import "github.com/poiesic/docvault/index"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during a query; the
// Degraded hook is the only place an exhausted-retry outage becomes visible
// to callers, since the search itself returns an empty result set.
type Monitor interface {
	Start(query string)
	AfterEmbedding(vector []float32)
	AfterIndexQuery(matches []index.Match)
	Degraded(err error)
	Finish(results []Result)
}

// noopMonitor is a no-op implementation of Monitor.
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterEmbedding(_ []float32)      {}
func (n *noopMonitor) AfterIndexQuery(_ []index.Match) {}
func (n *noopMonitor) Degraded(_ error)                {}
func (n *noopMonitor) Finish(_ []Result)               {}
