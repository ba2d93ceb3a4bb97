package state

import (
	"sort"
	"sync"
	"time"

	"github.com/doridoridoriand/upsman-go/internal/config"
	"github.com/doridoridoriand/upsman-go/internal/probe"
)

// StoreImpl is a thread-safe in-memory state store. The monitor loop is the
// only writer; the UI and metrics server read snapshots concurrently.
type StoreImpl struct {
	mu         sync.RWMutex
	sites      map[int]*SiteStatus
	windowSize int
}

// NewStore creates a store with one neutral window per configured site.
func NewStore(sites map[int]config.SiteConfig, windowSize int) *StoreImpl {
	if windowSize < 1 {
		windowSize = 1
	}
	store := &StoreImpl{
		sites:      make(map[int]*SiteStatus, len(sites)),
		windowSize: windowSize,
	}
	for id, site := range sites {
		store.sites[id] = &SiteStatus{
			ID:     id,
			Color:  site.Color,
			UPS:    site.UPS,
			Outlet: site.Outlet,
			Window: emptyWindow(windowSize),
		}
	}
	return store
}

// Update inserts outcome as the newest sample and evicts the oldest,
// keeping the window at exactly the configured size.
func (s *StoreImpl) Update(siteID int, outcome probe.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	site, ok := s.sites[siteID]
	if !ok {
		return
	}
	copy(site.Window[1:], site.Window[:len(site.Window)-1])
	site.Window[0] = outcome
	site.LastUpdate = time.Now()
}

// ConfirmedDown reports whether every sample in the window is DOWN. Neutral
// slots from startup or a recent reset defeat the condition, so a full
// window of consecutive DOWN cycles must re-accumulate after every reset.
func (s *StoreImpl) ConfirmedDown(siteID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, ok := s.sites[siteID]
	if !ok {
		return false
	}
	for _, outcome := range site.Window {
		if outcome != probe.OutcomeDown {
			return false
		}
	}
	return true
}

// DownCount returns the number of DOWN samples in the window. Reporting
// only; triggering uses ConfirmedDown.
func (s *StoreImpl) DownCount(siteID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, ok := s.sites[siteID]
	if !ok {
		return 0
	}
	count := 0
	for _, outcome := range site.Window {
		if outcome == probe.OutcomeDown {
			count++
		}
	}
	return count
}

// Reset refills the window with neutral slots.
func (s *StoreImpl) Reset(siteID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	site, ok := s.sites[siteID]
	if !ok {
		return
	}
	site.Window = emptyWindow(s.windowSize)
}

// SetDevices replaces the member device list for a site.
func (s *StoreImpl) SetDevices(siteID int, devices []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	site, ok := s.sites[siteID]
	if !ok {
		return
	}
	site.Devices = append([]string(nil), devices...)
}

// RecordRemediation bumps the remediation counters for a site.
func (s *StoreImpl) RecordRemediation(siteID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	site, ok := s.sites[siteID]
	if !ok {
		return
	}
	site.Remediations++
	site.LastRemediation = time.Now()
}

// Site returns a copy of a single site status.
func (s *StoreImpl) Site(siteID int) (SiteStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, ok := s.sites[siteID]
	if !ok {
		return SiteStatus{}, false
	}
	return copySiteStatus(site), true
}

// SiteIDs returns all site IDs in ascending order, giving the monitor a
// deterministic polling order.
func (s *StoreImpl) SiteIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.sites))
	for id := range s.sites {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Snapshot returns copies of all site states, ordered by site ID.
func (s *StoreImpl) Snapshot() []SiteStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.sites))
	for id := range s.sites {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := make([]SiteStatus, 0, len(ids))
	for _, id := range ids {
		result = append(result, copySiteStatus(s.sites[id]))
	}
	return result
}

func emptyWindow(size int) []probe.Outcome {
	return make([]probe.Outcome, size)
}

func copySiteStatus(source *SiteStatus) SiteStatus {
	clone := *source
	clone.Window = append([]probe.Outcome(nil), source.Window...)
	if len(source.Devices) > 0 {
		clone.Devices = append([]string(nil), source.Devices...)
	}
	return clone
}
