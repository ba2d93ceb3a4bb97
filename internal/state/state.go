package state

import (
	"time"

	"github.com/doridoridoriand/upsman-go/internal/probe"
)

// SiteStatus captures the current liveness window and remediation history
// for one site.
type SiteStatus struct {
	ID              int
	Color           string
	UPS             string
	Outlet          int
	Devices         []string
	Window          []probe.Outcome // newest-first, always len == window size
	Remediations    int
	LastRemediation time.Time
	LastUpdate      time.Time
}

// Store defines operations for tracking per-site liveness state.
type Store interface {
	Update(siteID int, outcome probe.Outcome)
	ConfirmedDown(siteID int) bool
	DownCount(siteID int) int
	Reset(siteID int)
	SetDevices(siteID int, devices []string)
	RecordRemediation(siteID int)
	Site(siteID int) (SiteStatus, bool)
	SiteIDs() []int
	Snapshot() []SiteStatus
}
