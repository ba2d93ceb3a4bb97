package state

import (
	"testing"

	"github.com/doridoridoriand/upsman-go/internal/config"
	"github.com/doridoridoriand/upsman-go/internal/probe"
)

func newTestStore(windowSize int) *StoreImpl {
	return NewStore(map[int]config.SiteConfig{
		101: {Color: "biz-internet", UPS: "192.0.2.50", Outlet: 4},
	}, windowSize)
}

func TestStoreWindowSlides(t *testing.T) {
	store := newTestStore(3)

	store.Update(101, probe.OutcomeUp)
	store.Update(101, probe.OutcomeDown)

	site, ok := store.Site(101)
	if !ok {
		t.Fatalf("expected site 101")
	}
	if len(site.Window) != 3 {
		t.Fatalf("window must stay at size 3, got %d", len(site.Window))
	}
	want := []probe.Outcome{probe.OutcomeDown, probe.OutcomeUp, probe.OutcomeNone}
	for i, outcome := range want {
		if site.Window[i] != outcome {
			t.Fatalf("window[%d] = %q, want %q", i, site.Window[i], outcome)
		}
	}

	// A fourth insert evicts the oldest.
	store.Update(101, probe.OutcomeDown)
	store.Update(101, probe.OutcomeDown)
	site, _ = store.Site(101)
	if len(site.Window) != 3 || site.Window[2] != probe.OutcomeDown {
		t.Fatalf("unexpected window after eviction: %v", site.Window)
	}
}

func TestStoreConfirmedDownRequiresFullWindow(t *testing.T) {
	store := newTestStore(3)

	store.Update(101, probe.OutcomeDown)
	store.Update(101, probe.OutcomeDown)
	if store.ConfirmedDown(101) {
		t.Fatalf("neutral slot must defeat confirmation")
	}

	store.Update(101, probe.OutcomeDown)
	if !store.ConfirmedDown(101) {
		t.Fatalf("expected confirmed down after 3 consecutive DOWN")
	}
}

func TestStoreSingleNonDownDefeatsConfirmation(t *testing.T) {
	store := newTestStore(3)

	for _, outcome := range []probe.Outcome{probe.OutcomeDown, probe.OutcomePartial, probe.OutcomeDown} {
		store.Update(101, outcome)
	}
	if store.ConfirmedDown(101) {
		t.Fatalf("PARTIAL in window must defeat confirmation")
	}
	if got := store.DownCount(101); got != 2 {
		t.Fatalf("expected 2 down samples, got %d", got)
	}
}

func TestStoreReset(t *testing.T) {
	store := newTestStore(3)
	for i := 0; i < 3; i++ {
		store.Update(101, probe.OutcomeDown)
	}
	if !store.ConfirmedDown(101) {
		t.Fatalf("expected confirmed down before reset")
	}

	store.Reset(101)
	if store.ConfirmedDown(101) {
		t.Fatalf("reset must clear confirmation")
	}
	site, _ := store.Site(101)
	if len(site.Window) != 3 {
		t.Fatalf("reset must keep window size, got %d", len(site.Window))
	}
	if store.DownCount(101) != 0 {
		t.Fatalf("reset must clear down count")
	}
}

func TestStoreWindowSizeOne(t *testing.T) {
	store := newTestStore(1)
	if store.ConfirmedDown(101) {
		t.Fatalf("neutral single-slot window must not confirm")
	}
	store.Update(101, probe.OutcomeDown)
	if !store.ConfirmedDown(101) {
		t.Fatalf("single DOWN must confirm with count=1")
	}
}

func TestStoreDevicesAndRemediations(t *testing.T) {
	store := newTestStore(3)

	store.SetDevices(101, []string{"10.0.0.1", "10.0.0.2"})
	store.RecordRemediation(101)

	site, _ := store.Site(101)
	if len(site.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(site.Devices))
	}
	if site.Remediations != 1 || site.LastRemediation.IsZero() {
		t.Fatalf("remediation not recorded: %+v", site)
	}

	// Snapshot copies must not alias store internals.
	site.Devices[0] = "mutated"
	fresh, _ := store.Site(101)
	if fresh.Devices[0] != "10.0.0.1" {
		t.Fatalf("snapshot must be a copy")
	}
}

func TestStoreUnknownSiteIsNoop(t *testing.T) {
	store := newTestStore(3)
	store.Update(999, probe.OutcomeDown)
	store.Reset(999)
	if store.ConfirmedDown(999) {
		t.Fatalf("unknown site must never confirm")
	}
	if _, ok := store.Site(999); ok {
		t.Fatalf("unknown site must not exist")
	}
}

func TestStoreSiteIDsSorted(t *testing.T) {
	store := NewStore(map[int]config.SiteConfig{
		300: {Color: "mpls", UPS: "192.0.2.60", Outlet: 1},
		100: {Color: "mpls", UPS: "192.0.2.61", Outlet: 1},
		200: {Color: "mpls", UPS: "192.0.2.62", Outlet: 1},
	}, 2)

	ids := store.SiteIDs()
	want := []int{100, 200, 300}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("unexpected order: %v", ids)
		}
	}
}
