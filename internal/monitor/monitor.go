// Package monitor drives the polling loop: probe every device of every
// site, classify, feed the liveness windows and trigger remediation on a
// confirmed outage.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/doridoridoriand/upsman-go/internal/probe"
	"github.com/doridoridoriand/upsman-go/internal/remedy"
	"github.com/doridoridoriand/upsman-go/internal/state"
)

// PathSource fetches the raw BFD records for one device and color.
type PathSource interface {
	BFDState(ctx context.Context, deviceID, color string) ([]probe.Record, error)
}

// Remediator runs one complete power-cycle session against a UPS outlet.
type Remediator interface {
	PowerCycle(ctx context.Context, address string, outlet int) remedy.Result
}

// Monitor is the sequential poll loop. One goroutine, one site and device
// at a time; a remediation session blocks polling until it completes.
type Monitor struct {
	interval   time.Duration
	source     PathSource
	store      state.Store
	remediator Remediator
	log        zerolog.Logger
}

// New constructs a monitor over an already populated store.
func New(interval time.Duration, source PathSource, store state.Store, remediator Remediator, log zerolog.Logger) *Monitor {
	return &Monitor{
		interval:   interval,
		source:     source,
		store:      store,
		remediator: remediator,
		log:        log.With().Str("component", "monitor").Logger(),
	}
}

// Run polls until the context is cancelled and returns the cancellation
// cause.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		m.RunCycle(ctx)

		timer := time.NewTimer(m.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle performs one complete pass over all sites and devices.
func (m *Monitor) RunCycle(ctx context.Context) {
	m.log.Info().Msg("beginning health checks")

	// UPS addresses already power-cycled in this pass. Two sites sharing a
	// UPS must not cycle the same hardware twice in one cycle.
	cycled := make(map[string]bool)

	for _, siteID := range m.store.SiteIDs() {
		site, ok := m.store.Site(siteID)
		if !ok {
			continue
		}
		for _, device := range site.Devices {
			if ctx.Err() != nil {
				return
			}
			m.log.Debug().Int("site", siteID).Str("device", device).Msg("checking device")
			m.store.Update(siteID, m.probeDevice(ctx, device, site.Color))
			m.checkTrigger(ctx, siteID, cycled)
		}
		m.log.Info().
			Int("site", siteID).
			Int("down", m.store.DownCount(siteID)).
			Int("window", len(site.Window)).
			Msg("site status")
	}

	m.log.Info().Msg("health checks complete")
}

// probeDevice degrades any fetch failure to an UNKNOWN sample; a flaky
// controller API must never crash the loop or count as an outage.
func (m *Monitor) probeDevice(ctx context.Context, device, color string) probe.Outcome {
	records, err := m.source.BFDState(ctx, device, color)
	if err != nil {
		m.log.Warn().Err(err).Str("device", device).Str("color", color).Msg("failed to query BFD state")
		return probe.OutcomeUnknown
	}
	return probe.Classify(records, color)
}

// checkTrigger fires remediation on the first transition to confirmed-down
// and resets the window, so later devices in the same cycle cannot re-fire.
func (m *Monitor) checkTrigger(ctx context.Context, siteID int, cycled map[string]bool) {
	if ctx.Err() != nil || !m.store.ConfirmedDown(siteID) {
		return
	}
	site, ok := m.store.Site(siteID)
	if !ok {
		return
	}

	if cycled[site.UPS] {
		m.log.Warn().
			Int("site", siteID).
			Str("ups", site.UPS).
			Msg("UPS already power-cycled this pass, resetting window without a second cycle")
		m.store.Reset(siteID)
		return
	}
	cycled[site.UPS] = true

	m.log.Info().
		Int("site", siteID).
		Str("ups", site.UPS).
		Int("outlet", site.Outlet).
		Msg("confirmed outage, starting remediation")

	result := m.remediator.PowerCycle(ctx, site.UPS, site.Outlet)
	m.store.RecordRemediation(siteID)
	m.store.Reset(siteID)

	event := m.log.Info()
	if result.Status != remedy.StatusSucceeded {
		event = m.log.Error()
	}
	event.
		Int("site", siteID).
		Stringer("session", result.SessionID).
		Str("status", string(result.Status)).
		Int("attempts", result.Attempts).
		Msg("remediation finished")
}
