// Package remedy performs one remediation session: power-cycle a UPS outlet
// and confirm it came back on, within a fixed retry budget.
package remedy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/doridoridoriand/upsman-go/internal/ups"
)

const (
	maxAttempts  = 3
	settleDelay  = 5 * time.Second
	confirmDelay = 2 * time.Second
)

// Outlet is the slice of the UPS client the controller needs.
type Outlet interface {
	Authenticated() bool
	OutletState(ctx context.Context, outlet int) (bool, error)
	SwitchOutlet(ctx context.Context, outlet int, op ups.SwitchOp) error
}

// Status is the terminal state of a remediation session.
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Result summarizes one completed session.
type Result struct {
	SessionID uuid.UUID
	Status    Status
	Attempts  int
}

type phase int

const (
	phaseCheckInitial phase = iota
	phaseOffIfOn
	phaseWait
	phaseCheckRetry
	phaseOnIfOff
	phaseWaitConfirm
	phaseCheckConfirm
)

// Controller drives the power-cycle state machine for a single outlet.
type Controller struct {
	outlet       Outlet
	outletNumber int
	settleDelay  time.Duration
	confirmDelay time.Duration
	log          zerolog.Logger
}

// NewController builds a controller with the production delays.
func NewController(outlet Outlet, outletNumber int, log zerolog.Logger) *Controller {
	return &Controller{
		outlet:       outlet,
		outletNumber: outletNumber,
		settleDelay:  settleDelay,
		confirmDelay: confirmDelay,
		log:          log.With().Int("outlet", outletNumber).Logger(),
	}
}

// Run executes one session to completion. It never toggles an outlet
// without a valid session, and never makes a fourth attempt.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{SessionID: uuid.New(), Status: StatusFailed}
	log := c.log.With().Stringer("session", result.SessionID).Logger()

	if c.outlet == nil || !c.outlet.Authenticated() {
		log.Error().Msg("no valid UPS session, skipping power cycle")
		return result
	}

	log.Info().Msg("beginning power cycle")

	current := phaseCheckInitial
	attempt := 0
	on := false

	for {
		switch current {
		case phaseCheckInitial:
			on = c.queryState(ctx, log)
			current = phaseOffIfOn

		case phaseOffIfOn:
			if on {
				c.switchOutlet(ctx, log, ups.SwitchOff)
			}
			current = phaseWait

		case phaseWait:
			if attempt >= maxAttempts {
				log.Error().Int("attempts", attempt).Msg("outlet never confirmed on, giving up")
				return result
			}
			attempt++
			result.Attempts = attempt
			if err := c.sleep(ctx, c.settleDelay); err != nil {
				log.Warn().Msg("power cycle interrupted")
				return result
			}
			current = phaseCheckRetry

		case phaseCheckRetry:
			if on = c.queryState(ctx, log); on {
				current = phaseCheckConfirm
			} else {
				current = phaseOnIfOff
			}

		case phaseOnIfOff:
			c.switchOutlet(ctx, log, ups.SwitchOn)
			current = phaseWaitConfirm

		case phaseWaitConfirm:
			if err := c.sleep(ctx, c.confirmDelay); err != nil {
				log.Warn().Msg("power cycle interrupted")
				return result
			}
			on = c.queryState(ctx, log)
			current = phaseCheckConfirm

		case phaseCheckConfirm:
			if on {
				log.Info().Int("attempts", attempt).Msg("outlet confirmed on")
				result.Status = StatusSucceeded
				return result
			}
			current = phaseWait
		}
	}
}

// queryState degrades a failed query to "not observed on"; the retry budget
// bounds how often that can happen.
func (c *Controller) queryState(ctx context.Context, log zerolog.Logger) bool {
	on, err := c.outlet.OutletState(ctx, c.outletNumber)
	if err != nil {
		log.Warn().Err(err).Msg("failed to query outlet state")
		return false
	}
	return on
}

func (c *Controller) switchOutlet(ctx context.Context, log zerolog.Logger, op ups.SwitchOp) {
	if err := c.outlet.SwitchOutlet(ctx, c.outletNumber, op); err != nil {
		log.Warn().Err(err).Str("op", string(op)).Msg("failed to switch outlet")
	}
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
