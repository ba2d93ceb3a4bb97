package remedy

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/doridoridoriand/upsman-go/internal/reach"
	"github.com/doridoridoriand/upsman-go/internal/ups"
)

const reachTimeout = 5 * time.Second

// Session is an Outlet that can establish its own authenticated session.
type Session interface {
	Outlet
	Authenticate(ctx context.Context) error
}

// Runner creates a fresh UPS session per remediation and runs the
// power-cycle controller against it.
type Runner struct {
	username  string
	password  string
	checker   reach.Checker
	newOutlet func(address string) Session
	log       zerolog.Logger
}

// NewRunner builds the production runner with UPS credentials from the
// environment.
func NewRunner(username, password string, log zerolog.Logger) *Runner {
	r := &Runner{
		username: username,
		password: password,
		checker:  reach.NewChecker(),
		log:      log,
	}
	r.newOutlet = func(address string) Session {
		return ups.NewClient(address, r.username, r.password, r.log)
	}
	return r
}

// PowerCycle runs one complete remediation session against the outlet at
// the given UPS address. All failures are reported, never raised: the
// monitor loop must keep running whatever happens here.
func (r *Runner) PowerCycle(ctx context.Context, address string, outlet int) Result {
	log := r.log.With().Str("ups", address).Int("outlet", outlet).Logger()

	if timedOut := r.precheck(ctx, log, address); timedOut {
		log.Error().Msg("UPS unreachable, skipping power cycle")
		return Result{SessionID: uuid.New(), Status: StatusFailed}
	}

	client := r.newOutlet(address)
	if err := client.Authenticate(ctx); err != nil {
		// The controller sees the unauthenticated client and no-ops.
		log.Error().Err(err).Msg("failed to authenticate to UPS")
	}

	return NewController(client, outlet, log).Run(ctx)
}

// precheck pings the UPS management address. Only a confirmed timeout
// aborts the session; an inconclusive check (no ping binary, no raw socket
// privilege) defers to the HTTP handshake, which is authoritative.
func (r *Runner) precheck(ctx context.Context, log zerolog.Logger, address string) bool {
	result := r.checker.Check(ctx, address, reachTimeout)
	if result.Reachable {
		log.Debug().Dur("rtt", result.RTT).Msg("UPS reachable")
		return false
	}
	if isTimeout(result.Err) {
		return true
	}
	log.Debug().Err(result.Err).Msg("reachability check inconclusive, continuing")
	return false
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
