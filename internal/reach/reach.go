// Package reach answers one question before a remediation session starts:
// is the UPS management address reachable at all. Raw ICMP is used when the
// process has the privilege for it, the system ping binary otherwise.
package reach

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"time"
)

// Result captures a single reachability check.
type Result struct {
	RTT       time.Duration
	Reachable bool
	Err       error
}

// Checker performs a single reachability check against an address.
type Checker interface {
	Check(ctx context.Context, addr string, timeout time.Duration) Result
}

// chain delegates to primary, then secondary when permission errors occur.
type chain struct {
	primary   Checker
	secondary Checker
}

// NewChecker returns the default checker: raw ICMP with a system-ping
// fallback for unprivileged processes.
func NewChecker() Checker {
	return &chain{primary: NewICMPChecker(), secondary: NewSystemChecker()}
}

func (c *chain) Check(ctx context.Context, addr string, timeout time.Duration) Result {
	result := c.primary.Check(ctx, addr, timeout)
	if result.Reachable || !isPermissionError(result.Err) {
		return result
	}
	return c.secondary.Check(ctx, addr, timeout)
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") || strings.Contains(msg, "permission denied")
}
