package reach

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

type stubChecker struct {
	result Result
	calls  int
}

func (s *stubChecker) Check(_ context.Context, _ string, _ time.Duration) Result {
	s.calls++
	return s.result
}

func TestChainUsesPrimaryOnSuccess(t *testing.T) {
	primary := &stubChecker{result: Result{Reachable: true, RTT: time.Millisecond}}
	secondary := &stubChecker{}
	c := &chain{primary: primary, secondary: secondary}

	result := c.Check(context.Background(), "192.0.2.50", time.Second)
	if !result.Reachable {
		t.Fatalf("expected reachable")
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary must not run when primary succeeds")
	}
}

func TestChainFallsBackOnPermissionError(t *testing.T) {
	primary := &stubChecker{result: Result{Err: os.ErrPermission}}
	secondary := &stubChecker{result: Result{Reachable: true}}
	c := &chain{primary: primary, secondary: secondary}

	result := c.Check(context.Background(), "192.0.2.50", time.Second)
	if !result.Reachable {
		t.Fatalf("expected fallback to succeed")
	}
	if secondary.calls != 1 {
		t.Fatalf("expected exactly one fallback call, got %d", secondary.calls)
	}
}

func TestChainKeepsNonPermissionErrors(t *testing.T) {
	wantErr := errors.New("host unreachable")
	primary := &stubChecker{result: Result{Err: wantErr}}
	secondary := &stubChecker{result: Result{Reachable: true}}
	c := &chain{primary: primary, secondary: secondary}

	result := c.Check(context.Background(), "192.0.2.50", time.Second)
	if result.Reachable {
		t.Fatalf("non-permission failures must not fall back")
	}
	if !errors.Is(result.Err, wantErr) {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary must not run")
	}
}

func TestIsPermissionError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{os.ErrPermission, true},
		{errors.New("listen ip4:icmp : operation not permitted"), true},
		{errors.New("no route to host"), false},
	}
	for _, tc := range cases {
		if got := isPermissionError(tc.err); got != tc.want {
			t.Fatalf("isPermissionError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestICMPCheckerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewICMPChecker().Check(ctx, "127.0.0.1", time.Second)
	if result.Reachable || result.Err == nil {
		t.Fatalf("cancelled context must fail fast: %+v", result)
	}
}

func TestParseRTT(t *testing.T) {
	out := []byte("64 bytes from 192.0.2.50: icmp_seq=1 ttl=64 time=12.3 ms")
	if got := parseRTT(out); got != 12300*time.Microsecond {
		t.Fatalf("parseRTT = %v", got)
	}
	if got := parseRTT([]byte("garbage")); got != 0 {
		t.Fatalf("expected 0 for unparsable output, got %v", got)
	}
}
