package reach

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const echoData = "upsman-go"

// ICMPChecker sends ICMP echo requests using raw sockets.
type ICMPChecker struct {
	id  int
	seq uint32
}

// NewICMPChecker initializes a checker with a process-scoped identifier.
func NewICMPChecker() *ICMPChecker {
	return &ICMPChecker{id: os.Getpid() & 0xffff}
}

// Check sends one ICMP echo request and waits for the reply.
func (c *ICMPChecker) Check(ctx context.Context, addr string, timeout time.Duration) Result {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}

	ip, err := net.ResolveIPAddr("ip", addr)
	if err != nil {
		return Result{Err: err}
	}
	if ip.IP == nil {
		return Result{Err: fmt.Errorf("invalid IP address: %s", addr)}
	}

	network, protocol, requestType, replyType := icmpSettings(ip.IP)
	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		return Result{Err: err}
	}
	defer conn.Close()

	seq := int(atomic.AddUint32(&c.seq, 1))
	msg := icmp.Message{
		Type: requestType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   c.id,
			Seq:  seq,
			Data: []byte(echoData),
		},
	}

	payload, err := msg.Marshal(nil)
	if err != nil {
		return Result{Err: err}
	}

	if err := conn.SetDeadline(effectiveDeadline(ctx, timeout)); err != nil {
		return Result{Err: err}
	}

	start := time.Now()
	if _, err := conn.WriteTo(payload, ip); err != nil {
		return Result{Err: err}
	}

	buf := make([]byte, 1500)
	for {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}

		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return Result{Err: fmt.Errorf("reachability check timeout: %w", err)}
			}
			return Result{Err: err}
		}
		if peer == nil {
			continue
		}

		reply, err := icmp.ParseMessage(protocol, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != replyType {
			continue
		}
		body, ok := reply.Body.(*icmp.Echo)
		if !ok {
			continue
		}
		if body.ID != c.id || body.Seq != seq {
			continue
		}

		return Result{Reachable: true, RTT: time.Since(start)}
	}
}

func icmpSettings(ip net.IP) (network string, protocol int, requestType, replyType icmp.Type) {
	if ip.To4() != nil {
		return "ip4:icmp", ipv4.ICMPTypeEcho.Protocol(), ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	}
	return "ip6:ipv6-icmp", ipv6.ICMPTypeEchoRequest.Protocol(), ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
}

func effectiveDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
