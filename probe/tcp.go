package probe

import (
	"context"
	"net"
)

// TCPChecker is ready once a TCP connection to host:port succeeds.
type TCPChecker struct {
	Dialer *net.Dialer
}

// NewTCPChecker returns a TCPChecker with a default dialer.
func NewTCPChecker() *TCPChecker {
	return &TCPChecker{Dialer: &net.Dialer{}}
}

// Check dials target and closes the connection right away.
func (c *TCPChecker) Check(ctx context.Context, target string) error {
	conn, err := c.Dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return err
	}
	return conn.Close()
}
