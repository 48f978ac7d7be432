package netutil

import (
	"errors"
	"net"
	"syscall"
)

// ShouldRetry reports whether a transport error happened before the request
// reached the Telegram API, so resending it cannot duplicate a message.
// Timeouts after the request was written are not retried.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
