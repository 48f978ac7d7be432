package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route")}
	read := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("reset")}

	assert.False(t, ShouldRetry(nil))
	assert.True(t, ShouldRetry(dial))
	assert.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: dial}))
	assert.True(t, ShouldRetry(fmt.Errorf("wrap: %w", syscall.ECONNREFUSED)))
	assert.True(t, ShouldRetry(&net.DNSError{Err: "temporary", IsTemporary: true}))
	assert.False(t, ShouldRetry(&net.DNSError{Err: "no such host", IsNotFound: true}))
	assert.False(t, ShouldRetry(read))
	assert.False(t, ShouldRetry(context.DeadlineExceeded))
}
