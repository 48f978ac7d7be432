// Package tgerr classifies Telegram client errors for logs and keeps bot
// tokens out of error messages.
package tgerr

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ErrPanic marks errors produced from a recovered handler panic.
var ErrPanic = errors.New("telegram: handler panic")

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// Classify returns a short error class: timeout, dns, dial, tls, canceled,
// panic, http_4xx, http_5xx or unknown. A nil error yields "".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrPanic) {
		return "panic"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "timeout"
		}
		if opErr.Op == "dial" {
			return "dial"
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timeout"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	status := HTTPStatus(err)
	switch {
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// HTTPStatus extracts the Bot API status code carried by err, or 0.
func HTTPStatus(err error) int {
	if err == nil {
		return 0
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}
	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return http.StatusBadRequest
	}

	// telebot formats unknown API errors as "telegram: <description> (<code>)"
	msg := err.Error()
	open := strings.LastIndex(msg, "(")
	closing := strings.LastIndex(msg, ")")
	if open >= 0 && closing > open+1 {
		if code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : closing])); convErr == nil {
			return code
		}
	}
	return 0
}

// Redact returns err's message with any bot token replaced.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	return RedactString(err.Error())
}

// RedactString replaces "bot<id>:<secret>" sequences in s.
func RedactString(s string) string {
	return tokenRe.ReplaceAllString(s, "bot<redacted>")
}

type redactedError struct{ err error }

func (e redactedError) Error() string { return Redact(e.err) }
func (e redactedError) Unwrap() error { return e.err }

// Sanitize wraps err so its message never carries the bot token.
// errors.Is and errors.As still see the original error.
func Sanitize(err error) error {
	if err == nil {
		return nil
	}
	return redactedError{err: err}
}
