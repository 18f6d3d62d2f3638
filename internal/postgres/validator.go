package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Validator proves a checked-out connection is usable before hand-off.
// It runs on every checkout, so the round-trip must stay trivial.
type Validator struct {
	// Timeout bounds the liveness round-trip. A dead connection must not
	// hold the checkout path for a full TCP timeout.
	Timeout time.Duration
}

// Validate runs one trivial round-trip on conn. It returns nil when the
// connection is live and an error wrapping ErrStaleConn when the failure is
// a transient connectivity fault. Every other failure — permission, syntax,
// constraint — is returned unchanged; genuine errors are never masked as
// staleness.
func (v Validator) Validate(ctx context.Context, conn Conn) error {
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}
	if _, err := conn.Exec(ctx, "SELECT 1"); err != nil {
		if IsTransient(err) {
			return fmt.Errorf("%w: %v", ErrStaleConn, err)
		}
		return err
	}
	return nil
}

// IsTransient reports whether err is a transient connectivity fault — the
// kind produced when the remote suspends, resets, or drops a connection —
// as opposed to a genuine query error. Structured SQLSTATE codes are
// consulted first; message-substring matching survives only as a fallback
// for errors that arrive without a code. This is the single classification
// point: no other code in the repository matches on error text.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception.
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		switch pgErr.Code {
		case "57P01", "57P02", "57P03": // admin_shutdown, crash_shutdown, cannot_connect_now
			return true
		}
		// A structured code that is not connection-related is genuine,
		// whatever the message text happens to contain.
		return false
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return hasTransientMarker(err.Error())
}

// transientMarkers are the message fragments drivers and proxies emit when a
// connection dies without a structured code attached.
var transientMarkers = []string{
	"connection reset",
	"broken pipe",
	"server closed the connection",
	"ssl connection has been closed",
	"terminating connection",
	"conn closed",
	"closed pool",
	"connection refused",
	"unexpected eof",
	"bad connection",
}

func hasTransientMarker(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
