package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// ─── Validator ───────────────────────────────────────────────────────────────

func TestValidator_AliveSingleRoundTrip(t *testing.T) {
	conn := &fakeConn{}
	v := Validator{}

	if err := v.Validate(context.Background(), conn); err != nil {
		t.Fatalf("Validate on live connection: %v", err)
	}
	if conn.execCount != 1 {
		t.Errorf("round trips = %d, want exactly 1", conn.execCount)
	}
}

func TestValidator_StaleClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"admin shutdown SQLSTATE", &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"}},
		{"connection failure SQLSTATE", &pgconn.PgError{Code: "08006", Message: "connection failure"}},
		{"socket reset message", errors.New("read tcp 10.0.0.5:51712->10.0.0.9:5432: read: connection reset by peer")},
		{"unexpected EOF", fmt.Errorf("reading response: %w", io.ErrUnexpectedEOF)},
		{"broken pipe errno", fmt.Errorf("write: %w", syscall.EPIPE)},
		{"server closed message", errors.New("FATAL: the server closed the connection unexpectedly")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := &fakeConn{execErr: tc.err}
			err := Validator{}.Validate(context.Background(), conn)
			if !errors.Is(err, ErrStaleConn) {
				t.Errorf("Validate() = %v, want ErrStaleConn", err)
			}
		})
	}
}

func TestValidator_GenuineErrorsNotMasked(t *testing.T) {
	cases := []struct {
		name string
		err  *pgconn.PgError
	}{
		{"permission denied", &pgconn.PgError{Code: "42501", Message: "permission denied for table sessions"}},
		// The message contains a transient marker word; the structured code
		// must win over any substring match.
		{"syntax error mentioning broken", &pgconn.PgError{Code: "42601", Message: `syntax error at or near "broken"`}},
		{"unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := &fakeConn{execErr: tc.err}
			err := Validator{}.Validate(context.Background(), conn)
			if errors.Is(err, ErrStaleConn) {
				t.Fatalf("genuine error misclassified as stale: %v", err)
			}
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) || pgErr.Code != tc.err.Code {
				t.Errorf("Validate() = %v, want original %v propagated unchanged", err, tc.err)
			}
		})
	}
}

// ─── IsTransient ─────────────────────────────────────────────────────────────

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection exception class", &pgconn.PgError{Code: "08000"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"query canceled is genuine", &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}, false},
		{"permission denied", &pgconn.PgError{Code: "42501"}, false},
		{"context deadline", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, false},
		{"closed pool message", errors.New("closed pool"), true},
		{"refused errno", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"plain eof", io.EOF, true},
		{"constraint message without code", errors.New("duplicate key value violates unique constraint"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
