package postgres

import "errors"

// Sentinel errors for the connection layer. ErrStaleConn never escapes the
// Manager — it exists so the validator's classification can be branched on
// and tested. ErrPoolExhausted and ErrColdStart are what callers observe
// when recovery fails.
var (
	// ErrStaleConn marks a connection the remote has silently dropped
	// (provider-side auto-suspend, network reset). Recoverable by
	// discarding the connection and checking out a fresh one.
	ErrStaleConn = errors.New("postgres: stale connection")

	// ErrPoolExhausted means every checkout within the validation bound
	// came back stale. The pool as a whole is suspect and must be rebuilt.
	ErrPoolExhausted = errors.New("postgres: all pooled connections stale")

	// ErrColdStart means the database stayed unreachable through the whole
	// rebuild budget. The remote may still be resuming from suspend; the
	// operation can be retried shortly.
	ErrColdStart = errors.New("postgres: database unreachable (it may still be waking from suspend, retry shortly)")
)
