package models

import "errors"

// Pipeline error taxonomy. Everything below the monitor boundary resolves to
// a StatusRecord or one of these errors; nothing escapes a check cycle as a
// panic or transport fault.
var (
	// ErrInvalidInput marks a missing or malformed URL. Client error, no retry.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedCategory is returned when an operation does not apply to
	// the resolved media category (e.g. thumbnails for text files).
	ErrUnsupportedCategory = errors.New("unsupported media category")

	// ErrSourceUnreachable means the source did not respond to a reachability
	// check. Retried on the next cycle.
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrInvalidFormat means the source was reachable but its content failed
	// format validation (e.g. a bad HLS/DASH manifest).
	ErrInvalidFormat = errors.New("invalid media format")

	// ErrToolFailure wraps a non-zero exit, timeout or malformed output from
	// the external ffmpeg/ffprobe invocation.
	ErrToolFailure = errors.New("external tool failure")

	// ErrRetriesExhausted means the preview retry ceiling was reached; no
	// further generation attempts are made until an explicit reset.
	ErrRetriesExhausted = errors.New("preview retries exhausted")
)
