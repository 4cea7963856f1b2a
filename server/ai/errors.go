package ai

import "errors"

// TransientError marks a completion failure that may succeed on retry:
// timeouts, rate limits, server-side errors.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient completion error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a completion failure that retrying cannot fix:
// bad credentials, malformed requests, unknown models.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "permanent completion error: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
