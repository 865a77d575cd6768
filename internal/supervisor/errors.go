package supervisor

// busyError signals an evaluation round is already in flight (409 mapping).
type busyError struct{}

func (busyError) Error() string { return "evaluation already in progress" }

// ErrBusy returns the error for a round rejected because one is in flight.
func ErrBusy() error { return busyError{} }

// IsBusy reports whether err indicates a concurrent evaluation round.
func IsBusy(err error) bool {
	_, ok := err.(busyError)
	return ok
}

// noWorkingConfigError signals a round with zero successes. Recoverable:
// the previous production process, if any, is left running unchanged.
type noWorkingConfigError struct{}

func (noWorkingConfigError) Error() string { return "no working config found" }

// IsNoWorkingConfig reports whether err means a round had zero successes.
func IsNoWorkingConfig(err error) bool {
	_, ok := err.(noWorkingConfigError)
	return ok
}

// unknownConfigError signals a config name with no file in the directory.
type unknownConfigError struct{ name string }

func (e unknownConfigError) Error() string { return "config not found: " + e.name }

// IsUnknownConfig reports whether err names a config absent from the
// config directory.
func IsUnknownConfig(err error) bool {
	_, ok := err.(unknownConfigError)
	return ok
}

// startFailedError signals the child died (or could not launch) during the
// startup grace window.
type startFailedError struct {
	name string
	err  error
}

func (e startFailedError) Error() string {
	if e.err != nil {
		return "start " + e.name + ": " + e.err.Error()
	}
	return "start " + e.name + ": process died during startup grace"
}

func (e startFailedError) Unwrap() error { return e.err }

// IsStartFailed reports whether err means a production start attempt failed.
func IsStartFailed(err error) bool {
	_, ok := err.(startFailedError)
	return ok
}
