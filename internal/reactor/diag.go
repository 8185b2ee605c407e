package reactor

// diagLogger is the minimal logging surface this package depends on;
// diag.Logger satisfies it.
type diagLogger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}
