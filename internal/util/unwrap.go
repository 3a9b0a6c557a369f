package util

// Unwrap strips stack trace wrappers (github.com/facebookgo/stackerr) from err.
// Useful for messages shown to user, where stack trace is just noise.
func Unwrap(err error) error {
	type hasUnderlying interface {
		Underlying() error
	}
	for {
		eh, ok := err.(hasUnderlying)
		if !ok {
			return err
		}
		err = eh.Underlying()
	}
}
