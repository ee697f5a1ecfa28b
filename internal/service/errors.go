package service

// ValidationError reports bad client input. Its message is safe to return
// to the caller verbatim.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// invalidBecause attaches a domain sentinel so callers can match it with errors.Is.
func invalidBecause(cause error, msg string) error {
	return &ValidationError{Message: msg, Err: cause}
}
