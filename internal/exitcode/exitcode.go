package exitcode

// Exit codes for quest-buddy commands
const (
	Success       = 0
	Error         = 1
	ErrorResponse = 2   // the assistant answered with an error response
	Cancelled     = 130 // 128 + SIGINT
)

// ExitError is an error that carries a specific exit code
type ExitError struct {
	Code    int
	Message string
}

func (e ExitError) Error() string {
	return e.Message
}

// Convenience constructors
func Failed(msg string) ExitError { return ExitError{Code: ErrorResponse, Message: msg} }
func Cancel() ExitError           { return ExitError{Code: Cancelled, Message: "cancelled"} }
