package llm

import (
	"context"
	"errors"
)

// Failure classes. A failed Response wraps exactly one of these in Err.
var (
	ErrNotConfigured     = errors.New("api key not configured")
	ErrInvalidCredential = errors.New("api key rejected")
	ErrTransport         = errors.New("remote request failed")
	ErrLoad              = errors.New("local model failed to load")
	ErrGeneration        = errors.New("local generation failed")
)

// User-facing reply texts.
const (
	TextNotConfigured = "Please set your OpenAI API key in the settings to enable AI-powered responses."
	TextInvalidKey    = "Your API key appears to be invalid. Please update it in the settings."
	TextRemoteTrouble = "I'm sorry, I'm having trouble processing your request at the moment. Please try again in a moment."
	TextLoadFailed    = "The offline model failed to load. Please check the log for more details or try the online mode."
	TextLocalTrouble  = "I encountered an issue while generating a response in offline mode. Please try again or switch to online mode."
	TextNoAnswer      = "I'm not sure how to answer that."
)

// Response is the normalized reply to one user message.
type Response struct {
	Text  string `json:"text"`
	Error bool   `json:"error"`

	// Err is the classified cause of a failed response. Not serialized.
	Err error `json:"-"`
}

// Backend answers a single user message. Implementations never return Go
// errors: every failure is folded into a Response with Error set.
type Backend interface {
	Name() string
	Generate(ctx context.Context, message string) Response
}

func success(text string) Response {
	return Response{Text: text}
}

func failure(text string, err error) Response {
	return Response{Text: text, Error: true, Err: err}
}

// Kind names the failure class of err for logs and notices.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrLoad):
		return "load"
	case errors.Is(err, ErrGeneration):
		return "generation"
	default:
		return "unknown"
	}
}
