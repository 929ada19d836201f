package domain

import "errors"

var (
	// ErrMissingQuery signals a request without a usable query.
	ErrMissingQuery = errors.New("no query provided")
	// ErrEmptyResponse signals that answering produced no text.
	ErrEmptyResponse = errors.New("no response generated")
	// ErrModelInvocation signals a language model call failure.
	ErrModelInvocation = errors.New("model invocation failed")
	// ErrSearchInvocation signals a web search call failure.
	ErrSearchInvocation = errors.New("search invocation failed")
	// ErrUnknownPeriod signals an unsupported usage report period.
	ErrUnknownPeriod = errors.New("unknown usage period")
)
