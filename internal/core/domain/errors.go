package domain

import "errors"

// Sentinels wrapped by every layer. Match them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = errors.New("unsupported type") // file format, backend or provider
)

// Retrieval.
var (
	// ErrIndexNotFitted means no rebuild has succeeded yet. Searches log it
	// and return no results.
	ErrIndexNotFitted = errors.New("index not fitted")

	// ErrEmbeddingFailure is a provider rejecting a request. A rebuild that
	// hits it leaves the dense index unfitted.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrEmbeddingUnavailable is a provider that is unset, unreachable or
	// overloaded.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// Conversation memory.
var (
	ErrSessionInactive = errors.New("session inactive")
	ErrPersistence     = errors.New("persistence failure")
)
