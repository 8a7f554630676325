package domain

import "errors"

var (
	// ErrNotFound signals a missing inquiry record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrVectorDimMismatch signals a vector dimension mismatch between the embedder and the index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLanguageModelError signals a language model invocation failure.
	ErrLanguageModelError = errors.New("language model error")
	// ErrMalformedOutput signals model output that does not match the structured result shape.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrIndexUnavailable signals that the vector index cannot be queried.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
