// Package embed provides clients for external embedding services.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// ErrPermanent marks embedding failures that retrying cannot fix (unknown
// model, rejected input). Transient failures (timeouts, connection resets)
// are anything not wrapping this.
var ErrPermanent = errors.New("permanent embedding error")

// ErrDimensionMismatch reports a vector whose length differs from the
// configured dimensionality. This is a configuration bug, never retried:
// the model and the collection vector size were chosen inconsistently.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder generates a fixed-length vector per text via an external service.
type Embedder interface {
	// Embed returns the embedding vector for text. The returned vector
	// always has exactly Dimensions() elements; a service response of any
	// other length fails with ErrDimensionMismatch.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the configured output dimensionality.
	Dimensions() int

	// ModelName returns the model identifier, which must match between
	// indexing and querying for meaningful scores.
	ModelName() string

	// Available reports whether the service is reachable.
	Available(ctx context.Context) bool

	// Close releases client resources.
	Close() error
}

// checkDimensions validates a service response vector against the configured
// dimensionality before it can reach the vector store.
func checkDimensions(vec []float32, want int) ([]float32, error) {
	if len(vec) != want {
		return nil, fmt.Errorf("service returned %d dimensions, configured for %d: %w",
			len(vec), want, errors.Join(ErrDimensionMismatch, ErrPermanent))
	}
	return vec, nil
}
