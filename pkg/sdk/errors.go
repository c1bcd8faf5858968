package fedsearch

import "github.com/kailas-cloud/fedsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrTimeout                = domain.ErrTimeout
	ErrStoreFailure           = domain.ErrStoreFailure
	ErrUnknownDriver          = domain.ErrUnknownDriver
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
