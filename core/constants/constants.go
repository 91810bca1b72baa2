package constants

import "time"

const (
	DefaultTimeout = 30 * time.Second

	ContextTokenData = "token_data"

	ScopeTokenAccess = "access"
)

// Calendar providers
const (
	ProviderGoogle = "google"
)

const (
	DefaultCalendarID = "primary"

	// ForwardMatchMaxResults bounds the fallback title search window.
	ForwardMatchMaxResults     = 100
	ForwardMatchFallbackWindow = 7 * 24 * time.Hour

	ReverseSyncMaxResults = 250
)
