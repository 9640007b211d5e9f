package api

import "log/slog"

// ProviderBuilder is an interface for constructing a FailoverProxy.
type ProviderBuilder[C any] interface {
	// Build validates the node list and returns a ready FailoverProxy.
	// A missing or unresolvable node list is reported as a
	// *ConfigurationError.
	Build() (FailoverProxy[C], error)

	// WithConfig sets the failover configuration.
	// If not provided, a DefaultConfig will be used.
	WithConfig(*FailoverConfig) ProviderBuilder[C]

	// WithLogger sets a custom slog.Logger for the provider.
	// If not provided, a default logger based on the FailoverConfig's Log.Env
	// will be used.
	WithLogger(*slog.Logger) ProviderBuilder[C]

	// WithClassifier sets the error classifier used by the retry policy.
	// If not provided, a classifier that understands this package's error
	// types will be used.
	WithClassifier(ErrorClassifier) ProviderBuilder[C]

	// WithObserver sets an Observer notified of dials, failovers and
	// decisions.
	WithObserver(Observer) ProviderBuilder[C]
}
