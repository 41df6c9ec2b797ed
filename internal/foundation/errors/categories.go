package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryIntake represents raw symbol record ingestion errors.
	CategoryIntake ErrorCategory = "intake"

	// CategoryModel represents model assembly errors.
	CategoryModel ErrorCategory = "model"

	// CategoryRender represents renderer and cross-reference resolution errors.
	CategoryRender   ErrorCategory = "render"
	CategoryCrossRef ErrorCategory = "crossref"

	// CategoryStore represents run-history persistence errors.
	CategoryStore ErrorCategory = "store"

	// CategoryEvents represents event publishing errors.
	CategoryEvents ErrorCategory = "events"

	// CategoryFileSystem represents file read/write errors.
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryInternal represents programmer-level contract violations.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// RetryStrategy indicates how an error should be handled in retry scenarios.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"     // Permanent failure, don't retry
	RetryImmediate  RetryStrategy = "immediate" // Retry immediately
	RetryBackoff    RetryStrategy = "backoff"   // Retry with exponential backoff
	RetryUserAction RetryStrategy = "user"      // Requires user intervention
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines this context with another, with the other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil && other == nil {
		return nil
	}
	merged := make(ErrorContext, len(c)+len(other))
	maps.Copy(merged, c)
	maps.Copy(merged, other)
	return merged
}
