package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
// This makes error creation consistent and discoverable throughout the codebase.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError, // Default severity
		retry:    RetryNever,    // Default to no retry
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		cause:    err,
		context:  make(ErrorContext),
	}
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Retryable sets the retry strategy to backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	return b.WithRetry(RetryBackoff)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for common error patterns

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// IntakeError creates a record intake error.
func IntakeError(message string) *ErrorBuilder {
	return NewError(CategoryIntake, message).Warning()
}

// ModelError creates a model assembly error.
func ModelError(message string) *ErrorBuilder {
	return NewError(CategoryModel, message).Warning()
}

// RenderError creates a rendering error.
func RenderError(message string) *ErrorBuilder {
	return NewError(CategoryRender, message)
}

// StoreError creates a run-history persistence error (typically retryable).
func StoreError(message string) *ErrorBuilder {
	return NewError(CategoryStore, message).Retryable()
}

// EventsError creates an event publishing error (typically retryable).
func EventsError(message string) *ErrorBuilder {
	return NewError(CategoryEvents, message).Retryable()
}

// InternalError creates an internal contract-violation error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
