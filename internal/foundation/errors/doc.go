// Package errors provides foundational, type-safe error primitives used across apidoc.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, intake, model, render, etc.)
//   - ErrorSeverity: Impact level (error, warning, info)
//   - RetryStrategy: Retry behavior (should-retry, no-retry, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryIntake, "record rejected").
//		WithSeverity(errors.SeverityWarning).
//		WithContext("origin", originPath).
//		Build()
package errors
