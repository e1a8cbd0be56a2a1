// Package errors provides the classified error type used across marksite.
//
// Fatal build failures (I/O, malformed fence languages, template failures) are
// ClassifiedErrors and bubble up to the orchestrator and the CLI. Per-document
// validation problems are not errors; they are collected in the build report.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "write page").
//		Fatal().
//		WithContext("path", outPath).
//		Build()
package errors
