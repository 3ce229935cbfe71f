// Package errors provides the classified error type used for fatal failures in apidoc.
//
// Recoverable problems found while transforming declarations (malformed comments,
// inheritance ties, missing declarations) are diagnostics, see internal/diag. Anything
// that stops a build is a ClassifiedError built with the fluent ErrorBuilder:
//
//	err := errors.InputError("cannot decode declaration graph").
//		WithContext("path", path).
//		WithCause(decodeErr).
//		Build()
package errors
