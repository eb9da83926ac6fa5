// Package domain defines the storefront's core types and its failure taxonomy.
package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failure well enough for a caller to pick a
// message and decide whether retrying is safe.
type FailureKind string

const (
	// FailureAuthRequired means no session exists; the remote store was not called.
	FailureAuthRequired FailureKind = "auth_required"
	// FailureValidation means the request was rejected before or by the backend.
	FailureValidation FailureKind = "validation"
	// FailureNotFound means the target line or product is absent.
	FailureNotFound FailureKind = "not_found"
	// FailureConflict means server-side state changed underneath us (e.g. stock).
	FailureConflict FailureKind = "conflict"
	// FailureTransient means a network or server fault; the request may be retried.
	FailureTransient FailureKind = "transient"
	// FailurePermission means authenticated but not entitled.
	FailurePermission FailureKind = "permission"
)

// Failure is the structured error produced at the remote boundary. Call
// sites never re-derive meaning from message text.
type Failure struct {
	Kind    FailureKind
	Code    string
	Message string
}

func (f *Failure) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("%s (%s): %s", f.Kind, f.Code, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Is allows errors.Is matching on kind: errors.Is(err, &Failure{Kind: ...}).
func (f *Failure) Is(target error) bool {
	var t *Failure
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == f.Kind
}

// Retryable reports whether the operation is safe to retry as-is.
func (f *Failure) Retryable() bool {
	return f.Kind == FailureTransient
}

func NewFailure(kind FailureKind, code, message string) *Failure {
	return &Failure{Kind: kind, Code: code, Message: message}
}

// AsFailure unwraps err to a *Failure if one is in the chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}

// KindOf returns the failure kind in err's chain, or FailureTransient for
// unclassified errors: an unknown fault must never masquerade as a
// definitive rejection.
func KindOf(err error) FailureKind {
	if f, ok := AsFailure(err); ok {
		return f.Kind
	}
	return FailureTransient
}

func IsAuthRequired(err error) bool { return hasKind(err, FailureAuthRequired) }
func IsValidation(err error) bool   { return hasKind(err, FailureValidation) }
func IsNotFound(err error) bool     { return hasKind(err, FailureNotFound) }
func IsConflict(err error) bool     { return hasKind(err, FailureConflict) }
func IsTransient(err error) bool    { return hasKind(err, FailureTransient) }
func IsPermission(err error) bool   { return hasKind(err, FailurePermission) }

func hasKind(err error, kind FailureKind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}
